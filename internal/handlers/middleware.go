package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wallet-manager/internal/logger"
)

// Request body fields that must never reach the logs.
var redactedFields = map[string]bool{
	"sessionTicket": true,
	"privateKey":    true,
}

// RequestLogger tags every request with a request id and logs method, path,
// status and duration. Outside production it also logs the request body
// with credential fields redacted.
func RequestLogger(environment string) gin.HandlerFunc {
	logBodies := environment != "production" && environment != "release"

	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("client_ip", c.ClientIP()),
		}

		if logBodies && c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err == nil {
				c.Request.Body = io.NopCloser(bytes.NewReader(body))
				fields = append(fields, zap.String("body", redactBody(body)))
			}
		}

		logger.Debug("Request received", fields...)

		c.Next()

		logger.Info("Request completed",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func redactBody(body []byte) string {
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "<non-json body>"
	}
	for field := range parsed {
		if redactedFields[field] {
			parsed[field] = "<redacted>"
		}
	}
	redacted, err := json.Marshal(parsed)
	if err != nil {
		return "<unloggable body>"
	}
	return string(redacted)
}
