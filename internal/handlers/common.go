package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wallet-manager/internal/client/playfab"
	"wallet-manager/internal/logger"
	"wallet-manager/internal/service"
)

// CommonServices holds the shared dependencies used across handlers
type CommonServices struct {
	identity    service.Identity
	provisioner *service.Provisioner
	balances    *service.BalanceSyncer
	distributor *service.Distributor
	transfers   *service.TransferExecutor
}

// NewCommonServices creates a new instance of CommonServices
func NewCommonServices(
	identity service.Identity,
	provisioner *service.Provisioner,
	balances *service.BalanceSyncer,
	distributor *service.Distributor,
	transfers *service.TransferExecutor,
) *CommonServices {
	return &CommonServices{
		identity:    identity,
		provisioner: provisioner,
		balances:    balances,
		distributor: distributor,
		transfers:   transfers,
	}
}

// MessageResponse is the standard response body: every outcome, success or
// failure, carries a human-readable message. Private keys never appear here.
type MessageResponse struct {
	Message string `json:"message"`
}

// sendError logs the failure and sends a JSON error response
func sendError(c *gin.Context, statusCode int, message string, err error) {
	logger.Error(message,
		zap.Error(err),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
	)
	c.JSON(statusCode, MessageResponse{Message: message})
}

// sendServiceError translates a domain error into an HTTP response
func sendServiceError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		sendError(c, http.StatusBadRequest, "Invalid request", err)
	case errors.Is(err, service.ErrInsufficientFunds):
		sendError(c, http.StatusBadRequest, "Insufficient token balance", err)
	case errors.Is(err, service.ErrWalletNotFound):
		sendError(c, http.StatusNotFound, "Sender wallet not found", err)
	case errors.Is(err, service.ErrRecipientNotFound):
		sendError(c, http.StatusNotFound, "Recipient wallet not found", err)
	case errors.Is(err, service.ErrProvisioningInconsistency):
		sendError(c, http.StatusInternalServerError, "Wallet state is inconsistent, contact support", err)
	default:
		sendError(c, http.StatusInternalServerError, fallbackMsg, err)
	}
}

// sendMessage sends a success message
func sendMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, MessageResponse{Message: message})
}

// authenticate resolves a session ticket to a user id, writing the error
// response itself on failure. The second return value reports success.
func (s *CommonServices) authenticate(c *gin.Context, ticket string) (string, bool) {
	userID, err := s.identity.AuthenticateSessionTicket(c.Request.Context(), ticket)
	if err != nil {
		if errors.Is(err, playfab.ErrInvalidTicket) {
			sendError(c, http.StatusInternalServerError, "Authentication failed", err)
		} else {
			sendError(c, http.StatusInternalServerError, "Authentication service unavailable", err)
		}
		return "", false
	}
	return userID, true
}
