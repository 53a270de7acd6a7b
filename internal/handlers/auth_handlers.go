package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wallet-manager/internal/logger"
)

// AuthHandler handles player authentication and wallet provisioning
type AuthHandler struct {
	common *CommonServices
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(common *CommonServices) *AuthHandler {
	return &AuthHandler{common: common}
}

// AuthenticateRequest represents the request body for authentication
type AuthenticateRequest struct {
	SessionTicket string `json:"sessionTicket"`
}

// Authenticate validates the session ticket, provisions the player's wallet
// on first login, refreshes the cached balance and enrolls the player in
// the reward roster.
func (h *AuthHandler) Authenticate(c *gin.Context) {
	var req AuthenticateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionTicket == "" {
		sendMessage(c, http.StatusBadRequest, "Session ticket is required")
		return
	}

	userID, ok := h.common.authenticate(c, req.SessionTicket)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	address, err := h.common.provisioner.EnsureWallet(ctx, userID)
	if err != nil {
		sendServiceError(c, err, "Wallet provisioning failed")
		return
	}

	// A stale balance or roster entry self-heals on the next login; neither
	// failure should block the player from logging in.
	if _, err := h.common.balances.Sync(ctx, userID, address); err != nil {
		logger.Warn("Login balance sync failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}
	if err := h.common.distributor.Observe(ctx, userID, address); err != nil {
		logger.Warn("Reward roster update failed",
			zap.String("user_id", userID),
			zap.Error(err))
	}

	sendMessage(c, http.StatusOK,
		fmt.Sprintf("Authentication successful, Wallet address for the user: %s", address))
}
