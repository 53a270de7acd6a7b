package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wallet-manager/internal/logger"
)

// RewardsHandler handles reward distribution triggers
type RewardsHandler struct {
	common *CommonServices
}

// NewRewardsHandler creates a new RewardsHandler instance
func NewRewardsHandler(common *CommonServices) *RewardsHandler {
	return &RewardsHandler{common: common}
}

// DistributeRewardsRequest represents the request body for a distribution trigger
type DistributeRewardsRequest struct {
	SessionTicket string `json:"sessionTicket"`
}

// DistributeDailyRewards runs one reward distribution cycle over the
// current roster. Concurrent triggers share a single in-flight cycle.
func (h *RewardsHandler) DistributeDailyRewards(c *gin.Context) {
	var req DistributeRewardsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionTicket == "" {
		sendMessage(c, http.StatusBadRequest, "Session ticket is required")
		return
	}

	if _, ok := h.common.authenticate(c, req.SessionTicket); !ok {
		return
	}

	result, err := h.common.distributor.Distribute(c.Request.Context())
	if err != nil {
		sendServiceError(c, err, "Failed to distribute daily rewards")
		return
	}
	if result.Skipped {
		logger.Info("Distribution cycle skipped: empty or all-zero roster")
	} else {
		logger.Info("Distribution cycle complete",
			zap.String("tx_hash", result.TxHash),
			zap.Int("recipients", len(result.Payouts)))
	}

	sendMessage(c, http.StatusOK, "Daily rewards distributed successfully.")
}
