package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TransferHandler handles peer-to-peer token transfers
type TransferHandler struct {
	common *CommonServices
}

// NewTransferHandler creates a new TransferHandler instance
func NewTransferHandler(common *CommonServices) *TransferHandler {
	return &TransferHandler{common: common}
}

// TransferTokenRequest represents the request body for a token transfer
type TransferTokenRequest struct {
	SessionTicket   string  `json:"sessionTicket"`
	RecipientUserID string  `json:"recipientUserId"`
	Amount          float64 `json:"amount"`
}

// TransferToken authenticates the sender and moves tokens from the sender's
// wallet to the recipient's. Both parties must have authenticated at least
// once; recipient wallets are never created here.
func (h *TransferHandler) TransferToken(c *gin.Context) {
	var req TransferTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.SessionTicket == "" || req.RecipientUserID == "" || req.Amount == 0 {
		sendMessage(c, http.StatusBadRequest, "sessionTicket, recipientUserId and amount are required")
		return
	}

	senderID, ok := h.common.authenticate(c, req.SessionTicket)
	if !ok {
		return
	}

	_, err := h.common.transfers.Transfer(c.Request.Context(), senderID, req.RecipientUserID, req.Amount)
	if err != nil {
		sendServiceError(c, err, "Token transfer failed")
		return
	}

	sendMessage(c, http.StatusOK, "Token transfer successful")
}
