package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wallet-manager/internal/chain"
	"wallet-manager/internal/logger"
)

// TransferExecutor validates and executes a single peer-to-peer token
// transfer between two provisioned wallets. It is the only path that moves
// value between end-user wallets and it always signs with the sender's key,
// never the operator's.
type TransferExecutor struct {
	provisioner *Provisioner
	balances    *BalanceSyncer
	funding     *FundingGuard
	ledger      Ledger
	decimals    int
}

// NewTransferExecutor creates a transfer executor.
func NewTransferExecutor(provisioner *Provisioner, balances *BalanceSyncer, funding *FundingGuard, ledger Ledger, decimals int) *TransferExecutor {
	return &TransferExecutor{
		provisioner: provisioner,
		balances:    balances,
		funding:     funding,
		ledger:      ledger,
		decimals:    decimals,
	}
}

// Transfer moves amount tokens from the sender to the recipient:
// resolve sender wallet and key, re-sync and check the sender's balance,
// resolve the recipient (never auto-provisioned), ensure gas, submit, and
// refresh the affected balance mirrors once confirmed.
func (t *TransferExecutor) Transfer(ctx context.Context, senderUserID, recipientUserID string, amount float64) (*chain.Receipt, error) {
	if amount <= 0 {
		return nil, validationErr("transfer amount must be positive, got %v", amount)
	}
	if recipientUserID == "" {
		return nil, validationErr("recipient user id is required")
	}

	senderAddr, senderKey, err := t.provisioner.ResolveSigner(ctx, senderUserID)
	if err != nil {
		return nil, err
	}

	// The affordability check runs against the cache, so refresh it first
	// to shrink the staleness window.
	balance, err := t.balances.Sync(ctx, senderUserID, senderAddr)
	if err != nil {
		return nil, err
	}
	if amount > balance {
		return nil, fmt.Errorf("%w: requested %v, balance %v", ErrInsufficientFunds, amount, balance)
	}

	recipientAddr, err := t.provisioner.ResolveWallet(ctx, recipientUserID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrRecipientNotFound, recipientUserID)
		}
		return nil, err
	}

	if err := t.funding.EnsureGas(ctx, senderAddr); err != nil {
		return nil, err
	}

	receipt, err := t.ledger.Transfer(ctx, senderKey, recipientAddr, chain.ToWei(amount, t.decimals))
	if err != nil {
		return nil, ledgerErr("token transfer", err)
	}

	logger.Info("Token transfer confirmed",
		zap.String("sender", senderUserID),
		zap.String("recipient", recipientUserID),
		zap.Float64("amount", amount),
		zap.String("tx_hash", receipt.TxHash))

	if _, err := t.balances.Sync(ctx, senderUserID, senderAddr); err != nil {
		logger.Warn("Post-transfer sender balance sync failed",
			zap.String("user_id", senderUserID),
			zap.Error(err))
	}
	if _, err := t.balances.Sync(ctx, recipientUserID, recipientAddr); err != nil {
		logger.Warn("Post-transfer recipient balance sync failed",
			zap.String("user_id", recipientUserID),
			zap.Error(err))
	}

	return receipt, nil
}
