package service

import (
	"context"
	"math/big"

	"go.uber.org/zap"

	"wallet-manager/internal/logger"
)

// FundingGuard ensures a wallet holds enough native currency to pay gas
// before it originates a fee-paying transaction. Wallets below the
// threshold are topped up from the operator account.
type FundingGuard struct {
	ledger    Ledger
	threshold *big.Int
	topUp     *big.Int
	wait      bool
}

// NewFundingGuard creates a funding guard. Both amounts are in wei. When
// wait is true, EnsureGas blocks until the top-up is mined so the caller's
// next transaction is guaranteed to see the funds; when false the top-up
// runs detached and the caller proceeds on the assumption it lands first.
func NewFundingGuard(ledger Ledger, threshold, topUp *big.Int, wait bool) *FundingGuard {
	return &FundingGuard{ledger: ledger, threshold: threshold, topUp: topUp, wait: wait}
}

// EnsureGas tops up the wallet's native balance when it is below the
// threshold.
func (g *FundingGuard) EnsureGas(ctx context.Context, address string) error {
	balance, err := g.ledger.NativeBalance(ctx, address)
	if err != nil {
		return upstreamErr("read native balance", err)
	}
	if balance.Cmp(g.threshold) >= 0 {
		return nil
	}

	logger.Info("Topping up wallet gas",
		zap.String("address", address),
		zap.String("balance_wei", balance.String()),
		zap.String("top_up_wei", g.topUp.String()))

	if !g.wait {
		go g.topUpDetached(context.WithoutCancel(ctx), address)
		return nil
	}

	receipt, err := g.ledger.SendNative(ctx, address, g.topUp)
	if err != nil {
		return ledgerErr("fund wallet gas", err)
	}

	logger.Info("Gas top-up confirmed",
		zap.String("address", address),
		zap.String("tx_hash", receipt.TxHash))
	return nil
}

func (g *FundingGuard) topUpDetached(ctx context.Context, address string) {
	receipt, err := g.ledger.SendNative(ctx, address, g.topUp)
	if err != nil {
		logger.Error("Detached gas top-up failed",
			zap.String("address", address),
			zap.Error(err))
		return
	}
	logger.Info("Gas top-up confirmed",
		zap.String("address", address),
		zap.String("tx_hash", receipt.TxHash))
}
