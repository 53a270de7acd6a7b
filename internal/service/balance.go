package service

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"wallet-manager/internal/chain"
	"wallet-manager/internal/logger"
)

// BalanceSyncer keeps the directory's cached token balance in step with the
// ledger. It only ever mutates the cache, never the chain.
type BalanceSyncer struct {
	directory Directory
	ledger    Ledger
	decimals  int
}

// NewBalanceSyncer creates a balance synchronizer for a token with the
// given decimal exponent.
func NewBalanceSyncer(directory Directory, ledger Ledger, decimals int) *BalanceSyncer {
	return &BalanceSyncer{directory: directory, ledger: ledger, decimals: decimals}
}

// Sync refreshes the user's cached token balance from the ledger and
// returns the human-readable value. Must run after any operation that could
// have changed the wallet's on-chain balance, before that balance is used
// for an authorization decision.
func (s *BalanceSyncer) Sync(ctx context.Context, userID, address string) (float64, error) {
	raw, err := s.ledger.TokenBalance(ctx, address)
	if err != nil {
		return 0, upstreamErr("read token balance", err)
	}

	balance := chain.FromWei(raw, s.decimals)
	if err := s.directory.SetUserField(ctx, userID, fieldTokenBalance, chain.FormatAmount(balance)); err != nil {
		return 0, upstreamErr("cache token balance", err)
	}

	logger.Debug("Balance synced",
		zap.String("user_id", userID),
		zap.String("address", address),
		zap.Float64("balance", balance))
	return balance, nil
}

// Cached reads the last synced balance from the directory. The second
// return value reports whether a balance has ever been cached.
func (s *BalanceSyncer) Cached(ctx context.Context, userID string) (float64, bool, error) {
	value, found, err := s.directory.GetUserField(ctx, userID, fieldTokenBalance)
	if err != nil {
		return 0, false, upstreamErr("read cached balance", err)
	}
	if !found {
		return 0, false, nil
	}
	balance, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false, validationErr("corrupt cached balance %q for user %s", value, userID)
	}
	return balance, true, nil
}
