package service

import (
	"context"
	"encoding/json"
	"math/big"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"wallet-manager/internal/chain"
	"wallet-manager/internal/logger"
)

// RosterEntry is one reward distribution participant.
type RosterEntry struct {
	UserID           string `json:"user_id"`
	WalletAddress    string `json:"wallet_address"`
	PerformanceScore int64  `json:"performance_score"`
}

// DistributionResult summarizes one distribution cycle.
type DistributionResult struct {
	Skipped bool
	TxHash  string
	// Payouts maps user id to the human-readable amount sent.
	Payouts map[string]float64
}

// Distributor computes proportional payouts over the roster and executes
// them as one batched on-chain transfer signed by the operator account.
// Concurrent triggers collapse into a single in-flight cycle.
type Distributor struct {
	directory Directory
	ledger    Ledger
	balances  *BalanceSyncer
	pool      float64
	decimals  int

	flight singleflight.Group
	// Serializes roster read-modify-write against concurrent Observe calls.
	rosterMu sync.Mutex
}

// NewDistributor creates a reward distributor paying out pool tokens per
// cycle.
func NewDistributor(directory Directory, ledger Ledger, balances *BalanceSyncer, pool float64, decimals int) *Distributor {
	return &Distributor{
		directory: directory,
		ledger:    ledger,
		balances:  balances,
		pool:      pool,
		decimals:  decimals,
	}
}

// Observe upserts the user into the reward roster, refreshing the
// performance score from the user directory (absent or malformed scores
// count as zero). Called from the authentication flow so the roster grows
// as players log in.
func (d *Distributor) Observe(ctx context.Context, userID, walletAddress string) error {
	score, err := d.performanceScore(ctx, userID)
	if err != nil {
		return err
	}

	d.rosterMu.Lock()
	defer d.rosterMu.Unlock()

	roster, err := d.loadRoster(ctx)
	if err != nil {
		return err
	}

	updated := false
	for i := range roster {
		if roster[i].UserID == userID {
			roster[i].WalletAddress = walletAddress
			roster[i].PerformanceScore = score
			updated = true
			break
		}
	}
	if !updated {
		roster = append(roster, RosterEntry{
			UserID:           userID,
			WalletAddress:    walletAddress,
			PerformanceScore: score,
		})
	}

	return d.saveRoster(ctx, roster)
}

// Distribute runs one reward cycle: read the roster, compute proportional
// shares, execute one batch transfer, then refresh every affected balance.
// A roster with zero total score is skipped without touching the ledger.
func (d *Distributor) Distribute(ctx context.Context) (*DistributionResult, error) {
	result, err, _ := d.flight.Do("distribute", func() (interface{}, error) {
		return d.distribute(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.(*DistributionResult), nil
}

func (d *Distributor) distribute(ctx context.Context) (*DistributionResult, error) {
	d.rosterMu.Lock()
	roster, err := d.loadRoster(ctx)
	d.rosterMu.Unlock()
	if err != nil {
		return nil, err
	}

	var totalScore int64
	for _, entry := range roster {
		totalScore += entry.PerformanceScore
	}
	if totalScore == 0 {
		logger.Info("Reward distribution skipped: no positive performance scores",
			zap.Int("roster_size", len(roster)))
		return &DistributionResult{Skipped: true}, nil
	}

	var (
		recipients []RosterEntry
		addresses  []string
		amounts    []*big.Int
		payouts    = make(map[string]float64)
	)
	for _, entry := range roster {
		share := float64(entry.PerformanceScore) / float64(totalScore) * d.pool
		wei := chain.ToWei(share, d.decimals)
		if wei.Sign() <= 0 {
			continue
		}
		recipients = append(recipients, entry)
		addresses = append(addresses, entry.WalletAddress)
		amounts = append(amounts, wei)
		payouts[entry.UserID] = share
	}
	if len(recipients) == 0 {
		return &DistributionResult{Skipped: true}, nil
	}

	receipt, err := d.ledger.BatchTransfer(ctx, addresses, amounts)
	if err != nil {
		return nil, ledgerErr("batch reward transfer", err)
	}

	logger.Info("Daily rewards distributed",
		zap.String("tx_hash", receipt.TxHash),
		zap.Int("recipients", len(recipients)),
		zap.Float64("pool", d.pool))

	// Refresh the affected balance mirrors. Failures here leave a stale
	// cache, not a broken cycle: log and move on.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(8)
	for _, entry := range recipients {
		entry := entry
		group.Go(func() error {
			if _, err := d.balances.Sync(groupCtx, entry.UserID, entry.WalletAddress); err != nil {
				logger.Warn("Post-distribution balance sync failed",
					zap.String("user_id", entry.UserID),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = group.Wait()

	return &DistributionResult{TxHash: receipt.TxHash, Payouts: payouts}, nil
}

func (d *Distributor) performanceScore(ctx context.Context, userID string) (int64, error) {
	value, found, err := d.directory.GetUserField(ctx, userID, fieldPerformanceScore)
	if err != nil {
		return 0, upstreamErr("read performance score", err)
	}
	if !found {
		return 0, nil
	}
	score, err := strconv.ParseInt(value, 10, 64)
	if err != nil || score < 0 {
		logger.Warn("Ignoring invalid performance score",
			zap.String("user_id", userID),
			zap.String("value", value))
		return 0, nil
	}
	return score, nil
}

func (d *Distributor) loadRoster(ctx context.Context) ([]RosterEntry, error) {
	value, found, err := d.directory.GetTitleField(ctx, titleRewardRoster)
	if err != nil {
		return nil, upstreamErr("read reward roster", err)
	}
	if !found {
		return nil, nil
	}
	var roster []RosterEntry
	if err := json.Unmarshal([]byte(value), &roster); err != nil {
		return nil, validationErr("corrupt reward roster: %v", err)
	}
	return roster, nil
}

func (d *Distributor) saveRoster(ctx context.Context, roster []RosterEntry) error {
	data, err := json.Marshal(roster)
	if err != nil {
		return validationErr("encode reward roster: %v", err)
	}
	if err := d.directory.SetTitleField(ctx, titleRewardRoster, string(data)); err != nil {
		return upstreamErr("write reward roster", err)
	}
	return nil
}
