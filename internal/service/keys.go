package service

// Directory keys owned by this service. Per-user fields live in the user's
// read-only data; the roster lives in the title-wide store.
const (
	fieldWalletAddress    = "WalletAddress"
	fieldTokenBalance     = "TokenBalance"
	fieldPerformanceScore = "PerformanceScore"

	titleRewardRoster = "RewardRoster"
)
