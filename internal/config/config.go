package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting for the service. It is built once in
// main and passed by reference to the components that need it; nothing in
// this codebase reads configuration from the environment after startup.
type Config struct {
	// Server
	Port           string
	Environment    string
	AllowedOrigins []string
	RequestTimeout time.Duration

	// PlayFab identity provider
	PlayFabTitleID   string
	PlayFabSecretKey string
	PlayFabBaseURL   string

	// Ledger
	RPCURL               string
	ChainID              int64
	TokenContractAddress string
	TokenDecimals        int

	// Operator account. The key is resolved through the vault at startup
	// (env fallback) and must never be logged.
	OperatorPrivateKey string

	// Vault
	SecretNamePrefix string

	// Reward distribution
	DailyRewardPool float64

	// Gas funding
	GasTopUpThresholdWei *big.Int
	GasTopUpAmountWei    *big.Int
	WaitForFundingTx     bool

	// Transaction confirmation
	ConfirmTimeout time.Duration
}

const (
	defaultPort           = "3000"
	defaultTokenDecimals  = 18
	defaultRewardPool     = 100.0
	defaultRequestTimeout = 15 * time.Second
	defaultConfirmTimeout = 90 * time.Second

	// 0.0001 ether: below this the wallet cannot reliably pay fees.
	defaultGasThresholdWei = "100000000000000"
	// 0.001 ether: enough for a handful of token transfers.
	defaultGasTopUpWei = "1000000000000000"
)

// Load builds a Config from the process environment. Call godotenv.Load
// before this if a .env file should be honored.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                 envOrDefault("API_PORT", defaultPort),
		Environment:          envOrDefault("APP_ENV", "development"),
		AllowedOrigins:       splitAndTrim(os.Getenv("CORS_ALLOWED_ORIGINS")),
		RequestTimeout:       defaultRequestTimeout,
		PlayFabTitleID:       os.Getenv("PLAYFAB_TITLE_ID"),
		PlayFabSecretKey:     os.Getenv("PLAYFAB_SECRET_KEY"),
		PlayFabBaseURL:       os.Getenv("PLAYFAB_BASE_URL"),
		RPCURL:               os.Getenv("RPC_URL"),
		TokenContractAddress: os.Getenv("TOKEN_CONTRACT_ADDRESS"),
		TokenDecimals:        defaultTokenDecimals,
		OperatorPrivateKey:   os.Getenv("OPERATOR_PRIVATE_KEY"),
		SecretNamePrefix:     envOrDefault("SECRET_NAME_PREFIX", "wallet-manager"),
		DailyRewardPool:      defaultRewardPool,
		WaitForFundingTx:     envOrDefault("WAIT_FOR_FUNDING_TX", "true") == "true",
		ConfirmTimeout:       defaultConfirmTimeout,
	}

	if cfg.PlayFabBaseURL == "" && cfg.PlayFabTitleID != "" {
		cfg.PlayFabBaseURL = fmt.Sprintf("https://%s.playfabapi.com", cfg.PlayFabTitleID)
	}

	if v := os.Getenv("CHAIN_ID"); v != "" {
		chainID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid CHAIN_ID %q: %w", v, err)
		}
		cfg.ChainID = chainID
	}

	if v := os.Getenv("TOKEN_DECIMALS"); v != "" {
		decimals, err := strconv.Atoi(v)
		if err != nil || decimals < 0 || decimals > 36 {
			return nil, fmt.Errorf("invalid TOKEN_DECIMALS %q", v)
		}
		cfg.TokenDecimals = decimals
	}

	if v := os.Getenv("DAILY_REWARD_POOL"); v != "" {
		pool, err := strconv.ParseFloat(v, 64)
		if err != nil || pool <= 0 {
			return nil, fmt.Errorf("invalid DAILY_REWARD_POOL %q", v)
		}
		cfg.DailyRewardPool = pool
	}

	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT_SECONDS %q", v)
		}
		cfg.RequestTimeout = time.Duration(secs) * time.Second
	}

	var err error
	cfg.GasTopUpThresholdWei, err = weiFromEnv("GAS_TOPUP_THRESHOLD_WEI", defaultGasThresholdWei)
	if err != nil {
		return nil, err
	}
	cfg.GasTopUpAmountWei, err = weiFromEnv("GAS_TOPUP_AMOUNT_WEI", defaultGasTopUpWei)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports the first missing required setting. The operator key is
// checked separately because it may be injected from the vault after Load.
func (c *Config) Validate() error {
	switch {
	case c.PlayFabTitleID == "":
		return fmt.Errorf("PLAYFAB_TITLE_ID is required")
	case c.PlayFabSecretKey == "":
		return fmt.Errorf("PLAYFAB_SECRET_KEY is required")
	case c.RPCURL == "":
		return fmt.Errorf("RPC_URL is required")
	case c.ChainID == 0:
		return fmt.Errorf("CHAIN_ID is required")
	case c.TokenContractAddress == "":
		return fmt.Errorf("TOKEN_CONTRACT_ADDRESS is required")
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func weiFromEnv(key, fallback string) (*big.Int, error) {
	v := envOrDefault(key, fallback)
	amount, ok := new(big.Int).SetString(v, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q: expected a non-negative integer wei amount", key, v)
	}
	return amount, nil
}
