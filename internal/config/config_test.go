package config_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet-manager/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PLAYFAB_TITLE_ID", "AB12")
	t.Setenv("PLAYFAB_SECRET_KEY", "secret")
	t.Setenv("RPC_URL", "https://rpc.example.com")
	t.Setenv("CHAIN_ID", "80002")
	t.Setenv("TOKEN_CONTRACT_ADDRESS", "0x3333333333333333333333333333333333333333")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 18, cfg.TokenDecimals)
	assert.Equal(t, 100.0, cfg.DailyRewardPool)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 90*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, "wallet-manager", cfg.SecretNamePrefix)
	assert.True(t, cfg.WaitForFundingTx)

	threshold, _ := new(big.Int).SetString("100000000000000", 10)
	topUp, _ := new(big.Int).SetString("1000000000000000", 10)
	assert.Zero(t, threshold.Cmp(cfg.GasTopUpThresholdWei))
	assert.Zero(t, topUp.Cmp(cfg.GasTopUpAmountWei))
}

func TestLoadDerivesPlayFabBaseURL(t *testing.T) {
	setRequired(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://AB12.playfabapi.com", cfg.PlayFabBaseURL)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("API_PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://game.example.com, https://admin.example.com")
	t.Setenv("PLAYFAB_BASE_URL", "https://playfab.example.com")
	t.Setenv("TOKEN_DECIMALS", "6")
	t.Setenv("DAILY_REWARD_POOL", "250.5")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "30")
	t.Setenv("GAS_TOPUP_THRESHOLD_WEI", "42")
	t.Setenv("GAS_TOPUP_AMOUNT_WEI", "84")
	t.Setenv("WAIT_FOR_FUNDING_TX", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, []string{"https://game.example.com", "https://admin.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "https://playfab.example.com", cfg.PlayFabBaseURL)
	assert.Equal(t, 6, cfg.TokenDecimals)
	assert.Equal(t, 250.5, cfg.DailyRewardPool)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Zero(t, big.NewInt(42).Cmp(cfg.GasTopUpThresholdWei))
	assert.Zero(t, big.NewInt(84).Cmp(cfg.GasTopUpAmountWei))
	assert.False(t, cfg.WaitForFundingTx)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "chain id", key: "CHAIN_ID", value: "not-a-number"},
		{name: "decimals", key: "TOKEN_DECIMALS", value: "99"},
		{name: "pool", key: "DAILY_REWARD_POOL", value: "-10"},
		{name: "timeout", key: "REQUEST_TIMEOUT_SECONDS", value: "0"},
		{name: "gas threshold", key: "GAS_TOPUP_THRESHOLD_WEI", value: "1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateRequiredSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "title id", mutate: func(c *config.Config) { c.PlayFabTitleID = "" }},
		{name: "secret key", mutate: func(c *config.Config) { c.PlayFabSecretKey = "" }},
		{name: "rpc url", mutate: func(c *config.Config) { c.RPCURL = "" }},
		{name: "chain id", mutate: func(c *config.Config) { c.ChainID = 0 }},
		{name: "token contract", mutate: func(c *config.Config) { c.TokenContractAddress = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			cfg, err := config.Load()
			require.NoError(t, err)

			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
