package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wallet-manager/internal/chain"
	"wallet-manager/internal/client/playfab"
	"wallet-manager/internal/client/vault"
	"wallet-manager/internal/config"
	"wallet-manager/internal/handlers"
	"wallet-manager/internal/logger"
	"wallet-manager/internal/server"
	"wallet-manager/internal/service"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}

	logger.InitLogger(cfg.Environment)
	defer logger.Sync() //nolint:errcheck

	if cfg.Environment == "production" || cfg.Environment == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	vaultClient, err := vault.NewClient(ctx)
	if err != nil {
		logger.Fatal("Unable to create vault client", zap.Error(err))
	}

	// The operator key funds gas top-ups and signs reward distributions.
	// Resolved through the vault with an env fallback for local runs.
	if cfg.OperatorPrivateKey == "" {
		key, err := vaultClient.GetSecretString(ctx, "OPERATOR_KEY_SECRET_ARN", "OPERATOR_PRIVATE_KEY")
		if err != nil {
			logger.Fatal("Unable to resolve operator private key", zap.Error(err))
		}
		cfg.OperatorPrivateKey = key
	}

	chainClient, err := chain.NewClient(
		cfg.RPCURL,
		cfg.ChainID,
		cfg.TokenContractAddress,
		cfg.OperatorPrivateKey,
		cfg.ConfirmTimeout,
	)
	if err != nil {
		logger.Fatal("Unable to create chain client", zap.Error(err))
	}
	defer chainClient.Close()

	playfabClient := playfab.NewClient(cfg.PlayFabBaseURL, cfg.PlayFabSecretKey, cfg.RequestTimeout)

	provisioner := service.NewProvisioner(playfabClient, vaultClient, cfg.SecretNamePrefix)
	balances := service.NewBalanceSyncer(playfabClient, chainClient, cfg.TokenDecimals)
	funding := service.NewFundingGuard(chainClient, cfg.GasTopUpThresholdWei, cfg.GasTopUpAmountWei, cfg.WaitForFundingTx)
	distributor := service.NewDistributor(playfabClient, chainClient, balances, cfg.DailyRewardPool, cfg.TokenDecimals)
	transfers := service.NewTransferExecutor(provisioner, balances, funding, chainClient, cfg.TokenDecimals)

	common := handlers.NewCommonServices(playfabClient, provisioner, balances, distributor, transfers)
	router := server.NewRouter(cfg, common)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Give outstanding requests a deadline for completion
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}
