package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"wallet-manager/internal/config"
	"wallet-manager/internal/handlers"
)

// NewRouter builds the gin engine with all middleware and routes wired.
func NewRouter(cfg *config.Config, common *handlers.CommonServices) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(configureCORS(cfg))
	router.Use(handlers.RequestLogger(cfg.Environment))

	authHandler := handlers.NewAuthHandler(common)
	transferHandler := handlers.NewTransferHandler(common)
	rewardsHandler := handlers.NewRewardsHandler(common)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/authenticate", authHandler.Authenticate)
	router.POST("/transferToken", transferHandler.TransferToken)
	router.POST("/distributedailyrewards", rewardsHandler.DistributeDailyRewards)

	return router
}

// configureCORS returns a configured CORS middleware
func configureCORS(cfg *config.Config) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()

	if len(cfg.AllowedOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}

	return cors.New(corsConfig)
}
