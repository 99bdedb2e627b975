package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"streamwear-backend/internal/common/cache"
	"streamwear-backend/internal/common/config"
	"streamwear-backend/internal/common/logger"
	"streamwear-backend/internal/common/middleware"
	"streamwear-backend/internal/features/alerts"
	alertsHTTP "streamwear-backend/internal/features/alerts/delivery/http"
	connectorRepo "streamwear-backend/internal/features/connector/repository/postgres"
	giveawayHTTP "streamwear-backend/internal/features/giveaway/delivery/http"
	giveawayRepo "streamwear-backend/internal/features/giveaway/repository/postgres"
	giveawayService "streamwear-backend/internal/features/giveaway/service"
	redemptionHTTP "streamwear-backend/internal/features/redemption/delivery/http"
	redemptionService "streamwear-backend/internal/features/redemption/service"
	"streamwear-backend/internal/features/roster"
	rosterHTTP "streamwear-backend/internal/features/roster/delivery/http"
	webhookHTTP "streamwear-backend/internal/features/webhook/delivery/http"
	webhookService "streamwear-backend/internal/features/webhook/service"
	"streamwear-backend/internal/notify"
	"streamwear-backend/internal/platform/postgres"
	"streamwear-backend/internal/platform/redis"
	"streamwear-backend/internal/platform/shopify"
)

// @title           Streamwear Giveaway API
// @version         1.0
// @description     Backend for streamer merch giveaways: Shopify order ingestion, giveaway runs, purchase alerts and prize redemption.

// @host      localhost:8080
// @BasePath  /api/v1

// @tag.name webhooks
// @tag.description Shopify webhook ingestion

// @tag.name giveaways
// @tag.description Giveaway runs - start, draw, participants

// @tag.name alerts
// @tag.description Purchase alert overlay

// @tag.name redemption
// @tag.description Winner prize redemption

func main() {
	cfg := config.Load()

	logger.Init("streamwear-backend", cfg.Debug, logger.FileConfig{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	logger.Info().Bool("debug", cfg.Debug).Msg("starting streamwear backend")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	postgresClient, err := postgres.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer postgresClient.Close()

	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(postgresClient.GetDB()); err != nil {
			logger.Fatal().Err(err).Msg("failed to run migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	redisClient, err := redis.Open(ctx, cfg.RedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	cacheService := cache.NewCacheService(redisClient)

	shopifyClient := shopify.NewClient(shopify.Options{
		StoreDomain:     cfg.Shopify.StoreDomain,
		AccessToken:     cfg.Shopify.AccessToken,
		StorefrontToken: cfg.Shopify.StorefrontToken,
		APIVersion:      cfg.Shopify.APIVersion,
		Timeout:         cfg.Shopify.Timeout,
		RateLimit:       cfg.Shopify.RateLimit,
	})

	mailer := notify.NewResendMailer(cfg.Email.ResendAPIKey, cfg.Email.From, cfg.Email.DashboardURL)

	connectorRepository := connectorRepo.NewConnectorRepository(postgresClient.GetDB())
	giveawayRepository := giveawayRepo.NewGiveawayRepository(postgresClient.GetDB())

	publisher := alerts.NewPublisher(redisClient, cfg.Alerts.TopicPrefix)

	giveawaySvc := giveawayService.NewGiveawayService(giveawayRepository, connectorRepository)
	webhookSvc := webhookService.NewWebhookService(
		shopifyClient, connectorRepository, giveawayRepository, publisher, mailer, cacheService)
	redemptionSvc := redemptionService.NewRedemptionService(
		giveawayRepository, connectorRepository, shopifyClient)

	rosterManager := roster.NewManager(giveawayRepository)
	feed := roster.NewFeed(postgresClient.DSN(), rosterManager)
	go func() {
		if err := feed.Run(ctx); err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("participant feed stopped")
		}
	}()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Authorization", "Accept"}
	router.Use(cors.New(corsConfig))

	setupRoutes(router, cfg, postgresClient, redisClient,
		webhookSvc, giveawaySvc, redemptionSvc, publisher, connectorRepository, rosterManager)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}
	logger.Info().Msg("server exited")
}

func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	postgresClient *postgres.Client,
	redisClient *redis.Client,
	webhookSvc *webhookService.WebhookService,
	giveawaySvc *giveawayService.GiveawayService,
	redemptionSvc *redemptionService.RedemptionService,
	publisher *alerts.Publisher,
	connectors *connectorRepo.ConnectorRepository,
	rosterManager *roster.Manager,
) {
	v1 := router.Group("/api/v1")

	webhookHTTP.NewWebhookHandler(webhookSvc, cfg.Shopify.WebhookSecret).RegisterRoutes(v1)
	giveawayHTTP.NewGiveawayHandler(giveawaySvc).RegisterRoutes(v1)
	redemptionHTTP.NewRedemptionHandler(redemptionSvc).RegisterRoutes(v1)
	alertsHTTP.NewAlertsHandler(publisher, connectors).RegisterRoutes(router, v1)
	rosterHTTP.NewRosterHandler(rosterManager).RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   "streamwear-backend",
		})
	})
	router.GET("/health/live", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/health/ready", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{"postgres": "ok", "redis": "ok"}
		status := http.StatusOK
		if err := postgresClient.HealthCheck(checkCtx); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		if err := redisClient.Ping(checkCtx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, checks)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
