package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ikkim/reviewfunnel-backend/config"
	"github.com/ikkim/reviewfunnel-backend/internal/app/controller"
	"github.com/ikkim/reviewfunnel-backend/internal/app/repository"
	"github.com/ikkim/reviewfunnel-backend/internal/app/service"
	"github.com/ikkim/reviewfunnel-backend/internal/db"
	"github.com/ikkim/reviewfunnel-backend/internal/middleware"
	"github.com/ikkim/reviewfunnel-backend/internal/mirror"
	"github.com/ikkim/reviewfunnel-backend/internal/places"
	"github.com/ikkim/reviewfunnel-backend/internal/reviewflow"
	"github.com/ikkim/reviewfunnel-backend/internal/router"
	"github.com/ikkim/reviewfunnel-backend/internal/scheduler"
	"github.com/ikkim/reviewfunnel-backend/internal/snapshot"
	"github.com/ikkim/reviewfunnel-backend/internal/storage"
	"github.com/ikkim/reviewfunnel-backend/internal/tenant"
	livefeed "github.com/ikkim/reviewfunnel-backend/internal/websocket"
	"github.com/ikkim/reviewfunnel-backend/pkg/logger"
	"github.com/ikkim/reviewfunnel-backend/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	logFormat := "json"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
		logFormat = "console"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: true,
	})

	logger.Info("Starting review funnel server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Redis (optional): tenant cache, token blacklist, review sessions
	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		if err := redis.Init(&cfg.Redis); err != nil {
			logger.Warn("Redis unavailable, continuing without it", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			redisClient = redis.GetClient()
		}
	}
	defer func() {
		if err := redis.Close(); err != nil {
			logger.Error("Failed to close Redis connection", err)
		}
	}()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	businessRepo := repository.NewBusinessRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())

	// Tenant configuration
	var provider tenant.Provider = tenant.NewDBProvider(businessRepo, cfg.App.GoogleReviewBaseURL)
	if redisClient != nil {
		provider = tenant.NewCachedProvider(provider, redisClient, cfg.App.TenantCacheTTL)
	}
	staticTenants := tenant.NewStaticProvider(nil)
	tenantService := service.NewTenantService(provider, staticTenants)

	// Tenant snapshot, uploaded to S3 when a bucket is configured
	var objectStore snapshot.ObjectStore
	if cfg.S3.Bucket != "" {
		objectStore = storage.NewS3Storage(cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
	}
	publisher := snapshot.NewPublisher(businessRepo, objectStore, cfg.S3.SnapshotKey, staticTenants, cfg.App.GoogleReviewBaseURL)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	if err := publisher.Load(loadCtx); err != nil {
		logger.Warn("Failed to load tenant snapshot", map[string]interface{}{
			"error": err.Error(),
		})
	}
	cancelLoad()
	publisher.PublishAsync()

	snapshotScheduler := scheduler.NewSnapshotScheduler(cfg.App.SnapshotCron, publisher)
	if err := snapshotScheduler.Start(); err != nil {
		logger.Error("Failed to start snapshot scheduler", err)
	} else {
		defer snapshotScheduler.Stop()
	}

	// Background workers
	dispatcher := mirror.NewDispatcher(cfg.Mirror.Workers, cfg.Mirror.QueueSize, cfg.Mirror.Timeout)
	dispatcher.Start()
	defer dispatcher.Stop()

	hub := livefeed.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize services
	var revoker service.TokenRevoker
	if redisClient != nil {
		revoker = redis.NewTokenBlacklist(redisClient)
	}
	authService := service.NewAuthService(userRepo, revoker, cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	insightsService := service.NewInsightsService(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL)
	businessService := service.NewBusinessService(businessRepo, userRepo, tenantService, publisher, cfg.App.BaseDomain)
	reviewService := service.NewReviewService(reviewRepo, businessRepo, insightsService, dispatcher, hub)

	var flowStore reviewflow.Store = reviewflow.NewMemoryStore(reviewflow.DefaultSessionTTL)
	if redisClient != nil {
		flowStore = reviewflow.NewRedisStore(redisClient, reviewflow.DefaultSessionTTL)
	}

	// Initialize controllers
	authController := controller.NewAuthController(authService, cfg.Cookie.Name, cfg.Cookie.Secure)
	businessController := controller.NewBusinessController(businessService, tenantService)
	reviewController := controller.NewReviewController(reviewService)
	liveController := controller.NewLiveController(businessService, hub, cfg.CORS.AllowedOrigins)
	flowController := controller.NewFlowController(tenantService, reviewService, flowStore, controller.FlowSettings{
		Debounce:     cfg.App.ReturnDebounce,
		PendingTTL:   cfg.App.PendingReturnTTL,
		SessionTTL:   reviewflow.DefaultSessionTTL,
		BaseDomain:   cfg.App.BaseDomain,
		CookieSecure: cfg.Cookie.Secure,
	})
	toolController := controller.NewToolController(places.NewClient(cfg.Google.MapsAPIKey, places.DefaultBaseURL))
	pageController := controller.NewPageController(tenantService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService, cfg.Cookie.Name)

	// Setup router
	r := router.NewRouter(
		authController,
		businessController,
		reviewController,
		liveController,
		flowController,
		toolController,
		pageController,
		authMiddleware,
		cfg,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           r.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server started successfully", map[string]interface{}{
			"address": server.Addr,
			"pid":     os.Getpid(),
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", err)
	}

	logger.Info("Server stopped successfully")
}
