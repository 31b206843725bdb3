// Package main runs the Lumière Atelier backend HTTP server with WebSocket
// support and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lumiere-atelier/backend/config"
	"github.com/lumiere-atelier/backend/internal/analytics"
	"github.com/lumiere-atelier/backend/internal/auth"
	"github.com/lumiere-atelier/backend/internal/cache"
	"github.com/lumiere-atelier/backend/internal/catalog"
	"github.com/lumiere-atelier/backend/internal/cms"
	"github.com/lumiere-atelier/backend/internal/middleware"
	"github.com/lumiere-atelier/backend/internal/realtime"
	"github.com/lumiere-atelier/backend/internal/voting"
	"github.com/lumiere-atelier/backend/internal/worker"
	"github.com/lumiere-atelier/backend/pkg/database"
	"github.com/lumiere-atelier/backend/pkg/queue"
	"github.com/lumiere-atelier/backend/pkg/redis"
	"github.com/lumiere-atelier/backend/pkg/response"
	"github.com/lumiere-atelier/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			MediaBucket:     cfg.AWS.MediaBucket,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// Voting
	votingRepo := voting.NewRepository(pool)
	votingHandler := voting.NewHandler(votingRepo, hub, logger)
	votingAdmin := voting.NewAdminHandler(votingRepo, s3Client, jobQueue, logger)

	// Catalog (CMS read-through cache)
	cmsClient := cms.NewClient(cfg.CMS.BaseURL, cfg.CMS.APIToken, time.Duration(cfg.CMS.TimeoutSec)*time.Second)
	cacheStore := cache.NewStore(rdb.Client, logger)
	catalogHandler := catalog.NewHandler(cmsClient, cacheStore,
		time.Duration(cfg.Cache.ListTTL)*time.Second,
		time.Duration(cfg.Cache.ItemTTL)*time.Second,
		logger)

	// Cache invalidation (CMS webhook + admin endpoint)
	invalidator := cache.NewInvalidator(cacheStore, logger)
	cacheHandler := cache.NewHandler(invalidator, cfg.Webhook.Secret, logger)

	// Analytics
	analyticsRepo := analytics.NewRepository(pool)
	analyticsHandler := analytics.NewHandler(analyticsRepo, votingRepo, jobQueue, logger)

	jwtValidate := func(token string) (userID, role string, err error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", middleware.JWT(jwtService), authHandler.Me)
	}

	// Catalog (public, cached)
	catalogGroup := router.Group("/catalog")
	{
		catalogGroup.GET("/gowns", catalogHandler.ListGowns)
		catalogGroup.GET("/gowns/:slug", catalogHandler.GetGown)
		catalogGroup.GET("/addons", catalogHandler.ListAddons)
		catalogGroup.GET("/collections", catalogHandler.ListCollections)
	}

	// Voting (public)
	votingGroup := router.Group("/voting")
	{
		votingGroup.GET("/active", votingHandler.GetActive)
		votingGroup.POST("/vote", votingHandler.SubmitVote)
		votingGroup.GET("/results/:eventId", votingHandler.GetResults)
	}

	// Analytics tracking (public, fire-and-forget)
	router.POST("/analytics/track", analyticsHandler.Track)

	// Webhooks (no JWT; HMAC signature validated in handler)
	router.POST("/webhooks/cms", cacheHandler.Webhook)

	// Admin API (JWT + admin role)
	admin := router.Group("/admin")
	admin.Use(middleware.JWT(jwtService), middleware.RequireRole("admin"))
	{
		admin.GET("/voting/events", votingAdmin.ListEvents)
		admin.POST("/voting/events", votingAdmin.CreateEvent)
		admin.GET("/voting/events/:id", votingAdmin.GetEvent)
		admin.PUT("/voting/events/:id", votingAdmin.UpdateEvent)
		admin.DELETE("/voting/events/:id", votingAdmin.DeleteEvent)
		admin.POST("/voting/events/:id/activate", votingAdmin.ActivateEvent)
		admin.DELETE("/voting/events/:id/activate", votingAdmin.DeactivateEvent)
		admin.GET("/voting/events/:id/results", votingHandler.GetResults)

		admin.GET("/voting/events/:id/options", votingAdmin.ListOptions)
		admin.POST("/voting/events/:id/options", votingAdmin.CreateOption)
		admin.PUT("/voting/events/:id/options/:optionId", votingAdmin.UpdateOption)
		admin.DELETE("/voting/events/:id/options/:optionId", votingAdmin.DeleteOption)
		admin.POST("/voting/events/:id/options/:optionId/images", votingAdmin.UploadOptionImage)
		admin.GET("/voting/events/:id/options/:optionId/image-url", votingAdmin.GetOptionImageURL)

		admin.POST("/cache/invalidate", cacheHandler.Invalidate)
		admin.GET("/analytics/summary", analyticsHandler.Summary)
	}

	// Live results dashboard (token in query; role checked in ServeWs)
	router.GET("/admin/voting/events/:id/live", realtime.ServeWs(hub, logger, jwtValidate))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process background worker (image cleanup, page-view ingest). Can
	// also run standalone via cmd/worker when scaled out.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	processor := worker.NewProcessor(analyticsRepo, s3Client, jobQueue, logger)
	go processor.Run(workerCtx)

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
