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

	"natours/internal/config"
	"natours/internal/handlers"
	"natours/internal/middleware"
	"natours/internal/repositories/mongodb"
	"natours/internal/services"
	"natours/internal/utils"
	"natours/pkg/cache"
	"natours/pkg/database"
	"natours/pkg/email"
	"natours/pkg/logger"
	"natours/pkg/storage"
	"natours/routes"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.NewLogger(&logger.Config{
		Level:      logger.LogLevel(cfg.App.LogLevel),
		Format:     cfg.App.LogFormat,
		Output:     "stdout",
		TimeFormat: time.RFC3339,
		AppName:    cfg.App.Name,
		Version:    cfg.App.Version,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	// Database
	mongoDB, err := database.NewMongoDB(cfg.Database.Connection())
	if err != nil {
		appLogger.WithError(err).Fatal("failed to connect to database")
	}
	defer mongoDB.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), cfg.Database.MigrateTimeout)
	if err := database.NewMigrator(mongoDB.Database, appLogger).Up(migrateCtx); err != nil {
		cancelMigrate()
		appLogger.WithError(err).Fatal("failed to run migrations")
	}
	cancelMigrate()

	// Cache and rate-limit counters
	cacheService, closeCache := newCache(cfg, appLogger)
	defer closeCache()

	mailer := newMailer(cfg)

	photoStorage, err := newStorage(cfg)
	if err != nil {
		appLogger.WithError(err).Fatal("failed to initialise storage")
	}

	// Repositories
	tourRepo := mongodb.NewTourRepository(mongoDB.Database, cacheService, cfg.Redis.StatsTTL)
	userRepo := mongodb.NewUserRepository(mongoDB.Database, cacheService)
	reviewRepo := mongodb.NewReviewRepository(mongoDB.Database)

	// Services
	tokens := utils.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiresIn)
	authService := services.NewAuthService(userRepo, tokens, mailer, services.AuthConfig{
		BcryptCost:    cfg.Security.BcryptCost,
		ResetTokenTTL: cfg.Security.ResetTokenTTL,
	}, appLogger)
	tourService := services.NewTourService(tourRepo, appLogger)
	userService := services.NewUserService(userRepo, photoStorage, appLogger)
	reviewService := services.NewReviewService(reviewRepo, tourRepo, appLogger)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	err = routes.Setup(router, &routes.Dependencies{
		Config:  cfg,
		Logger:  appLogger,
		Counter: cacheService,
		Auth:    middleware.NewAuthMiddleware(authService),
		Handlers: routes.Handlers{
			Auth: handlers.NewAuthHandler(authService, handlers.CookieConfig{
				MaxAge: cfg.Security.JWTCookieExpiresIn,
				Secure: cfg.App.IsProduction(),
			}, cfg.App.BaseURL, appLogger),
			User:   handlers.NewUserHandler(userService),
			Tour:   handlers.NewTourHandler(tourService),
			Review: handlers.NewReviewHandler(reviewService),
			View:   handlers.NewViewHandler(tourService, appLogger),
			Health: handlers.NewHealthHandler(mongoDB, cfg.App.Version),
		},
	})
	if err != nil {
		appLogger.WithError(err).Fatal("failed to set up routes")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.WithFields(map[string]interface{}{
			"addr":        server.Addr,
			"environment": cfg.App.Environment,
		}).Info("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("server failed")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("error during server shutdown")
	}
}

// newCache returns the redis-backed cache when enabled and reachable,
// otherwise the in-process counter.
func newCache(cfg *config.Config, appLogger *logger.Logger) (services.CacheService, func()) {
	if !cfg.Redis.Enabled {
		return services.NewMemoryCache(), func() {}
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis.Client())
	if err != nil {
		appLogger.WithError(err).Warn("redis unavailable, falling back to in-memory counters")
		return services.NewMemoryCache(), func() {}
	}
	return services.NewCacheService(redisCache, appLogger), func() { _ = redisCache.Close() }
}

func newMailer(cfg *config.Config) email.Mailer {
	from := email.Sender{Email: cfg.Mail.FromEmail, Name: cfg.Mail.FromName}
	if cfg.Mail.Provider == "resend" {
		return email.NewResendMailer(cfg.Mail.ResendAPIKey, from)
	}
	return email.NewSMTPMailer(&email.SMTPConfig{
		Host:     cfg.Mail.SMTPHost,
		Port:     cfg.Mail.SMTPPort,
		Username: cfg.Mail.SMTPUsername,
		Password: cfg.Mail.SMTPPassword,
	}, from)
}

func newStorage(cfg *config.Config) (storage.StorageProvider, error) {
	if cfg.Storage.UsesS3() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewAWSS3Storage(ctx, storage.S3Config{
			Region:    cfg.Storage.AWS.Region,
			Bucket:    cfg.Storage.AWS.Bucket,
			Prefix:    cfg.Storage.AWS.Prefix,
			CDNDomain: cfg.Storage.AWS.CDNDomain,
		})
	}
	return storage.NewLocalStorage(cfg.Storage.Local.BasePath, cfg.Storage.Local.BaseURL)
}
