package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/SscSPs/estate_ledger/internal/adapters/audit"
	portsrepo "github.com/SscSPs/estate_ledger/internal/core/ports/repositories"
	"github.com/SscSPs/estate_ledger/internal/core/services"
	"github.com/SscSPs/estate_ledger/internal/handlers"
	"github.com/SscSPs/estate_ledger/internal/middleware"
	"github.com/SscSPs/estate_ledger/internal/platform/config"
	"github.com/SscSPs/estate_ledger/internal/repositories/database/pgsql"
	"github.com/SscSPs/estate_ledger/internal/repositories/memory"
	"github.com/SscSPs/estate_ledger/pkg/database"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func logLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)

	ctx := context.Background()

	var repos portsrepo.RepositoryProvider
	switch cfg.StorageDriver {
	case "memory":
		repos = memory.NewRepositoryProvider(memory.NewStore())
		logger.Warn("Using the in-memory store.")
	default:
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.DBOperationTimeout)
		if err != nil {
			logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer database.ClosePgxPool(dbPool)
		logger.Info("Database connection pool established.")

		logger.Info("Running database migrations...")
		if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
			os.Exit(1)
		}
		repos = pgsql.NewRepositoryProvider(dbPool, cfg.DBOperationTimeout)
	}

	var redisClient *redis.Client
	var auditSink portsrepo.AuditSink = audit.LogSink{}
	if cfg.RedisURL != "" {
		redisClient, err = audit.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()
		auditSink = audit.NewRedisStreamSink(redisClient, cfg.AuditStream)
		logger.Info("Audit events go to Redis stream", slog.String("stream", cfg.AuditStream))
	}

	serviceContainer := services.NewServiceContainer(repos,
		services.WithAuditSink(auditSink),
		services.WithLedgerSettings(services.LedgerSettings{
			CurrencyCode:        cfg.CurrencyCode,
			CurrencyScale:       cfg.CurrencyScale,
			SequenceMaxRetries:  cfg.SequenceMaxRetries,
			AccountNameFallback: cfg.AccountNameFallback,
		}),
	)

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.SetupValidator()

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimit, redisClient)
	if err != nil {
		logger.Error("Invalid RATE_LIMIT", slog.String("rate", cfg.RateLimit), slog.String("error", err.Error()))
		os.Exit(1)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: true,
	}))
	r.Use(middleware.RateLimit(rateLimiter))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
