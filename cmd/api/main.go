package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pageza/fusion-kitchen/backend/config"
	"github.com/pageza/fusion-kitchen/backend/internal/api"
	"github.com/pageza/fusion-kitchen/backend/internal/database"
	"github.com/pageza/fusion-kitchen/backend/internal/logger"
	"github.com/pageza/fusion-kitchen/backend/internal/metrics"
	"github.com/pageza/fusion-kitchen/backend/internal/middleware"
	"github.com/pageza/fusion-kitchen/backend/internal/router"
	"github.com/pageza/fusion-kitchen/backend/internal/server"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
)

func main() {
	cfg, watcher, err := config.LoadWithWatcher()
	if err != nil {
		// no logger yet
		_, _ = os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, level := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Development: cfg.Environment.Development(),
	})
	defer func() { _ = log.Sync() }()

	if watcher.Watch(func(next *config.Config) {
		level.SetLevel(logger.ParseLevel(next.Log.Level))
		log.Info("Configuration reloaded", zap.String("log_level", next.Log.Level))
	}) {
		log.Debug("Watching configuration file for changes")
	}

	if err := config.ValidateConfig(cfg); err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	log.Info("Starting Fusion Kitchen API",
		zap.String("environment", string(cfg.Environment)),
		zap.String("addr", cfg.Server.Addr()))

	if err := run(cfg, log); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
	log.Info("Server stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		return err
	}
	if err := database.RunMigrations(db, cfg.Database.MigrationURL(), log); err != nil {
		return err
	}

	m := metrics.New(nil)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = database.NewRedisClient(cfg.Redis, log)
		if err != nil {
			log.Warn("Redis unavailable, continuing without cache and with in-process rate limiting", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	svc, err := buildServices(ctx, cfg, db, redisClient, m, log)
	if err != nil {
		return err
	}

	engine, err := router.SetupRouter(svc, router.Options{
		Logger:         log,
		Metrics:        m,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Health:         func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
	})
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, engine, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}

func buildServices(ctx context.Context, cfg *config.Config, db *gorm.DB, redisClient *redis.Client, m *metrics.Metrics, log *zap.Logger) (api.Services, error) {
	llm, err := service.NewLLMService(cfg.LLM, log.Named("llm"), m)
	if err != nil {
		return api.Services{}, err
	}

	auth := service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	profiles := service.NewProfileService(db)
	recipes := service.NewRecipeService(db)

	opts := []service.GeneratorOption{
		service.WithLogger(log.Named("generator")),
		service.WithMetrics(m),
		service.WithBestEffortPersistence(cfg.Generation.BestEffortPersistence),
	}
	if redisClient != nil {
		opts = append(opts, service.WithCache(redisClient, cfg.Generation.CacheTTL))
	}

	s3cfg, err := config.NewS3Config(ctx, cfg.Storage)
	if err != nil {
		return api.Services{}, err
	}
	if archiver := service.NewS3Archiver(s3cfg); archiver != nil {
		log.Info("Archiving generations", zap.String("bucket", s3cfg.BucketName))
		opts = append(opts, service.WithArchiver(archiver))
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.GeneratePerWindow > 0 {
		limiter = middleware.NewGenerationRateLimiter(redisClient, cfg.RateLimit.GeneratePerWindow, cfg.RateLimit.Window, log, m)
	}

	return api.Services{
		Auth:      auth,
		Profiles:  profiles,
		Recipes:   recipes,
		Generator: service.NewRecipeGenerator(profiles, llm, recipes, opts...),
		Favorites: service.NewFavoriteService(db),
		Comments:  service.NewCommentService(db),
		Limiter:   limiter,
	}, nil
}
