package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/fusion-kitchen/backend/config"
	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/database"
	"github.com/pageza/fusion-kitchen/backend/internal/logger"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
	"github.com/pageza/fusion-kitchen/backend/internal/testutil"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

const demoPassword = "demo-password-123"

func main() {
	users := flag.Int("users", 3, "number of demo users to create")
	batches := flag.Int("batches", 5, "generation batches per user")
	seed := flag.Int64("seed", time.Now().UnixNano(), "fixture seed")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log, _ := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console", Development: true})
	defer func() { _ = log.Sync() }()

	db, err := database.New(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.RunMigrations(db, cfg.Database.MigrationURL(), log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx := context.Background()
	auth := service.NewAuthService(db, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	recipes := service.NewRecipeService(db)
	factory := testutil.NewFactory(*seed)

	total := 0
	for i := 0; i < *users; i++ {
		account := factory.User()
		_, userID, err := auth.Register(ctx, account.Email, demoPassword, account.Username)
		if err != nil {
			var conflict *apperrors.ConflictError
			if errors.As(err, &conflict) {
				log.Warn("Skipping existing user", zap.String("email", account.Email), zap.Error(err))
				continue
			}
			log.Fatal("Failed to create user", zap.Error(err))
		}

		for b := 0; b < *batches; b++ {
			n, err := seedBatch(ctx, recipes, factory, userID)
			if err != nil {
				log.Fatal("Failed to insert recipes", zap.Error(err))
			}
			total += n
		}
		log.Info("Seeded user",
			zap.String("email", account.Email),
			zap.String("password", demoPassword),
			zap.String("user_id", userID.String()))
	}

	log.Info("Seeding complete", zap.Int("recipes", total))
}

func seedBatch(ctx context.Context, store *service.RecipeService, factory *testutil.Factory, userID uuid.UUID) (int, error) {
	req := factory.GenerationRequest()
	batch := make([]types.Recipe, service.RecipesPerGeneration)
	for i := range batch {
		batch[i] = factory.Recipe(req)
		batch[i].ImageURL = service.ImageURL(batch[i].Name)
	}
	saved, err := store.InsertBatch(ctx, userID, batch)
	return len(saved), err
}
