package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/metrics"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

const (
	latestGenerationKey = "generation:latest:%s"
	defaultCacheTTL     = 24 * time.Hour
	tracerName          = "github.com/pageza/fusion-kitchen/backend/internal/service"
)

// RecipeStore persists generated batches
type RecipeStore interface {
	InsertBatch(ctx context.Context, userID uuid.UUID, recipes []types.Recipe) ([]types.Recipe, error)
}

// ProfileSource supplies the profile a prompt is built from
type ProfileSource interface {
	ForGeneration(ctx context.Context, userID uuid.UUID) (types.UserProfile, error)
}

// RecipeGenerator runs the generation pipeline for an authenticated user:
// profile fetch, prompt synthesis, model call, normalization and persistence.
type RecipeGenerator struct {
	profiles ProfileSource
	model    RecipeModel
	store    RecipeStore

	cache      *redis.Client
	cacheTTL   time.Duration
	archiver   Archiver
	metrics    *metrics.Metrics
	log        *zap.Logger
	bestEffort bool
	tracer     trace.Tracer
	now        func() time.Time
}

var _ IRecipeGenerator = (*RecipeGenerator)(nil)

type GeneratorOption func(*RecipeGenerator)

// WithCache keeps the latest batch of every user in redis
func WithCache(client *redis.Client, ttl time.Duration) GeneratorOption {
	return func(g *RecipeGenerator) {
		g.cache = client
		if ttl > 0 {
			g.cacheTTL = ttl
		}
	}
}

func WithArchiver(a Archiver) GeneratorOption {
	return func(g *RecipeGenerator) { g.archiver = a }
}

func WithMetrics(m *metrics.Metrics) GeneratorOption {
	return func(g *RecipeGenerator) { g.metrics = m }
}

func WithLogger(log *zap.Logger) GeneratorOption {
	return func(g *RecipeGenerator) {
		if log != nil {
			g.log = log.Named("generator")
		}
	}
}

// WithBestEffortPersistence returns generated recipes even when they could
// not be stored. Such recipes carry no id.
func WithBestEffortPersistence(enabled bool) GeneratorOption {
	return func(g *RecipeGenerator) { g.bestEffort = enabled }
}

func NewRecipeGenerator(profiles ProfileSource, model RecipeModel, store RecipeStore, opts ...GeneratorOption) *RecipeGenerator {
	g := &RecipeGenerator{
		profiles: profiles,
		model:    model,
		store:    store,
		cacheTTL: defaultCacheTTL,
		log:      zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces, stores and returns a new batch of recipes for userID.
// Two calls with identical input yield two independent batches.
func (g *RecipeGenerator) Generate(ctx context.Context, userID uuid.UUID, req types.GenerationRequest) ([]types.Recipe, error) {
	start := g.now()
	ctx, span := g.tracer.Start(ctx, "recipe.generate", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("recipe.type", string(req.RecipeType)),
		attribute.String("recipe.dish_type", string(req.DishType)),
	))
	defer span.End()

	recipes, err := g.generate(ctx, userID, req)

	outcome := outcomeOf(err)
	if g.metrics != nil {
		g.metrics.Generations.WithLabelValues(outcome).Inc()
		g.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		g.log.Error("recipe generation failed",
			zap.String("user_id", userID.String()),
			zap.String("outcome", outcome),
			zap.Error(err))
		return nil, err
	}

	span.SetAttributes(attribute.Int("recipe.count", len(recipes)))
	g.log.Info("recipes generated",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(recipes)),
		zap.Duration("elapsed", time.Since(start)))
	return recipes, nil
}

func (g *RecipeGenerator) generate(ctx context.Context, userID uuid.UUID, req types.GenerationRequest) ([]types.Recipe, error) {
	if userID == uuid.Nil {
		return nil, &apperrors.AuthenticationRequiredError{Reason: "missing user"}
	}
	if req.RecipeType == "" || req.DishType == "" {
		return nil, apperrors.NewValidation("", "Missing required parameters")
	}
	if err := types.Validate(req); err != nil {
		return nil, apperrors.NewValidation("", "%v", err)
	}

	profile, err := g.profiles.ForGeneration(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	prompt := BuildPrompt(req, profile)
	raw, err := g.model.GenerateRecipes(ctx, prompt)
	if err != nil {
		return nil, err
	}
	recipes := NormalizeRecipes(raw, req)

	saved, err := g.store.InsertBatch(ctx, userID, recipes)
	if err != nil {
		if !g.bestEffort {
			return nil, &apperrors.PersistenceError{Cause: err}
		}
		g.log.Error("Failed to save recipes to database, returning unsaved batch",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		saved = recipes
	} else if g.metrics != nil {
		g.metrics.RecipesPersisted.Add(float64(len(saved)))
	}

	g.cacheLatest(ctx, userID, saved)
	g.archive(ctx, GenerationRecord{
		UserID:    userID,
		Request:   req,
		Prompt:    prompt,
		Raw:       raw,
		CreatedAt: g.now(),
	})
	return saved, nil
}

// Latest returns the most recent batch generated for userID
func (g *RecipeGenerator) Latest(ctx context.Context, userID uuid.UUID) ([]types.Recipe, error) {
	if g.cache == nil {
		return nil, apperrors.NewNotFound("generation")
	}
	data, err := g.cache.Get(ctx, fmt.Sprintf(latestGenerationKey, userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NewNotFound("generation")
		}
		return nil, fmt.Errorf("failed to get generation from Redis: %w", err)
	}

	var recipes []types.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generation: %w", err)
	}
	return recipes, nil
}

func (g *RecipeGenerator) cacheLatest(ctx context.Context, userID uuid.UUID, recipes []types.Recipe) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(recipes)
	if err != nil {
		g.log.Warn("failed to marshal generation for cache", zap.Error(err))
		return
	}
	if err := g.cache.Set(ctx, fmt.Sprintf(latestGenerationKey, userID), data, g.cacheTTL).Err(); err != nil {
		g.log.Warn("failed to cache generation in Redis", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

func (g *RecipeGenerator) archive(ctx context.Context, record GenerationRecord) {
	if g.archiver == nil {
		return
	}
	if err := g.archiver.Archive(ctx, record); err != nil {
		g.log.Warn("failed to archive generation", zap.String("user_id", record.UserID.String()), zap.Error(err))
	}
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch apperrors.Code(err) {
	case apperrors.CodeUpstream:
		return metrics.OutcomeUpstream
	case apperrors.CodeMalformedResponse:
		return metrics.OutcomeMalformed
	case apperrors.CodePersistence:
		return metrics.OutcomePersistence
	default:
		return metrics.OutcomeError
	}
}
