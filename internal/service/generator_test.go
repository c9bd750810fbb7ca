package service_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/metrics"
	"github.com/pageza/fusion-kitchen/backend/internal/models"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
	"github.com/pageza/fusion-kitchen/backend/internal/testdb"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

type fakeModel struct {
	mu      sync.Mutex
	prompts []string
	recipes []types.RawRecipe
	err     error
}

func (f *fakeModel) GenerateRecipes(ctx context.Context, prompt string) ([]types.RawRecipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return append([]types.RawRecipe(nil), f.recipes...), nil
}

type failingStore struct{}

func (failingStore) InsertBatch(context.Context, uuid.UUID, []types.Recipe) ([]types.Recipe, error) {
	return nil, errors.New("connection reset")
}

type recordingArchiver struct {
	records []service.GenerationRecord
}

func (a *recordingArchiver) Archive(_ context.Context, record service.GenerationRecord) error {
	a.records = append(a.records, record)
	return nil
}

func dessertRequest() types.GenerationRequest {
	return types.GenerationRequest{
		RecipeType:         types.RecipeTypeOriginal,
		DishType:           types.DishDessert,
		Cuisines:           []string{"Italian", "Japanese"},
		DietaryPreferences: []string{"Vegan"},
		Ingredient:         "matcha",
	}
}

func rawBatch() []types.RawRecipe {
	return []types.RawRecipe{
		{Name: "Matcha Tiramisu", Ingredients: []string{"2 cups coconut cream"}, Instructions: []string{"Layer"}, Servings: 6, Difficulty: types.DifficultyMedium},
		{Name: "Black Sesame Cannoli", Ingredients: []string{"12 shells"}, Instructions: []string{"Pipe"}, Servings: 12, Difficulty: types.DifficultyHard},
	}
}

func registerUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	auth := service.NewAuthService(db, "test-secret", 0)
	_, id, err := auth.Register(context.Background(), uuid.NewString()+"@example.com", "password123", "chef-"+uuid.NewString()[:8])
	require.NoError(t, err)
	return id
}

func countRecipes(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Recipe{}).Count(&n).Error)
	return n
}

func TestGeneratePersistsBatch(t *testing.T) {
	db := testdb.SQLite(t)
	userID := registerUser(t, db)
	model := &fakeModel{recipes: rawBatch()}
	archiver := &recordingArchiver{}
	m := metrics.New(nil)

	gen := service.NewRecipeGenerator(service.NewProfileService(db), model, service.NewRecipeService(db),
		service.WithArchiver(archiver), service.WithMetrics(m))

	recipes, err := gen.Generate(context.Background(), userID, dessertRequest())
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	for _, r := range recipes {
		require.NotNil(t, r.ID)
		assert.Equal(t, "Italian & Japanese", r.Cuisine)
		assert.Equal(t, []string{"Vegan"}, r.DietaryPreferences)
		assert.Equal(t, types.DishDessert, r.DishType)
	}
	assert.Equal(t, int64(2), countRecipes(t, db))

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Italian & Japanese")
	assert.Contains(t, model.prompts[0], "matcha")

	require.Len(t, archiver.records, 1)
	assert.Equal(t, userID, archiver.records[0].UserID)
	assert.Len(t, archiver.records[0].Raw, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecipesPersisted))
}

func TestGenerateMalformedPersistsNothing(t *testing.T) {
	db := testdb.SQLite(t)
	userID := registerUser(t, db)
	m := metrics.New(nil)
	model := &fakeModel{err: &apperrors.MalformedResponseError{Reason: "recipes is not an array"}}

	gen := service.NewRecipeGenerator(service.NewProfileService(db), model, service.NewRecipeService(db), service.WithMetrics(m))

	recipes, err := gen.Generate(context.Background(), userID, dessertRequest())
	var malformed *apperrors.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Nil(t, recipes)
	assert.Zero(t, countRecipes(t, db))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Generations.WithLabelValues(metrics.OutcomeMalformed)))
}

func TestGeneratePersistenceFailure(t *testing.T) {
	db := testdb.SQLite(t)
	userID := registerUser(t, db)
	profiles := service.NewProfileService(db)

	t.Run("surfaces persistence error", func(t *testing.T) {
		gen := service.NewRecipeGenerator(profiles, &fakeModel{recipes: rawBatch()}, failingStore{})
		recipes, err := gen.Generate(context.Background(), userID, dessertRequest())

		var persistErr *apperrors.PersistenceError
		require.ErrorAs(t, err, &persistErr)
		assert.Equal(t, "Failed to save recipes to database", err.Error())
		assert.Nil(t, recipes)
	})

	t.Run("best effort returns unsaved recipes", func(t *testing.T) {
		gen := service.NewRecipeGenerator(profiles, &fakeModel{recipes: rawBatch()}, failingStore{},
			service.WithBestEffortPersistence(true))
		recipes, err := gen.Generate(context.Background(), userID, dessertRequest())

		require.NoError(t, err)
		require.Len(t, recipes, 2)
		assert.Nil(t, recipes[0].ID)
	})
}

func TestGenerateValidation(t *testing.T) {
	db := testdb.SQLite(t)
	userID := registerUser(t, db)
	model := &fakeModel{recipes: rawBatch()}
	gen := service.NewRecipeGenerator(service.NewProfileService(db), model, service.NewRecipeService(db))

	t.Run("missing dish type", func(t *testing.T) {
		req := dessertRequest()
		req.DishType = ""
		_, err := gen.Generate(context.Background(), userID, req)
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
	})

	t.Run("unknown cuisine", func(t *testing.T) {
		req := dessertRequest()
		req.Cuisines = []string{"Atlantean"}
		_, err := gen.Generate(context.Background(), userID, req)
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
	})

	t.Run("anonymous caller", func(t *testing.T) {
		_, err := gen.Generate(context.Background(), uuid.Nil, dessertRequest())
		assert.Equal(t, apperrors.CodeAuthenticationRequired, apperrors.Code(err))
	})

	assert.Empty(t, model.prompts, "model is never called for rejected requests")
}

func TestGenerateUsesProfile(t *testing.T) {
	db := testdb.SQLite(t)
	userID := registerUser(t, db)
	profiles := service.NewProfileService(db)

	custom := "nuts, dairy"
	taste := types.DefaultTasteProfile()
	taste.Umami = 5
	_, err := profiles.UpdateProfile(context.Background(), userID, &types.UpdateProfileRequest{
		CustomAllergies: &custom,
		TasteProfile:    &taste,
	})
	require.NoError(t, err)

	model := &fakeModel{recipes: rawBatch()}
	gen := service.NewRecipeGenerator(profiles, model, service.NewRecipeService(db))
	_, err = gen.Generate(context.Background(), userID, dessertRequest())
	require.NoError(t, err)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Avoid these allergens: nuts, dairy")
	assert.Contains(t, model.prompts[0], "Emphasize these taste profiles: umami.")
}

func TestGenerateConcurrentCallsAreIndependent(t *testing.T) {
	db := testdb.SQLite(t)
	userID := registerUser(t, db)
	gen := service.NewRecipeGenerator(service.NewProfileService(db), &fakeModel{recipes: rawBatch()}, service.NewRecipeService(db))

	var wg sync.WaitGroup
	results := make([][]types.Recipe, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = gen.Generate(context.Background(), userID, dessertRequest())
		}(i)
	}
	wg.Wait()

	seen := map[uuid.UUID]bool{}
	for i := range results {
		require.NoError(t, errs[i])
		require.Len(t, results[i], 2)
		for _, r := range results[i] {
			require.NotNil(t, r.ID)
			assert.False(t, seen[*r.ID], "batches share no rows")
			seen[*r.ID] = true
		}
	}
	assert.Equal(t, int64(4), countRecipes(t, db))
}

func TestLatestWithoutCache(t *testing.T) {
	gen := service.NewRecipeGenerator(nil, nil, nil)
	_, err := gen.Latest(context.Background(), uuid.New())
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

func TestLatestFromRedis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	db := testdb.SQLite(t)
	userID := registerUser(t, db)
	gen := service.NewRecipeGenerator(service.NewProfileService(db), &fakeModel{recipes: rawBatch()}, service.NewRecipeService(db),
		service.WithCache(client, 0))

	generated, err := gen.Generate(context.Background(), userID, dessertRequest())
	require.NoError(t, err)

	latest, err := gen.Latest(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, latest, len(generated))
	assert.Equal(t, *generated[0].ID, *latest[0].ID)
}
