package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/fusion-kitchen/backend/config"
	"github.com/pageza/fusion-kitchen/backend/internal/api"
	"github.com/pageza/fusion-kitchen/backend/internal/metrics"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
	"github.com/pageza/fusion-kitchen/backend/internal/testdb"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

const fakeCompletion = `{"choices":[{"message":{"role":"assistant","content":"{\"recipes\":[{\"name\":\"Matcha Tiramisu\",\"ingredients\":[\"2 cups mascarpone\"],\"instructions\":[\"Layer\"],\"servings\":4,\"difficulty\":\"Medium\"},{\"name\":\"Yuzu Mochi\",\"ingredients\":[\"1 cup rice flour\"],\"instructions\":[\"Steam\"],\"servings\":2,\"difficulty\":\"Easy\"}]}"}}]}`

func init() {
	gin.SetMode(gin.TestMode)
}

type testApp struct {
	router  *gin.Engine
	metrics *metrics.Metrics
	prompts []string
}

func setupApp(t *testing.T, upstream http.HandlerFunc) *testApp {
	t.Helper()
	app := &testApp{}

	deepseek := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req service.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		app.prompts = append(app.prompts, req.Messages[0].Content)
		upstream(w, r)
	}))
	t.Cleanup(deepseek.Close)

	db := testdb.SQLite(t)
	app.metrics = metrics.New(prometheus.NewRegistry())

	llm, err := service.NewLLMService(config.LLMConfig{
		APIKey:      "sk-test",
		APIURL:      deepseek.URL,
		Model:       "deepseek-chat",
		Temperature: 0.7,
		MaxTokens:   4000,
		Timeout:     5 * time.Second,
	}, zap.NewNop(), app.metrics)
	require.NoError(t, err)

	auth := service.NewAuthService(db, "router-test-secret", time.Hour)
	profiles := service.NewProfileService(db)
	recipes := service.NewRecipeService(db)
	generator := service.NewRecipeGenerator(profiles, llm, recipes, service.WithMetrics(app.metrics))

	app.router, err = SetupRouter(api.Services{
		Auth:      auth,
		Profiles:  profiles,
		Recipes:   recipes,
		Generator: generator,
		Favorites: service.NewFavoriteService(db),
		Comments:  service.NewCommentService(db),
	}, Options{Logger: zap.NewNop(), Metrics: app.metrics, AllowedOrigins: []string{"http://localhost:3000"}})
	require.NoError(t, err)
	return app
}

func (a *testApp) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) register(t *testing.T) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "chef@example.com", "password": "password123", "username": "chef",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp types.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func TestGenerationFlow(t *testing.T) {
	app := setupApp(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fakeCompletion))
	})
	token := app.register(t)

	w := app.do(t, http.MethodPut, "/api/v1/profile", map[string]any{
		"allergies":       []string{"Peanuts"},
		"customAllergies": "nuts, dairy",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]any{
		"recipeType":         "Original",
		"dishType":           "Dessert",
		"cuisines":           []string{"Italian", "Japanese"},
		"dietaryPreferences": []string{"Vegan"},
		"ingredient":         "matcha",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var batch []types.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	require.Len(t, batch, 2)
	for _, r := range batch {
		require.NotNil(t, r.ID)
		assert.Equal(t, "Italian & Japanese", r.Cuisine)
		assert.Equal(t, []string{"Vegan"}, r.DietaryPreferences)
		assert.Equal(t, types.DishDessert, r.DishType)
	}

	require.Len(t, app.prompts, 1)
	assert.Contains(t, app.prompts[0], "Italian & Japanese")
	assert.Contains(t, app.prompts[0], "Avoid these allergens: Peanuts, nuts, dairy")

	w = app.do(t, http.MethodGet, "/api/v1/recipes/mine", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Recipes []types.Recipe `json:"recipes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Len(t, mine.Recipes, 2)

	w = app.do(t, http.MethodPost, "/api/v1/recipes/"+batch[0].ID.String()+"/servings", map[string]int{"servings": 8}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "4.00 cups mascarpone")
}

func TestGenerationErrorsUseErrorBody(t *testing.T) {
	app := setupApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	token := app.register(t)

	w := app.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]any{
		"recipeType": "Existing",
		"dishType":   "Dinner",
	}, token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "DeepSeek API error: 502 Bad Gateway", body.Error)
	_, err := time.Parse("2006-01-02T15:04:05.000Z", body.Timestamp)
	assert.NoError(t, err)

	w = app.do(t, http.MethodGet, "/api/v1/recipes/mine", nil, token)
	assert.JSONEq(t, `{"recipes":[]}`, w.Body.String())
}

func TestGenerationRejectsIncompleteRecipes(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{"empty batch", `{"recipes":[]}`, "recipes is empty"},
		{"lists missing", `{"recipes":[{"name":"A","servings":2},{"name":"B","servings":2}]}`, "recipes[0].ingredients is missing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t, func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(map[string]any{
					"choices": []any{map[string]any{"message": map[string]any{"content": tt.content}}},
				})
			})
			token := app.register(t)

			w := app.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]any{
				"recipeType": "Original",
				"dishType":   "Lunch",
			}, token)
			assert.Equal(t, http.StatusInternalServerError, w.Code)

			var body types.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "Invalid response format from DeepSeek API: "+tt.reason, body.Error)

			w = app.do(t, http.MethodGet, "/api/v1/recipes/mine", nil, token)
			assert.JSONEq(t, `{"recipes":[]}`, w.Body.String())
		})
	}
}

func TestValidationErrorsNameJSONFields(t *testing.T) {
	app := setupApp(t, func(w http.ResponseWriter, r *http.Request) {})
	token := app.register(t)

	w := app.do(t, http.MethodPost, "/api/v1/recipes/generate", map[string]any{
		"recipeType": "Original",
		"dishType":   "Brunch",
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "dishType: must be one of")
	assert.Empty(t, app.prompts)
}

func TestHealthAndMetrics(t *testing.T) {
	app := setupApp(t, func(w http.ResponseWriter, r *http.Request) {})

	w := app.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/recipes", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "fusion_http_requests_total"))
}
