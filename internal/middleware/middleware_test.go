package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/metrics"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubVerifier struct {
	tokens map[string]uuid.UUID
}

func (s stubVerifier) VerifyToken(_ context.Context, token string) (uuid.UUID, error) {
	id, ok := s.tokens[token]
	if !ok {
		return uuid.Nil, &apperrors.AuthenticationRequiredError{Reason: "invalid token"}
	}
	return id, nil
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestAbortWithError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"authentication", &apperrors.AuthenticationRequiredError{}, http.StatusUnauthorized, "authentication required"},
		{"upstream", &apperrors.UpstreamError{StatusCode: 502, Status: "Bad Gateway"}, http.StatusInternalServerError, "DeepSeek API error: 502 Bad Gateway"},
		{"persistence", &apperrors.PersistenceError{Cause: errors.New("disk")}, http.StatusInternalServerError, "Failed to save recipes to database"},
		{"internal", errors.New("pq: secret detail"), http.StatusInternalServerError, "An unexpected error occurred"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			AbortWithError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.message, body.Error)
			ts, err := time.Parse(timestampLayout, body.Timestamp)
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().UTC(), ts, time.Minute)
		})
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "An unexpected error occurred", decodeError(t, w).Error)
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	verifier := stubVerifier{tokens: map[string]uuid.UUID{"good": userID}}

	r := gin.New()
	r.GET("/private", AuthMiddleware(verifier), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		c.String(http.StatusOK, id.String())
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer  ", http.StatusUnauthorized},
		{"unknown token", "Bearer bad", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, userID.String(), w.Body.String())
			} else {
				assert.NotEmpty(t, decodeError(t, w).Error)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	userID := uuid.New()
	verifier := stubVerifier{tokens: map[string]uuid.UUID{"good": userID}}

	r := gin.New()
	r.GET("/public", OptionalAuth(verifier), func(c *gin.Context) {
		id, ok := UserID(c)
		if !ok {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.String())
	})

	for header, want := range map[string]string{
		"":            "anonymous",
		"Bearer bad":  "anonymous",
		"Bearer good": userID.String(),
	} {
		req := httptest.NewRequest(http.MethodGet, "/public", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, want, w.Body.String())
	}
}

func TestRateLimiterLocalFallback(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rl := NewGenerationRateLimiter(nil, 2, time.Minute, zap.NewNop(), m)
	userID := uuid.New()

	r := gin.New()
	r.POST("/generate", func(c *gin.Context) {
		c.Set(UserIDKey, userID)
		c.Next()
	}, rl.RateLimitMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	send := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/generate", nil))
		return w
	}

	assert.Equal(t, http.StatusCreated, send().Code)
	assert.Equal(t, http.StatusCreated, send().Code)

	w := send()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, decodeError(t, w).Error, "rate limit exceeded")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("rate_limit:recipe_generation")))
}

func TestRateLimiterIsPerUser(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{Window: time.Hour, Limit: 1, KeyPrefix: "test"}, nil, nil)
	ctx := context.Background()

	allowed, _, _, err := rl.IsAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, _, _, err = rl.IsAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, _, _, err = rl.IsAllowed(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiterEvictsIdleLocalLimiters(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{Window: time.Hour, Limit: 2, KeyPrefix: "test"}, nil, nil)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.nowFor = func() time.Time { return now }
	ctx := context.Background()

	for _, user := range []string{"alice", "alice", "bob"} {
		_, _, _, err := rl.IsAllowed(ctx, user)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, rl.trackedUsers())

	now = now.Add(10 * time.Minute)
	_, _, _, err := rl.IsAllowed(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, 3, rl.trackedUsers(), "no sweep inside the window")

	now = now.Add(time.Hour)
	allowed, remaining, _, err := rl.IsAllowed(ctx, "dave")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)
	assert.Equal(t, 1, rl.trackedUsers(), "refilled limiters are dropped")

	allowed, _, _, err = rl.IsAllowed(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, allowed, "evicted user starts with a full bucket")
}

func TestRateLimiterSkipsAnonymous(t *testing.T) {
	rl := NewRateLimiter(nil, RateLimitConfig{Window: time.Hour, Limit: 1, KeyPrefix: "test"}, nil, nil)
	r := gin.New()
	r.GET("/", rl.RateLimitMiddleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestIDAndMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()), Metrics(m))
	r.GET("/recipes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/recipes/abc", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodGet, "/recipes/:id", "200")))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/recipes/abc", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
