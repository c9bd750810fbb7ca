package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pageza/fusion-kitchen/backend/internal/metrics"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// RateLimiter counts requests per user in fixed Redis windows. Without Redis
// it falls back to an in-process token bucket per user.
type RateLimiter struct {
	redis   *redis.Client
	config  RateLimitConfig
	log     *zap.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	local     map[string]*rate.Limiter
	lastSweep time.Time
	nowFor    func() time.Time
}

// NewRateLimiter creates a new rate limiter instance. redisClient may be nil.
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig, log *zap.Logger, m *metrics.Metrics) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{
		redis:   redisClient,
		config:  config,
		log:     log,
		metrics: m,
		local:   make(map[string]*rate.Limiter),
		nowFor:  time.Now,
	}
}

// NewGenerationRateLimiter limits recipe generation per user
func NewGenerationRateLimiter(redisClient *redis.Client, limit int, window time.Duration, log *zap.Logger, m *metrics.Metrics) *RateLimiter {
	return NewRateLimiter(redisClient, RateLimitConfig{
		Window:    window,
		Limit:     limit,
		KeyPrefix: "rate_limit:recipe_generation",
	}, log, m)
}

// RateLimitMiddleware returns a Gin middleware that enforces rate limiting.
// It must run after AuthMiddleware.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.Next()
			return
		}

		allowed, remaining, resetTime, err := rl.IsAllowed(c.Request.Context(), userID.String())
		if err != nil {
			rl.log.Warn("rate limit check failed", zap.Error(err))
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))

		if !allowed {
			if rl.metrics != nil {
				rl.metrics.RateLimited.WithLabelValues(rl.config.KeyPrefix).Inc()
			}
			retryAfter := int(time.Until(resetTime).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, NewErrorResponse(
				fmt.Sprintf("rate limit exceeded: %d requests per %v", rl.config.Limit, rl.config.Window)))
			return
		}

		c.Next()
	}
}

// IsAllowed checks if a request from the given user is allowed
// Returns: allowed, remaining requests, reset time, error
func (rl *RateLimiter) IsAllowed(ctx context.Context, userID string) (bool, int, time.Time, error) {
	if rl.redis == nil {
		allowed, remaining, reset := rl.allowLocal(userID)
		return allowed, remaining, reset, nil
	}

	now := rl.nowFor()
	windowStart := now.Truncate(rl.config.Window)
	key := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, userID, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, time.Time{}, err
	}

	count := int(incrCmd.Val())
	remaining := rl.config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= rl.config.Limit, remaining, windowStart.Add(rl.config.Window), nil
}

func (rl *RateLimiter) allowLocal(userID string) (bool, int, time.Time) {
	now := rl.nowFor()

	rl.mu.Lock()
	rl.sweepLocked(now)
	limiter, ok := rl.local[userID]
	if !ok {
		every := rl.config.Window / time.Duration(rl.config.Limit)
		limiter = rate.NewLimiter(rate.Every(every), rl.config.Limit)
		rl.local[userID] = limiter
	}
	rl.mu.Unlock()

	allowed := limiter.AllowN(now, 1)
	remaining := int(limiter.TokensAt(now))
	if remaining < 0 {
		remaining = 0
	}
	reset := now.Add(rl.config.Window / time.Duration(rl.config.Limit))
	return allowed, remaining, reset
}

// sweepLocked drops limiters whose bucket has refilled, at most once per
// window. A dropped user starts again with a full bucket, which is the state
// they were in. Callers hold rl.mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.config.Window {
		return
	}
	rl.lastSweep = now
	for userID, limiter := range rl.local {
		if limiter.TokensAt(now) >= float64(limiter.Burst()) {
			delete(rl.local, userID)
		}
	}
}

// trackedUsers reports how many in-process limiters are held
func (rl *RateLimiter) trackedUsers() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.local)
}
