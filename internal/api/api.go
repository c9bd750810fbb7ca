package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/fusion-kitchen/backend/internal/middleware"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
)

// Services bundles everything the HTTP surface depends on
type Services struct {
	Auth      service.IAuthService
	Profiles  service.IProfileService
	Recipes   service.IRecipeService
	Generator service.IRecipeGenerator
	Favorites service.IFavoriteService
	Comments  service.ICommentService
	// Limiter throttles generation; nil disables it
	Limiter *middleware.RateLimiter
}

// Pinger reports whether a backing store is reachable
type Pinger func(ctx context.Context) error

// HealthCheck returns the health status of the API
func HealthCheck(ping Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Fusion Kitchen API is running",
		})
	}
}

// RegisterRoutes registers all API routes under /api/v1
func RegisterRoutes(router *gin.Engine, svc Services) {
	v1 := router.Group("/api/v1")

	NewAuthHandler(svc.Auth).RegisterRoutes(v1)
	NewProfileHandler(svc.Profiles, svc.Auth).RegisterRoutes(v1)
	NewRecipeHandler(svc.Recipes, svc.Generator, svc.Comments, svc.Auth, svc.Limiter).RegisterRoutes(v1)
	NewCommentHandler(svc.Comments, svc.Auth).RegisterRoutes(v1)
	NewFavoriteHandler(svc.Favorites, svc.Auth).RegisterRoutes(v1)
}
