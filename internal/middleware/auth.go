package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "user_id"

// TokenVerifier resolves a bearer token to a user id
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
}

// AuthMiddleware creates a middleware that rejects requests without a valid
// bearer token.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			AbortWithError(c, &apperrors.AuthenticationRequiredError{Reason: "missing authorization header"})
			return
		}

		userID, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets
// anonymous requests through otherwise.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if userID, err := verifier.VerifyToken(c.Request.Context(), token); err == nil {
				c.Set(UserIDKey, userID)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated user id, if any
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}
