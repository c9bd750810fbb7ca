package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// NewErrorResponse builds the {error, timestamp} body returned for failures
func NewErrorResponse(message string) types.ErrorResponse {
	return types.ErrorResponse{
		Error:     message,
		Timestamp: time.Now().UTC().Format(timestampLayout),
	}
}

// AbortWithError maps err to its HTTP status and writes the error body.
// The error is attached to the context so the request logger records it.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(apperrors.StatusCode(err), NewErrorResponse(apperrors.PublicMessage(err)))
}

// Recovery turns panics into a 500 error body
func Recovery(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("Panic recovered",
			zap.String("request_id", c.GetString(RequestIDKey)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("error", recovered),
			zap.Stack("stack"))
		AbortWithError(c, fmt.Errorf("panic: %v", recovered))
	})
}

// NoRoute answers unknown routes with the standard error body
func NoRoute(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusNotFound, NewErrorResponse("route not found"))
}
