package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/fusion-kitchen/backend/internal/middleware"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// CommentHandler serves edits to existing comments. Listing and creating
// live under the recipe routes.
type CommentHandler struct {
	commentService service.ICommentService
	verifier       middleware.TokenVerifier
}

func NewCommentHandler(commentService service.ICommentService, verifier middleware.TokenVerifier) *CommentHandler {
	return &CommentHandler{commentService: commentService, verifier: verifier}
}

func (h *CommentHandler) RegisterRoutes(router *gin.RouterGroup) {
	comments := router.Group("/comments")
	comments.Use(middleware.AuthMiddleware(h.verifier))
	{
		comments.PUT("/:id", h.UpdateComment)
		comments.DELETE("/:id", h.DeleteComment)
	}
}

func (h *CommentHandler) UpdateComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, bindError(err))
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), userID, id, req.Content)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comment": comment})
}

func (h *CommentHandler) DeleteComment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), userID, id); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
