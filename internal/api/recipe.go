package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/middleware"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
	"github.com/pageza/fusion-kitchen/backend/internal/servings"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

type RecipeHandler struct {
	recipeService  service.IRecipeService
	generator      service.IRecipeGenerator
	commentService service.ICommentService
	verifier       middleware.TokenVerifier
	limiter        *middleware.RateLimiter
}

// NewRecipeHandler wires the recipe routes. limiter may be nil, in which case
// generation is not rate limited.
func NewRecipeHandler(
	recipeService service.IRecipeService,
	generator service.IRecipeGenerator,
	commentService service.ICommentService,
	verifier middleware.TokenVerifier,
	limiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:  recipeService,
		generator:      generator,
		commentService: commentService,
		verifier:       verifier,
		limiter:        limiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.verifier)
	optional := middleware.OptionalAuth(h.verifier)

	generate := []gin.HandlerFunc{auth}
	if h.limiter != nil {
		generate = append(generate, h.limiter.RateLimitMiddleware())
	}
	generate = append(generate, h.Generate)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", auth, h.CreateRecipe)
		recipes.GET("/mine", auth, h.ListMine)
		recipes.POST("/generate", generate...)
		recipes.GET("/generations/latest", auth, h.LatestGeneration)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.POST("/:id/view", h.RecordView)
		recipes.PUT("/:id/rating", auth, h.RateRecipe)
		recipes.POST("/:id/servings", h.AdjustServings)
		recipes.GET("/:id/comments", h.ListComments)
		recipes.POST("/:id/comments", auth, h.AddComment)
	}
}

// Generate runs the generation pipeline for the caller. The body is the bare
// array of generated recipes.
func (h *RecipeHandler) Generate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if req.RecipeType == "" || req.DishType == "" {
			middleware.AbortWithError(c, &apperrors.ValidationError{Message: "Missing required parameters"})
			return
		}
		middleware.AbortWithError(c, bindError(err))
		return
	}

	recipes, err := h.generator.Generate(c.Request.Context(), userID, req)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipes)
}

func (h *RecipeHandler) LatestGeneration(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	recipes, err := h.generator.Latest(c.Request.Context(), userID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var filters types.RecipeFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		middleware.AbortWithError(c, bindError(err))
		return
	}

	recipes, err := h.recipeService.ListRecipes(c.Request.Context(), filters)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) ListMine(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	recipes, err := h.recipeService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req types.SaveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, bindError(err))
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, req.Recipe())
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var viewer *uuid.UUID
	if userID, ok := middleware.UserID(c); ok {
		viewer = &userID
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id, viewer)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) RecordView(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.recipeService.IncrementViewCount(c.Request.Context(), id); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) RateRecipe(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.RateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, bindError(err))
		return
	}

	recipe, err := h.recipeService.RateRecipe(c.Request.Context(), userID, id, req.Rating)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

// AdjustServings returns the recipe scaled to the requested servings. The
// stored recipe is not modified.
func (h *RecipeHandler) AdjustServings(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req types.AdjustServingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, bindError(err))
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id, nil)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	scaled, err := servings.Adjust(*recipe, req.Servings)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipe": scaled})
}

func (h *RecipeHandler) ListComments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), id)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

func (h *RecipeHandler) AddComment(c *gin.Context) {
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

	comment, err := h.commentService.AddComment(c.Request.Context(), userID, id, req.Content)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}
