package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/fusion-kitchen/backend/internal/middleware"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

type FavoriteHandler struct {
	favoriteService service.IFavoriteService
	verifier        middleware.TokenVerifier
}

func NewFavoriteHandler(favoriteService service.IFavoriteService, verifier middleware.TokenVerifier) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService, verifier: verifier}
}

func (h *FavoriteHandler) RegisterRoutes(router *gin.RouterGroup) {
	favorites := router.Group("/favorites")
	favorites.Use(middleware.AuthMiddleware(h.verifier))
	{
		favorites.GET("", h.ListFavorites)
		favorites.POST("", h.AddFavorite)
		favorites.GET("/:name", h.IsFavorite)
		favorites.DELETE("/:name", h.RemoveFavorite)
	}
}

func (h *FavoriteHandler) ListFavorites(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	favorites, err := h.favoriteService.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}

func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var recipe types.Recipe
	if err := c.ShouldBindJSON(&recipe); err != nil {
		middleware.AbortWithError(c, bindError(err))
		return
	}

	if err := h.favoriteService.AddFavorite(c.Request.Context(), userID, recipe); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"favorite": true})
}

func (h *FavoriteHandler) IsFavorite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	favorite, err := h.favoriteService.IsFavorite(c.Request.Context(), userID, c.Param("name"))
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.favoriteService.RemoveFavorite(c.Request.Context(), userID, c.Param("name")); err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
