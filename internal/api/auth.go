package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/fusion-kitchen/backend/internal/middleware"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

type AuthHandler struct {
	authService service.IAuthService
}

func NewAuthHandler(authService service.IAuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, bindError(err))
		return
	}

	token, userID, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, types.AuthResponse{Token: token, UserID: userID})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithError(c, bindError(err))
		return
	}

	token, userID, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.AuthResponse{Token: token, UserID: userID})
}
