package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, email, password, username string) (string, uuid.UUID, error)
	Login(ctx context.Context, email, password string) (string, uuid.UUID, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	VerifyToken(ctx context.Context, token string) (uuid.UUID, error)
}

// IProfileService defines the interface for user profile operations
type IProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*types.UserProfile, error)
	ForGeneration(ctx context.Context, userID uuid.UUID) (types.UserProfile, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	InsertBatch(ctx context.Context, userID uuid.UUID, recipes []types.Recipe) ([]types.Recipe, error)
	CreateRecipe(ctx context.Context, userID uuid.UUID, recipe types.Recipe) (*types.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.Recipe, error)
	ListRecipes(ctx context.Context, filters types.RecipeFilters) ([]types.Recipe, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Recipe, error)
	RateRecipe(ctx context.Context, userID, recipeID uuid.UUID, rating int) (*types.Recipe, error)
	IncrementViewCount(ctx context.Context, id uuid.UUID) error
}

// IRecipeGenerator defines the interface for the generation pipeline
type IRecipeGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, req types.GenerationRequest) ([]types.Recipe, error)
	Latest(ctx context.Context, userID uuid.UUID) ([]types.Recipe, error)
}

// IFavoriteService defines the interface for favorite operations
type IFavoriteService interface {
	ListFavorites(ctx context.Context, userID uuid.UUID) ([]types.Favorite, error)
	AddFavorite(ctx context.Context, userID uuid.UUID, recipe types.Recipe) error
	RemoveFavorite(ctx context.Context, userID uuid.UUID, recipeName string) error
	IsFavorite(ctx context.Context, userID uuid.UUID, recipeName string) (bool, error)
}

// ICommentService defines the interface for comment operations
type ICommentService interface {
	ListComments(ctx context.Context, recipeID uuid.UUID) ([]types.Comment, error)
	AddComment(ctx context.Context, userID, recipeID uuid.UUID, content string) (*types.Comment, error)
	UpdateComment(ctx context.Context, userID, commentID uuid.UUID, content string) (*types.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error
}

var _ IAuthService = (*AuthService)(nil)
