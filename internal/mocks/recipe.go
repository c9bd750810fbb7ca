package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// MockRecipeService is a mock implementation of the recipe service
type MockRecipeService struct {
	mock.Mock
}

func (m *MockRecipeService) InsertBatch(ctx context.Context, userID uuid.UUID, recipes []types.Recipe) ([]types.Recipe, error) {
	args := m.Called(ctx, userID, recipes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recipe), args.Error(1)
}

func (m *MockRecipeService) CreateRecipe(ctx context.Context, userID uuid.UUID, recipe types.Recipe) (*types.Recipe, error) {
	args := m.Called(ctx, userID, recipe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Recipe), args.Error(1)
}

func (m *MockRecipeService) GetRecipe(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.Recipe, error) {
	args := m.Called(ctx, id, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Recipe), args.Error(1)
}

func (m *MockRecipeService) ListRecipes(ctx context.Context, filters types.RecipeFilters) ([]types.Recipe, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recipe), args.Error(1)
}

func (m *MockRecipeService) ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Recipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recipe), args.Error(1)
}

func (m *MockRecipeService) RateRecipe(ctx context.Context, userID, recipeID uuid.UUID, rating int) (*types.Recipe, error) {
	args := m.Called(ctx, userID, recipeID, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Recipe), args.Error(1)
}

func (m *MockRecipeService) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockRecipeGenerator is a mock implementation of the generation pipeline
type MockRecipeGenerator struct {
	mock.Mock
}

func (m *MockRecipeGenerator) Generate(ctx context.Context, userID uuid.UUID, req types.GenerationRequest) ([]types.Recipe, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recipe), args.Error(1)
}

func (m *MockRecipeGenerator) Latest(ctx context.Context, userID uuid.UUID) ([]types.Recipe, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Recipe), args.Error(1)
}
