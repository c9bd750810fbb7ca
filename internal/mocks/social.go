package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

type MockFavoriteService struct {
	mock.Mock
}

func (m *MockFavoriteService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]types.Favorite, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Favorite), args.Error(1)
}

func (m *MockFavoriteService) AddFavorite(ctx context.Context, userID uuid.UUID, recipe types.Recipe) error {
	return m.Called(ctx, userID, recipe).Error(0)
}

func (m *MockFavoriteService) RemoveFavorite(ctx context.Context, userID uuid.UUID, recipeName string) error {
	return m.Called(ctx, userID, recipeName).Error(0)
}

func (m *MockFavoriteService) IsFavorite(ctx context.Context, userID uuid.UUID, recipeName string) (bool, error) {
	args := m.Called(ctx, userID, recipeName)
	return args.Bool(0), args.Error(1)
}

type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) ListComments(ctx context.Context, recipeID uuid.UUID) ([]types.Comment, error) {
	args := m.Called(ctx, recipeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Comment), args.Error(1)
}

func (m *MockCommentService) AddComment(ctx context.Context, userID, recipeID uuid.UUID, content string) (*types.Comment, error) {
	args := m.Called(ctx, userID, recipeID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Comment), args.Error(1)
}

func (m *MockCommentService) UpdateComment(ctx context.Context, userID, commentID uuid.UUID, content string) (*types.Comment, error) {
	args := m.Called(ctx, userID, commentID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Comment), args.Error(1)
}

func (m *MockCommentService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	return m.Called(ctx, userID, commentID).Error(0)
}
