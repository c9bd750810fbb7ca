package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// MockAuthService is a mock implementation of the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password, username string) (string, uuid.UUID, error) {
	args := m.Called(ctx, email, password, username)
	return args.String(0), args.Get(1).(uuid.UUID), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, uuid.UUID, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Get(1).(uuid.UUID), args.Error(2)
}

func (m *MockAuthService) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}

func (m *MockAuthService) VerifyToken(ctx context.Context, token string) (uuid.UUID, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}
