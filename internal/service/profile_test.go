package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/service"
	"github.com/pageza/fusion-kitchen/backend/internal/testdb"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

func TestUpdateProfile(t *testing.T) {
	db := testdb.SQLite(t)
	userID := registerUser(t, db)
	svc := service.NewProfileService(db)
	ctx := context.Background()

	custom := " kiwi "
	profile, err := svc.UpdateProfile(ctx, userID, &types.UpdateProfileRequest{
		Allergies:         []string{"Peanuts", "Sesame"},
		CustomAllergies:   &custom,
		PantryIngredients: []string{"rice"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Peanuts", "Sesame"}, profile.Allergies)
	assert.Equal(t, "kiwi", profile.CustomAllergies)
	assert.Equal(t, types.DefaultTasteProfile(), profile.TasteProfile, "unset fields are kept")

	loaded, err := svc.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"rice"}, loaded.PantryIngredients)

	t.Run("username conflict", func(t *testing.T) {
		other := registerUser(t, db)
		taken := loaded.Username
		_, err := svc.UpdateProfile(ctx, other, &types.UpdateProfileRequest{Username: &taken})
		assert.ErrorIs(t, err, service.ErrUsernameTaken)
	})

	t.Run("missing profile", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, uuid.New(), &types.UpdateProfileRequest{})
		assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
	})
}

func TestForGenerationDefaults(t *testing.T) {
	db := testdb.SQLite(t)
	id := uuid.New()

	profile, err := service.NewProfileService(db).ForGeneration(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultUserProfile(id), profile)
}
