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

func TestFavorites(t *testing.T) {
	db := testdb.SQLite(t)
	svc := service.NewFavoriteService(db)
	userID := registerUser(t, db)
	ctx := context.Background()

	tiramisu := types.Recipe{Name: "Matcha Tiramisu", Ingredients: []string{"mascarpone"}, Servings: 6}
	require.NoError(t, svc.AddFavorite(ctx, userID, tiramisu))
	require.NoError(t, svc.AddFavorite(ctx, userID, types.Recipe{Name: "Pad Thai"}))
	require.NoError(t, svc.AddFavorite(ctx, userID, tiramisu), "adding twice is a no-op")

	favorites, err := svc.ListFavorites(ctx, userID)
	require.NoError(t, err)
	require.Len(t, favorites, 2)

	var found bool
	for _, f := range favorites {
		if f.Recipe.Name == "Matcha Tiramisu" {
			found = true
			assert.Equal(t, []string{"mascarpone"}, f.Recipe.Ingredients)
			assert.Equal(t, 6, f.Recipe.Servings)
		}
	}
	assert.True(t, found)

	ok, err := svc.IsFavorite(ctx, userID, "Pad Thai")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.RemoveFavorite(ctx, userID, "Pad Thai"))
	ok, err = svc.IsFavorite(ctx, userID, "Pad Thai")
	require.NoError(t, err)
	assert.False(t, ok)

	err = svc.RemoveFavorite(ctx, userID, "Pad Thai")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))

	t.Run("favorites are per user", func(t *testing.T) {
		other, err := svc.ListFavorites(ctx, registerUser(t, db))
		require.NoError(t, err)
		assert.Empty(t, other)
	})

	t.Run("name is required", func(t *testing.T) {
		err := svc.AddFavorite(ctx, userID, types.Recipe{Name: "  "})
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
	})
}

func TestComments(t *testing.T) {
	db := testdb.SQLite(t)
	svc := service.NewCommentService(db)
	recipes := service.NewRecipeService(db)
	alice := registerUser(t, db)
	bob := registerUser(t, db)
	ctx := context.Background()

	recipe, err := recipes.CreateRecipe(ctx, alice, types.Recipe{Name: "Pad Thai"})
	require.NoError(t, err)

	comment, err := svc.AddComment(ctx, bob, *recipe.ID, "  Needs more lime  ")
	require.NoError(t, err)
	assert.Equal(t, "Needs more lime", comment.Content)
	assert.Equal(t, "User "+bob.String()[:6], comment.Author)

	list, err := svc.ListComments(ctx, *recipe.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got, err := recipes.GetRecipe(ctx, *recipe.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, *got.TotalComments)

	t.Run("only the author can edit", func(t *testing.T) {
		_, err := svc.UpdateComment(ctx, alice, comment.ID, "hijacked")
		assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))

		updated, err := svc.UpdateComment(ctx, bob, comment.ID, "Needs more tamarind")
		require.NoError(t, err)
		assert.Equal(t, "Needs more tamarind", updated.Content)
	})

	t.Run("only the author can delete", func(t *testing.T) {
		err := svc.DeleteComment(ctx, alice, comment.ID)
		assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
		require.NoError(t, svc.DeleteComment(ctx, bob, comment.ID))
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.AddComment(ctx, bob, *recipe.ID, " ")
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))

		_, err = svc.AddComment(ctx, bob, uuid.New(), "hello")
		assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
	})
}
