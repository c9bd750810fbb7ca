package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/models"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// FavoriteService keeps per-user snapshots of recipes, keyed by recipe name
type FavoriteService struct {
	db *gorm.DB
}

var _ IFavoriteService = (*FavoriteService)(nil)

func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

// ListFavorites returns the user's favorites, most recent first
func (s *FavoriteService) ListFavorites(ctx context.Context, userID uuid.UUID) ([]types.Favorite, error) {
	var rows []models.RecipeFavorite
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]types.Favorite, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.Favorite{
			ID:        row.ID,
			Recipe:    types.Recipe(row.Recipe),
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// AddFavorite stores a snapshot of recipe. Adding the same name twice keeps
// the first snapshot.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID uuid.UUID, recipe types.Recipe) error {
	name := strings.TrimSpace(recipe.Name)
	if name == "" {
		return apperrors.NewValidation("name", "is required")
	}
	row := models.RecipeFavorite{
		UserID:     userID,
		RecipeName: name,
		Recipe:     models.RecipeSnapshot(recipe),
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *FavoriteService) RemoveFavorite(ctx context.Context, userID uuid.UUID, recipeName string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_name = ?", userID, recipeName).
		Delete(&models.RecipeFavorite{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("favorite")
	}
	return nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, userID uuid.UUID, recipeName string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.RecipeFavorite{}).
		Where("user_id = ? AND recipe_name = ?", userID, recipeName).
		Count(&count).Error
	return count > 0, err
}
