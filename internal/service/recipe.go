package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/models"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

const defaultListLimit = 50

// RecipeService handles recipe operations
type RecipeService struct {
	db *gorm.DB
}

var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

func (s *RecipeService) postgres() bool {
	return s.db.Dialector.Name() == "postgres"
}

func (s *RecipeService) newRow(userID uuid.UUID, recipe types.Recipe) *models.Recipe {
	row := models.NewRecipe(userID, recipe)
	if s.postgres() {
		vec := GenerateEmbedding(recipeEmbeddingText(recipe.Name, recipe.Description, recipe.Cuisine, recipe.Ingredients))
		row.Embedding = &vec
	}
	return row
}

// InsertBatch stores a generated batch in one transaction. Either every
// recipe is written or none is.
func (s *RecipeService) InsertBatch(ctx context.Context, userID uuid.UUID, recipes []types.Recipe) ([]types.Recipe, error) {
	rows := make([]*models.Recipe, 0, len(recipes))
	for _, r := range recipes {
		rows = append(rows, s.newRow(userID, r))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			if err := tx.Create(row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.Recipe, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToType())
	}
	return out, nil
}

// CreateRecipe saves a single recipe for userID
func (s *RecipeService) CreateRecipe(ctx context.Context, userID uuid.UUID, recipe types.Recipe) (*types.Recipe, error) {
	if recipe.ImageURL == "" {
		recipe.ImageURL = ImageURL(recipe.Name)
	}
	row := s.newRow(userID, recipe)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	out := row.ToType()
	return &out, nil
}

// GetRecipe loads a recipe. When viewer is set the viewer's own rating is
// included.
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*types.Recipe, error) {
	db := s.db.WithContext(ctx)

	var row models.Recipe
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("recipe")
		}
		return nil, err
	}
	recipe := row.ToType()

	var comments int64
	if err := db.Model(&models.Comment{}).Where("recipe_id = ?", id).Count(&comments).Error; err != nil {
		return nil, err
	}
	total := int(comments)
	recipe.TotalComments = &total

	if viewer != nil {
		var rating models.RecipeRating
		err := db.Where("recipe_id = ? AND user_id = ?", id, *viewer).First(&rating).Error
		switch {
		case err == nil:
			recipe.UserRating = &rating.Rating
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, err
		}
	}
	return &recipe, nil
}

// ListRecipes returns public recipes matching filters
func (s *RecipeService) ListRecipes(ctx context.Context, filters types.RecipeFilters) ([]types.Recipe, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	search := strings.TrimSpace(filters.Search)
	if search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if len(filters.DishTypes) > 0 {
		query = query.Where("dish_type IN ?", filters.DishTypes)
	}
	if len(filters.Cuisines) > 0 {
		query = query.Where("cuisine IN ?", filters.Cuisines)
	}
	// containment is only applied for a single preference
	if len(filters.DietaryPreferences) == 1 {
		pref := filters.DietaryPreferences[0]
		if s.postgres() {
			b, err := json.Marshal([]string{pref})
			if err != nil {
				return nil, err
			}
			query = query.Where("dietary_preferences @> ?::jsonb", string(b))
		} else {
			query = query.Where("dietary_preferences LIKE ?", fmt.Sprintf("%%%q%%", pref))
		}
	}
	if filters.RecipeType != "" {
		query = query.Where("recipe_type = ?", filters.RecipeType)
	}

	switch filters.SortBy {
	case types.SortPopular:
		query = query.Order("view_count DESC").Order("created_at DESC")
	case types.SortRating:
		if s.postgres() {
			query = query.Order("average_rating DESC NULLS LAST")
		} else {
			query = query.Order("average_rating IS NULL").Order("average_rating DESC")
		}
		query = query.Order("created_at DESC")
	case types.SortLatest:
		query = query.Order("created_at DESC")
	default:
		if search != "" && s.postgres() {
			query = query.Clauses(clause.OrderBy{
				Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{GenerateEmbedding(search)}},
			})
		} else {
			query = query.Order("created_at DESC")
		}
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []models.Recipe
	if err := query.Limit(limit).Offset(filters.Offset).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTypes(rows), nil
}

// ListByUser returns the recipes owned by userID, newest first
func (s *RecipeService) ListByUser(ctx context.Context, userID uuid.UUID) ([]types.Recipe, error) {
	var rows []models.Recipe
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return toTypes(rows), nil
}

// RateRecipe records the user's rating, replacing any earlier one, and
// refreshes the recipe's aggregate.
func (s *RecipeService) RateRecipe(ctx context.Context, userID, recipeID uuid.UUID, rating int) (*types.Recipe, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidation("rating", "must be between 1 and 5")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return apperrors.NewNotFound("recipe")
		}

		record := models.RecipeRating{UserID: userID, RecipeID: recipeID, Rating: rating}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"rating": rating, "updated_at": time.Now()}),
		}).Create(&record).Error; err != nil {
			return err
		}

		var agg struct {
			Average float64
			Total   int
		}
		if err := tx.Model(&models.RecipeRating{}).
			Select("AVG(rating) AS average, COUNT(*) AS total").
			Where("recipe_id = ?", recipeID).
			Scan(&agg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(map[string]interface{}{
			"average_rating": agg.Average,
			"total_ratings":  agg.Total,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, recipeID, &userID)
}

// IncrementViewCount bumps the recipe's view counter
func (s *RecipeService) IncrementViewCount(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("recipe")
	}
	return nil
}

func toTypes(rows []models.Recipe) []types.Recipe {
	out := make([]types.Recipe, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToType())
	}
	return out
}
