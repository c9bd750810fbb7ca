package models

import (
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

type Recipe struct {
	ID                 uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt          time.Time        `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
	DeletedAt          gorm.DeletedAt   `gorm:"index" json:"-"`
	UserID             uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Name               string           `gorm:"size:255;not null" json:"name"`
	Description        string           `gorm:"type:text" json:"description"`
	Ingredients        JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions       JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	ImageURL           string           `gorm:"type:text" json:"image_url"`
	PreparationTime    string           `gorm:"size:100" json:"preparation_time"`
	Difficulty         string           `gorm:"size:20" json:"difficulty"`
	Servings           int              `gorm:"not null;default:0" json:"servings"`
	Cuisine            string           `gorm:"size:100;index" json:"cuisine"`
	DietaryPreferences JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"dietary_preferences"`
	FlavorSummary      string           `gorm:"type:text" json:"flavor_summary"`
	RecipeType         string           `gorm:"size:20;index" json:"recipe_type"`
	AppearancePrompt   string           `gorm:"type:text" json:"appearance_prompt"`
	DishType           string           `gorm:"size:20;index" json:"dish_type"`
	ViewCount          int              `gorm:"not null;default:0" json:"view_count"`
	AverageRating      *float64         `json:"average_rating"`
	TotalRatings       int              `gorm:"not null;default:0" json:"total_ratings"`
	Embedding          *pgvector.Vector `gorm:"type:vector(64)" json:"-"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// NewRecipe builds a row owned by userID from a canonical recipe
func NewRecipe(userID uuid.UUID, recipe types.Recipe) *Recipe {
	return &Recipe{
		UserID:             userID,
		Name:               recipe.Name,
		Description:        recipe.Description,
		Ingredients:        JSONBStringArray(recipe.Ingredients),
		Instructions:       JSONBStringArray(recipe.Instructions),
		ImageURL:           recipe.ImageURL,
		PreparationTime:    recipe.PreparationTime,
		Difficulty:         string(recipe.Difficulty),
		Servings:           recipe.Servings,
		Cuisine:            recipe.Cuisine,
		DietaryPreferences: JSONBStringArray(recipe.DietaryPreferences),
		FlavorSummary:      recipe.FlavorSummary,
		RecipeType:         string(recipe.RecipeType),
		AppearancePrompt:   recipe.AppearancePrompt,
		DishType:           string(recipe.DishType),
	}
}

// ToType converts the row to its API form
func (r *Recipe) ToType() types.Recipe {
	id := r.ID
	created := r.CreatedAt
	out := types.Recipe{
		ID:                 &id,
		Name:               r.Name,
		Description:        r.Description,
		Ingredients:        orEmpty(r.Ingredients),
		Instructions:       orEmpty(r.Instructions),
		ImageURL:           r.ImageURL,
		PreparationTime:    r.PreparationTime,
		Difficulty:         types.Difficulty(r.Difficulty),
		Servings:           r.Servings,
		Cuisine:            r.Cuisine,
		DietaryPreferences: orEmpty(r.DietaryPreferences),
		FlavorSummary:      r.FlavorSummary,
		RecipeType:         types.RecipeType(r.RecipeType),
		AppearancePrompt:   r.AppearancePrompt,
		DishType:           types.DishType(r.DishType),
		Rating:             r.AverageRating,
		ViewCount:          r.ViewCount,
		CreatedAt:          &created,
	}
	if r.TotalRatings > 0 {
		total := r.TotalRatings
		out.TotalRatings = &total
	}
	return out
}

func orEmpty(a JSONBStringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}
