package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecipeFavorite is a user's saved copy of a recipe, keyed by recipe name
type RecipeFavorite struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_user_name" json:"user_id"`
	RecipeName string         `gorm:"size:255;not null;uniqueIndex:idx_favorite_user_name" json:"recipe_name"`
	Recipe     RecipeSnapshot `gorm:"type:jsonb;not null" json:"recipe"`
}

func (RecipeFavorite) TableName() string {
	return "recipe_favorites"
}

func (f *RecipeFavorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// RecipeRating is one user's score for a recipe
type RecipeRating struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_recipe" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rating_user_recipe;index" json:"recipe_id"`
	Rating    int       `gorm:"not null" json:"rating"`
}

func (RecipeRating) TableName() string {
	return "user_ratings"
}

func (r *RecipeRating) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Comment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index" json:"recipe_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// All lists every model for auto-migration
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserProfile{},
		&Recipe{},
		&RecipeFavorite{},
		&RecipeRating{},
		&Comment{},
	}
}
