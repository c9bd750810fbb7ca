package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Email        string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// UserProfile holds the taste preferences consulted by the generator
type UserProfile struct {
	UserID            uuid.UUID          `gorm:"type:uuid;primaryKey" json:"user_id"`
	Username          string             `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Allergies         JSONBStringArray   `gorm:"type:jsonb;not null;default:'[]'" json:"allergies"`
	CustomAllergies   string             `gorm:"type:text" json:"custom_allergies"`
	TasteProfile      TasteProfileColumn `gorm:"type:jsonb;not null" json:"taste_profile"`
	PantryIngredients JSONBStringArray   `gorm:"type:jsonb;not null;default:'[]'" json:"pantry_ingredients"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

func (UserProfile) TableName() string {
	return "profiles"
}

// ToType converts the row to its API form
func (p *UserProfile) ToType() types.UserProfile {
	allergies := []string(p.Allergies)
	if allergies == nil {
		allergies = []string{}
	}
	pantry := []string(p.PantryIngredients)
	if pantry == nil {
		pantry = []string{}
	}
	return types.UserProfile{
		ID:                p.UserID,
		Username:          p.Username,
		Allergies:         allergies,
		CustomAllergies:   p.CustomAllergies,
		TasteProfile:      types.TasteProfile(p.TasteProfile),
		PantryIngredients: pantry,
		UpdatedAt:         p.UpdatedAt,
	}
}
