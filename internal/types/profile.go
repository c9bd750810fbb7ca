package types

import (
	"time"

	"github.com/google/uuid"
)

// TasteAxis names one of the six taste dimensions, in prompt order
type TasteAxis string

const (
	TasteSpicy  TasteAxis = "spicy"
	TasteSweet  TasteAxis = "sweet"
	TasteTangy  TasteAxis = "tangy"
	TasteUmami  TasteAxis = "umami"
	TasteBitter TasteAxis = "bitter"
	TasteSavory TasteAxis = "savory"
)

// TasteAxes lists the axes in their fixed order
var TasteAxes = []TasteAxis{TasteSpicy, TasteSweet, TasteTangy, TasteUmami, TasteBitter, TasteSavory}

// TasteProfile scores each axis from 1 to 5
type TasteProfile struct {
	Spicy  int `json:"spicy" binding:"min=1,max=5"`
	Sweet  int `json:"sweet" binding:"min=1,max=5"`
	Tangy  int `json:"tangy" binding:"min=1,max=5"`
	Umami  int `json:"umami" binding:"min=1,max=5"`
	Bitter int `json:"bitter" binding:"min=1,max=5"`
	Savory int `json:"savory" binding:"min=1,max=5"`
}

// DefaultTasteProfile is the neutral profile given to new accounts
func DefaultTasteProfile() TasteProfile {
	return TasteProfile{Spicy: 3, Sweet: 3, Tangy: 3, Umami: 3, Bitter: 3, Savory: 3}
}

// Value returns the score for axis
func (t TasteProfile) Value(axis TasteAxis) int {
	switch axis {
	case TasteSpicy:
		return t.Spicy
	case TasteSweet:
		return t.Sweet
	case TasteTangy:
		return t.Tangy
	case TasteUmami:
		return t.Umami
	case TasteBitter:
		return t.Bitter
	case TasteSavory:
		return t.Savory
	}
	return 0
}

// UserProfile is the generation-relevant part of a user's profile
type UserProfile struct {
	ID                uuid.UUID    `json:"id"`
	Username          string       `json:"username"`
	Allergies         []string     `json:"allergies"`
	CustomAllergies   string       `json:"customAllergies"`
	TasteProfile      TasteProfile `json:"tasteProfile"`
	PantryIngredients []string     `json:"pantryIngredients"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// DefaultUserProfile is used when a user has not saved a profile yet
func DefaultUserProfile(userID uuid.UUID) UserProfile {
	return UserProfile{
		ID:                userID,
		Allergies:         []string{},
		TasteProfile:      DefaultTasteProfile(),
		PantryIngredients: []string{},
	}
}

// UpdateProfileRequest represents a request to update a user's profile.
// Nil fields are left unchanged.
type UpdateProfileRequest struct {
	Username          *string       `json:"username,omitempty" binding:"omitempty,min=3,max=50"`
	Allergies         []string      `json:"allergies,omitempty" binding:"omitempty,unique,dive,allergy"`
	CustomAllergies   *string       `json:"customAllergies,omitempty" binding:"omitempty,max=500"`
	TasteProfile      *TasteProfile `json:"tasteProfile,omitempty"`
	PantryIngredients []string      `json:"pantryIngredients,omitempty" binding:"omitempty,max=100,dive,min=1,max=100"`
}
