package types

import (
	"time"

	"github.com/google/uuid"
)

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
	Username string `json:"username" binding:"required,min=3,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token  string    `json:"token"`
	UserID uuid.UUID `json:"userId"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

type CommentRequest struct {
	Content string `json:"content" binding:"required,max=2000"`
}

// Comment is a comment as shown under a recipe
type Comment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	RecipeID  uuid.UUID `json:"recipeId"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Favorite is a saved snapshot of a recipe
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	Recipe    Recipe    `json:"recipe"`
	CreatedAt time.Time `json:"createdAt"`
}
