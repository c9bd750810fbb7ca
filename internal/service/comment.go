package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/models"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// CommentService manages the comment thread under each recipe
type CommentService struct {
	db *gorm.DB
}

var _ ICommentService = (*CommentService)(nil)

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// authorName is the display name shown next to a comment
func authorName(userID uuid.UUID) string {
	return "User " + userID.String()[:6]
}

func toComment(row models.Comment) types.Comment {
	return types.Comment{
		ID:        row.ID,
		UserID:    row.UserID,
		RecipeID:  row.RecipeID,
		Content:   row.Content,
		Author:    authorName(row.UserID),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// ListComments returns a recipe's comments, newest first
func (s *CommentService) ListComments(ctx context.Context, recipeID uuid.UUID) ([]types.Comment, error) {
	var rows []models.Comment
	if err := s.db.WithContext(ctx).Where("recipe_id = ?", recipeID).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.Comment, 0, len(rows))
	for _, row := range rows {
		out = append(out, toComment(row))
	}
	return out, nil
}

func (s *CommentService) AddComment(ctx context.Context, userID, recipeID uuid.UUID, content string) (*types.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidation("content", "must not be empty")
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperrors.NewNotFound("recipe")
	}

	row := models.Comment{UserID: userID, RecipeID: recipeID, Content: content}
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	out := toComment(row)
	return &out, nil
}

// UpdateComment edits a comment owned by userID. Comments of other users are
// reported as missing.
func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uuid.UUID, content string) (*types.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidation("content", "must not be empty")
	}

	db := s.db.WithContext(ctx)
	var row models.Comment
	if err := db.Where("id = ? AND user_id = ?", commentID, userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("comment")
		}
		return nil, err
	}

	row.Content = content
	if err := db.Save(&row).Error; err != nil {
		return nil, err
	}
	out := toComment(row)
	return &out, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", commentID, userID).Delete(&models.Comment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFound("comment")
	}
	return nil
}
