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

// ProfileService handles user profile operations
type ProfileService struct {
	db *gorm.DB
}

var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetProfile retrieves a user's profile
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*types.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("profile")
		}
		return nil, err
	}
	out := profile.ToType()
	return &out, nil
}

// UpdateProfile applies the non-nil fields of req
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*types.UserProfile, error) {
	var profile models.UserProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NewNotFound("profile")
			}
			return err
		}

		if req.Username != nil {
			username := strings.TrimSpace(*req.Username)
			if username != profile.Username {
				var count int64
				if err := tx.Model(&models.UserProfile{}).Where("username = ? AND user_id <> ?", username, userID).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return ErrUsernameTaken
				}
				profile.Username = username
			}
		}
		if req.Allergies != nil {
			profile.Allergies = models.JSONBStringArray(req.Allergies)
		}
		if req.CustomAllergies != nil {
			profile.CustomAllergies = strings.TrimSpace(*req.CustomAllergies)
		}
		if req.TasteProfile != nil {
			profile.TasteProfile = models.TasteProfileColumn(*req.TasteProfile)
		}
		if req.PantryIngredients != nil {
			profile.PantryIngredients = models.JSONBStringArray(req.PantryIngredients)
		}

		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, err
	}

	out := profile.ToType()
	return &out, nil
}

// ForGeneration returns the profile consulted by the prompt builder. Users
// who never saved a profile get the neutral defaults.
func (s *ProfileService) ForGeneration(ctx context.Context, userID uuid.UUID) (types.UserProfile, error) {
	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		var notFound *apperrors.NotFoundError
		if errors.As(err, &notFound) {
			return types.DefaultUserProfile(userID), nil
		}
		return types.UserProfile{}, err
	}
	return *profile, nil
}
