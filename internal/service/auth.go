package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/models"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

var (
	ErrUserExists         = &apperrors.ConflictError{Message: "user already exists"}
	ErrUsernameTaken      = &apperrors.ConflictError{Message: "username already taken"}
	ErrInvalidCredentials = &apperrors.AuthenticationRequiredError{Reason: "invalid credentials"}
)

type AuthService struct {
	db        *gorm.DB
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		db:        db,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates the account together with a default profile and returns
// a session token for it.
func (s *AuthService) Register(ctx context.Context, email, password, username string) (string, uuid.UUID, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{Email: email, PasswordHash: string(hashedPassword)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUserExists
		}
		if err := tx.Model(&models.UserProfile{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := types.DefaultUserProfile(user.ID)
		return tx.Create(&models.UserProfile{
			UserID:            user.ID,
			Username:          username,
			Allergies:         models.JSONBStringArray(profile.Allergies),
			TasteProfile:      models.TasteProfileColumn(profile.TasteProfile),
			PantryIngredients: models.JSONBStringArray(profile.PantryIngredients),
		}).Error
	})
	if err != nil {
		return "", uuid.Nil, err
	}

	token, err := s.GenerateToken(user.ID, username)
	if err != nil {
		return "", uuid.Nil, err
	}
	return token, user.ID, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, uuid.UUID, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", uuid.Nil, ErrInvalidCredentials
		}
		return "", uuid.Nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", uuid.Nil, ErrInvalidCredentials
	}

	var profile models.UserProfile
	username := ""
	if err := s.db.WithContext(ctx).Where("user_id = ?", user.ID).First(&profile).Error; err == nil {
		username = profile.Username
	}

	token, err := s.GenerateToken(user.ID, username)
	if err != nil {
		return "", uuid.Nil, err
	}
	return token, user.ID, nil
}

// GenerateToken signs an HS256 token carrying the user id
func (s *AuthService) GenerateToken(userID uuid.UUID, username string) (string, error) {
	now := time.Now()
	claims := types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID:   userID,
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == uuid.Nil {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// VerifyToken resolves a bearer token to the id of an existing user. Every
// failure is reported as an AuthenticationRequiredError.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (uuid.UUID, error) {
	if strings.TrimSpace(tokenString) == "" {
		return uuid.Nil, &apperrors.AuthenticationRequiredError{Reason: "missing token"}
	}

	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, &apperrors.AuthenticationRequiredError{Reason: "invalid token", Cause: err}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", claims.UserID).Count(&count).Error; err != nil {
		return uuid.Nil, fmt.Errorf("look up user: %w", err)
	}
	if count == 0 {
		return uuid.Nil, &apperrors.AuthenticationRequiredError{Reason: "unknown user"}
	}
	return claims.UserID, nil
}
