package api

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/middleware"
)

// bindError turns a binding failure into a ValidationError naming the first
// offending field.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return apperrors.NewValidation(fe.Field(), "%s", describe(fe))
	}
	return &apperrors.ValidationError{Message: "invalid request body"}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "unique":
		return "must not contain duplicates"
	case "cuisine", "dietary", "allergy":
		return fmt.Sprintf("%q is not a known %s option", fe.Value(), fe.Tag())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		middleware.AbortWithError(c, apperrors.NewValidation(name, "must be a valid id"))
		return uuid.Nil, false
	}
	return id, true
}

// currentUser reads the id set by AuthMiddleware
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		middleware.AbortWithError(c, &apperrors.AuthenticationRequiredError{Reason: "user not authenticated"})
	}
	return userID, ok
}
