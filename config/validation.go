package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const defaultJWTSecret = "change-me-in-development"

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var validate = validator.New()

// ValidateConfig checks struct-level rules and the environment-specific
// requirements that cannot be expressed as tags.
func ValidateConfig(cfg *Config) error {
	var problems []string

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			problems = append(problems, ValidationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("failed %q rule", fe.Tag()),
			}.Error())
		}
	}

	if cfg.Database.Driver == "postgres" && cfg.Database.DSN == "" {
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			problems = append(problems, "database host and name are required for postgres")
		}
	}

	switch cfg.Environment {
	case Production, CI:
		if cfg.Auth.JWTSecret == defaultJWTSecret {
			problems = append(problems, "jwt_secret must be set explicitly")
		}
		if cfg.Database.Driver == "postgres" && cfg.Database.Password == "" && cfg.Database.DSN == "" {
			problems = append(problems, "db_password is required")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}
