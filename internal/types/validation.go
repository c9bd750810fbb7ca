package types

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

func catalogue(values []string) validator.Func {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

// RegisterValidators installs the catalogue rules used in binding tags
func RegisterValidators(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"cuisine": catalogue(Cuisines),
		"dietary": catalogue(DietaryPreferences),
		"allergy": catalogue(AllergyOptions),
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate checks s against its binding tags outside of a gin request
func Validate(s any) error {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.SetTagName("binding")
		if err := RegisterValidators(validate); err != nil {
			panic(err)
		}
	})
	return validate.Struct(s)
}
