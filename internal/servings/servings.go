// Package servings rescales a recipe's ingredient list to a new serving count.
//
// Scaling is textual: every number found in an ingredient line is multiplied
// by target/current and printed with two decimals. Numbers that are not
// quantities ("bake at 350") are scaled too.
package servings

import (
	"regexp"
	"strconv"

	"github.com/pageza/fusion-kitchen/backend/internal/apperrors"
	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

var quantity = regexp.MustCompile(`\d+(\.\d+)?`)

// Adjust returns a copy of recipe scaled to target servings. The input is
// not modified.
func Adjust(recipe types.Recipe, target int) (types.Recipe, error) {
	if target < 1 {
		return types.Recipe{}, apperrors.NewValidation("servings", "must be at least 1")
	}
	if recipe.Servings < 1 {
		return types.Recipe{}, apperrors.NewValidation("servings", "recipe has no serving count to scale from")
	}

	ratio := float64(target) / float64(recipe.Servings)
	scaled := make([]string, len(recipe.Ingredients))
	for i, line := range recipe.Ingredients {
		scaled[i] = ScaleLine(line, ratio)
	}

	out := recipe
	out.Ingredients = scaled
	out.Servings = target
	return out, nil
}

// ScaleLine multiplies every number in line by ratio
func ScaleLine(line string, ratio float64) string {
	return quantity.ReplaceAllStringFunc(line, func(match string) string {
		n, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return match
		}
		return strconv.FormatFloat(n*ratio, 'f', 2, 64)
	})
}
