package service

import (
	"net/url"
	"strings"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

const imageBaseURL = "https://source.unsplash.com/1024x1024/?"

// ImageURL derives the stock photo URL for a recipe name
func ImageURL(name string) string {
	query := strings.ReplaceAll(url.QueryEscape(strings.ToLower(name)), "+", "%20")
	return imageBaseURL + query + "+food+cooking+dish"
}

// NormalizeRecipes converts model output into canonical recipes. The request
// context fields overwrite whatever the model produced for them. Raw recipes
// are expected to have passed decoding, so content fields are copied as is.
func NormalizeRecipes(raw []types.RawRecipe, req types.GenerationRequest) []types.Recipe {
	dietary := append([]string{}, req.DietaryPreferences...)

	recipes := make([]types.Recipe, 0, len(raw))
	for _, r := range raw {
		recipes = append(recipes, types.Recipe{
			Name:               r.Name,
			Description:        r.Description,
			Ingredients:        r.Ingredients,
			Instructions:       r.Instructions,
			ImageURL:           ImageURL(r.Name),
			PreparationTime:    r.PreparationTime,
			Difficulty:         r.Difficulty,
			Servings:           int(r.Servings),
			Cuisine:            req.CuisineLabel(),
			DietaryPreferences: append([]string{}, dietary...),
			FlavorSummary:      r.FlavorSummary,
			RecipeType:         req.RecipeType,
			AppearancePrompt:   req.AppearancePrompt,
			DishType:           req.DishType,
		})
	}
	return recipes
}
