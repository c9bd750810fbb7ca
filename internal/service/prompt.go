package service

import (
	"fmt"
	"strings"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// RecipesPerGeneration is the fixed batch size requested from the model
const RecipesPerGeneration = 2

const recipeShape = `Return each recipe as a JSON object with this structure:
{
  "name": "Recipe Name",
  "description": "Description",
  "ingredients": ["ingredient 1", "ingredient 2"],
  "instructions": ["step 1", "step 2"],
  "preparationTime": "X minutes/hours",
  "difficulty": "Easy/Medium/Hard",
  "servings": number,
  "flavorSummary": "Flavor profile description"
}

Wrap the recipes as {"recipes": [...]}.
Return an array of exactly 2 recipe objects.`

// MergeAllergens combines the structured allergy tags with the comma separated
// custom allergies, trimmed and with empty entries dropped.
func MergeAllergens(profile types.UserProfile) []string {
	merged := make([]string, 0, len(profile.Allergies))
	for _, a := range profile.Allergies {
		if a = strings.TrimSpace(a); a != "" {
			merged = append(merged, a)
		}
	}
	for _, a := range strings.Split(profile.CustomAllergies, ",") {
		if a = strings.TrimSpace(a); a != "" {
			merged = append(merged, a)
		}
	}
	return merged
}

// EmphasizedTastes lists the taste axes scored above 3, in canonical axis order
func EmphasizedTastes(profile types.TasteProfile) []string {
	var tastes []string
	for _, axis := range types.TasteAxes {
		if profile.Value(axis) > 3 {
			tastes = append(tastes, string(axis))
		}
	}
	return tastes
}

// DietaryRestrictions is the request's dietary preferences plus one synthetic
// entry naming the allergens to avoid.
func DietaryRestrictions(req types.GenerationRequest, profile types.UserProfile) []string {
	restrictions := append([]string{}, req.DietaryPreferences...)
	if allergens := MergeAllergens(profile); len(allergens) > 0 {
		restrictions = append(restrictions, "Avoid these allergens: "+strings.Join(allergens, ", "))
	}
	return restrictions
}

// BuildPrompt renders the instruction sent to the language model
func BuildPrompt(req types.GenerationRequest, profile types.UserProfile) string {
	cuisines := "any"
	if len(req.Cuisines) > 0 {
		cuisines = req.CuisineLabel()
	}

	lines := []string{
		fmt.Sprintf("You are a creative culinary AI. Generate %d %s recipes.", RecipesPerGeneration, req.RecipeType),
		fmt.Sprintf("Each recipe should be a %s inspired by %s cuisine(s).", req.DishType, cuisines),
	}

	if restrictions := DietaryRestrictions(req, profile); len(restrictions) > 0 {
		lines = append(lines, fmt.Sprintf("All recipes must respect the following dietary restrictions: %s.", strings.Join(restrictions, ", ")))
	}
	if ingredient := strings.TrimSpace(req.Ingredient); ingredient != "" {
		lines = append(lines, fmt.Sprintf("Include \"%s\" as a featured ingredient.", ingredient))
	}
	if tastes := EmphasizedTastes(profile.TasteProfile); len(tastes) > 0 {
		lines = append(lines, fmt.Sprintf("Emphasize these taste profiles: %s.", strings.Join(tastes, ", ")))
	}
	if len(profile.PantryIngredients) > 0 {
		lines = append(lines, fmt.Sprintf("Consider using these available ingredients if possible: %s.", strings.Join(profile.PantryIngredients, ", ")))
	}
	if appearance := strings.TrimSpace(req.AppearancePrompt); appearance != "" {
		lines = append(lines, fmt.Sprintf("Visually, it should appear like: \"%s\".", appearance))
	}

	return strings.Join(lines, "\n") + "\n\n" + recipeShape
}
