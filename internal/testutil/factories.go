// Package testutil provides seeded fixture factories for tests and the seed
// command.
package testutil

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

var (
	recipeTypes = []types.RecipeType{types.RecipeTypeOriginal, types.RecipeTypeExisting}
	dishTypes   = []types.DishType{types.DishDessert, types.DishLunch, types.DishDinner, types.DishSnack, types.DishDrink}
	levels      = []types.Difficulty{types.DifficultyEasy, types.DifficultyMedium, types.DifficultyHard}
	units       = []string{"cups", "tbsp", "tsp", "g", "ml", "pieces"}
)

// Factory builds fixtures from a seeded faker so runs are reproducible
type Factory struct {
	faker *gofakeit.Faker
}

// NewFactory creates a factory with the given seed
func NewFactory(seed int64) *Factory {
	return &Factory{faker: gofakeit.New(seed)}
}

// User returns registration data for a fake account
func (f *Factory) User() types.RegisterRequest {
	username := strings.ToLower(f.faker.Username())
	if len(username) < 3 {
		username += "cook"
	}
	if len(username) > 40 {
		username = username[:40]
	}
	return types.RegisterRequest{
		Email:    f.faker.Email(),
		Password: f.faker.Password(true, true, true, false, false, 16),
		Username: username + fmt.Sprint(f.faker.Number(10, 99)),
	}
}

// GenerationRequest returns a valid request with up to two cuisines
func (f *Factory) GenerationRequest() types.GenerationRequest {
	cuisines := f.pick(types.Cuisines, f.faker.Number(0, 2))
	return types.GenerationRequest{
		RecipeType:         recipeTypes[f.faker.Number(0, len(recipeTypes)-1)],
		DishType:           dishTypes[f.faker.Number(0, len(dishTypes)-1)],
		Cuisines:           cuisines,
		DietaryPreferences: f.pick(types.DietaryPreferences, f.faker.Number(0, 2)),
		Ingredient:         f.faker.Vegetable(),
		AppearancePrompt:   f.faker.Sentence(6),
	}
}

// RawRecipe returns model output for one recipe
func (f *Factory) RawRecipe() types.RawRecipe {
	ingredients := make([]string, f.faker.Number(3, 8))
	for i := range ingredients {
		ingredients[i] = f.Ingredient()
	}
	instructions := make([]string, f.faker.Number(2, 6))
	for i := range instructions {
		instructions[i] = f.faker.Sentence(8)
	}
	return types.RawRecipe{
		Name:            strings.TrimSuffix(f.faker.Dessert()+" with "+f.faker.Fruit(), "."),
		Description:     f.faker.Sentence(12),
		Ingredients:     ingredients,
		Instructions:    instructions,
		PreparationTime: fmt.Sprintf("%d minutes", f.faker.Number(10, 120)),
		Difficulty:      levels[f.faker.Number(0, len(levels)-1)],
		Servings:        types.Servings(f.faker.Number(1, 8)),
		FlavorSummary:   f.faker.Sentence(5),
	}
}

// Ingredient returns a quantity line such as "1.5 cups rice"
func (f *Factory) Ingredient() string {
	qty := f.faker.Float64Range(0.25, 4)
	return fmt.Sprintf("%.2f %s %s", qty, units[f.faker.Number(0, len(units)-1)], strings.ToLower(f.faker.Vegetable()))
}

// Recipe returns a canonical recipe matching req
func (f *Factory) Recipe(req types.GenerationRequest) types.Recipe {
	raw := f.RawRecipe()
	return types.Recipe{
		Name:               raw.Name,
		Description:        raw.Description,
		Ingredients:        raw.Ingredients,
		Instructions:       raw.Instructions,
		PreparationTime:    raw.PreparationTime,
		Difficulty:         raw.Difficulty,
		Servings:           int(raw.Servings),
		Cuisine:            req.CuisineLabel(),
		DietaryPreferences: append([]string{}, req.DietaryPreferences...),
		FlavorSummary:      raw.FlavorSummary,
		RecipeType:         req.RecipeType,
		AppearancePrompt:   req.AppearancePrompt,
		DishType:           req.DishType,
	}
}

func (f *Factory) pick(from []string, n int) []string {
	out := make([]string, 0, n)
	for _, i := range f.faker.Rand.Perm(len(from))[:n] {
		out = append(out, from[i])
	}
	return out
}
