package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type RecipeType string

const (
	RecipeTypeOriginal RecipeType = "Original"
	RecipeTypeExisting RecipeType = "Existing"
)

type DishType string

const (
	DishDessert DishType = "Dessert"
	DishLunch   DishType = "Lunch"
	DishDinner  DishType = "Dinner"
	DishSnack   DishType = "Snack"
	DishDrink   DishType = "Drink"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Catalogues offered by the generator form
var (
	Cuisines = []string{
		"Italian", "Indian", "Japanese", "Thai", "Lebanese",
		"Turkish", "Mexican", "Korean", "Ethiopian", "French",
		"Greek", "Spanish", "Vietnamese", "American", "Chinese",
	}
	DietaryPreferences = []string{
		"Vegan", "Vegetarian", "Gluten-Free", "Nut-Free", "Dairy-Free", "Halal",
		"Kosher", "Ketogenic", "High Protein", "Low Carb", "Paleo", "Mediterranean",
	}
	AllergyOptions = []string{
		"Peanuts", "Tree Nuts", "Milk", "Eggs", "Soy", "Wheat", "Fish", "Shellfish", "Sesame",
	}
)

// GenerationRequest carries the parameters of one generation submission
type GenerationRequest struct {
	RecipeType         RecipeType `json:"recipeType" binding:"required,oneof=Original Existing"`
	DishType           DishType   `json:"dishType" binding:"required,oneof=Dessert Lunch Dinner Snack Drink"`
	Cuisines           []string   `json:"cuisines" binding:"max=2,unique,dive,cuisine"`
	DietaryPreferences []string   `json:"dietaryPreferences" binding:"unique,dive,dietary"`
	Ingredient         string     `json:"ingredient" binding:"max=200"`
	AppearancePrompt   string     `json:"appearancePrompt" binding:"max=500"`
}

// CuisineLabel joins the selected cuisines the way they are shown and stored
func (r GenerationRequest) CuisineLabel() string {
	return strings.Join(r.Cuisines, " & ")
}

// MaxServings bounds serving counts accepted from model output and callers
const MaxServings = 1000

// Servings accepts both whole numbers and numeric strings from model output.
// null decodes to zero, which callers treat as missing.
type Servings int

func (s *Servings) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = 0
		return nil
	}

	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		if num != math.Trunc(num) {
			return fmt.Errorf("servings %v is not a whole number", num)
		}
		if math.Abs(num) > MaxServings {
			return fmt.Errorf("servings %v out of range", num)
		}
		*s = Servings(int(num))
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		fields := strings.Fields(str)
		if len(fields) == 0 {
			*s = 0
			return nil
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil {
			return fmt.Errorf("invalid servings %q", str)
		}
		if n > MaxServings || n < -MaxServings {
			return fmt.Errorf("servings %q out of range", str)
		}
		*s = Servings(n)
		return nil
	}

	return fmt.Errorf("invalid servings format")
}

// RawRecipe is one recipe object as produced by the language model
type RawRecipe struct {
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Ingredients     []string   `json:"ingredients"`
	Instructions    []string   `json:"instructions"`
	PreparationTime string     `json:"preparationTime"`
	Difficulty      Difficulty `json:"difficulty"`
	Servings        Servings   `json:"servings"`
	FlavorSummary   string     `json:"flavorSummary"`
}

// Recipe is the canonical recipe returned to clients
type Recipe struct {
	ID                 *uuid.UUID `json:"id,omitempty"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Ingredients        []string   `json:"ingredients"`
	Instructions       []string   `json:"instructions"`
	ImageURL           string     `json:"imageUrl"`
	PreparationTime    string     `json:"preparationTime"`
	Difficulty         Difficulty `json:"difficulty"`
	Servings           int        `json:"servings"`
	Cuisine            string     `json:"cuisine"`
	DietaryPreferences []string   `json:"dietaryPreferences"`
	FlavorSummary      string     `json:"flavorSummary"`
	RecipeType         RecipeType `json:"recipeType"`
	AppearancePrompt   string     `json:"appearancePrompt"`
	DishType           DishType   `json:"dishType"`
	Rating             *float64   `json:"rating,omitempty"`
	TotalRatings       *int       `json:"totalRatings,omitempty"`
	UserRating         *int       `json:"userRating,omitempty"`
	TotalComments      *int       `json:"totalComments,omitempty"`
	ViewCount          int        `json:"viewCount"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
}

// SaveRecipeRequest stores a recipe the caller already has, e.g. one edited client side
type SaveRecipeRequest struct {
	Name               string     `json:"name" binding:"required,max=255"`
	Description        string     `json:"description"`
	Ingredients        []string   `json:"ingredients" binding:"required,min=1"`
	Instructions       []string   `json:"instructions" binding:"required,min=1"`
	ImageURL           string     `json:"imageUrl" binding:"omitempty,url"`
	PreparationTime    string     `json:"preparationTime"`
	Difficulty         Difficulty `json:"difficulty" binding:"omitempty,oneof=Easy Medium Hard"`
	Servings           int        `json:"servings" binding:"gte=0"`
	Cuisine            string     `json:"cuisine"`
	DietaryPreferences []string   `json:"dietaryPreferences" binding:"dive,dietary"`
	FlavorSummary      string     `json:"flavorSummary"`
	RecipeType         RecipeType `json:"recipeType" binding:"required,oneof=Original Existing"`
	AppearancePrompt   string     `json:"appearancePrompt"`
	DishType           DishType   `json:"dishType" binding:"omitempty,oneof=Dessert Lunch Dinner Snack Drink"`
}

// Recipe converts the request to the canonical form
func (r SaveRecipeRequest) Recipe() Recipe {
	return Recipe{
		Name:               r.Name,
		Description:        r.Description,
		Ingredients:        r.Ingredients,
		Instructions:       r.Instructions,
		ImageURL:           r.ImageURL,
		PreparationTime:    r.PreparationTime,
		Difficulty:         r.Difficulty,
		Servings:           r.Servings,
		Cuisine:            r.Cuisine,
		DietaryPreferences: r.DietaryPreferences,
		FlavorSummary:      r.FlavorSummary,
		RecipeType:         r.RecipeType,
		AppearancePrompt:   r.AppearancePrompt,
		DishType:           r.DishType,
	}
}

type SortOrder string

const (
	SortLatest  SortOrder = "latest"
	SortPopular SortOrder = "popular"
	SortRating  SortOrder = "rating"
)

// RecipeFilters narrows the public recipe listing
type RecipeFilters struct {
	Search             string    `form:"search" binding:"max=200"`
	DishTypes          []string  `form:"dishTypes"`
	Cuisines           []string  `form:"cuisines"`
	DietaryPreferences []string  `form:"dietaryPreferences"`
	RecipeType         string    `form:"recipeType" binding:"omitempty,oneof=Original Existing"`
	SortBy             SortOrder `form:"sortBy" binding:"omitempty,oneof=latest popular rating"`
	Limit              int       `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset             int       `form:"offset" binding:"omitempty,min=0"`
}

type RateRecipeRequest struct {
	Rating int `json:"rating" binding:"required,min=1,max=5"`
}

type AdjustServingsRequest struct {
	Servings int `json:"servings" binding:"required,min=1,max=1000"`
}
