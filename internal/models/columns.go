package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/pageza/fusion-kitchen/backend/internal/types"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}
	bytes, err := columnBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, a)
}

// TasteProfileColumn stores a taste profile as a JSON object
type TasteProfileColumn types.TasteProfile

func (t TasteProfileColumn) Value() (driver.Value, error) {
	b, err := json.Marshal(types.TasteProfile(t))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *TasteProfileColumn) Scan(value interface{}) error {
	if value == nil {
		*t = TasteProfileColumn(types.DefaultTasteProfile())
		return nil
	}
	bytes, err := columnBytes(value)
	if err != nil {
		return err
	}
	var profile types.TasteProfile
	if err := json.Unmarshal(bytes, &profile); err != nil {
		return err
	}
	*t = TasteProfileColumn(profile)
	return nil
}

// RecipeSnapshot stores a full recipe as JSON, used by favorites
type RecipeSnapshot types.Recipe

func (r RecipeSnapshot) Value() (driver.Value, error) {
	b, err := json.Marshal(types.Recipe(r))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *RecipeSnapshot) Scan(value interface{}) error {
	bytes, err := columnBytes(value)
	if err != nil {
		return err
	}
	var recipe types.Recipe
	if err := json.Unmarshal(bytes, &recipe); err != nil {
		return err
	}
	*r = RecipeSnapshot(recipe)
	return nil
}

func columnBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", value)
	}
}
