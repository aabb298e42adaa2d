package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MaxIngredients is the number of indexed ingredient/measure pairs a record carries.
const MaxIngredients = 20

var (
	// ErrRequestFailed marks a Source call that could not be completed.
	ErrRequestFailed = errors.New("recipe request failed")
	// ErrNotFound is returned when a lookup by id yields no record.
	ErrNotFound = errors.New("recipe not found")
)

// Recipe is a single dish record as received from TheMealDB.
//
// The indexed ingredient and measure fields keep the difference between a
// JSON null and an empty string so that records can be re-encoded unchanged.
type Recipe struct {
	ID           string
	Name         string
	Thumbnail    string
	Instructions string
	Category     string
	Area         string
	YouTube      string
	Tags         string
	Source       string

	IngredientFields [MaxIngredients]*string
	MeasureFields    [MaxIngredients]*string
}

// Ingredient is a non-blank ingredient entry with its measure.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

// Source is the remote recipe database.
type Source interface {
	SearchByName(ctx context.Context, query string) ([]Recipe, error)
	SearchByIngredient(ctx context.Context, ingredient string) ([]Recipe, error)
	GetByID(ctx context.Context, id string) (Recipe, bool, error)
	GetRandom(ctx context.Context) (Recipe, bool, error)
	FilterByCategory(ctx context.Context, category string) ([]Recipe, error)
	FilterByArea(ctx context.Context, area string) ([]Recipe, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListAreas(ctx context.Context) ([]string, error)
	ListIngredients(ctx context.Context) ([]string, error)
}

// SetIngredient fills the pair at the 1-based position n.
func (r *Recipe) SetIngredient(n int, name, measure string) {
	if n < 1 || n > MaxIngredients {
		return
	}
	r.IngredientFields[n-1] = &name
	r.MeasureFields[n-1] = &measure
}

// Ingredients returns the populated ingredient pairs in index order.
// Nil or blank ingredient names are skipped. The result is never nil.
func (r Recipe) Ingredients() []Ingredient {
	out := []Ingredient{}
	for i := 0; i < MaxIngredients; i++ {
		name := r.IngredientFields[i]
		if name == nil || strings.TrimSpace(*name) == "" {
			continue
		}
		var measure string
		if m := r.MeasureFields[i]; m != nil {
			measure = strings.TrimSpace(*m)
		}
		out = append(out, Ingredient{Name: strings.TrimSpace(*name), Measure: measure})
	}
	return out
}

type recipeFields struct {
	ID           string `json:"idMeal"`
	Name         string `json:"strMeal"`
	Thumbnail    string `json:"strMealThumb"`
	Instructions string `json:"strInstructions"`
	Category     string `json:"strCategory"`
	Area         string `json:"strArea"`
	YouTube      string `json:"strYoutube"`
	Tags         string `json:"strTags"`
	Source       string `json:"strSource"`
}

func ingredientKey(n int) string { return fmt.Sprintf("strIngredient%d", n) }
func measureKey(n int) string    { return fmt.Sprintf("strMeasure%d", n) }

// UnmarshalJSON decodes the TheMealDB wire format.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var f recipeFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Recipe{
		ID:           f.ID,
		Name:         f.Name,
		Thumbnail:    f.Thumbnail,
		Instructions: f.Instructions,
		Category:     f.Category,
		Area:         f.Area,
		YouTube:      f.YouTube,
		Tags:         f.Tags,
		Source:       f.Source,
	}
	for i := 1; i <= MaxIngredients; i++ {
		var err error
		if r.IngredientFields[i-1], err = nullableString(raw[ingredientKey(i)]); err != nil {
			return fmt.Errorf("failed to decode %s: %w", ingredientKey(i), err)
		}
		if r.MeasureFields[i-1], err = nullableString(raw[measureKey(i)]); err != nil {
			return fmt.Errorf("failed to decode %s: %w", measureKey(i), err)
		}
	}
	return nil
}

// MarshalJSON encodes the record back into the TheMealDB wire format.
func (r Recipe) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wireFields())
}

func (r Recipe) wireFields() map[string]any {
	m := map[string]any{
		"idMeal":          r.ID,
		"strMeal":         r.Name,
		"strMealThumb":    r.Thumbnail,
		"strInstructions": r.Instructions,
		"strCategory":     r.Category,
		"strArea":         r.Area,
		"strYoutube":      r.YouTube,
		"strTags":         r.Tags,
		"strSource":       r.Source,
	}
	for i := 1; i <= MaxIngredients; i++ {
		m[ingredientKey(i)] = r.IngredientFields[i-1]
		m[measureKey(i)] = r.MeasureFields[i-1]
	}
	return m
}

func nullableString(raw json.RawMessage) (*string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ClassifiedRecipe is a Recipe with its derived fields attached.
type ClassifiedRecipe struct {
	Recipe
	Ingredients       []Ingredient
	IsVegetarian      bool
	EstimatedCalories int
	EstimatedPrepTime int
}

type classifiedFields struct {
	Ingredients       []Ingredient `json:"ingredients"`
	IsVegetarian      bool         `json:"isVegetarian"`
	EstimatedCalories int          `json:"estimatedCalories"`
	EstimatedPrepTime int          `json:"estimatedPrepTime"`
}

// MarshalJSON writes the wire record plus the derived fields in one object.
func (c ClassifiedRecipe) MarshalJSON() ([]byte, error) {
	m := c.Recipe.wireFields()
	ingredients := c.Ingredients
	if ingredients == nil {
		ingredients = []Ingredient{}
	}
	m["ingredients"] = ingredients
	m["isVegetarian"] = c.IsVegetarian
	m["estimatedCalories"] = c.EstimatedCalories
	m["estimatedPrepTime"] = c.EstimatedPrepTime
	return json.Marshal(m)
}

// UnmarshalJSON reads an object produced by MarshalJSON.
func (c *ClassifiedRecipe) UnmarshalJSON(data []byte) error {
	var r Recipe
	if err := r.UnmarshalJSON(data); err != nil {
		return err
	}
	var f classifiedFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = ClassifiedRecipe{
		Recipe:            r,
		Ingredients:       f.Ingredients,
		IsVegetarian:      f.IsVegetarian,
		EstimatedCalories: f.EstimatedCalories,
		EstimatedPrepTime: f.EstimatedPrepTime,
	}
	return nil
}

// Clone returns a copy that shares no mutable slices with c.
func (c ClassifiedRecipe) Clone() ClassifiedRecipe {
	out := c
	if c.Ingredients != nil {
		out.Ingredients = make([]Ingredient, len(c.Ingredients))
		copy(out.Ingredients, c.Ingredients)
	}
	return out
}
