package recipe

import (
	"hash/fnv"
	"strings"
)

// nonVegetarianTerms are matched as case-insensitive substrings of the
// name, instructions and ingredient names.
var nonVegetarianTerms = []string{
	"chicken", "beef", "pork", "lamb", "fish", "salmon", "tuna", "shrimp",
	"prawn", "crab", "lobster", "meat", "bacon", "ham", "sausage", "turkey",
	"duck", "goose", "venison", "rabbit", "seafood", "anchovy", "sardine",
}

// meatCategories are TheMealDB categories that are non-vegetarian by definition.
var meatCategories = map[string]bool{
	"beef":    true,
	"chicken": true,
	"lamb":    true,
	"pork":    true,
	"seafood": true,
	"goat":    true,
}

const (
	caloriesPerIngredient = 50
	caloriesBase          = 200
	caloriesJitterRange   = 200
)

// IsVegetarian reports whether the recipe looks vegetarian.
// A vegetarian or vegan category wins over anything in the text.
func IsVegetarian(r Recipe) bool {
	category := strings.ToLower(strings.TrimSpace(r.Category))
	if strings.Contains(category, "vegetarian") || strings.Contains(category, "vegan") {
		return true
	}
	if meatCategories[category] {
		return false
	}

	if containsAny(strings.ToLower(r.Name), nonVegetarianTerms) ||
		containsAny(strings.ToLower(r.Instructions), nonVegetarianTerms) {
		return false
	}
	for _, ing := range r.Ingredients() {
		if containsAny(strings.ToLower(ing.Name), nonVegetarianTerms) {
			return false
		}
	}
	return true
}

// EstimateCalories returns a rough calorie figure: 50 per ingredient plus a
// base in [200, 400). The spread is derived from the recipe id, so the same
// recipe always gets the same estimate.
func EstimateCalories(r Recipe) int {
	return len(r.Ingredients())*caloriesPerIngredient + caloriesBase + calorieJitter(r)
}

func calorieJitter(r Recipe) int {
	key := r.ID
	if key == "" {
		key = r.Name
	}
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % caloriesJitterRange)
}

// EstimatePrepTime maps an ingredient count to minutes of preparation.
func EstimatePrepTime(ingredientCount int) int {
	switch {
	case ingredientCount <= 5:
		return 15
	case ingredientCount <= 10:
		return 30
	case ingredientCount <= 15:
		return 45
	default:
		return 60
	}
}

// Classify attaches the derived fields to a recipe.
func Classify(r Recipe) ClassifiedRecipe {
	ingredients := r.Ingredients()
	return ClassifiedRecipe{
		Recipe:            r,
		Ingredients:       ingredients,
		IsVegetarian:      IsVegetarian(r),
		EstimatedCalories: EstimateCalories(r),
		EstimatedPrepTime: EstimatePrepTime(len(ingredients)),
	}
}

// ClassifyAll classifies every recipe, keeping order.
func ClassifyAll(recipes []Recipe) []ClassifiedRecipe {
	out := make([]ClassifiedRecipe, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, Classify(r))
	}
	return out
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
