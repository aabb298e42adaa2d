package search

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"planneat/internal/dietary"
	"planneat/internal/logger"
	"planneat/internal/recipe"

	"go.uber.org/zap"
)

// Mode selects which field a text search matches.
type Mode string

const (
	ByName       Mode = "name"
	ByIngredient Mode = "ingredient"
)

// ErrUnknownMode is returned for a text search mode other than name or ingredient.
var ErrUnknownMode = errors.New("unknown search mode")

// vegetarianFallbackQuery is searched by name when the Vegetarian category is empty.
const vegetarianFallbackQuery = "vegetable"

// nonVegetarianCategories are the categories a non-vegetarian filter picks from.
var nonVegetarianCategories = []string{"Chicken", "Beef", "Pork", "Seafood", "Lamb"}

// Filters narrows a browse request. The first non-empty of Category, Area
// and DietaryPreference decides the remote query; with none set a single
// random recipe is returned.
type Filters struct {
	Category          string
	Area              string
	DietaryPreference string
}

// Picker returns an index in [0, n).
type Picker func(n int) int

// Orchestrator turns user search intents into Source queries.
// It holds no per-call state and never retries.
type Orchestrator struct {
	source  recipe.Source
	matcher *dietary.Matcher
	pick    Picker
	logger  *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPicker replaces the random category picker.
func WithPicker(p Picker) Option {
	return func(o *Orchestrator) { o.pick = p }
}

// NewOrchestrator creates an Orchestrator over source.
func NewOrchestrator(source recipe.Source, matcher *dietary.Matcher, l *zap.Logger, opts ...Option) *Orchestrator {
	l = logger.OrNop(l)
	if matcher == nil {
		matcher = dietary.NewMatcher(l)
	}
	o := &Orchestrator{source: source, matcher: matcher, pick: rand.IntN, logger: l}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func requestFailed(op string, err error) error {
	if errors.Is(err, recipe.ErrRequestFailed) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, recipe.ErrRequestFailed, err)
}

// SearchByText searches by recipe name or ingredient. A blank query returns
// an empty result without calling the Source.
func (o *Orchestrator) SearchByText(ctx context.Context, query string, mode Mode) ([]recipe.Recipe, error) {
	query = strings.TrimSpace(query)
	if mode != ByName && mode != ByIngredient {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if query == "" {
		return []recipe.Recipe{}, nil
	}

	var (
		results []recipe.Recipe
		err     error
	)
	if mode == ByName {
		results, err = o.source.SearchByName(ctx, query)
	} else {
		results, err = o.source.SearchByIngredient(ctx, query)
	}
	if err != nil {
		return nil, requestFailed("search recipes", err)
	}
	return nonNil(results), nil
}

// RandomOne fetches a single random recipe. ok is false when the Source
// had nothing to return.
func (o *Orchestrator) RandomOne(ctx context.Context) (recipe.Recipe, bool, error) {
	r, ok, err := o.source.GetRandom(ctx)
	if err != nil {
		return recipe.Recipe{}, false, requestFailed("fetch random recipe", err)
	}
	return r, ok, nil
}

// Lookup fetches the full record for id.
func (o *Orchestrator) Lookup(ctx context.Context, id string) (recipe.Recipe, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return recipe.Recipe{}, fmt.Errorf("%w: empty id", recipe.ErrNotFound)
	}
	r, ok, err := o.source.GetByID(ctx, id)
	if err != nil {
		return recipe.Recipe{}, requestFailed("look up recipe", err)
	}
	if !ok {
		return recipe.Recipe{}, fmt.Errorf("%w: %s", recipe.ErrNotFound, id)
	}
	return r, nil
}

// FilterBy runs the browse query chosen by f and, when a dietary preference
// is set, keeps only the results that satisfy it.
func (o *Orchestrator) FilterBy(ctx context.Context, f Filters) ([]recipe.Recipe, error) {
	log := logger.FromContext(ctx, o.logger)
	preference := dietary.Normalize(f.DietaryPreference)

	var (
		results []recipe.Recipe
		err     error
	)
	switch {
	case f.Category != "":
		results, err = o.source.FilterByCategory(ctx, f.Category)
	case f.Area != "":
		results, err = o.source.FilterByArea(ctx, f.Area)
	case preference != "":
		results, err = o.byPreference(ctx, log, preference)
	default:
		var (
			r  recipe.Recipe
			ok bool
		)
		r, ok, err = o.source.GetRandom(ctx)
		if ok {
			results = []recipe.Recipe{r}
		}
	}
	if err != nil {
		return nil, requestFailed("filter recipes", err)
	}

	if preference != "" {
		results = o.FilterResults(results, preference)
	}
	return nonNil(results), nil
}

func (o *Orchestrator) byPreference(ctx context.Context, log *zap.Logger, preference string) ([]recipe.Recipe, error) {
	switch preference {
	case dietary.Vegetarian:
		results, err := o.source.FilterByCategory(ctx, "Vegetarian")
		if err != nil || len(results) > 0 {
			return results, err
		}
		log.Debug("vegetarian category empty, falling back to name search",
			zap.String("query", vegetarianFallbackQuery))
		return o.source.SearchByName(ctx, vegetarianFallbackQuery)
	case dietary.NonVegetarian:
		category := nonVegetarianCategories[o.pick(len(nonVegetarianCategories))]
		log.Debug("picked non-vegetarian category", zap.String("category", category))
		return o.source.FilterByCategory(ctx, category)
	case dietary.Vegan:
		return o.source.FilterByCategory(ctx, "Vegan")
	default:
		log.Warn("no browse query for dietary preference", zap.String("preference", preference))
		return nil, nil
	}
}

// FilterResults keeps the recipes that satisfy preference. An empty
// preference keeps everything.
func (o *Orchestrator) FilterResults(recipes []recipe.Recipe, preference string) []recipe.Recipe {
	if strings.TrimSpace(preference) == "" {
		return nonNil(recipes)
	}
	return o.matcher.Filter(recipes, []string{preference})
}

// Categories lists the Source's recipe categories.
func (o *Orchestrator) Categories(ctx context.Context) ([]string, error) {
	names, err := o.source.ListCategories(ctx)
	if err != nil {
		return nil, requestFailed("list categories", err)
	}
	return names, nil
}

// Areas lists the Source's cuisine areas.
func (o *Orchestrator) Areas(ctx context.Context) ([]string, error) {
	names, err := o.source.ListAreas(ctx)
	if err != nil {
		return nil, requestFailed("list areas", err)
	}
	return names, nil
}

// Ingredients lists the Source's known ingredients.
func (o *Orchestrator) Ingredients(ctx context.Context) ([]string, error) {
	names, err := o.source.ListIngredients(ctx)
	if err != nil {
		return nil, requestFailed("list ingredients", err)
	}
	return names, nil
}

func nonNil(rs []recipe.Recipe) []recipe.Recipe {
	if rs == nil {
		return []recipe.Recipe{}
	}
	return rs
}
