package dietary

import (
	"strings"

	"planneat/internal/logger"
	"planneat/internal/recipe"

	"go.uber.org/zap"
)

// Restriction names understood by the Matcher.
const (
	Vegetarian    = "vegetarian"
	NonVegetarian = "non-vegetarian"
	Vegan         = "vegan"
	GlutenFree    = "gluten free"
	DairyFree     = "dairy free"
)

type predicate func(r recipe.Recipe) bool

var predicates = map[string]predicate{
	Vegetarian:    recipe.IsVegetarian,
	NonVegetarian: func(r recipe.Recipe) bool { return !recipe.IsVegetarian(r) },
	Vegan: func(r recipe.Recipe) bool {
		return strings.Contains(strings.ToLower(r.Category), "vegan")
	},
	GlutenFree: nameExcludes("pasta", "bread", "flour"),
	DairyFree:  nameExcludes("cheese", "milk", "butter"),
}

func nameExcludes(terms ...string) predicate {
	return func(r recipe.Recipe) bool {
		name := strings.ToLower(r.Name)
		for _, t := range terms {
			if strings.Contains(name, t) {
				return false
			}
		}
		return true
	}
}

// Matcher evaluates recipes against named dietary restrictions.
//
// Unknown restriction names do not fail a match; they are logged as
// unenforced so callers can see which filters had no effect.
type Matcher struct {
	logger *zap.Logger
}

// NewMatcher creates a Matcher.
func NewMatcher(l *zap.Logger) *Matcher {
	return &Matcher{logger: logger.OrNop(l)}
}

// Normalize lowercases and trims a restriction name.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Names lists the restriction names the Matcher enforces.
func Names() []string {
	return []string{Vegetarian, NonVegetarian, Vegan, GlutenFree, DairyFree}
}

// Known reports whether the restriction name has a predicate.
func Known(name string) bool {
	_, ok := predicates[Normalize(name)]
	return ok
}

// Matches reports whether r satisfies every restriction.
// An empty restriction set always matches.
func (m *Matcher) Matches(r recipe.Recipe, restrictions []string) bool {
	return matchAll(r, m.enforced(restrictions))
}

// Filter keeps the recipes that satisfy every restriction, preserving order.
// Each unknown restriction is logged once, not once per recipe.
func (m *Matcher) Filter(recipes []recipe.Recipe, restrictions []string) []recipe.Recipe {
	preds := m.enforced(restrictions)
	out := make([]recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if matchAll(r, preds) {
			out = append(out, r)
		}
	}
	return out
}

// enforced resolves restriction names to predicates and warns about the
// ones it does not know.
func (m *Matcher) enforced(restrictions []string) []predicate {
	preds := make([]predicate, 0, len(restrictions))
	for _, name := range restrictions {
		p, ok := predicates[Normalize(name)]
		if !ok {
			m.logger.Warn("unenforced dietary restriction", zap.String("restriction", name))
			continue
		}
		preds = append(preds, p)
	}
	return preds
}

func matchAll(r recipe.Recipe, preds []predicate) bool {
	for _, p := range preds {
		if !p(r) {
			return false
		}
	}
	return true
}
