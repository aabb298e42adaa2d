package mealdb

import (
	"context"
	"time"

	"planneat/internal/recipe"
)

// Observer receives the outcome of every Source call.
type Observer interface {
	ObserveCall(method string, d time.Duration, err error)
}

// InstrumentedSource reports each call on the wrapped Source to an Observer.
type InstrumentedSource struct {
	next     recipe.Source
	observer Observer
}

var _ recipe.Source = (*InstrumentedSource)(nil)

func NewInstrumentedSource(next recipe.Source, observer Observer) *InstrumentedSource {
	return &InstrumentedSource{next: next, observer: observer}
}

func (s *InstrumentedSource) observe(method string, start time.Time, err error) {
	if s.observer != nil {
		s.observer.ObserveCall(method, time.Since(start), err)
	}
}

func (s *InstrumentedSource) list(method string, call func() ([]recipe.Recipe, error)) ([]recipe.Recipe, error) {
	start := time.Now()
	out, err := call()
	s.observe(method, start, err)
	return out, err
}

func (s *InstrumentedSource) names(method string, call func() ([]string, error)) ([]string, error) {
	start := time.Now()
	out, err := call()
	s.observe(method, start, err)
	return out, err
}

func (s *InstrumentedSource) one(method string, call func() (recipe.Recipe, bool, error)) (recipe.Recipe, bool, error) {
	start := time.Now()
	r, found, err := call()
	s.observe(method, start, err)
	return r, found, err
}

func (s *InstrumentedSource) SearchByName(ctx context.Context, query string) ([]recipe.Recipe, error) {
	return s.list("search_by_name", func() ([]recipe.Recipe, error) { return s.next.SearchByName(ctx, query) })
}

func (s *InstrumentedSource) SearchByIngredient(ctx context.Context, ingredient string) ([]recipe.Recipe, error) {
	return s.list("search_by_ingredient", func() ([]recipe.Recipe, error) { return s.next.SearchByIngredient(ctx, ingredient) })
}

func (s *InstrumentedSource) FilterByCategory(ctx context.Context, category string) ([]recipe.Recipe, error) {
	return s.list("filter_by_category", func() ([]recipe.Recipe, error) { return s.next.FilterByCategory(ctx, category) })
}

func (s *InstrumentedSource) FilterByArea(ctx context.Context, area string) ([]recipe.Recipe, error) {
	return s.list("filter_by_area", func() ([]recipe.Recipe, error) { return s.next.FilterByArea(ctx, area) })
}

func (s *InstrumentedSource) GetByID(ctx context.Context, id string) (recipe.Recipe, bool, error) {
	return s.one("get_by_id", func() (recipe.Recipe, bool, error) { return s.next.GetByID(ctx, id) })
}

func (s *InstrumentedSource) GetRandom(ctx context.Context) (recipe.Recipe, bool, error) {
	return s.one("get_random", func() (recipe.Recipe, bool, error) { return s.next.GetRandom(ctx) })
}

func (s *InstrumentedSource) ListCategories(ctx context.Context) ([]string, error) {
	return s.names("list_categories", func() ([]string, error) { return s.next.ListCategories(ctx) })
}

func (s *InstrumentedSource) ListAreas(ctx context.Context) ([]string, error) {
	return s.names("list_areas", func() ([]string, error) { return s.next.ListAreas(ctx) })
}

func (s *InstrumentedSource) ListIngredients(ctx context.Context) ([]string, error) {
	return s.names("list_ingredients", func() ([]string, error) { return s.next.ListIngredients(ctx) })
}
