package mealdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"planneat/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource counts calls per method and returns canned data.
type stubSource struct {
	calls map[string]int
	err   error
}

func newStubSource() *stubSource { return &stubSource{calls: map[string]int{}} }

func (s *stubSource) hit(method string) error {
	s.calls[method]++
	return s.err
}

func (s *stubSource) SearchByName(_ context.Context, q string) ([]recipe.Recipe, error) {
	if err := s.hit("SearchByName"); err != nil {
		return nil, err
	}
	return []recipe.Recipe{{ID: "1", Name: q}}, nil
}

func (s *stubSource) SearchByIngredient(_ context.Context, i string) ([]recipe.Recipe, error) {
	return nil, s.hit("SearchByIngredient")
}

func (s *stubSource) GetByID(_ context.Context, id string) (recipe.Recipe, bool, error) {
	if err := s.hit("GetByID"); err != nil {
		return recipe.Recipe{}, false, err
	}
	if id == "missing" {
		return recipe.Recipe{}, false, nil
	}
	return recipe.Recipe{ID: id}, true, nil
}

func (s *stubSource) GetRandom(context.Context) (recipe.Recipe, bool, error) {
	return recipe.Recipe{ID: "r"}, true, s.hit("GetRandom")
}

func (s *stubSource) FilterByCategory(context.Context, string) ([]recipe.Recipe, error) {
	return nil, s.hit("FilterByCategory")
}

func (s *stubSource) FilterByArea(context.Context, string) ([]recipe.Recipe, error) {
	return nil, s.hit("FilterByArea")
}

func (s *stubSource) ListCategories(context.Context) ([]string, error) {
	return []string{"Beef"}, s.hit("ListCategories")
}

func (s *stubSource) ListAreas(context.Context) ([]string, error) {
	return []string{"Thai"}, s.hit("ListAreas")
}

func (s *stubSource) ListIngredients(context.Context) ([]string, error) {
	return []string{"Egg"}, s.hit("ListIngredients")
}

func TestCachedSource_MemoizesSuccess(t *testing.T) {
	stub := newStubSource()
	cache := NewCachedSource(stub, 16, time.Minute)
	ctx := context.Background()

	for range 3 {
		got, err := cache.SearchByName(ctx, "pie")
		require.NoError(t, err)
		require.Len(t, got, 1)
		got[0].Name = "mutated"
	}
	assert.Equal(t, 1, stub.calls["SearchByName"])

	again, err := cache.SearchByName(ctx, "pie")
	require.NoError(t, err)
	assert.Equal(t, "pie", again[0].Name)

	_, err = cache.SearchByName(ctx, "soup")
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls["SearchByName"])

	for range 2 {
		_, found, err := cache.GetByID(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, 1, stub.calls["GetByID"])

	for range 2 {
		_, err := cache.ListCategories(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, stub.calls["ListCategories"])
}

func TestCachedSource_RandomIsNeverCached(t *testing.T) {
	stub := newStubSource()
	cache := NewCachedSource(stub, 16, time.Minute)

	for range 3 {
		_, _, err := cache.GetRandom(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, stub.calls["GetRandom"])
}

func TestCachedSource_FailuresAreNotCached(t *testing.T) {
	stub := newStubSource()
	stub.err = &RequestError{Endpoint: "search.php", Err: errors.New("boom")}
	cache := NewCachedSource(stub, 16, time.Minute)
	ctx := context.Background()

	_, err := cache.SearchByName(ctx, "pie")
	assert.ErrorIs(t, err, recipe.ErrRequestFailed)

	stub.err = nil
	got, err := cache.SearchByName(ctx, "pie")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, stub.calls["SearchByName"])
	assert.Equal(t, 1, cache.Len())

	cache.Purge()
	assert.Equal(t, 0, cache.Len())
}

type call struct {
	method string
	err    error
}

type recordingObserver struct{ calls []call }

func (o *recordingObserver) ObserveCall(method string, _ time.Duration, err error) {
	o.calls = append(o.calls, call{method: method, err: err})
}

func TestInstrumentedSource_ReportsEveryCall(t *testing.T) {
	stub := newStubSource()
	obs := &recordingObserver{}
	src := NewInstrumentedSource(stub, obs)
	ctx := context.Background()

	_, _ = src.SearchByName(ctx, "pie")
	_, _, _ = src.GetByID(ctx, "1")
	_, _ = src.ListAreas(ctx)

	stub.err = errors.New("down")
	_, _ = src.FilterByArea(ctx, "Thai")

	require.Len(t, obs.calls, 4)
	assert.Equal(t, "search_by_name", obs.calls[0].method)
	assert.Equal(t, "get_by_id", obs.calls[1].method)
	assert.Equal(t, "list_areas", obs.calls[2].method)
	assert.Equal(t, "filter_by_area", obs.calls[3].method)
	assert.NoError(t, obs.calls[0].err)
	assert.EqualError(t, obs.calls[3].err, "down")
}

func TestInstrumentedSource_NilObserver(t *testing.T) {
	src := NewInstrumentedSource(newStubSource(), nil)
	_, err := src.ListIngredients(context.Background())
	assert.NoError(t, err)
}
