package search

import (
	"context"
	"errors"
	"testing"

	"planneat/internal/recipe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type sourceCall struct {
	method string
	arg    string
}

// fakeSource answers from per-method tables and records every call.
type fakeSource struct {
	byName     map[string][]recipe.Recipe
	byCategory map[string][]recipe.Recipe
	byArea     map[string][]recipe.Recipe
	byID       map[string]recipe.Recipe
	random     *recipe.Recipe
	err        error
	calls      []sourceCall
}

func (f *fakeSource) record(method, arg string) error {
	f.calls = append(f.calls, sourceCall{method, arg})
	return f.err
}

func (f *fakeSource) SearchByName(_ context.Context, q string) ([]recipe.Recipe, error) {
	if err := f.record("SearchByName", q); err != nil {
		return nil, err
	}
	return f.byName[q], nil
}

func (f *fakeSource) SearchByIngredient(_ context.Context, i string) ([]recipe.Recipe, error) {
	if err := f.record("SearchByIngredient", i); err != nil {
		return nil, err
	}
	return f.byName[i], nil
}

func (f *fakeSource) GetByID(_ context.Context, id string) (recipe.Recipe, bool, error) {
	if err := f.record("GetByID", id); err != nil {
		return recipe.Recipe{}, false, err
	}
	r, ok := f.byID[id]
	return r, ok, nil
}

func (f *fakeSource) GetRandom(context.Context) (recipe.Recipe, bool, error) {
	if err := f.record("GetRandom", ""); err != nil {
		return recipe.Recipe{}, false, err
	}
	if f.random == nil {
		return recipe.Recipe{}, false, nil
	}
	return *f.random, true, nil
}

func (f *fakeSource) FilterByCategory(_ context.Context, c string) ([]recipe.Recipe, error) {
	if err := f.record("FilterByCategory", c); err != nil {
		return nil, err
	}
	return f.byCategory[c], nil
}

func (f *fakeSource) FilterByArea(_ context.Context, a string) ([]recipe.Recipe, error) {
	if err := f.record("FilterByArea", a); err != nil {
		return nil, err
	}
	return f.byArea[a], nil
}

func (f *fakeSource) ListCategories(context.Context) ([]string, error) {
	return []string{"Beef", "Vegetarian"}, f.record("ListCategories", "")
}

func (f *fakeSource) ListAreas(context.Context) ([]string, error) {
	return []string{"Indian"}, f.record("ListAreas", "")
}

func (f *fakeSource) ListIngredients(context.Context) ([]string, error) {
	return []string{"Basil"}, f.record("ListIngredients", "")
}

func withIngredients(r recipe.Recipe, names ...string) recipe.Recipe {
	for i, n := range names {
		r.SetIngredient(i+1, n, "1")
	}
	return r
}

func TestSearchByText_NameThenVegetarianFilter(t *testing.T) {
	src := &fakeSource{byName: map[string][]recipe.Recipe{
		"chicken": {
			withIngredients(recipe.Recipe{ID: "1", Name: "Chicken Handi", Category: "Chicken"}, "Chicken", "Onion"),
			withIngredients(recipe.Recipe{ID: "2", Name: "Mock Chicken Tofu Bake", Category: "Vegetarian"}, "Tofu", "Soy sauce"),
			withIngredients(recipe.Recipe{ID: "3", Name: "Chicken Congee", Category: "Side"}, "Rice", "Chicken stock"),
		},
	}}
	o := NewOrchestrator(src, nil, nil)

	results, err := o.SearchByText(context.Background(), "chicken", ByName)
	require.NoError(t, err)
	require.Len(t, results, 3)

	filtered := o.FilterResults(results, "vegetarian")
	require.Len(t, filtered, 1)
	assert.Equal(t, "2", filtered[0].ID)

	assert.Len(t, o.FilterResults(results, ""), 3)
}

func TestSearchByText(t *testing.T) {
	src := &fakeSource{byName: map[string][]recipe.Recipe{
		"garlic": {{ID: "9", Name: "Garlic Bread"}},
	}}
	o := NewOrchestrator(src, nil, nil)
	ctx := context.Background()

	t.Run("blank query makes no call", func(t *testing.T) {
		results, err := o.SearchByText(ctx, "   ", ByName)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
		assert.Empty(t, src.calls)
	})

	t.Run("ingredient mode", func(t *testing.T) {
		results, err := o.SearchByText(ctx, " garlic ", ByIngredient)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, sourceCall{"SearchByIngredient", "garlic"}, src.calls[len(src.calls)-1])
	})

	t.Run("no matches is empty not nil", func(t *testing.T) {
		results, err := o.SearchByText(ctx, "unobtainium", ByName)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := o.SearchByText(ctx, "garlic", Mode("area"))
		assert.ErrorIs(t, err, ErrUnknownMode)
	})
}

func TestFilterBy_VegetarianFallbackRunsOnce(t *testing.T) {
	src := &fakeSource{byName: map[string][]recipe.Recipe{
		"vegetable": {
			{ID: "10", Name: "Vegetable Shepherd's Pie", Category: "Vegetarian"},
			{ID: "11", Name: "Vegetable Beef Soup", Category: "Beef"},
		},
	}}
	o := NewOrchestrator(src, nil, nil)

	results, err := o.FilterBy(context.Background(), Filters{DietaryPreference: "vegetarian"})
	require.NoError(t, err)

	assert.Equal(t, []sourceCall{
		{"FilterByCategory", "Vegetarian"},
		{"SearchByName", "vegetable"},
	}, src.calls)
	require.Len(t, results, 1)
	assert.Equal(t, "10", results[0].ID)
}

func TestFilterBy_VegetarianFallbackEmpty(t *testing.T) {
	src := &fakeSource{}
	o := NewOrchestrator(src, nil, nil)

	results, err := o.FilterBy(context.Background(), Filters{DietaryPreference: "Vegetarian"})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Len(t, src.calls, 2)
}

func TestFilterBy_VegetarianCategoryHit(t *testing.T) {
	src := &fakeSource{byCategory: map[string][]recipe.Recipe{
		"Vegetarian": {{ID: "1", Name: "Dal fry", Category: "Vegetarian"}},
	}}
	o := NewOrchestrator(src, nil, nil)

	results, err := o.FilterBy(context.Background(), Filters{DietaryPreference: "vegetarian"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Len(t, src.calls, 1, "no fallback when the category has results")
}

func TestFilterBy_NonVegetarianUsesPicker(t *testing.T) {
	for i, want := range nonVegetarianCategories {
		t.Run(want, func(t *testing.T) {
			src := &fakeSource{byCategory: map[string][]recipe.Recipe{
				want: {{ID: "1", Name: want + " Stew", Category: want}},
			}}
			o := NewOrchestrator(src, nil, nil, WithPicker(func(n int) int {
				assert.Equal(t, len(nonVegetarianCategories), n)
				return i
			}))

			results, err := o.FilterBy(context.Background(), Filters{DietaryPreference: "non-vegetarian"})
			require.NoError(t, err)
			assert.Len(t, results, 1)
			assert.Equal(t, []sourceCall{{"FilterByCategory", want}}, src.calls)
		})
	}
}

func TestFilterBy_Precedence(t *testing.T) {
	src := &fakeSource{
		byCategory: map[string][]recipe.Recipe{"Dessert": {{ID: "1", Name: "Apple Frangipan Tart", Category: "Dessert"}}},
		byArea:     map[string][]recipe.Recipe{"Indian": {{ID: "2", Name: "Lamb Biryani", Category: "Lamb"}}},
	}
	o := NewOrchestrator(src, nil, nil)
	ctx := context.Background()

	results, err := o.FilterBy(ctx, Filters{Category: "Dessert", Area: "Indian"})
	require.NoError(t, err)
	assert.Equal(t, "1", results[0].ID)

	results, err = o.FilterBy(ctx, Filters{Area: "Indian", DietaryPreference: "vegetarian"})
	require.NoError(t, err)
	assert.Empty(t, results, "preference post-filters the area results")

	assert.Equal(t, []sourceCall{{"FilterByCategory", "Dessert"}, {"FilterByArea", "Indian"}}, src.calls)
}

func TestFilterBy_NoFiltersReturnsOneRandom(t *testing.T) {
	src := &fakeSource{random: &recipe.Recipe{ID: "53013", Name: "Big Mac"}}
	o := NewOrchestrator(src, nil, nil)

	results, err := o.FilterBy(context.Background(), Filters{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "53013", results[0].ID)

	src.random = nil
	results, err = o.FilterBy(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFilterBy_UnknownPreference(t *testing.T) {
	src := &fakeSource{}
	core, logs := observer.New(zap.WarnLevel)
	o := NewOrchestrator(src, nil, zap.New(core))

	results, err := o.FilterBy(context.Background(), Filters{DietaryPreference: "pescatarian"})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, src.calls)
	assert.Equal(t, 1, logs.FilterMessage("no browse query for dietary preference").Len())
}

func TestFilterBy_Vegan(t *testing.T) {
	src := &fakeSource{byCategory: map[string][]recipe.Recipe{
		"Vegan": {{ID: "1", Name: "Vegan Lasagna", Category: "Vegan"}},
	}}
	o := NewOrchestrator(src, nil, nil)

	results, err := o.FilterBy(context.Background(), Filters{DietaryPreference: "vegan"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSourceFailuresAreRequestFailed(t *testing.T) {
	src := &fakeSource{err: errors.New("connection reset")}
	o := NewOrchestrator(src, nil, nil)
	ctx := context.Background()

	_, err := o.SearchByText(ctx, "pie", ByName)
	assert.ErrorIs(t, err, recipe.ErrRequestFailed)

	_, err = o.FilterBy(ctx, Filters{DietaryPreference: "vegetarian"})
	assert.ErrorIs(t, err, recipe.ErrRequestFailed)
	assert.Len(t, src.calls, 2, "a failed category fetch must not trigger the fallback")

	_, _, err = o.RandomOne(ctx)
	assert.ErrorIs(t, err, recipe.ErrRequestFailed)

	_, err = o.Lookup(ctx, "52772")
	assert.ErrorIs(t, err, recipe.ErrRequestFailed)
	assert.NotErrorIs(t, err, recipe.ErrNotFound)

	_, err = o.Categories(ctx)
	assert.ErrorIs(t, err, recipe.ErrRequestFailed)
}

func TestLookup(t *testing.T) {
	src := &fakeSource{byID: map[string]recipe.Recipe{"52772": {ID: "52772", Name: "Teriyaki Chicken Casserole"}}}
	o := NewOrchestrator(src, nil, nil)
	ctx := context.Background()

	r, err := o.Lookup(ctx, "52772")
	require.NoError(t, err)
	assert.Equal(t, "Teriyaki Chicken Casserole", r.Name)

	_, err = o.Lookup(ctx, "1")
	assert.ErrorIs(t, err, recipe.ErrNotFound)

	_, err = o.Lookup(ctx, " ")
	assert.ErrorIs(t, err, recipe.ErrNotFound)
}

func TestRandomOne_Absent(t *testing.T) {
	o := NewOrchestrator(&fakeSource{}, nil, nil)
	_, ok, err := o.RandomOne(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListings(t *testing.T) {
	o := NewOrchestrator(&fakeSource{}, nil, nil)
	ctx := context.Background()

	categories, err := o.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beef", "Vegetarian"}, categories)

	areas, err := o.Areas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Indian"}, areas)

	ingredients, err := o.Ingredients(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Basil"}, ingredients)
}
