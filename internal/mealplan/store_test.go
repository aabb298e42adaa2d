package mealplan

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"planneat/internal/recipe"
	"planneat/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type flakyKV struct {
	*storage.MemoryStore
	failSet bool
	failGet bool
}

func newFlakyKV() *flakyKV { return &flakyKV{MemoryStore: storage.NewMemoryStore()} }

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errors.New("disk unreadable")
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func classified(id, name string) recipe.ClassifiedRecipe {
	r := recipe.Recipe{ID: id, Name: name, Category: "Vegetarian"}
	r.SetIngredient(1, "Rice", "1 cup")
	return recipe.Classify(r)
}

func date(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := ParseDateKey(key)
	require.NoError(t, err)
	return d
}

func TestStore_AddGetRemove(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := NewStore(ctx, kv, nil)
	monday := date(t, "2024-03-11")

	require.NoError(t, s.AddMeal(ctx, monday, Lunch, classified("1", "Dal fry")))
	got, ok := s.GetMeal(monday, Lunch)
	require.True(t, ok)
	assert.Equal(t, "Dal fry", got.Name)

	require.NoError(t, s.AddMeal(ctx, monday, Lunch, classified("2", "Kedgeree")))
	got, ok = s.GetMeal(monday, Lunch)
	require.True(t, ok)
	assert.Equal(t, "2", got.ID, "last write wins")

	_, ok = s.GetMeal(monday, Dinner)
	assert.False(t, ok)

	require.NoError(t, s.RemoveMeal(ctx, monday, Lunch))
	_, ok = s.GetMeal(monday, Lunch)
	assert.False(t, ok)
	assert.NotContains(t, s.Snapshot(), "2024-03-11", "empty day must be pruned")
}

func TestStore_RemoveKeepsOtherSlots(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, storage.NewMemoryStore(), nil)
	d := date(t, "2024-03-12")

	require.NoError(t, s.AddMeal(ctx, d, Breakfast, classified("1", "Porridge")))
	require.NoError(t, s.AddMeal(ctx, d, Dinner, classified("2", "Curry")))
	require.NoError(t, s.RemoveMeal(ctx, d, Breakfast))

	snap := s.Snapshot()
	require.Contains(t, snap, "2024-03-12")
	assert.Len(t, snap["2024-03-12"], 1)
	assert.Equal(t, 1, s.Count())

	require.NoError(t, s.RemoveMeal(ctx, date(t, "2030-01-01"), Snack), "removing from an empty day is a no-op")
}

func TestStore_InvalidSlot(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := NewStore(ctx, kv, nil)
	d := date(t, "2024-03-12")

	err := s.AddMeal(ctx, d, Slot("brunch"), classified("1", "Eggs"))
	assert.ErrorIs(t, err, ErrInvalidSlot)
	assert.Empty(t, s.Snapshot())

	_, ok, _ := kv.Get(ctx, StorageKey)
	assert.False(t, ok, "a rejected add must not write")

	assert.ErrorIs(t, s.RemoveMeal(ctx, d, Slot("")), ErrInvalidSlot)
}

func TestStore_PersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	s := NewStore(ctx, kv, nil)
	d := date(t, "2024-03-13")

	require.NoError(t, s.AddMeal(ctx, d, Snack, classified("7", "Flapjack")))

	raw, ok, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.True(t, ok)

	var decoded map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Contains(t, decoded["2024-03-13"], "snack")

	reloaded := NewStore(ctx, kv, nil)
	got, ok := reloaded.GetMeal(d, Snack)
	require.True(t, ok)
	assert.Equal(t, s.Snapshot(), reloaded.Snapshot())
	assert.Equal(t, "Flapjack", got.Name)
	assert.True(t, got.IsVegetarian)
}

func TestStore_CorruptBlobStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, StorageKey, `{"2024-03-11": [not json`))

	core, logs := observer.New(zap.WarnLevel)
	s := NewStore(ctx, kv, zap.New(core))

	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 1, logs.FilterMessage("corrupt meal plan, starting empty").Len())
}

func TestStore_NullBlobStartsEmpty(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, StorageKey, "null"))

	core, logs := observer.New(zap.WarnLevel)
	s := NewStore(ctx, kv, zap.New(core))

	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 1, logs.FilterMessage("empty meal plan blob, starting empty").Len())

	monday := date(t, "2024-03-11")
	require.NotPanics(t, func() {
		require.NoError(t, s.AddMeal(ctx, monday, Lunch, classified("1", "Dal fry")))
	})
	assert.Equal(t, "Dal fry", s.Snapshot()["2024-03-11"][Lunch].Name)
}

func TestStore_UnreadableStorageStartsEmpty(t *testing.T) {
	kv := newFlakyKV()
	kv.failGet = true

	core, logs := observer.New(zap.WarnLevel)
	s := NewStore(context.Background(), kv, zap.New(core))

	assert.Empty(t, s.Snapshot())
	assert.Equal(t, 1, logs.Len())
}

func TestStore_DropsInvalidPersistedEntries(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryStore()
	require.NoError(t, kv.Set(ctx, StorageKey, `{
		"2024-03-11": {"brunch": {"idMeal": "1", "strMeal": "Eggs"}},
		"yesterday": {"lunch": {"idMeal": "2", "strMeal": "Soup"}},
		"2024-03-12": {"dinner": {"idMeal": "3", "strMeal": "Stew"}}
	}`))

	s := NewStore(ctx, kv, nil)
	snap := s.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, "Stew", snap["2024-03-12"][Dinner].Name)
}

func TestStore_WriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	kv := newFlakyKV()
	s := NewStore(ctx, kv, nil)
	d := date(t, "2024-03-14")

	kv.failSet = true
	err := s.AddMeal(ctx, d, Dinner, classified("9", "Lasagne"))
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrWriteFailed)

	got, ok := s.GetMeal(d, Dinner)
	require.True(t, ok)
	assert.Equal(t, "Lasagne", got.Name)

	kv.failSet = false
	require.NoError(t, s.AddMeal(ctx, d, Lunch, classified("10", "Soup")))
	reloaded := NewStore(ctx, kv, nil)
	assert.Equal(t, 2, reloaded.Count(), "next successful write persists the whole plan")
}

func TestStore_WeekProjection(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, storage.NewMemoryStore(), nil)

	wednesday := date(t, "2024-02-28")
	require.NoError(t, s.AddMeal(ctx, date(t, "2024-03-01"), Breakfast, classified("1", "Pancakes")))
	require.NoError(t, s.AddMeal(ctx, date(t, "2024-03-06"), Dinner, classified("2", "Out of range")))

	week := s.WeekProjection(wednesday)
	require.Len(t, week, DaysPerWeek)

	wantKeys := []string{"2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"}
	for i, day := range week {
		assert.Equal(t, wantKeys[i], day.DateKey)
		assert.Equal(t, wantKeys[i], DateKey(day.Date))
		assert.NotNil(t, day.Meals)
	}
	assert.Equal(t, time.Wednesday, week[0].Date.Weekday(), "projection starts on the given day")
	assert.Equal(t, "Pancakes", week[2].Meals[Breakfast].Name)
	assert.Equal(t, 1, week.MealCount())
	assert.Equal(t, wednesday, week.Start())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(ctx, storage.NewMemoryStore(), nil)
	d := date(t, "2024-03-11")
	require.NoError(t, s.AddMeal(ctx, d, Lunch, classified("1", "Dal")))

	snap := s.Snapshot()
	delete(snap["2024-03-11"], Lunch)
	snap["2099-01-01"] = nil

	week := s.WeekProjection(d)
	week[0].Meals[Dinner] = classified("x", "Injected")

	_, ok := s.GetMeal(d, Lunch)
	assert.True(t, ok)
	_, ok = s.GetMeal(d, Dinner)
	assert.False(t, ok)
	assert.Len(t, s.Snapshot(), 1)
}

func TestStartOfWeek(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2024-03-11", "2024-03-11"}, // Monday
		{"2024-03-13", "2024-03-11"},
		{"2024-03-17", "2024-03-11"}, // Sunday
		{"2024-03-01", "2024-02-26"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			in := date(t, tt.in).Add(15 * time.Hour)
			got := StartOfWeek(in)
			assert.Equal(t, tt.want, DateKey(got))
			assert.Equal(t, time.Monday, got.Weekday())
			assert.Zero(t, got.Hour())
		})
	}
}

func TestParseSlotAndDate(t *testing.T) {
	s, err := ParseSlot(" Dinner ")
	require.NoError(t, err)
	assert.Equal(t, Dinner, s)
	assert.Equal(t, "Dinner", s.Title())

	_, err = ParseSlot("supper")
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = ParseDateKey("11/03/2024")
	assert.Error(t, err)
}
