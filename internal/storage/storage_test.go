package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"planneat/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runKVSuite checks the contract every backend must satisfy.
func runKVSuite(t *testing.T, kv KV) {
	ctx := context.Background()

	t.Run("Get-Absent", func(t *testing.T) {
		_, ok, err := kv.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set-Get", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "favorites", `[{"idMeal":"52772"}]`))
		value, ok, err := kv.Get(ctx, "favorites")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `[{"idMeal":"52772"}]`, value)
	})

	t.Run("Set-Overwrites", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "mealPlan", `{}`))
		require.NoError(t, kv.Set(ctx, "mealPlan", `{"2024-01-01":{}}`))
		value, ok, err := kv.Get(ctx, "mealPlan")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, `{"2024-01-01":{}}`, value)
	})

	t.Run("Set-EmptyValue", func(t *testing.T) {
		require.NoError(t, kv.Set(ctx, "empty", ""))
		value, ok, err := kv.Get(ctx, "empty")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "", value)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, kv.Remove(ctx, "favorites"))
		_, ok, err := kv.Get(ctx, "favorites")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, kv.Remove(ctx, "never-set"))
	})
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	runKVSuite(t, store)

	require.NoError(t, store.Set(context.Background(), "mealPlan", "{}"))
	_, err = os.Stat(filepath.Join(dir, "mealPlan.json"))
	assert.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp files must not be left behind")
	}
}

func TestFileStore_SanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "../escape", "x"))
	_, err = os.Stat(filepath.Join(filepath.Dir(dir), "escape.json"))
	assert.True(t, os.IsNotExist(err))

	value, ok, err := store.Get(context.Background(), "../escape")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", value)
}

func TestFileStore_SetFailsWhenDirectoryGone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	assert.Error(t, store.Set(context.Background(), "favorites", "[]"))
}

func TestMemoryStore(t *testing.T) {
	runKVSuite(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	db, err := database.NewDB(filepath.Join(t.TempDir(), "kv.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runKVSuite(t, NewSQLiteStore(db.SQL))
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	store, err := NewRedisStore(context.Background(), RedisOptions{
		Addr:   addr,
		Prefix: "planneat-test:" + t.Name() + ":",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		for _, k := range []string{"favorites", "mealPlan", "empty"} {
			_ = store.Remove(ctx, k)
		}
		store.Close()
	})

	runKVSuite(t, store)
}
