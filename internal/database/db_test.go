package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestNewDB_CreatesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "planneat.db")

	db, err := NewDB(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"kv_entries", "source_calls"} {
		var name string
		err := db.SQL.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s", table)
		assert.Equal(t, table, name)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planneat.db")

	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))
}
