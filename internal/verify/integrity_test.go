package verify

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"litestream-sidecar/internal/apperrors"
)

func createTestDB(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE entries (id INTEGER PRIMARY KEY, body TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO entries (body) VALUES ('hello'), ('world')`)
	require.NoError(t, err)

	return dbPath
}

func TestChecker_Check_ValidDatabase(t *testing.T) {
	dbPath := createTestDB(t)

	err := NewChecker().Check(context.Background(), dbPath)

	assert.NoError(t, err)
}

func TestChecker_Check_MissingFile(t *testing.T) {
	err := NewChecker().Check(context.Background(), filepath.Join(t.TempDir(), "absent.sqlite"))

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeIntegrity))
	assert.Contains(t, err.Error(), "not readable")
}

func TestChecker_Check_TruncatedFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")
	require.NoError(t, os.WriteFile(dbPath, []byte("SQLite"), 0o644))

	err := NewChecker().Check(context.Background(), dbPath)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeIntegrity))
	assert.Contains(t, err.Error(), "truncated")
}

func TestChecker_Check_NotADatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db.sqlite")
	require.NoError(t, os.WriteFile(dbPath, []byte("definitely not sqlite content"), 0o644))

	err := NewChecker().Check(context.Background(), dbPath)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeIntegrity))
	assert.Contains(t, err.Error(), "not a sqlite database")
}

func TestChecker_Check_LeavesFileUntouched(t *testing.T) {
	dbPath := createTestDB(t)
	before, err := os.ReadFile(dbPath)
	require.NoError(t, err)

	require.NoError(t, NewChecker().Check(context.Background(), dbPath))

	after, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
