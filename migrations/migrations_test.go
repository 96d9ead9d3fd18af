package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", "file:"+filepath.Join(t.TempDir(), "migrations.db")+"?_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	require.NoError(t, err)
	return count == 1
}

func TestUpIsIdempotent(t *testing.T) {
	db := openSQLite(t)

	require.NoError(t, Up(db, SQLite))
	require.NoError(t, Up(db, SQLite))
	assert.True(t, tableExists(t, db, "nodes"))
}

func TestUniqueAddressConstraint(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Up(db, SQLite))

	insert := `INSERT INTO nodes (id, title, type, path, created_at, updated_at)
		VALUES (?, 'a', 0, '', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	_, err := db.Exec(insert, "11111111-1111-1111-1111-111111111111")
	require.NoError(t, err)
	_, err = db.Exec(insert, "22222222-2222-2222-2222-222222222222")
	assert.Error(t, err)
}

func TestDown(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, Up(db, SQLite))

	require.NoError(t, Down(db, SQLite))
	assert.False(t, tableExists(t, db, "nodes"))
}

func TestUnsupportedDialect(t *testing.T) {
	db := openSQLite(t)
	assert.Error(t, Up(db, Dialect("oracle")))
}
