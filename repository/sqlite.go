package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ammiranda/td/config"
	"github.com/ammiranda/td/migrations"
	"github.com/mattn/go-sqlite3"
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	*sqlStore
	db     *sql.DB
	dbPath string
}

var sqliteDialect = dialect{
	isDuplicate: func(err error) bool {
		var se sqlite3.Error
		return errors.As(err, &se) &&
			(se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey)
	},
}

// NewSQLiteRepository creates a new SQLite repository instance. An empty
// dbPath selects the default database under the user's home directory.
func NewSQLiteRepository(dbPath string) *SQLiteRepository {
	if dbPath == "" {
		dbPath = config.DefaultSQLitePath()
	}
	return &SQLiteRepository{dbPath: dbPath}
}

// Path returns the database file the repository opens.
func (r *SQLiteRepository) Path() string {
	return r.dbPath
}

// Initialize opens the database file and migrates it
func (r *SQLiteRepository) Initialize(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.dbPath), 0o755); err != nil {
		return fmt.Errorf("error creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+r.dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}
	// SQLite serializes writers anyway; one connection keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("error pinging database: %w", err)
	}

	if err := migrations.Up(db, migrations.SQLite); err != nil {
		db.Close()
		return fmt.Errorf("error running migrations: %w", err)
	}

	r.db = db
	r.sqlStore = &sqlStore{q: db, dialect: sqliteDialect}
	return nil
}

// Cleanup closes the database connection
func (r *SQLiteRepository) Cleanup(ctx context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WithTx runs fn inside a transaction
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(Store) error) error {
	return withTx(ctx, r.db, sqliteDialect, fn)
}
