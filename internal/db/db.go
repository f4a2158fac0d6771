// Package db keeps the stage history in a SQLite file under the data
// directory. The schema is versioned with embedded goose migrations.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
)

// FileName is the database file inside the data directory
const FileName = "focuscycle.db"

//go:embed migrations/*.sql
var embedded embed.FS

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
	schema *goose.Provider
}

// DefaultDataDir returns the default data directory path
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".focuscycle"
	}
	return filepath.Join(home, ".local", "share", "focuscycle")
}

// Path returns the database file for a data directory
func Path(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// OpenDir opens the history database of a data directory
func OpenDir(dataDir string) (*DB, error) {
	return Open(Path(dataDir))
}

// Open opens the database at path, creating its directory, and applies any
// pending migrations
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// an open rows cursor holds the only connection, so scans must finish
	// before the next query
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db, err := migrate(sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// dsn enables WAL so the history command can read while a timer records
func dsn(path string) string {
	q := url.Values{}
	q.Set("_journal_mode", "WAL")
	q.Set("_busy_timeout", "5000")
	q.Set("_foreign_keys", "ON")
	return "file:" + path + "?" + q.Encode()
}

func migrate(sqlDB *sql.DB) (*DB, error) {
	dir, err := fs.Sub(embedded, "migrations")
	if err != nil {
		return nil, err
	}
	// the provider logs nothing unless asked, which keeps the TUI clean
	schema, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	if _, err := schema.Up(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &DB{DB: sqlDB, schema: schema}, nil
}

// Version returns the applied schema version
func (db *DB) Version(ctx context.Context) (int64, error) {
	return db.schema.GetDBVersion(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Transaction executes a function within a transaction
func (db *DB) Transaction(fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}
