package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Config holds database configuration.
type Config struct {
	Path string
}

// DB wraps the SQLite handle used for reference-data caching. Analytics
// results are never written here: reports are recomputed per request.
type DB struct {
	db *sql.DB
}

// RawDB returns the underlying *sql.DB for components that need direct access.
func (d *DB) RawDB() *sql.DB {
	return d.db
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Open creates the directory, opens the SQLite database, sets WAL mode and
// pragmas, and ensures all tables exist.
func Open(cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	dir := filepath.Dir(cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// In WAL mode SQLite supports concurrent readers with a single writer.
	sqlDB.SetMaxOpenConns(4)
	sqlDB.SetMaxIdleConns(2)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	if err := createTables(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return &DB{db: sqlDB}, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS benchmark_reference (
			source TEXT NOT NULL,
			service TEXT NOT NULL,
			average_cost REAL NOT NULL,
			percentile_50 REAL NOT NULL,
			percentile_90 REAL NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (source, service)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_benchmark_reference_updated ON benchmark_reference(source, updated_at)`,

		`CREATE TABLE IF NOT EXISTS rate_cache (
			provider TEXT NOT NULL,
			region TEXT NOT NULL,
			instance_type TEXT NOT NULL,
			price_per_hour REAL NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (provider, region, instance_type)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rate_cache_updated ON rate_cache(provider, region, updated_at)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}
	return nil
}
