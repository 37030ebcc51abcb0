// Package storage persists generated listings in SQLite so that degraded
// results can be reviewed by hand.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore records generations in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL mode and busy timeout let the CLI read while a generation writes
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}

	// Stored listings include seller-provided context
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		db.Close()
		return nil, fmt.Errorf("failed to set database permissions: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	query := `
	CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		model_identifier TEXT NOT NULL DEFAULT '',
		image_count INTEGER NOT NULL DEFAULT 0,
		parse_failed INTEGER NOT NULL,
		confidence REAL NOT NULL,
		title TEXT NOT NULL,
		content_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create generations table: %w", err)
	}

	indexQuery := `CREATE INDEX IF NOT EXISTS idx_generations_parse_failed ON generations (parse_failed, created_at)`
	if _, err := s.db.Exec(indexQuery); err != nil {
		return fmt.Errorf("failed to create generations index: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
