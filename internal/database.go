package internal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const createSessionKVTable = `
CREATE TABLE IF NOT EXISTS sessionKV (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at INTEGER NOT NULL DEFAULT 0
)`

// OpenDatabase opens (creating if needed) the SQLite session database
func OpenDatabase(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases shared and writes ordered
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the sessionKV table when missing
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(createSessionKVTable); err != nil {
		return fmt.Errorf("failed to create sessionKV table: %w", err)
	}
	return nil
}

// QuerySessionKV queries the sessionKV table with a LIKE pattern
func QuerySessionKV(db *sql.DB, pattern string) ([]KeyValuePair, error) {
	query := "SELECT key, value, updated_at FROM sessionKV WHERE key LIKE ? AND value IS NOT NULL ORDER BY key"
	rows, err := db.Query(query, pattern)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var pairs []KeyValuePair
	for rows.Next() {
		var pair KeyValuePair
		var value sql.NullString
		if err := rows.Scan(&pair.Key, &value, &pair.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		if value.Valid {
			pair.Value = value.String
			pairs = append(pairs, pair)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return pairs, nil
}

// KeyValuePair represents a row from sessionKV
type KeyValuePair struct {
	Key       string
	Value     string
	UpdatedAt int64 // unix millis
}
