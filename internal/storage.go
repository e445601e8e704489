package internal

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// KVStore is a small string key/value store with localStorage semantics.
// Get reports a missing key with ok == false and a nil error.
type KVStore interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Keys(prefix string) ([]string, error)
	Close() error
}

// Backend names accepted by OpenStore
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// DefaultQuotaBytes mirrors the usual browser localStorage budget
const DefaultQuotaBytes = 5 * 1024 * 1024

// OpenStore opens the named backend under dir. A quota of zero or less
// disables the size check.
func OpenStore(backend, dir string, quota int) (KVStore, error) {
	switch backend {
	case BackendSQLite, "":
		db, err := OpenDatabase(filepath.Join(dir, "sessions.db"))
		if err != nil {
			return nil, &StorageError{Path: dir, Op: "open", Err: err}
		}
		return NewSQLiteStore(db, quota), nil
	case BackendFile:
		return NewFileStore(filepath.Join(dir, "sessions"), quota), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s (supported: sqlite, file)", backend)
	}
}

// SQLiteStore keeps values in the sessionKV table
type SQLiteStore struct {
	db    *sql.DB
	quota int
}

// NewSQLiteStore wraps an open database
func NewSQLiteStore(db *sql.DB, quota int) *SQLiteStore {
	return &SQLiteStore{db: db, quota: quota}
}

// DB exposes the underlying handle for diagnostics
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Get returns the value stored at key
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM sessionKV WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Path: key, Op: "get", Err: err}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Set stores value at key, failing with ErrQuotaExceeded when the
// store would grow past its quota
func (s *SQLiteStore) Set(key, value string) error {
	if s.quota > 0 {
		used, err := s.usedExcept(key)
		if err != nil {
			return &StorageError{Path: key, Op: "set", Err: err}
		}
		if used+len(key)+len(value) > s.quota {
			return &StorageError{Path: key, Op: "set", Err: ErrQuotaExceeded}
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO sessionKV (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli(),
	)
	if err != nil {
		return &StorageError{Path: key, Op: "set", Err: err}
	}
	return nil
}

func (s *SQLiteStore) usedExcept(key string) (int, error) {
	var used sql.NullInt64
	err := s.db.QueryRow(
		"SELECT SUM(LENGTH(key) + LENGTH(value)) FROM sessionKV WHERE key != ? AND value IS NOT NULL", key,
	).Scan(&used)
	if err != nil {
		return 0, err
	}
	return int(used.Int64), nil
}

// Remove deletes key. Removing a missing key is not an error.
func (s *SQLiteStore) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM sessionKV WHERE key = ?", key); err != nil {
		return &StorageError{Path: key, Op: "remove", Err: err}
	}
	return nil
}

// Keys lists stored keys starting with prefix
func (s *SQLiteStore) Keys(prefix string) ([]string, error) {
	pattern := strings.NewReplacer("%", `\%`, "_", `\_`).Replace(prefix) + "%"
	rows, err := s.db.Query(`SELECT key FROM sessionKV WHERE key LIKE ? ESCAPE '\' AND value IS NOT NULL ORDER BY key`, pattern)
	if err != nil {
		return nil, &StorageError{Path: prefix, Op: "keys", Err: err}
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, &StorageError{Path: prefix, Op: "keys", Err: err}
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Entries returns key/value rows for keys starting with prefix
func (s *SQLiteStore) Entries(prefix string) ([]KeyValuePair, error) {
	all, err := QuerySessionKV(s.db, "%")
	if err != nil {
		return nil, err
	}
	out := make([]KeyValuePair, 0, len(all))
	for _, p := range all {
		if strings.HasPrefix(p.Key, prefix) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
