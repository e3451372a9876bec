package prefs

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/amonks/taskboard/internal/clock"
)

//go:embed schema.sql
var schema string

// SQLiteStore keeps entries in a settings table.
type SQLiteStore struct {
	db    *sql.DB
	clock clock.Clock
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string, c clock.Clock) (*SQLiteStore, error) {
	if c == nil {
		c = clock.Real()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create prefs dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init prefs schema: %w", err)
	}
	return &SQLiteStore{db: db, clock: c}, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	var expiresAt sql.NullInt64
	err := s.db.QueryRow("SELECT value, expires_at FROM settings WHERE key = ?", key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read setting %q: %w", key, err)
	}
	if expiresAt.Valid && expired(s.clock.Now(), time.UnixMilli(expiresAt.Int64)) {
		return "", false, nil
	}
	return value, true, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(key, value string, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if at := expiryFor(s.clock.Now(), ttl); !at.IsZero() {
		expiresAt = sql.NullInt64{Int64: at.UnixMilli(), Valid: true}
	}
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`, key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("write setting %q: %w", key, err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM settings WHERE key = ?", key); err != nil {
		return fmt.Errorf("delete setting %q: %w", key, err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
