// Package prefs stores small client-side values that survive restarts and
// expire after a while.
package prefs

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/amonks/taskboard/internal/clock"
	"github.com/amonks/taskboard/internal/validation"
)

// Store is a durable key/value slot with per-key expiry.
type Store interface {
	// Get returns the value for key. Missing and expired keys report false.
	Get(key string) (string, bool, error)

	// Set stores value for key until ttl elapses. A non-positive ttl never
	// expires.
	Set(key, value string, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	Close() error
}

// Backend selects a Store implementation.
type Backend string

const (
	// BackendFile keeps values in a JSON file.
	BackendFile Backend = "file"

	// BackendSQLite keeps values in a SQLite settings table.
	BackendSQLite Backend = "sqlite"
)

// ErrUnknownBackend indicates a backend name outside ValidBackends.
var ErrUnknownBackend = errors.New("unknown prefs backend")

// ValidBackends returns every supported backend.
func ValidBackends() []Backend {
	return []Backend{BackendFile, BackendSQLite}
}

// Options configures Open.
type Options struct {
	Backend Backend

	// Dir holds the backing file. It is created on first write.
	Dir string

	Clock clock.Clock
}

// Open returns the store selected by opts.
func Open(opts Options) (Store, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir, opts.Clock), nil
	case BackendSQLite:
		store, err := OpenSQLite(filepath.Join(opts.Dir, "prefs.db"), opts.Clock)
		if err != nil {
			return nil, fmt.Errorf("open sqlite prefs: %w", err)
		}
		return store, nil
	default:
		return nil, validation.FormatInvalidValueError(ErrUnknownBackend, opts.Backend, ValidBackends())
	}
}

func expiryFor(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

func expired(now, expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !now.Before(expiresAt)
}
