package prefs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/amonks/taskboard/internal/clock"
)

// FileStore keeps entries in prefs.json under a directory.
type FileStore struct {
	dir   string
	clock clock.Clock
}

type fileEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// NewFileStore creates a file-backed store in dir.
func NewFileStore(dir string, c clock.Clock) *FileStore {
	if c == nil {
		c = clock.Real()
	}
	return &FileStore{dir: dir, clock: c}
}

func (s *FileStore) path() string {
	return filepath.Join(s.dir, "prefs.json")
}

func (s *FileStore) lockPath() string {
	return filepath.Join(s.dir, "prefs.lock")
}

// Get implements Store.
func (s *FileStore) Get(key string) (string, bool, error) {
	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	entry, ok := entries[key]
	if !ok || expired(s.clock.Now(), entry.ExpiresAt) {
		return "", false, nil
	}
	return entry.Value, true, nil
}

// Set implements Store.
func (s *FileStore) Set(key, value string, ttl time.Duration) error {
	return s.update(func(entries map[string]fileEntry) {
		entries[key] = fileEntry{Value: value, ExpiresAt: expiryFor(s.clock.Now(), ttl)}
	})
}

// Delete implements Store.
func (s *FileStore) Delete(key string) error {
	return s.update(func(entries map[string]fileEntry) {
		delete(entries, key)
	})
}

// Close implements Store.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) load() (map[string]fileEntry, error) {
	data, err := os.ReadFile(s.path())
	if os.IsNotExist(err) {
		return map[string]fileEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read prefs file: %w", err)
	}

	entries := map[string]fileEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal prefs: %w", err)
	}
	return entries, nil
}

func (s *FileStore) save(entries map[string]fileEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if existing, err := os.ReadFile(s.path()); err == nil {
		if bytes.Equal(existing, data) {
			return nil
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("read prefs file: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, filepath.Base(s.path())+".tmp")
	if err != nil {
		return fmt.Errorf("create temp prefs file: %w", err)
	}
	name := tmpFile.Name()
	_, err = tmpFile.Write(data)
	if err1 := tmpFile.Close(); err1 != nil && err == nil {
		err = err1
	}
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("write temp prefs file: %w", err)
	}

	if err := os.Rename(name, s.path()); err != nil {
		os.Remove(name)
		return fmt.Errorf("rename prefs file: %w", err)
	}
	return nil
}

// update reads, modifies and writes the entries under an exclusive lock.
// Expired entries are dropped on the way through.
func (s *FileStore) update(fn func(map[string]fileEntry)) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	lockFile, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open lock file: %w", err)
	}
	defer lockFile.Close()

	if err := syscall.Flock(int(lockFile.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(lockFile.Fd()), syscall.LOCK_UN)

	entries, err := s.load()
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		slog.Warn("replacing unreadable prefs file", "path", s.path(), "error", err)
		entries, err = map[string]fileEntry{}, nil
	}
	if err != nil {
		return err
	}
	now := s.clock.Now()
	for key, entry := range entries {
		if expired(now, entry.ExpiresAt) {
			delete(entries, key)
		}
	}
	fn(entries)
	return s.save(entries)
}
