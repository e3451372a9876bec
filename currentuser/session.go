// Package currentuser tracks the user the client acts as.
//
// A Session is built once at startup from the durable prefs slot and is
// handed to consumers through a context.Context.
package currentuser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/amonks/taskboard/api"
	"github.com/amonks/taskboard/internal/prefs"
)

// Key is the prefs key holding the selected user.
const Key = "currentUser"

// Expiry is how long a selection survives without being set again.
const Expiry = 7 * 24 * time.Hour

// Options configures Open.
type Options struct {
	Logger *slog.Logger
}

// Session holds at most one selected user.
type Session struct {
	slot   prefs.Store
	logger *slog.Logger

	mu        sync.Mutex
	user      *api.User
	listeners []func(*api.User)
}

// Open restores the selection persisted in slot. Missing, expired or
// malformed data yields an empty session; problems are logged, not
// returned.
func Open(slot prefs.Store, opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{slot: slot, logger: logger}

	raw, ok, err := slot.Get(Key)
	if err != nil {
		logger.Warn("read current user", "error", err)
		return s
	}
	if !ok {
		return s
	}

	var user api.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logger.Warn("ignoring malformed current user", "error", err)
		return s
	}
	if user.ID == "" {
		logger.Warn("ignoring current user without id")
		return s
	}
	s.user = &user
	return s
}

// User returns the selected user.
func (s *Session) User() (api.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return api.User{}, false
	}
	return *s.user, true
}

// UserID returns the id of the selected user, or "".
func (s *Session) UserID() string {
	user, _ := s.User()
	return user.ID
}

// Set selects user, or clears the selection when user is nil. The change
// is persisted before Set returns; the in-memory selection changes even
// when persisting fails.
func (s *Session) Set(user *api.User) error {
	s.mu.Lock()
	if user != nil {
		copied := *user
		s.user = &copied
	} else {
		s.user = nil
	}
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	err := s.persist(user)
	for _, fn := range listeners {
		fn(user)
	}
	return err
}

// OnChange registers fn to run after every Set.
func (s *Session) OnChange(fn func(*api.User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) persist(user *api.User) error {
	if user == nil {
		if err := s.slot.Delete(Key); err != nil {
			return fmt.Errorf("clear current user: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal current user: %w", err)
	}
	if err := s.slot.Set(Key, string(data), Expiry); err != nil {
		return fmt.Errorf("save current user: %w", err)
	}
	return nil
}

type contextKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// Lookup returns the session attached to ctx.
func Lookup(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// FromContext returns the session attached to ctx. It panics when there is
// none: reaching for the current user outside a session is a wiring bug.
func FromContext(ctx context.Context) *Session {
	s, ok := Lookup(ctx)
	if !ok {
		panic("currentuser: no session in context")
	}
	return s
}
