// Package store keeps client-side collections of server entities.
//
// Each store owns one collection. Reads replace it wholesale; writes mutate
// it only after the server confirms the change. Overlapping calls are not
// ordered: whichever completes last wins.
package store

import (
	"context"
	"sync"

	"github.com/amonks/taskboard/api"
)

// State is a point-in-time copy of a collection.
type State[T api.Entity] struct {
	Items   []T
	Loading bool
	Err     string
}

// Collection holds entities in server order along with fetch status.
type Collection[T api.Entity] struct {
	mu      sync.Mutex
	items   []T
	loading bool
	err     string

	// OnChange, when set, is called after every state transition.
	OnChange func()
}

// Snapshot returns a copy of the current state.
func (c *Collection[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State[T]{
		Items:   append([]T(nil), c.items...),
		Loading: c.loading,
		Err:     c.err,
	}
}

// Items returns a copy of the entities.
func (c *Collection[T]) Items() []T {
	return c.Snapshot().Items
}

// Lookup returns the entity with the given id.
func (c *Collection[T]) Lookup(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (c *Collection[T]) mutate(fn func()) {
	c.mu.Lock()
	fn()
	c.mu.Unlock()
	if c.OnChange != nil {
		c.OnChange()
	}
}

// fetch runs a read and replaces the collection with its result. Loading
// is cleared however the read ends.
func (c *Collection[T]) fetch(ctx context.Context, op, fallback string, read func(context.Context) ([]T, error)) error {
	c.mutate(func() {
		c.loading = true
		c.err = ""
	})
	defer c.mutate(func() {
		c.loading = false
	})

	items, err := read(ctx)
	if err != nil {
		opErr := newOpError(op, fallback, err)
		c.mutate(func() {
			c.err = opErr.Message
		})
		return opErr
	}
	c.mutate(func() {
		c.items = append([]T(nil), items...)
	})
	return nil
}

func (c *Collection[T]) add(item T) {
	c.mutate(func() {
		c.items = append(c.items, item)
	})
}

func (c *Collection[T]) update(id string, apply func(*T)) {
	c.mutate(func() {
		for i := range c.items {
			if c.items[i].EntityID() == id {
				apply(&c.items[i])
			}
		}
	})
}

func (c *Collection[T]) remove(id string) {
	c.mutate(func() {
		kept := c.items[:0:0]
		for _, item := range c.items {
			if item.EntityID() != id {
				kept = append(kept, item)
			}
		}
		c.items = kept
	})
}
