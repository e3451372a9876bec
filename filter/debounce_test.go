package filter

import (
	"testing"
	"time"

	"github.com/amonks/taskboard/internal/clock"
)

func TestDebouncerResetsOnTrigger(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	fired := 0
	d := NewDebouncer(c, time.Second, func() { fired++ })

	d.Trigger()
	c.Advance(900 * time.Millisecond)
	d.Trigger()
	c.Advance(900 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("expected no fire while triggers keep arriving, got %d", fired)
	}
	if !d.Pending() {
		t.Fatalf("expected a pending fire")
	}

	c.Advance(100 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("expected one fire, got %d", fired)
	}
	if d.Pending() {
		t.Fatalf("expected nothing pending after fire")
	}
}

func TestDebouncerStop(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	fired := 0
	d := NewDebouncer(c, time.Second, func() { fired++ })

	d.Trigger()
	d.Stop()
	c.Advance(time.Minute)
	if fired != 0 {
		t.Fatalf("expected stopped debouncer not to fire, got %d", fired)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected timer released, got %d pending", c.Pending())
	}
}
