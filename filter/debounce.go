package filter

import (
	"sync"
	"time"

	"github.com/amonks/taskboard/internal/clock"
)

// Debouncer runs fire once its input has been quiet for a fixed delay.
// Every Trigger restarts the wait.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration
	fire  func()

	mu    sync.Mutex
	timer *clock.Timer
	gen   uint64
}

// NewDebouncer returns a Debouncer that calls fire after delay of quiet.
func NewDebouncer(c clock.Clock, delay time.Duration, fire func()) *Debouncer {
	if c == nil {
		c = clock.Real()
	}
	return &Debouncer{clock: c, delay: delay, fire: fire}
}

// Trigger restarts the quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.gen != gen {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		d.fire()
	})
}

// Stop cancels a pending fire.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Pending reports whether a fire is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// stopLocked also bumps the generation so a real timer that already
// started its callback becomes a no-op.
func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}
