package collab

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of triggers into one deferred call. Each
// Trigger resets the quiet-period timer; the function fires once the burst
// goes quiet. One abstraction serves all three debounce sites (document
// frames, awareness frames, autosave) so the timer lifecycle logic lives in
// exactly one place.
//
// Debouncing only controls frequency: the fired function reads the latest
// cumulative state, so no update is ever dropped.
type Debouncer struct {
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	pending bool
	stopped bool
	mutex   sync.Mutex
}

// NewDebouncer creates a debouncer that calls fn after delay of quiet
// following one or more Trigger calls.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger schedules the call, resetting the timer if one is already running.
func (d *Debouncer) Trigger() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		return
	}
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *Debouncer) fire() {
	d.mutex.Lock()
	if d.stopped || !d.pending {
		d.mutex.Unlock()
		return
	}
	d.pending = false
	d.mutex.Unlock()

	d.fn()
}

// Flush fires immediately if a call is pending, bypassing the timer.
func (d *Debouncer) Flush() {
	d.mutex.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	fire := d.pending && !d.stopped
	d.pending = false
	d.mutex.Unlock()

	if fire {
		d.fn()
	}
}

// Stop cancels any pending call. A stopped debouncer ignores further
// triggers, which lets torn-down sessions tolerate late callbacks.
func (d *Debouncer) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
	}
}
