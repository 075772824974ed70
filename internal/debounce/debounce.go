// Package debounce coalesces bursts of events into a single call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs a callback once no trigger has arrived for the configured
// delay. Each trigger restarts the timer, so at most one call is pending at
// a time.
//
// All methods are safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	timer    *time.Timer
	pending  bool
	stopped  bool
	seq      uint64 // detects stale timer callbacks
	callback func()
}

// New creates a debouncer. A zero or negative delay makes Trigger run the
// callback synchronously.
func New(delay time.Duration, callback func()) *Debouncer {
	return &Debouncer{
		delay:    max(delay, 0),
		callback: callback,
	}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Trigger schedules the callback, cancelling any call already pending.
// It does nothing after Stop.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	if d.stopped || d.callback == nil {
		d.mu.Unlock()
		return
	}

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++

	if d.delay == 0 {
		d.pending = false
		d.mu.Unlock()
		d.callback()
		return
	}

	d.pending = true
	current := d.seq
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if !d.pending || d.seq != current || d.stopped {
			d.mu.Unlock()
			return
		}
		d.pending = false
		d.timer = nil
		d.mu.Unlock()
		d.callback()
	})
	d.mu.Unlock()
}

// Flush runs a pending call now instead of waiting for the delay. It
// returns false if nothing was pending.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++

	if !d.pending || d.stopped {
		d.mu.Unlock()
		return false
	}
	d.pending = false
	d.mu.Unlock()
	d.callback()
	return true
}

// Cancel drops a pending call. Later triggers still work.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

// Stop drops a pending call and disables the debouncer. A callback that has
// already started is not interrupted.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

// Pending returns true if a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}
