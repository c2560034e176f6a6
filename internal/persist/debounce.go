package persist

import (
	"sync"
	"time"
)

// Clock schedules deferred calls. Tests swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled call that can be stopped.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the Clock backed by time.AfterFunc.
func SystemClock() Clock {
	return systemClock{}
}

// Debouncer coalesces bursts of triggers into one call of action, run
// wait after the last trigger. A zero wait runs action synchronously.
type Debouncer struct {
	action  func() error
	wait    time.Duration
	clock   Clock
	onError func(error)

	mu    sync.Mutex
	timer Timer
	gen   uint64 // bumped on every schedule/cancel; stale fires compare against it
}

// DebounceOption configures a Debouncer.
type DebounceOption func(*Debouncer)

// DebounceClock sets the time source.
func DebounceClock(c Clock) DebounceOption {
	return func(d *Debouncer) {
		if c != nil {
			d.clock = c
		}
	}
}

// DebounceErrorHandler receives errors from timer-fired actions.
func DebounceErrorHandler(fn func(error)) DebounceOption {
	return func(d *Debouncer) {
		d.onError = fn
	}
}

// NewDebouncer creates a Debouncer for action.
func NewDebouncer(action func() error, wait time.Duration, opts ...DebounceOption) *Debouncer {
	if wait < 0 {
		wait = 0
	}
	d := &Debouncer{
		action: action,
		wait:   wait,
		clock:  SystemClock(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Debounce returns the trigger and cancel functions of a new Debouncer.
func Debounce(action func() error, wait time.Duration) (trigger func() error, cancel func()) {
	d := NewDebouncer(action, wait)
	return d.Trigger, d.Cancel
}

// Wait returns the configured delay.
func (d *Debouncer) Wait() time.Duration {
	return d.wait
}

// Trigger schedules action, replacing any pending call. With a zero wait it
// runs action now and returns its error.
func (d *Debouncer) Trigger() error {
	if d.wait == 0 {
		return d.action()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(gen) })
	return nil
}

// Cancel drops the pending call, if any. Safe to call repeatedly.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.timer != nil
}

// Flush runs the pending call now. It is a no-op when nothing is pending.
func (d *Debouncer) Flush() error {
	d.mu.Lock()
	if d.timer == nil {
		d.mu.Unlock()
		return nil
	}
	d.stopLocked()
	d.mu.Unlock()

	return d.action()
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	if err := d.action(); err != nil && d.onError != nil {
		d.onError(err)
	}
}
