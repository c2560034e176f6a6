package persist

import (
	"sync"
	"sync/atomic"

	"github.com/yndnr/storekeep/internal/telemetry/logger"
	"github.com/yndnr/storekeep/internal/telemetry/metric"
)

// State is the lifecycle position of an Attachment.
type State int32

const (
	StateCreated State = iota
	StateValidating
	StateRestoring
	StateRestored
	StateRestoreFailed
	StateRestoreSkipped
	StateSubscribed
	StateDisposed
	StateDisabled
)

var stateNames = [...]string{
	StateCreated:        "created",
	StateValidating:     "validating",
	StateRestoring:      "restoring",
	StateRestored:       "restored",
	StateRestoreFailed:  "restore_failed",
	StateRestoreSkipped: "restore_skipped",
	StateSubscribed:     "subscribed",
	StateDisposed:       "disposed",
	StateDisabled:       "disabled",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Attachment is the persistence lifecycle of one store.
type Attachment struct {
	id         string
	storeID    string
	store      Store
	serializer StateSerializer
	cfg        EffectiveConfig
	enabled    bool
	outcome    string

	debouncer   *Debouncer
	unsubscribe func()

	log     logger.Logger
	metrics *metric.Persist

	state atomic.Int32

	// mu serializes saves with Close.
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// ID returns the attachment's unique ID.
func (a *Attachment) ID() string { return a.id }

// StoreID returns the attached store's ID.
func (a *Attachment) StoreID() string { return a.storeID }

// Key returns the backing-store key, or "" when disabled.
func (a *Attachment) Key() string { return a.cfg.Key }

// Config returns the effective configuration.
func (a *Attachment) Config() EffectiveConfig { return a.cfg }

// Enabled reports whether persistence is active for the store.
func (a *Attachment) Enabled() bool { return a.enabled }

// State returns the current lifecycle state.
func (a *Attachment) State() State { return State(a.state.Load()) }

// RestoreOutcome returns restored, skipped, recovered or failed, or "" when
// no restore ran.
func (a *Attachment) RestoreOutcome() string { return a.outcome }

func (a *Attachment) setState(s State) {
	a.state.Store(int32(s))
}

// onChange is the store listener.
func (a *Attachment) onChange() error {
	if a.debouncer.Wait() > 0 {
		a.metrics.SaveScheduled(a.storeID, a.debouncer.Pending())
	}
	return a.debouncer.Trigger()
}

// save runs one write unless the attachment has been closed.
func (a *Attachment) save() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	return a.write()
}

func (a *Attachment) onSaveError(err error) {
	a.log.Error("debounced save failed", "error", err)
}

// Flush writes a pending debounced save now.
func (a *Attachment) Flush() error {
	if !a.enabled {
		return nil
	}
	return a.debouncer.Flush()
}

// Close unsubscribes from the store and drops any pending save. A save
// already running finishes before Close returns; none start afterwards.
// Safe to call more than once.
func (a *Attachment) Close() error {
	a.closeOnce.Do(func() {
		if !a.enabled {
			a.setState(StateDisposed)
			return
		}

		a.unsubscribe()
		if a.debouncer.Pending() {
			a.metrics.SaveCancelled(a.storeID)
		}
		a.debouncer.Cancel()

		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()

		a.setState(StateDisposed)
		a.metrics.Attached(-1)
		a.log.Debug("persistence detached")
	})
	return nil
}
