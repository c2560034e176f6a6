// Package statestore is a small observable state container that satisfies
// the persist store contract. It backs the CLI demo runner and serves as the
// reference host adapter.
package statestore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/yndnr/storekeep/internal/persist"
	"github.com/yndnr/storekeep/internal/snapshot"
)

// ErrDisposed is returned by mutations on a disposed store.
var ErrDisposed = errors.New("statestore: store disposed")

// Store holds named cells and notifies listeners after each mutation.
type Store struct {
	id     string
	mapper *snapshot.Mapper

	// mu serializes mutations and snapshot reads.
	mu sync.Mutex

	lmu       sync.Mutex
	listeners map[uint64]persist.Listener
	nextID    uint64
	disposers []func() error
	disposed  bool
}

var _ persist.PersistableStore = (*Store)(nil)

// New creates a store over fields. defaults are applied by Reset.
func New(id string, fields, defaults map[string]any) *Store {
	return &Store{
		id:        id,
		mapper:    snapshot.New(fields, defaults),
		listeners: make(map[uint64]persist.Listener),
	}
}

// ID returns the store ID.
func (s *Store) ID() string {
	return s.id
}

// Fields returns the field names in stable order.
func (s *Store) Fields() []string {
	return s.mapper.Fields()
}

// Subscribe registers l for change notifications.
func (s *Store) Subscribe(l persist.Listener) func() {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			defer s.lmu.Unlock()
			delete(s.listeners, id)
		})
	}
}

// SerializeState returns a plain copy of every field.
func (s *Store) SerializeState() (persist.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mapper.SerializeState()
}

// RestoreState applies snap without notifying listeners.
func (s *Store) RestoreState(snap persist.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mapper.RestoreState(snap)
}

// Update runs fn as one mutation, then notifies listeners. Listener errors
// are joined and returned.
func (s *Store) Update(fn func() error) error {
	if s.isDisposed() {
		return ErrDisposed
	}

	s.mu.Lock()
	err := fn()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return s.notify()
}

// Patch restores snap and notifies listeners.
func (s *Store) Patch(snap persist.Snapshot) error {
	return s.Update(func() error {
		return s.mapper.RestoreState(snap)
	})
}

// Reset returns every field to its default and notifies listeners.
func (s *Store) Reset() error {
	return s.Update(s.mapper.Reset)
}

// OnDispose registers fn to run on Dispose. Callbacks run in reverse order.
func (s *Store) OnDispose(fn func() error) {
	s.lmu.Lock()
	defer s.lmu.Unlock()

	s.disposers = append(s.disposers, fn)
}

// Dispose runs the disposal callbacks and drops all listeners. Safe to call
// more than once.
func (s *Store) Dispose() error {
	s.lmu.Lock()
	if s.disposed {
		s.lmu.Unlock()
		return nil
	}
	s.disposed = true
	disposers := s.disposers
	s.disposers = nil
	s.lmu.Unlock()

	var errs []error
	for i := len(disposers) - 1; i >= 0; i-- {
		if err := disposers[i](); err != nil {
			errs = append(errs, err)
		}
	}

	s.lmu.Lock()
	clear(s.listeners)
	s.lmu.Unlock()

	return errors.Join(errs...)
}

// Listeners returns the number of active listeners.
func (s *Store) Listeners() int {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	return len(s.listeners)
}

func (s *Store) isDisposed() bool {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	return s.disposed
}

// notify calls listeners in subscription order, outside every lock.
func (s *Store) notify() error {
	s.lmu.Lock()
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	ls := make([]persist.Listener, 0, len(ids))
	for _, id := range ids {
		ls = append(ls, s.listeners[id])
	}
	s.lmu.Unlock()

	var errs []error
	for _, l := range ls {
		if err := l(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Attach attaches persistence to s and closes the attachment when s is
// disposed. A nil opts leaves the store unpersisted.
func Attach(ctx context.Context, c *persist.Coordinator, s *Store, opts *persist.Options) (*persist.Attachment, error) {
	a, err := c.Attach(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	s.OnDispose(a.Close)
	return a, nil
}
