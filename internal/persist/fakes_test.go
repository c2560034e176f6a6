package persist

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// manualClock fires timers only when advanced.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Now returns the elapsed fake time.
func (c *manualClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves time forward by d, firing due timers in order.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		var next *manualTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

// counterStore is a minimal store with count and name fields.
type counterStore struct {
	id string

	mu        sync.Mutex
	count     int
	name      string
	listeners map[int]Listener
	nextID    int
	restoreFn func(Snapshot) error
}

func newCounterStore(id string) *counterStore {
	return &counterStore{
		id:        id,
		name:      "original",
		listeners: make(map[int]Listener),
	}
}

func (s *counterStore) ID() string { return s.id }

func (s *counterStore) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *counterStore) SerializeState() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{"count": s.count, "name": s.name}, nil
}

func (s *counterStore) RestoreState(snap Snapshot) error {
	if s.restoreFn != nil {
		return s.restoreFn(snap)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := snap["count"]; ok {
		switch n := v.(type) {
		case float64:
			s.count = int(n)
		case int:
			s.count = n
		default:
			return fmt.Errorf("count: unexpected %T", v)
		}
	}
	if v, ok := snap["name"].(string); ok {
		s.name = v
	}
	return nil
}

// Set mutates count and notifies listeners, returning the first error.
func (s *counterStore) Set(n int) error {
	s.mu.Lock()
	s.count = n
	ls := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		ls = append(ls, l)
	}
	s.mu.Unlock()

	for _, l := range ls {
		if err := l(); err != nil {
			return err
		}
	}
	return nil
}

func (s *counterStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

func (s *counterStore) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *counterStore) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// storeWithoutRestore lacks RestoreState.
type storeWithoutRestore struct{ s *counterStore }

func (w storeWithoutRestore) ID() string                        { return w.s.ID() }
func (w storeWithoutRestore) Subscribe(l Listener) func()       { return w.s.Subscribe(l) }
func (w storeWithoutRestore) SerializeState() (Snapshot, error) { return w.s.SerializeState() }

// storeWithoutSerialize lacks SerializeState.
type storeWithoutSerialize struct{ s *counterStore }

func (w storeWithoutSerialize) ID() string                       { return w.s.ID() }
func (w storeWithoutSerialize) Subscribe(l Listener) func()      { return w.s.Subscribe(l) }
func (w storeWithoutSerialize) RestoreState(snap Snapshot) error { return w.s.RestoreState(snap) }

type write struct {
	key   string
	value string
	at    time.Duration
}

// recordingKV is an in-memory KV that records every Set and Get.
type recordingKV struct {
	clock *manualClock

	mu      sync.Mutex
	data    map[string]string
	writes  []write
	reads   int
	getErr  error
	setErr  error
	written chan struct{}
}

var errInjected = errors.New("injected")

func newRecordingKV(clock *manualClock) *recordingKV {
	return &recordingKV{
		clock:   clock,
		data:    make(map[string]string),
		written: make(chan struct{}, 64),
	}
}

func (kv *recordingKV) Get(ctx context.Context, key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	kv.reads++
	if kv.getErr != nil {
		return "", false, kv.getErr
	}
	v, ok := kv.data[key]
	return v, ok, nil
}

func (kv *recordingKV) Set(ctx context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	if kv.setErr != nil {
		return kv.setErr
	}
	var at time.Duration
	if kv.clock != nil {
		at = kv.clock.Now()
	}
	kv.data[key] = value
	kv.writes = append(kv.writes, write{key: key, value: value, at: at})
	select {
	case kv.written <- struct{}{}:
	default:
	}
	return nil
}

func (kv *recordingKV) Writes() []write {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return append([]write(nil), kv.writes...)
}

func (kv *recordingKV) Reads() int {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.reads
}

func (kv *recordingKV) Keys() []string {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	keys := make([]string, 0, len(kv.data))
	for k := range kv.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
