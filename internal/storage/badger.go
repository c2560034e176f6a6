package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

// BadgerKV implements KV, Lister and Deleter on Badger v3.
type BadgerKV struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger

	lastGCTime atomic.Int64 // Unix milliseconds
	closed     atomic.Bool

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge

	// Shutdown
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewBadgerKV opens a Badger database as a backing store.
func NewBadgerKV(cfg Config, logger *slog.Logger) (*BadgerKV, error) {
	if cfg.Dir == "" && !cfg.Badger.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	badgerCfg := cfg.Badger

	opts := badger.DefaultOptions(cfg.Dir)
	if badgerCfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	if badgerCfg.CacheSize > 0 {
		opts.BlockCacheSize = badgerCfg.CacheSize
	}
	opts.SyncWrites = badgerCfg.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	kv := &BadgerKV{
		db:     db,
		cfg:    badgerCfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	// Value-log GC is not available in in-memory mode.
	if !badgerCfg.InMemory {
		kv.wg.Add(1)
		go kv.gcLoop()
	}

	logger.Info("badger storage opened",
		"dir", cfg.Dir,
		"in_memory", badgerCfg.InMemory,
		"sync_writes", badgerCfg.SyncWrites,
		"gc_interval", badgerCfg.GCInterval)

	return kv, nil
}

// Get retrieves the record stored under key.
func (b *BadgerKV) Get(ctx context.Context, key string) (string, bool, error) {
	if b.closed.Load() {
		return "", false, ErrClosed
	}
	if key == "" {
		return "", false, ErrEmptyKey
	}

	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("badger: get %q: %w", key, err)
	}

	return string(value), true, nil
}

// Set overwrites the record stored under key.
func (b *BadgerKV) Set(ctx context.Context, key, value string) error {
	if b.closed.Load() {
		return ErrClosed
	}
	if key == "" {
		return ErrEmptyKey
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("badger: set %q: %w", key, err)
	}
	return nil
}

// Delete removes the record stored under key. Deleting a missing key is not an error.
func (b *BadgerKV) Delete(ctx context.Context, key string) error {
	if b.closed.Load() {
		return ErrClosed
	}

	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger: delete %q: %w", key, err)
	}
	return nil
}

// Keys returns the sorted keys that start with prefix.
func (b *BadgerKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false // Only need keys
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger: scan %q: %w", prefix, err)
	}

	sort.Strings(keys)
	return keys, nil
}

// GC runs value-log garbage collection until Badger reports nothing to rewrite.
// Returns the number of rewrite cycles performed.
func (b *BadgerKV) GC(ctx context.Context) (int, error) {
	if b.closed.Load() {
		return 0, ErrClosed
	}

	startTime := time.Now()
	cycles := 0
	for {
		if err := ctx.Err(); err != nil {
			return cycles, err
		}

		err := b.db.RunValueLogGC(b.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return cycles, fmt.Errorf("gc: %w", err)
		}
		cycles++
	}

	b.lastGCTime.Store(time.Now().UnixMilli())

	b.logger.Debug("gc completed",
		"cycles", cycles,
		"elapsed", time.Since(startTime))

	return cycles, nil
}

// Stats returns storage statistics.
func (b *BadgerKV) Stats(ctx context.Context) (*Stats, error) {
	if b.closed.Load() {
		return nil, ErrClosed
	}

	lsm, vlog := b.db.Size()

	return &Stats{
		TotalSize:    uint64(lsm + vlog),
		LSMSize:      uint64(lsm),
		ValueLogSize: uint64(vlog),
		LastGCTime:   b.lastGCTime.Load(),
	}, nil
}

// Close stops background loops and closes the database. Safe to call twice.
func (b *BadgerKV) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.logger.Info("closing badger storage")

		b.closed.Store(true)
		close(b.stopCh)
		b.wg.Wait()

		if cerr := b.db.Close(); cerr != nil {
			err = fmt.Errorf("close db: %w", cerr)
		}
	})
	return err
}

// RegisterMetrics registers Badger size gauges with Prometheus and starts
// the updater loop. Call once during initialization.
func (b *BadgerKV) RegisterMetrics(registry prometheus.Registerer) *BadgerKV {
	b.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "storekeep",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})

	b.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "storekeep",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})

	b.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "storekeep",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})

	registry.MustRegister(
		b.metricsLSMSize,
		b.metricsValueLogSize,
		b.metricsLastGCTime,
	)

	b.updateMetrics()

	b.wg.Add(1)
	go b.metricsUpdateLoop()

	return b
}

func (b *BadgerKV) updateMetrics() {
	stats, err := b.Stats(context.Background())
	if err != nil {
		// Closing
		return
	}

	b.metricsLSMSize.Set(float64(stats.LSMSize))
	b.metricsValueLogSize.Set(float64(stats.ValueLogSize))
	if stats.LastGCTime > 0 {
		b.metricsLastGCTime.Set(float64(stats.LastGCTime) / 1000.0)
	}
}

// metricsUpdateLoop periodically refreshes the size gauges.
func (b *BadgerKV) metricsUpdateLoop() {
	defer b.wg.Done()

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.updateMetrics()
		case <-b.stopCh:
			return
		}
	}
}

// gcLoop runs periodic value-log garbage collection.
func (b *BadgerKV) gcLoop() {
	defer b.wg.Done()

	interval, err := time.ParseDuration(b.cfg.GCInterval)
	if err != nil || interval <= 0 {
		b.logger.Warn("invalid gc_interval, using default 10m", "value", b.cfg.GCInterval)
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := b.GC(ctx); err != nil {
				b.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-b.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
