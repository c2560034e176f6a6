package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/storekeep/internal/storage"
	"github.com/yndnr/storekeep/internal/telemetry/logger"
	"github.com/yndnr/storekeep/internal/telemetry/metric"
)

// Coordinator attaches persistence to stores using shared global options.
type Coordinator struct {
	global         GlobalOptions
	defaultStorage storage.KV
	logger         logger.Logger
	metrics        *metric.Persist
	clock          Clock
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. Defaults to the logger carried by the
// context passed to Attach.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithMetrics enables coordinator metrics.
func WithMetrics(m *metric.Persist) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithClock sets the time source used by debounced saves.
func WithClock(clock Clock) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithDefaultStorage sets the storage used when neither the store nor the
// global options name one.
func WithDefaultStorage(kv storage.KV) Option {
	return func(c *Coordinator) {
		c.defaultStorage = kv
	}
}

// New creates a Coordinator.
func New(global GlobalOptions, opts ...Option) *Coordinator {
	c := &Coordinator{
		global: global,
		clock:  SystemClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve returns the effective configuration for storeID, including the
// coordinator's default storage.
func (c *Coordinator) Resolve(storeID string, local Options) EffectiveConfig {
	cfg := Resolve(c.global, local, storeID)
	if cfg.Storage == nil {
		cfg.Storage = c.defaultStorage
	}
	return cfg
}

// Attach wires persistence into store. A nil local means persistence is not
// configured for this store: the returned Attachment is disabled and never
// touches storage.
//
// Configuration problems are reported before any I/O. A failed restore is
// handed to OnRestoreError when set; otherwise Attach returns it and the
// store is left unsubscribed.
func (c *Coordinator) Attach(ctx context.Context, store Store, local *Options) (*Attachment, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	storeID := store.ID()
	a := &Attachment{
		id:      ulid.Make().String(),
		storeID: storeID,
		store:   store,
		metrics: c.metrics,
	}
	a.setState(StateCreated)

	base := c.logger
	if base == nil {
		base = logger.FromContext(ctx)
	}
	ctx = logger.WithLogger(ctx, base)
	ctx = logger.WithStoreID(ctx, storeID)
	ctx = logger.WithAttachmentID(ctx, a.id)
	a.log = logger.L(ctx)

	if local == nil {
		a.setState(StateDisabled)
		a.log.Debug("persistence not configured")
		return a, nil
	}

	a.setState(StateValidating)

	ser, ok := store.(StateSerializer)
	if !ok {
		return nil, ErrMissingSerializer.WithDetails(storeID)
	}
	res, ok := store.(StateRestorer)
	if !ok {
		return nil, ErrMissingRestorer.WithDetails(storeID)
	}

	cfg := c.Resolve(storeID, *local)
	if cfg.Storage == nil {
		return nil, ErrStorageRequired.WithDetails(storeID)
	}

	a.enabled = true
	a.cfg = cfg
	a.serializer = ser
	a.log = a.log.With("key", cfg.Key)

	if err := a.restore(ctx, res); err != nil {
		return nil, err
	}

	a.debouncer = NewDebouncer(a.save, cfg.Debounce,
		DebounceClock(c.clock),
		DebounceErrorHandler(a.onSaveError))
	a.unsubscribe = store.Subscribe(a.onChange)
	a.setState(StateSubscribed)
	c.metrics.Attached(1)

	a.log.Debug("persistence attached",
		"debounce", cfg.Debounce,
		"outcome", a.RestoreOutcome())

	return a, nil
}

// restore runs the restore protocol and records its outcome.
func (a *Attachment) restore(ctx context.Context, res StateRestorer) error {
	a.setState(StateRestoring)
	hctx := a.hookContext()

	if a.cfg.BeforeRestore != nil {
		a.cfg.BeforeRestore(hctx)
	}

	raw, ok, err := a.cfg.Storage.Get(ctx, a.cfg.Key)
	if err != nil {
		a.outcome = metric.RestoreFailed
		a.metrics.Restore(a.storeID, a.outcome)
		a.setState(StateRestoreFailed)
		return ErrStorageRead.WithDetails(a.cfg.Key).WithCause(err)
	}
	if !ok {
		a.outcome = metric.RestoreSkipped
		a.metrics.Restore(a.storeID, a.outcome)
		a.setState(StateRestoreSkipped)
		a.log.Debug("no persisted record")
		return nil
	}

	if err := a.apply(raw, res); err != nil {
		a.setState(StateRestoreFailed)
		if a.cfg.OnRestoreError == nil {
			a.outcome = metric.RestoreFailed
			a.metrics.Restore(a.storeID, a.outcome)
			return err
		}

		a.outcome = metric.RestoreRecovered
		a.metrics.Restore(a.storeID, a.outcome)
		a.log.Warn("restore failed, handled by OnRestoreError", "error", err)
		a.cfg.OnRestoreError(hctx, err)
		return nil
	}

	a.outcome = metric.RestoreRestored
	a.metrics.Restore(a.storeID, a.outcome)
	a.setState(StateRestored)
	a.log.Debug("state restored", "bytes", len(raw))

	if a.cfg.AfterRestore != nil {
		a.cfg.AfterRestore(hctx)
	}
	return nil
}

// apply decodes raw and hands it to the store. Panics from either step are
// reported as errors. A store that fails partway through RestoreState is put
// back to the state it had before.
func (a *Attachment) apply(raw string, res StateRestorer) (err error) {
	var prior Snapshot
	defer func() {
		if r := recover(); r != nil {
			err = ErrDeserialize.WithDetails(a.cfg.Key).WithCause(normalize(r))
		}
		if err != nil && prior != nil {
			a.rollback(res, prior)
		}
	}()

	snap, err := a.cfg.Serializer.Deserialize(raw)
	if err != nil {
		return ErrDeserialize.WithDetails(a.cfg.Key).WithCause(err)
	}

	if p, perr := a.serializer.SerializeState(); perr == nil {
		prior = p
	} else {
		a.log.Warn("cannot capture state before restore", "error", perr)
	}

	if err := res.RestoreState(snap); err != nil {
		return ErrDeserialize.WithDetails(a.cfg.Key).WithCause(fmt.Errorf("apply: %w", err))
	}
	return nil
}

// rollback writes back the state captured before a failed restore.
func (a *Attachment) rollback(res StateRestorer, prior Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("rollback after failed restore", "error", normalize(r))
		}
	}()

	if err := res.RestoreState(prior); err != nil {
		a.log.Error("rollback after failed restore", "error", err)
	}
}

func (a *Attachment) hookContext() HookContext {
	return HookContext{
		StoreID: a.storeID,
		Store:   a.store,
		Config:  a.cfg,
	}
}

// write serializes the current state and overwrites the record.
func (a *Attachment) write() error {
	start := time.Now()
	err := a.writeSnapshot()
	a.metrics.ObserveSave(a.storeID, time.Since(start), err)
	return err
}

func (a *Attachment) writeSnapshot() error {
	snap, err := a.serializer.SerializeState()
	if err != nil {
		return ErrSerialize.WithDetails(a.cfg.Key).WithCause(err)
	}
	data, err := a.cfg.Serializer.Serialize(snap)
	if err != nil {
		return ErrSerialize.WithDetails(a.cfg.Key).WithCause(err)
	}
	if err := a.cfg.Storage.Set(context.Background(), a.cfg.Key, data); err != nil {
		return ErrStorageWrite.WithDetails(a.cfg.Key).WithCause(err)
	}

	a.log.Debug("state saved", "bytes", len(data))
	return nil
}
