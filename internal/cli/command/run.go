package command

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/storekeep/internal/config"
	"github.com/yndnr/storekeep/internal/infra/confloader"
	"github.com/yndnr/storekeep/internal/infra/shutdown"
	"github.com/yndnr/storekeep/internal/persist"
	"github.com/yndnr/storekeep/internal/snapshot"
	"github.com/yndnr/storekeep/internal/statestore"
	"github.com/yndnr/storekeep/internal/storage"
	"github.com/yndnr/storekeep/internal/telemetry/logger"
	"github.com/yndnr/storekeep/internal/telemetry/metric"
)

const shutdownTimeout = 10 * time.Second

// RunCommand attaches a demo counter store, mutates it on an interval and
// persists it until the mutations are done or the process is interrupted.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Attach a demo counter store and persist its mutations",
		ArgsUsage: "STORE_ID",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "mutations",
				Usage: "Number of increments before exiting (0 runs until interrupted)",
				Value: 10,
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Delay between increments",
				Value: 200 * time.Millisecond,
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Override the store's save debounce",
			},
		},
		Action: runStore,
	}
}

// counterStore is the demo store driven by run.
type counterStore struct {
	*statestore.Store
	count     *snapshot.Ref[int]
	updatedAt *snapshot.Ref[string]
}

func newCounterStore(id string) *counterStore {
	s := &counterStore{
		count:     snapshot.NewRef(0),
		updatedAt: snapshot.NewRef(""),
	}
	s.Store = statestore.New(id,
		map[string]any{"count": s.count, "updated_at": s.updatedAt},
		map[string]any{"count": 0, "updated_at": ""})
	return s
}

func (s *counterStore) increment(now time.Time) error {
	return s.Update(func() error {
		s.count.Store(s.count.Load() + 1)
		s.updatedAt.Store(now.UTC().Format(time.RFC3339Nano))
		return nil
	})
}

// runSummary is printed when run exits.
type runSummary struct {
	Store     string `json:"store" yaml:"store"`
	Key       string `json:"key" yaml:"key"`
	Restore   string `json:"restore" yaml:"restore"`
	Mutations int    `json:"mutations" yaml:"mutations"`
	Count     int    `json:"count" yaml:"count"`
}

func runStore(c *cli.Context) error {
	e := getEnv(c)
	id, err := storeArg(c)
	if err != nil {
		return err
	}
	interval := c.Duration("interval")
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	backend, err := e.storage()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metric.NewPersist(reg)
	reg.MustRegister(metric.NewStorageCollector(e.cfg.Storage.Engine, backend))
	if b, ok := backend.(*storage.BadgerKV); ok {
		b.RegisterMetrics(reg)
	}

	global, err := e.cfg.GlobalOptions()
	if err != nil {
		return err
	}
	opts, err := e.cfg.StoreOptions(id)
	if err != nil {
		return err
	}
	if c.IsSet("debounce") {
		opts.Debounce = persist.Delay(c.Duration("debounce"))
	}

	log := e.log.With("store_id", id)
	opts.AfterRestore = func(hc persist.HookContext) {
		log.Info("state restored", "key", hc.Config.Key)
	}
	opts.OnRestoreError = func(hc persist.HookContext, err error) {
		log.Warn("discarding unreadable record", "key", hc.Config.Key, "error", err)
	}

	coord := persist.New(global,
		persist.WithLogger(e.log),
		persist.WithMetrics(m),
		persist.WithDefaultStorage(backend))

	store := newCounterStore(id)
	ctx := logger.WithLogger(c.Context, e.log)
	att, err := statestore.Attach(ctx, coord, store.Store, opts)
	if err != nil {
		return err
	}
	// Disposers run in reverse: flush the pending save, then close.
	store.OnDispose(att.Flush)

	h := shutdown.NewHandler(shutdownTimeout)
	h.OnShutdown(func(context.Context) error {
		return store.Dispose()
	})

	if e.cfg.Metrics.Enabled {
		srv := metricsServer(e.cfg.Metrics, reg)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.log.Error("metrics server failed", "error", err)
			}
		}()
		h.OnShutdown(srv.Shutdown)
		e.log.Info("serving metrics", "addr", srv.Addr)
	}

	runCtx, cancel := context.WithCancel(c.Context)
	defer cancel()

	if e.configPath != "" {
		if err := watchLogLevel(runCtx, e, h); err != nil {
			e.log.Warn("config watcher disabled", "error", err)
		}
	}

	mutations := c.Int("mutations")

	var done atomic.Int64
	loopDone := make(chan struct{})
	go func() {
		defer h.Trigger()
		defer close(loopDone)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for mutations == 0 || done.Load() < int64(mutations) {
			select {
			case <-runCtx.Done():
				return
			case now := <-ticker.C:
				if err := store.increment(now); err != nil {
					e.log.Error("save failed", "error", err)
					return
				}
				done.Add(1)
				log.Debug("incremented", "count", store.count.Load())
			}
		}
	}()

	// Registered last so it runs first: no mutation races the final flush.
	h.OnShutdown(func(context.Context) error {
		cancel()
		<-loopDone
		return nil
	})

	err = h.Wait(runCtx)
	cancel()

	summary := runSummary{
		Store:     id,
		Key:       att.Key(),
		Restore:   att.RestoreOutcome(),
		Mutations: int(done.Load()),
		Count:     store.count.Load(),
	}
	if perr := e.print(summary); perr != nil {
		return perr
	}
	return err
}

// metricsServer serves reg on /metrics, requiring the bearer token if one
// is configured.
func metricsServer(cfg config.MetricsSection, reg *prometheus.Registry) *http.Server {
	handler := metric.Handler(reg)
	if cfg.BearerToken != "" {
		want := []byte("Bearer " + cfg.BearerToken)
		next := handler
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// watchLogLevel re-applies log.level when the config file changes.
func watchLogLevel(ctx context.Context, e *env, h *shutdown.Handler) error {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(e.log))
	if err != nil {
		return err
	}
	if err := w.Watch(e.configPath); err != nil {
		w.Stop()
		return err
	}

	w.OnChange(func(string) {
		cfg, err := config.Load(e.configPath, nil)
		if err != nil {
			e.log.Warn("ignoring invalid config change", "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		e.log.Info("log level updated", "level", logger.GetLevel())
	})

	go w.Run(ctx)
	h.OnShutdown(func(context.Context) error { return w.Stop() })
	return nil
}
