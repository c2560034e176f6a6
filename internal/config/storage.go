package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/yndnr/storekeep/internal/storage"
	"github.com/yndnr/storekeep/internal/storage/memory"
)

// Backend is a backing store opened from configuration.
type Backend interface {
	storage.KV
	storage.Lister
	storage.Deleter
	io.Closer
	Stats(ctx context.Context) (*storage.Stats, error)
}

// OpenStorage opens the backing store named by cfg.Engine.
func OpenStorage(cfg StorageSection, logger *slog.Logger) (Backend, error) {
	switch cfg.Engine {
	case EngineMemory:
		return memory.New(), nil

	case EngineBadger, "":
		sc := storage.DefaultConfig(cfg.DataDir)
		if cfg.Badger.GCInterval != "" {
			sc.Badger.GCInterval = cfg.Badger.GCInterval
		}
		if cfg.Badger.GCThreshold > 0 {
			sc.Badger.GCThreshold = cfg.Badger.GCThreshold
		}
		if cfg.Badger.CacheSize > 0 {
			sc.Badger.CacheSize = cfg.Badger.CacheSize
		}
		sc.Badger.SyncWrites = cfg.Badger.SyncWrites
		sc.Badger.InMemory = cfg.Badger.InMemory

		kv, err := storage.NewBadgerKV(sc, logger)
		if err != nil {
			return nil, err
		}
		return kv, nil

	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownKV, cfg.Engine)
	}
}
