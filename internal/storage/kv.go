package storage

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrClosed    = errors.New("storage: closed")
	ErrEmptyKey  = errors.New("storage: empty key")
	ErrUnknownKV = errors.New("storage: unknown engine")
)

// KV is the backing-store contract used by the persistence coordinator.
//
// Get reports ok == false when no record exists; that is not an error.
// Set is an unconditional overwrite.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Lister is implemented by storages that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Deleter is implemented by storages that can remove a record.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// Stats contains backing-store statistics.
type Stats struct {
	// Keys is the number of records, when the engine can count them cheaply.
	Keys uint64

	// TotalSize is the total disk or memory usage in bytes.
	TotalSize uint64

	// LSMSize is the LSM tree size (Badger only).
	LSMSize uint64

	// ValueLogSize is the value log size (Badger only).
	ValueLogSize uint64

	// LastGCTime is the last GC run timestamp (Unix milliseconds).
	LastGCTime int64
}

// Config selects and configures a backing store.
type Config struct {
	// Engine is "badger" or "memory".
	// Default: "badger"
	Engine string

	// Dir is the storage directory (Badger only).
	Dir string

	Badger BadgerConfig
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// GCInterval is the interval between automatic value-log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 16MB
	CacheSize int64

	// SyncWrites enables fsync after each write.
	// Default: true, a saved snapshot should survive a crash
	SyncWrites bool

	// InMemory runs Badger without touching disk. Dir is ignored.
	InMemory bool
}

// DefaultConfig returns the default storage configuration.
func DefaultConfig(dir string) Config {
	return Config{
		Engine: "badger",
		Dir:    dir,
		Badger: DefaultBadgerConfig(),
	}
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{
		GCInterval:  "10m",
		GCThreshold: 0.5,
		CacheSize:   16 << 20, // 16MB
		SyncWrites:  true,
	}
}
