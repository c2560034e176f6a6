package config

import "time"

// Config is the root configuration for storekeep.
type Config struct {
	Log     LogSection     `koanf:"log"`
	Storage StorageSection `koanf:"storage"`
	Persist PersistSection `koanf:"persist"`
	Metrics MetricsSection `koanf:"metrics"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// StorageSection selects the backing store.
type StorageSection struct {
	// Engine is "badger" or "memory".
	Engine string `koanf:"engine"`

	// DataDir is the Badger directory. Ignored by the memory engine.
	DataDir string `koanf:"data_dir"`

	Badger BadgerSection `koanf:"badger"`
}

// BadgerSection tunes the Badger engine.
type BadgerSection struct {
	GCInterval  string  `koanf:"gc_interval"`
	GCThreshold float64 `koanf:"gc_threshold"`
	CacheSize   int64   `koanf:"cache_size"`
	SyncWrites  bool    `koanf:"sync_writes"`
	InMemory    bool    `koanf:"in_memory"`
}

// PersistSection holds the global persistence options and per-store
// overrides.
type PersistSection struct {
	// KeyPrefix is prepended to store IDs to form record keys.
	KeyPrefix string `koanf:"key_prefix"`

	// Serializer is "json", "yaml" or "proto".
	Serializer string `koanf:"serializer"`

	// Debounce delays saves; 0 writes on every change.
	Debounce time.Duration `koanf:"debounce"`

	Stores map[string]StoreSection `koanf:"stores"`
}

// StoreSection overrides the persistence options of one store. Empty
// fields inherit from PersistSection.
type StoreSection struct {
	Key        string `koanf:"key"`
	Serializer string `koanf:"serializer"`

	// Debounce is a duration string; "" inherits, "0s" disables debouncing.
	Debounce string `koanf:"debounce"`
}

// MetricsSection configures the Prometheus endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`

	// BearerToken, when set, is required on /metrics requests.
	BearerToken string `koanf:"bearer_token"`
}
