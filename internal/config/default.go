package config

import "github.com/yndnr/storekeep/internal/persist"

// Default configuration values.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultEngine      = EngineBadger
	DefaultDataDir     = "./data"
	DefaultGCInterval  = "10m"
	DefaultGCThreshold = 0.5
	DefaultCacheSize   = 16 << 20
	DefaultSerializer  = "json"
	DefaultMetricsAddr = "127.0.0.1:9464"
	DefaultKeyPrefix   = persist.KeyPrefix
)

// Storage engines.
const (
	EngineBadger = "badger"
	EngineMemory = "memory"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Storage: StorageSection{
			Engine:  DefaultEngine,
			DataDir: DefaultDataDir,
			Badger: BadgerSection{
				GCInterval:  DefaultGCInterval,
				GCThreshold: DefaultGCThreshold,
				CacheSize:   DefaultCacheSize,
				SyncWrites:  true,
			},
		},
		Persist: PersistSection{
			KeyPrefix:  DefaultKeyPrefix,
			Serializer: DefaultSerializer,
		},
		Metrics: MetricsSection{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
	}
}
