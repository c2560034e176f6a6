package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yndnr/storekeep/internal/serializer"
)

var (
	validLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validFormats = []string{"json", "text"}
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	if err := verifyStorage(&cfg.Storage); err != nil {
		return err
	}
	if err := verifyPersist(&cfg.Persist); err != nil {
		return err
	}
	return verifyMetrics(&cfg.Metrics)
}

func verifyLog(cfg *LogSection) error {
	if !oneOf(strings.ToLower(cfg.Level), validLevels) {
		return fmt.Errorf("log.level %q must be one of %s", cfg.Level, strings.Join(validLevels, ", "))
	}
	if !oneOf(strings.ToLower(cfg.Format), validFormats) {
		return fmt.Errorf("log.format %q must be one of %s", cfg.Format, strings.Join(validFormats, ", "))
	}
	return nil
}

func verifyStorage(cfg *StorageSection) error {
	switch cfg.Engine {
	case EngineMemory:
		return nil
	case EngineBadger:
	default:
		return fmt.Errorf("storage.engine %q must be %s or %s", cfg.Engine, EngineBadger, EngineMemory)
	}

	if cfg.Badger.GCInterval != "" {
		if d, err := time.ParseDuration(cfg.Badger.GCInterval); err != nil || d <= 0 {
			return fmt.Errorf("storage.badger.gc_interval %q is not a positive duration", cfg.Badger.GCInterval)
		}
	}
	if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
		return errors.New("storage.badger.gc_threshold must be between 0 and 1")
	}
	if cfg.Badger.InMemory {
		return nil
	}

	if cfg.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	// Check if data directory exists or can be created
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return errors.New("cannot create data directory: " + err.Error())
	}
	return nil
}

func verifyPersist(cfg *PersistSection) error {
	if _, err := serializer.ByName(cfg.Serializer); err != nil {
		return fmt.Errorf("persist.serializer: %w", err)
	}
	if cfg.Debounce < 0 {
		return errors.New("persist.debounce must not be negative")
	}

	keys := make(map[string]string, len(cfg.Stores))
	for id, store := range cfg.Stores {
		if store.Serializer != "" {
			if _, err := serializer.ByName(store.Serializer); err != nil {
				return fmt.Errorf("persist.stores.%s.serializer: %w", id, err)
			}
		}
		if _, err := parseDebounce(store.Debounce); err != nil {
			return fmt.Errorf("persist.stores.%s.debounce: %w", id, err)
		}

		key := store.Key
		if key == "" {
			key = cfg.KeyPrefix + id
		}
		if other, ok := keys[key]; ok {
			return fmt.Errorf("persist.stores: %s and %s share key %q", other, id, key)
		}
		keys[key] = id
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Enabled && cfg.Addr == "" {
		return errors.New("metrics.addr is required when metrics are enabled")
	}
	return nil
}

// parseDebounce parses a per-store debounce. "" yields nil.
func parseDebounce(s string) (*time.Duration, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return nil, err
	}
	if d < 0 {
		return nil, errors.New("must not be negative")
	}
	return &d, nil
}

func oneOf(s string, set []string) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}
