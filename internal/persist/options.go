package persist

import (
	"time"

	"github.com/yndnr/storekeep/internal/serializer"
	"github.com/yndnr/storekeep/internal/storage"
)

// Hook is a restore lifecycle callback.
type Hook func(ctx HookContext)

// RestoreErrorHandler receives a failed restore. When set, the failure is
// treated as recovered and Attach continues.
type RestoreErrorHandler func(ctx HookContext, err error)

// Options is the partial per-store configuration. Zero fields fall back to
// the global value, then to the built-in default.
type Options struct {
	Key        string
	Storage    storage.KV
	Serializer serializer.Serializer

	// Debounce is a pointer so an explicit 0 overrides a non-zero global.
	Debounce *time.Duration

	BeforeRestore  Hook
	AfterRestore   Hook
	OnRestoreError RestoreErrorHandler
}

// GlobalOptions are the defaults shared by every store.
type GlobalOptions struct {
	Options

	// MakeKey derives a key from a store ID. Defaults to DefaultKey.
	MakeKey KeyFunc
}

// EffectiveConfig is the fully resolved configuration of one attachment.
type EffectiveConfig struct {
	Key            string
	Storage        storage.KV
	Serializer     serializer.Serializer
	Debounce       time.Duration
	BeforeRestore  Hook
	AfterRestore   Hook
	OnRestoreError RestoreErrorHandler
}

// Delay returns a pointer to d, for use as Options.Debounce.
func Delay(d time.Duration) *time.Duration {
	return &d
}

// Resolve merges local over global over the built-in defaults, field by field.
// Storage stays nil when neither level sets one.
func Resolve(global GlobalOptions, local Options, storeID string) EffectiveConfig {
	cfg := EffectiveConfig{
		Key:            local.Key,
		Storage:        local.Storage,
		Serializer:     local.Serializer,
		BeforeRestore:  local.BeforeRestore,
		AfterRestore:   local.AfterRestore,
		OnRestoreError: local.OnRestoreError,
	}

	if cfg.Key == "" {
		cfg.Key = global.Key
	}
	if cfg.Key == "" {
		makeKey := global.MakeKey
		if makeKey == nil {
			makeKey = DefaultKey
		}
		cfg.Key = makeKey(storeID)
	}

	if cfg.Storage == nil {
		cfg.Storage = global.Storage
	}

	if cfg.Serializer == nil {
		cfg.Serializer = global.Serializer
	}
	if cfg.Serializer == nil {
		cfg.Serializer = serializer.JSON()
	}

	switch {
	case local.Debounce != nil:
		cfg.Debounce = *local.Debounce
	case global.Debounce != nil:
		cfg.Debounce = *global.Debounce
	}
	if cfg.Debounce < 0 {
		cfg.Debounce = 0
	}

	if cfg.BeforeRestore == nil {
		cfg.BeforeRestore = global.BeforeRestore
	}
	if cfg.AfterRestore == nil {
		cfg.AfterRestore = global.AfterRestore
	}
	if cfg.OnRestoreError == nil {
		cfg.OnRestoreError = global.OnRestoreError
	}

	return cfg
}
