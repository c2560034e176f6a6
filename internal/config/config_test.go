package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Storage.Engine != DefaultEngine {
		t.Errorf("Storage.Engine = %q, want %q", cfg.Storage.Engine, DefaultEngine)
	}
	if cfg.Storage.DataDir != DefaultDataDir {
		t.Errorf("DataDir = %q, want %q", cfg.Storage.DataDir, DefaultDataDir)
	}
	if !cfg.Storage.Badger.SyncWrites {
		t.Error("SyncWrites should be enabled by default")
	}
	if cfg.Persist.KeyPrefix != "pinia-" {
		t.Errorf("KeyPrefix = %q, want pinia-", cfg.Persist.KeyPrefix)
	}
	if cfg.Persist.Serializer != DefaultSerializer {
		t.Errorf("Serializer = %q, want %q", cfg.Persist.Serializer, DefaultSerializer)
	}
	if cfg.Persist.Debounce != 0 {
		t.Errorf("Debounce = %v, want 0", cfg.Persist.Debounce)
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics should be disabled by default")
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid memory", func(c *Config) {}, ""},
		{"valid badger", func(c *Config) {
			c.Storage.Engine = EngineBadger
		}, ""},
		{"in-memory badger needs no dir", func(c *Config) {
			c.Storage.Engine = EngineBadger
			c.Storage.DataDir = ""
			c.Storage.Badger.InMemory = true
		}, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"unknown engine", func(c *Config) { c.Storage.Engine = "redis" }, "storage.engine"},
		{"bad gc interval", func(c *Config) {
			c.Storage.Engine = EngineBadger
			c.Storage.Badger.GCInterval = "soon"
		}, "gc_interval"},
		{"bad gc threshold", func(c *Config) {
			c.Storage.Engine = EngineBadger
			c.Storage.Badger.GCThreshold = 1.5
		}, "gc_threshold"},
		{"missing data dir", func(c *Config) {
			c.Storage.Engine = EngineBadger
			c.Storage.DataDir = ""
		}, "data_dir"},
		{"unknown serializer", func(c *Config) { c.Persist.Serializer = "xml" }, "persist.serializer"},
		{"negative debounce", func(c *Config) { c.Persist.Debounce = -time.Second }, "persist.debounce"},
		{"store serializer", func(c *Config) {
			c.Persist.Stores = map[string]StoreSection{"cart": {Serializer: "bson"}}
		}, "persist.stores.cart.serializer"},
		{"store debounce", func(c *Config) {
			c.Persist.Stores = map[string]StoreSection{"cart": {Debounce: "-1s"}}
		}, "persist.stores.cart.debounce"},
		{"shared key", func(c *Config) {
			c.Persist.Stores = map[string]StoreSection{
				"cart": {},
				"bag":  {Key: "pinia-cart"},
			}
		}, "share key"},
		{"metrics without addr", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Addr = ""
		}, "metrics.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Storage.Engine = EngineMemory
			cfg.Storage.DataDir = filepath.Join(t.TempDir(), "data")
			tt.modify(cfg)

			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerify_CreatesDataDir(t *testing.T) {
	cfg := Default()
	cfg.Storage.DataDir = filepath.Join(t.TempDir(), "nested", "data")

	if err := Verify(cfg); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(cfg.Storage.DataDir); err != nil || !info.IsDir() {
		t.Errorf("data dir not created: %v", err)
	}
}

func TestSanitize(t *testing.T) {
	cfg := Default()
	cfg.Metrics.BearerToken = "super-secret-token-1234"
	cfg.Persist.Stores = map[string]StoreSection{"cart": {Key: "cart"}}

	sanitized := Sanitize(cfg)

	if cfg.Metrics.BearerToken != "super-secret-token-1234" {
		t.Error("Original config should not be modified")
	}
	if sanitized.Metrics.BearerToken == cfg.Metrics.BearerToken {
		t.Error("Sanitized config should mask the bearer token")
	}
	if len(sanitized.Metrics.BearerToken) != len(cfg.Metrics.BearerToken) {
		t.Errorf("Masked token length = %d, want %d", len(sanitized.Metrics.BearerToken), len(cfg.Metrics.BearerToken))
	}
	if !strings.HasPrefix(sanitized.Metrics.BearerToken, "su") {
		t.Errorf("Masked token = %q, want first two characters kept", sanitized.Metrics.BearerToken)
	}

	sanitized.Persist.Stores["bag"] = StoreSection{}
	if _, ok := cfg.Persist.Stores["bag"]; ok {
		t.Error("Sanitize should not share the stores map")
	}
}

func TestSanitize_ShortToken(t *testing.T) {
	cfg := Default()
	cfg.Metrics.BearerToken = "abc"

	if got := Sanitize(cfg).Metrics.BearerToken; got != "****" {
		t.Errorf("Masked token = %q, want ****", got)
	}
	if got := Sanitize(Default()).Metrics.BearerToken; got != "" {
		t.Errorf("empty token should stay empty, got %q", got)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "storekeep.yaml")
	content := `
log:
  level: debug
storage:
  engine: badger
  data_dir: ` + filepath.Join(dir, "from-file") + `
persist:
  key_prefix: "app-"
  serializer: yaml
  debounce: 500ms
  stores:
    cart:
      debounce: 0s
    prefs:
      key: settings
      serializer: proto
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STOREKEEP_STORAGE__DATA_DIR", filepath.Join(dir, "from-env"))
	t.Setenv("STOREKEEP_METRICS__BEARER_TOKEN", "token-from-env")

	cfg, err := Load(path, map[string]any{"log.level": "warn"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("override not applied: Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("default lost: Log.Format = %q", cfg.Log.Format)
	}
	if cfg.Storage.DataDir != filepath.Join(dir, "from-env") {
		t.Errorf("env not applied: DataDir = %q", cfg.Storage.DataDir)
	}
	if cfg.Metrics.BearerToken != "token-from-env" {
		t.Errorf("env not applied: BearerToken = %q", cfg.Metrics.BearerToken)
	}
	if cfg.Persist.Debounce != 500*time.Millisecond {
		t.Errorf("Debounce = %v, want 500ms", cfg.Persist.Debounce)
	}

	want := map[string]StoreSection{
		"cart":  {Debounce: "0s"},
		"prefs": {Key: "settings", Serializer: "proto"},
	}
	if diff := cmp.Diff(want, cfg.Persist.Stores); diff != "" {
		t.Errorf("Stores mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("", map[string]any{
		"storage.engine": EngineMemory,
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Engine != EngineMemory {
		t.Errorf("Engine = %q, want memory", cfg.Storage.Engine)
	}
}

func TestLoad_Invalid(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing file")
	}

	_, err := Load("", map[string]any{
		"storage.engine":     EngineMemory,
		"persist.serializer": "xml",
	})
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("expected invalid config error, got %v", err)
	}
}
