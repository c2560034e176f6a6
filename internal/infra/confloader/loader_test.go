package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Storage struct {
		Engine  string `koanf:"engine"`
		DataDir string `koanf:"data_dir"`
	} `koanf:"storage"`
	Persist struct {
		Debounce time.Duration `koanf:"debounce"`
		Stores   map[string]struct {
			Key string `koanf:"key"`
		} `koanf:"stores"`
	} `koanf:"persist"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/path/to/config.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want TEST_", l.envPrefix)
	}
	if l.filePath != "/path/to/config.yaml" {
		t.Errorf("filePath = %q", l.filePath)
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  engine: memory
  data_dir: /tmp/data
persist:
  debounce: 250ms
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.String("storage.engine"); got != "memory" {
		t.Errorf("storage.engine = %q, want memory", got)
	}

	if err := l.LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_EnvKey(t *testing.T) {
	l := NewLoader()

	tests := []struct {
		env  string
		want string
	}{
		{"STOREKEEP_LOG__LEVEL", "log.level"},
		{"STOREKEEP_STORAGE__DATA_DIR", "storage.data_dir"},
		{"STOREKEEP_PERSIST__STORES__CART__DEBOUNCE", "persist.stores.cart.debounce"},
	}
	for _, tt := range tests {
		if got := l.envKey(tt.env); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
storage:
  engine: badger
  data_dir: from-file
persist:
  debounce: 1s
`)
	t.Setenv("STOREKEEP_STORAGE__DATA_DIR", "from-env")
	t.Setenv("STOREKEEP_STORAGE__ENGINE", "from-env")

	l := NewLoader(WithConfigFile(path))
	l.Defer(map[string]any{"storage.engine": "from-override"})

	var cfg testConfig
	cfg.Persist.Debounce = time.Minute
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.DataDir != "from-env" {
		t.Errorf("DataDir = %q, env should override file", cfg.Storage.DataDir)
	}
	if cfg.Storage.Engine != "from-override" {
		t.Errorf("Engine = %q, override should win", cfg.Storage.Engine)
	}
	if cfg.Persist.Debounce != time.Second {
		t.Errorf("Debounce = %v, want 1s", cfg.Persist.Debounce)
	}
	if !l.IsLoaded() {
		t.Error("IsLoaded() should be true after Load()")
	}
}

func TestLoader_Load_KeepsTargetValues(t *testing.T) {
	var cfg testConfig
	cfg.Storage.Engine = "badger"
	cfg.Persist.Debounce = time.Minute

	l := NewLoader()
	l.Defer(map[string]any{"storage.data_dir": "/data"})
	if err := l.Load(&cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Storage.Engine != "badger" || cfg.Persist.Debounce != time.Minute {
		t.Errorf("unset keys must keep their values, got %+v", cfg)
	}
	if cfg.Storage.DataDir != "/data" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
}

func TestLoader_StoresMap(t *testing.T) {
	path := writeConfig(t, `
persist:
  stores:
    cart:
      key: shop-cart
`)
	t.Setenv("STOREKEEP_PERSIST__STORES__USER__KEY", "account")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatal(err)
	}

	if got := cfg.Persist.Stores["cart"].Key; got != "shop-cart" {
		t.Errorf("stores.cart.key = %q", got)
	}
	if got := cfg.Persist.Stores["user"].Key; got != "account" {
		t.Errorf("stores.user.key = %q", got)
	}
}

func TestLoader_Reload(t *testing.T) {
	path := writeConfig(t, "storage:\n  engine: memory\n")

	l := NewLoader(WithConfigFile(path))
	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte("storage:\n  engine: badger\n"), 0644); err != nil {
		t.Fatal(err)
	}
	var reloaded testConfig
	if err := l.Reload(&reloaded); err != nil {
		t.Fatal(err)
	}
	if reloaded.Storage.Engine != "badger" {
		t.Errorf("Engine = %q after reload", reloaded.Storage.Engine)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{
		"storage.engine": "memory",
		"log.level":      "debug",
	}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	if got := l.String("storage.engine"); got != "memory" {
		t.Errorf("storage.engine = %q", got)
	}
	if len(l.Keys()) != 2 || len(l.All()) != 2 {
		t.Errorf("Keys() = %v", l.Keys())
	}
}
