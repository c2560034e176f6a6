package config

import (
	"fmt"

	"github.com/yndnr/storekeep/internal/infra/confloader"
)

// Load reads the configuration from path (optional), the environment and
// overrides, in increasing priority, on top of Default, then verifies it.
func Load(path string, overrides map[string]any) (*Config, error) {
	cfg := Default()

	loader := confloader.NewLoader(confloader.WithConfigFile(path))
	if len(overrides) > 0 {
		loader.Defer(overrides)
	}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
