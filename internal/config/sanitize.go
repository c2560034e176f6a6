package config

import (
	"maps"
	"strings"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging and printing configuration without exposing
// secrets.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	sanitized.Persist.Stores = maps.Clone(cfg.Persist.Stores)

	if sanitized.Metrics.BearerToken != "" {
		sanitized.Metrics.BearerToken = maskSecret(sanitized.Metrics.BearerToken)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
