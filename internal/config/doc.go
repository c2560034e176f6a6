// Package config provides the storekeep configuration.
//
// This package defines the configuration structure and validation:
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (engine names, serializers, durations, paths)
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - load.go: Loading through internal/infra/confloader
//   - storage.go: Opening the configured backing store
//   - persist.go: Mapping to persist.GlobalOptions and per-store Options
//
// Configuration supports multiple sources: files, environment variables
// (STOREKEEP_ prefix) and flags.
package config
