// Package main provides the entry point for storekeep-cli.
//
// The CLI works against the backing store that persisted state lives in:
//
//   - Inspect, write and delete persisted records
//   - Run a demo counter store under the persistence coordinator
//   - Show the merged configuration
//
// Usage:
//
//	storekeep-cli [command] [flags]
//	storekeep-cli record list -o json
//	storekeep-cli --engine badger --data-dir ./data run --debounce 500ms counter
package main
