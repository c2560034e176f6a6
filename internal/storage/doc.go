// Package storage provides the key-value backing stores that hold one
// persisted record per attached state store.
//
// Implementations:
//
//   - badger.go: durable storage on Badger v3, with background value-log GC
//     and Prometheus size gauges
//   - memory: sharded in-process storage for tests, demos and ephemeral use
//
// All implementations are safe for concurrent use. Each attachment writes
// its own key, so no cross-key coordination is needed.
package storage
