// Package logger provides structured logging for storekeep.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, JSON/text handlers, dynamic level
//   - context.go: context propagation with store and attachment IDs
//   - redact.go: masking of secret-looking attributes and long records
package logger
