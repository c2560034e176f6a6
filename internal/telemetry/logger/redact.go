package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// Key patterns whose string values are never written to the log.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"api_key",
}

// Attribute keys that carry persisted records; long values are truncated.
var recordKeys = map[string]bool{
	"record":   true,
	"snapshot": true,
	"value":    true,
}

const (
	redactedValue = "***REDACTED***"

	// MaxRecordLen is the longest record value logged verbatim.
	MaxRecordLen = 256
)

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactAttr(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}

	s := a.Value.String()
	if s == "" {
		return a
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, redactedValue)
	}
	if recordKeys[strings.ToLower(a.Key)] && len(s) > MaxRecordLen {
		return slog.String(a.Key, Truncate(s, MaxRecordLen))
	}
	return a
}

// IsSensitiveKey reports whether a key name suggests secret content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// Truncate shortens s to max bytes and notes how much was dropped.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return fmt.Sprintf("%s...(%d more bytes)", s[:max], len(s)-max)
}
