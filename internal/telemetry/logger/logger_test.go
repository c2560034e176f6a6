package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newBufferLogger(t *testing.T, level string) (Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	l, err := New(Config{Level: level, Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return l, &buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	return entry
}

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "default config", cfg: DefaultConfig()},
		{name: "text format", cfg: Config{Level: "debug", Format: "text"}},
		{name: "console format", cfg: Config{Level: "info", Format: "console"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if l == nil {
				t.Fatal("New() returned nil logger")
			}
			if l.Slog() == nil {
				t.Error("Slog() returned nil")
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	l, buf := newBufferLogger(t, "debug")

	tests := []struct {
		level   string
		logFunc func(string, ...any)
	}{
		{"DEBUG", l.Debug},
		{"INFO", l.Info},
		{"WARN", l.Warn},
		{"ERROR", l.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.logFunc("save completed", "key", "pinia-counter")

			entry := decodeEntry(t, buf)
			if entry["msg"] != "save completed" {
				t.Errorf("msg = %v, want 'save completed'", entry["msg"])
			}
			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %s", entry["level"], tt.level)
			}
			if entry["key"] != "pinia-counter" {
				t.Errorf("key = %v, want pinia-counter", entry["key"])
			}
		})
	}
}

func TestLogger_With(t *testing.T) {
	l, buf := newBufferLogger(t, "info")

	l.With("component", "coordinator").Info("attached")

	entry := decodeEntry(t, buf)
	if entry["component"] != "coordinator" {
		t.Errorf("component = %v, want coordinator", entry["component"])
	}
}

func TestNew_Component(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "info", Output: &buf, Component: "storekeep-cli"})
	if err != nil {
		t.Fatal(err)
	}

	l.Info("record written")

	entry := decodeEntry(t, &buf)
	if entry["component"] != "storekeep-cli" {
		t.Errorf("component = %v, want storekeep-cli", entry["component"])
	}
}

func TestSetLevel(t *testing.T) {
	l, buf := newBufferLogger(t, "error")
	defer SetLevel("info")

	l.Info("filtered")
	if buf.Len() > 0 {
		t.Error("Info should be filtered at error level")
	}

	SetLevel("debug")
	l.Info("visible")
	if buf.Len() == 0 {
		t.Error("Info should be logged after level changed to debug")
	}
	if level := GetLevel(); level != "debug" {
		t.Errorf("GetLevel() = %q, want debug", level)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"INFO", "info"},
		{"warning", "warn"},
		{"ERROR", "error"},
		{"invalid", "info"},
		{"", "info"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level.Set(parseLevel(tt.input))
			if got := GetLevel(); got != tt.expected {
				t.Errorf("parseLevel(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
	SetLevel("info")
}

func TestRedaction(t *testing.T) {
	l, buf := newBufferLogger(t, "info")

	long := strings.Repeat("x", MaxRecordLen+10)
	l.Info("record written",
		"api_key", "abc123",
		"record", long,
		"key", "pinia-counter",
		"empty_password", "")

	entry := decodeEntry(t, buf)
	if entry["api_key"] != redactedValue {
		t.Errorf("api_key = %v, want redacted", entry["api_key"])
	}
	if got, _ := entry["record"].(string); !strings.HasSuffix(got, "...(10 more bytes)") {
		t.Errorf("record not truncated: %q", got)
	}
	if entry["key"] != "pinia-counter" {
		t.Errorf("key = %v, should not be redacted", entry["key"])
	}
	if entry["empty_password"] != "" {
		t.Errorf("empty values should pass through, got %v", entry["empty_password"])
	}
}

func TestIsSensitiveKey(t *testing.T) {
	for key, want := range map[string]bool{
		"Password":      true,
		"client_secret": true,
		"refreshToken":  true,
		"store_id":      false,
		"key":           false,
	} {
		if got := IsSensitiveKey(key); got != want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate() = %q", got)
	}
	if got := Truncate("abcdef", 3); got != "abc...(3 more bytes)" {
		t.Errorf("Truncate() = %q", got)
	}
}

func TestDefaultAndDiscard(t *testing.T) {
	if Default() == nil {
		t.Fatal("Default() returned nil")
	}

	l, _ := newBufferLogger(t, "info")
	prev := Default()
	SetDefault(l)
	if Default() != l {
		t.Error("SetDefault() did not replace default logger")
	}
	SetDefault(prev)

	Discard().Error("dropped")
}
