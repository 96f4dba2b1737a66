package telemetry

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesJSONLinesWithChildFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf)
	l.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	child := l.With(map[string]any{"session": "s-1"})
	child.Info("command.submit", map[string]any{"seq": 1})
	l.Warn("catalog.failed", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	var first map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if first["msg"] != "command.submit" || first["level"] != "info" || first["session"] != "s-1" {
		t.Fatalf("unexpected entry: %#v", first)
	}
	if first["ts"] != "2026-01-01T00:00:00Z" {
		t.Fatalf("unexpected ts: %v", first["ts"])
	}
	var second map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("decode second line: %v", err)
	}
	if _, ok := second["session"]; ok {
		t.Fatalf("parent logger must not inherit child fields")
	}
}

func TestNewAppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.jsonl")
	for i := 0; i < 2; i++ {
		l, err := New(path)
		if err != nil {
			t.Fatalf("new logger: %v", err)
		}
		l.Info("app.start", nil)
		if err := l.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if got := strings.Count(string(b), "\n"); got != 2 {
		t.Fatalf("expected 2 entries after reopen, got %d", got)
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Info("ignored", nil)
	if l.With(map[string]any{"a": 1}) != nil {
		t.Fatalf("expected nil child from nil logger")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("expected nil close error, got %v", err)
	}
}

func TestSanitizeForLog(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "ls -la", want: "ls -la"},
		{name: "newlines", in: "ls\nfake entry\r", want: "ls fake entry "},
		{name: "control", in: "a\x1b[31mb\x00", want: "a[31mb"},
		{name: "tab", in: "a\tb", want: "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeForLog(tt.in); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}

	long := strings.Repeat("x", maxLoggedValue+10)
	if got := SanitizeForLog(long); len(got) != maxLoggedValue+3 || !strings.HasSuffix(got, "...") {
		t.Fatalf("expected truncation, got len %d", len(got))
	}
}
