package telemetry

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes one JSON object per line. Child loggers created with With
// share the parent's sink and carry extra fields on every entry.
type Logger struct {
	sink   *sink
	fields map[string]any
	now    func() time.Time
}

type sink struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// New opens path for appending. An empty path discards everything.
func New(path string) (*Logger, error) {
	if path == "" {
		return Discard(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{sink: &sink{w: f}, now: time.Now}, nil
}

func NewWriter(w io.Writer) *Logger {
	return &Logger{sink: &sink{w: nopCloser{Writer: w}}, now: time.Now}
}

func Discard() *Logger {
	return NewWriter(io.Discard)
}

func (l *Logger) With(fields map[string]any) *Logger {
	if l == nil {
		return nil
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{sink: l.sink, fields: merged, now: l.now}
}

func (l *Logger) Info(msg string, fields map[string]any) {
	l.log("info", msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]any) {
	l.log("warn", msg, fields)
}

func (l *Logger) Error(msg string, fields map[string]any) {
	l.log("error", msg, fields)
}

func (l *Logger) log(level, msg string, fields map[string]any) {
	if l == nil || l.sink == nil {
		return
	}
	entry := map[string]any{
		"ts":    l.now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range l.fields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	b, err := json.Marshal(entry)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"ts": entry["ts"], "level": level, "msg": msg, "marshal_error": err.Error()})
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	_, _ = l.sink.w.Write(append(b, '\n'))
}

// Close closes the underlying file. Closing a child closes the shared sink.
func (l *Logger) Close() error {
	if l == nil || l.sink == nil {
		return nil
	}
	return l.sink.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
