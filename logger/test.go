package logger

import (
	"fmt"
	"sync"
)

// TestLogEntry is one recorded log call.
type TestLogEntry struct {
	Severity string
	Message  string
	Metadata map[string]any
}

// TestLogger records log entries for assertions in tests. Loggers derived
// with With share the root's entry list.
type TestLogger struct {
	mu       sync.Mutex
	metadata map[string]any
	entries  []TestLogEntry
	root     *TestLogger
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a Logger that records every call.
func NewTestLogger() *TestLogger {
	return &TestLogger{}
}

func (t *TestLogger) sink() *TestLogger {
	if t.root != nil {
		return t.root
	}
	return t
}

// Entries returns a copy of the recorded entries.
func (t *TestLogger) Entries() []TestLogEntry {
	s := t.sink()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TestLogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (t *TestLogger) record(severity, msg string, args ...any) {
	s := t.sink()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, TestLogEntry{
		Severity: severity,
		Message:  fmt.Sprintf(msg, args...),
		Metadata: t.metadata,
	})
}

func (t *TestLogger) With(metadata map[string]any) Logger {
	kv := make(map[string]any, len(t.metadata)+len(metadata))
	for k, v := range t.metadata {
		kv[k] = v
	}
	for k, v := range metadata {
		kv[k] = v
	}
	return &TestLogger{metadata: kv, root: t.sink()}
}

func (t *TestLogger) WithPrefix(prefix string) Logger { return t }

func (t *TestLogger) IsLevelEnabled(LogLevel) bool { return true }

func (t *TestLogger) Debug(msg string, args ...any) { t.record("DEBUG", msg, args...) }
func (t *TestLogger) Info(msg string, args ...any)  { t.record("INFO", msg, args...) }
func (t *TestLogger) Warn(msg string, args ...any)  { t.record("WARN", msg, args...) }
func (t *TestLogger) Error(msg string, args ...any) { t.record("ERROR", msg, args...) }
