// Package logger provides the small structured logging surface the cache
// layer reports through: leveled printf-style messages with attached
// metadata. The console implementation colorizes output on terminals; the
// test implementation records entries for assertions.
package logger

import (
	"os"
	"strings"
)

// LogLevel defines the level of logging.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelNone
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	}
	return "NONE"
}

// GetLevelFromEnv reads CACHEKIT_LOG_LEVEL and converts it into a LogLevel,
// defaulting to warn.
func GetLevelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("CACHEKIT_LOG_LEVEL")) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	case "none":
		return LevelNone
	default:
		return LevelWarn
	}
}

// Logger is an interface for leveled logging. Message arguments follow
// fmt.Sprintf semantics; structured metadata is attached with With.
type Logger interface {
	// With returns a new logger using metadata as the base context.
	With(metadata map[string]any) Logger
	// WithPrefix returns a new logger with a prefix prepended to each message.
	WithPrefix(prefix string) Logger
	// Debug level logging
	Debug(msg string, args ...any)
	// Info level logging
	Info(msg string, args ...any)
	// Warn level logging
	Warn(msg string, args ...any)
	// Error level logging
	Error(msg string, args ...any)
	// IsLevelEnabled returns true if the given log level is enabled.
	IsLevelEnabled(level LogLevel) bool
}
