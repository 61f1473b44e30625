package logger

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const isWindows = runtime.GOOS == "windows"

var noColor = os.Getenv("TERM") == "dumb" ||
	(!isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()))

func color(val string) string {
	if isWindows || noColor {
		return ""
	}
	return val
}

const (
	reset      = "\033[0m"
	gray       = "\033[1;90m"
	green      = "\033[32m"
	magenta    = "\033[35m"
	red        = "\033[31m"
	blueBold   = "\033[34;1m"
	yellowBold = "\033[33;1m"
	redBold    = "\033[31;1m"
	whiteBold  = "\033[37;1m"
)

type consoleLogger struct {
	mu       *sync.Mutex
	prefixes []string
	metadata map[string]any
	logLevel LogLevel
}

var _ Logger = (*consoleLogger)(nil)

// NewConsole returns a Logger that writes colorized, leveled lines to
// stderr.
func NewConsole(level LogLevel) Logger {
	return &consoleLogger{mu: &sync.Mutex{}, logLevel: level}
}

func (c *consoleLogger) clone() *consoleLogger {
	prefixes := make([]string, len(c.prefixes))
	copy(prefixes, c.prefixes)
	metadata := make(map[string]any, len(c.metadata))
	for k, v := range c.metadata {
		metadata[k] = v
	}
	return &consoleLogger{mu: c.mu, prefixes: prefixes, metadata: metadata, logLevel: c.logLevel}
}

func (c *consoleLogger) With(metadata map[string]any) Logger {
	clone := c.clone()
	for k, v := range metadata {
		clone.metadata[k] = v
	}
	return clone
}

func (c *consoleLogger) WithPrefix(prefix string) Logger {
	clone := c.clone()
	clone.prefixes = append(clone.prefixes, prefix)
	return clone
}

func (c *consoleLogger) IsLevelEnabled(level LogLevel) bool {
	return level >= c.logLevel
}

func (c *consoleLogger) log(level LogLevel, levelColor, messageColor, levelString, msg string, args ...any) {
	if !c.IsLevelEnabled(level) {
		return
	}
	formatted := fmt.Sprintf(msg, args...)
	var prefix string
	if len(c.prefixes) > 0 {
		prefix = strings.Join(c.prefixes, " ") + " "
	}
	var suffix string
	if len(c.metadata) > 0 {
		keys := make([]string, 0, len(c.metadata))
		for k := range c.metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, c.metadata[k]))
		}
		suffix = " " + color(gray) + strings.Join(pairs, " ") + color(reset)
	}
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(os.Stderr, "%s %s[%s]%s %s%s%s%s%s\n",
		ts, color(levelColor), levelString, color(reset),
		prefix, color(messageColor), formatted, color(reset), suffix)
}

func (c *consoleLogger) Debug(msg string, args ...any) {
	c.log(LevelDebug, blueBold, green, "DEBUG", msg, args...)
}

func (c *consoleLogger) Info(msg string, args ...any) {
	c.log(LevelInfo, yellowBold, whiteBold, "INFO", msg, args...)
}

func (c *consoleLogger) Warn(msg string, args ...any) {
	c.log(LevelWarn, yellowBold, magenta, "WARN", msg, args...)
}

func (c *consoleLogger) Error(msg string, args ...any) {
	c.log(LevelError, redBold, red, "ERROR", msg, args...)
}
