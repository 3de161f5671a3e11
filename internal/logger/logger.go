// Package logger is the process-wide structured logger. It wraps log/slog
// with a text or JSON handler and a small Fields-based API.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// OutputFormat selects the slog handler.
type OutputFormat string

// Supported output formats.
const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Fields is a set of structured attributes attached to one log line.
type Fields map[string]interface{}

var (
	mu           sync.Mutex
	logger       *slog.Logger
	currentLevel = new(slog.LevelVar)
	currentFmt   = FormatText

	// testOutput redirects log output during tests.
	testOutput io.Writer
)

// SetTestOutput sends log output to w until UnsetTestOutput is called.
func SetTestOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	testOutput = w
}

// UnsetTestOutput restores the default output.
func UnsetTestOutput() {
	mu.Lock()
	defer mu.Unlock()
	testOutput = nil
}

// ParseFormat maps a config value to an OutputFormat, defaulting to text.
func ParseFormat(s string) OutputFormat {
	if strings.EqualFold(s, string(FormatJSON)) {
		return FormatJSON
	}
	return FormatText
}

// InitLogger configures the global logger. Unknown levels fall back to info.
// Logs go to stderr so command output on stdout stays pipeable.
func InitLogger(logLevel string, format OutputFormat) {
	mu.Lock()
	defer mu.Unlock()

	currentLevel.Set(parseLevel(logLevel))
	currentFmt = format
	logger = slog.New(newHandler(format))
}

// SetOutputFormat swaps the handler while keeping the current level.
func SetOutputFormat(format OutputFormat) {
	mu.Lock()
	defer mu.Unlock()

	currentFmt = format
	logger = slog.New(newHandler(format))
}

// SetLevel changes the minimum level of the current logger.
func SetLevel(logLevel string) {
	currentLevel.Set(parseLevel(logLevel))
}

// GetLogger returns the configured logger, initializing it on first use.
func GetLogger() *slog.Logger {
	mu.Lock()
	lg := logger
	mu.Unlock()
	if lg == nil {
		InitLogger("info", FormatText)
		mu.Lock()
		lg = logger
		mu.Unlock()
	}
	return lg
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newHandler must be called with mu held.
func newHandler(format OutputFormat) slog.Handler {
	var out io.Writer = os.Stderr
	if testOutput != nil {
		out = testOutput
	}
	opts := &slog.HandlerOptions{Level: currentLevel}
	if format == FormatJSON {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// Info logs an info message.
func Info(msg string, fields ...Fields) {
	GetLogger().Info(msg, mergeFields(fields...)...)
}

// Infof logs a formatted info message.
func Infof(format string, args ...interface{}) {
	GetLogger().Info(fmt.Sprintf(format, args...))
}

// Debug logs a debug message.
func Debug(msg string, fields ...Fields) {
	GetLogger().Debug(msg, mergeFields(fields...)...)
}

// Debugf logs a formatted debug message.
func Debugf(format string, args ...interface{}) {
	GetLogger().Debug(fmt.Sprintf(format, args...))
}

// Warn logs a warning.
func Warn(msg string, fields ...Fields) {
	GetLogger().Warn(msg, mergeFields(fields...)...)
}

// Error logs an error message.
func Error(msg string, fields ...Fields) {
	GetLogger().Error(msg, mergeFields(fields...)...)
}

// Success logs an info message tagged status=success.
func Success(msg string, fields ...Fields) {
	attrs := append(mergeFields(fields...), "status", "success")
	GetLogger().Info(msg, attrs...)
}

// mergeFields flattens field maps into slog key/value pairs. Later maps win
// on duplicate keys.
func mergeFields(fields ...Fields) []interface{} {
	merged := make(Fields)
	for _, f := range fields {
		for k, v := range f {
			merged[k] = v
		}
	}
	attrs := make([]interface{}, 0, len(merged)*2)
	for k, v := range merged {
		attrs = append(attrs, k, v)
	}
	return attrs
}
