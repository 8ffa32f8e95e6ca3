// Package logger provides leveled logging for the API server, the worker
// and the operator CLI. Messages below the configured level are dropped.
package logger

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu    sync.RWMutex
	level = LevelInfo
	std   = log.New(os.Stderr, "", log.LstdFlags)
)

// ParseLevel maps a LOG_LEVEL value to a Level. Unknown values map to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel sets the minimum level that is written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// GetLevel returns the current minimum level.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetOutput sets the output writer. Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	std.SetOutput(w)
}

// SetFlags passes through to the underlying log.Logger.
func SetFlags(flags int) {
	mu.Lock()
	defer mu.Unlock()
	std.SetFlags(flags)
}

func logf(l Level, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l < level {
		return
	}
	std.Printf(prefix+format, args...)
}

// Debug prints a message at debug level.
func Debug(format string, args ...any) { logf(LevelDebug, "[DEBUG] ", format, args...) }

// Info prints an informational message.
func Info(format string, args ...any) { logf(LevelInfo, "[INFO] ", format, args...) }

// Warn prints a warning.
func Warn(format string, args ...any) { logf(LevelWarn, "[WARN] ", format, args...) }

// Error prints an error.
func Error(format string, args ...any) { logf(LevelError, "[ERROR] ", format, args...) }

// Fatal prints an error and exits the process.
func Fatal(format string, args ...any) {
	logf(LevelError, "[FATAL] ", format, args...)
	os.Exit(1)
}
