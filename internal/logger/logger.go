// Package logger configures log/slog with JSON output for the taskflow processes.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON logger writing to w. Records carry their source location.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	}))
}

// Setup installs a stdout JSON logger as the slog default.
func Setup(level slog.Level) {
	slog.SetDefault(New(os.Stdout, level))
}

// ParseLevel converts a string log level to slog.Level.
// Unrecognized values default to info level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
