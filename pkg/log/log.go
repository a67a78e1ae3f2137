// Package log configures the process-wide structured logger.
package log

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the default logger. Level accepts the slog level names
// (debug, info, warn, error) and falls back to info on anything else.
// Format "json" emits one JSON object per line for log collectors; any
// other value keeps the human-readable text handler.
func Setup(logLevel, format string) {
	slog.SetDefault(slog.New(newHandler(os.Stderr, logLevel, format)))
}

func newHandler(w io.Writer, logLevel, format string) slog.Handler {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}

	return slog.NewTextHandler(w, opts)
}

func WithModule(module string) *slog.Logger {
	return slog.With("module", module)
}
