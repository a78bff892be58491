// Package logging builds the slog loggers used across cleanfire.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/diogo/cleanfire/internal/config"
)

// ParseLevel maps a config level name to a slog level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
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

// New creates a text logger writing to w
func New(level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format("15:04:05.000"))
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// FromConfig returns the logger described by cfg. When verbose is off the
// logger discards output. The returned close function must be called on exit.
func FromConfig(cfg config.Config) (*slog.Logger, func() error, error) {
	noop := func() error { return nil }
	if !cfg.Verbose {
		return Discard(), noop, nil
	}

	if _, err := config.EnsureConfigDir(); err != nil {
		return Discard(), noop, err
	}
	path, err := config.GetLogPath()
	if err != nil {
		return Discard(), noop, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return Discard(), noop, fmt.Errorf("failed to open log file: %w", err)
	}

	return New(ParseLevel(cfg.LogLevel), f), f.Close, nil
}
