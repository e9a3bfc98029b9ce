// Package logging builds the daemon's slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

const appName = "nexus-receiver"

// ParseLevel maps a config level name to a slog level. It is also the
// check config validation uses, so the two accept the same names.
func ParseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("level %q is not one of debug, info, warn, error", s)
	}
}

// New returns a logger writing to w. Format "json" selects structured output
// for log shippers, anything else colourised text for a terminal or journal.
func New(w io.Writer, level slog.Level, format, version string) *slog.Logger {
	if format == "json" {
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
		return slog.New(h).With(
			"app", appName,
			"version", version,
		)
	}

	h := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})
	return slog.New(h).With("app", appName)
}
