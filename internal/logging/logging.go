// Package logging builds the slog logger used by the EBICS client
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// New returns a logger writing to stderr. The dev environment gets a
// colored terminal handler, every other environment JSON.
func New(level, environment string) *slog.Logger {
	return NewWithWriter(os.Stderr, level, environment)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(w io.Writer, level, environment string) *slog.Logger {
	lvl := ParseLevel(level)

	var handler slog.Handler
	if environment == "dev" {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	}

	return slog.New(handler).With(slog.String("service", "ebics"))
}
