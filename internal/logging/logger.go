// Package logging builds the zerolog loggers used throughout droidtile.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	// Output defaults to stderr. Stdout carries command results.
	Output io.Writer
}

// DefaultConfig returns the defaults: info level, console format.
func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// New creates a logger with the given configuration.
func New(cfg Config) zerolog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: cfg.TimeFormat,
		}
	}

	return zerolog.New(w).
		Level(cfg.Level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel accepts trace, debug, info, warn, error or disabled.
// An empty string yields info.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	switch s {
	case "trace", "debug", "info", "warn", "error", "disabled":
		return zerolog.ParseLevel(s)
	}
	return zerolog.InfoLevel, fmt.Errorf("unknown log level %q (expected trace, debug, info, warn, error, or disabled)", s)
}

// NewFromEnv creates a logger based on environment variables
// DROIDTILE_LOG_LEVEL: trace, debug, info, warn, error (default: info)
// DROIDTILE_LOG_FORMAT: json, console (default: console)
func NewFromEnv() zerolog.Logger {
	cfg := DefaultConfig()

	if level, err := ParseLevel(os.Getenv("DROIDTILE_LOG_LEVEL")); err == nil {
		cfg.Level = level
	}

	if format := os.Getenv("DROIDTILE_LOG_FORMAT"); format != "" {
		switch format {
		case "json", "console":
			cfg.Format = format
		}
	}

	return New(cfg)
}
