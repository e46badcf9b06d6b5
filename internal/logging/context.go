package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// FromContext extracts the logger from context
// If no logger is found, returns a disabled logger (no-op)
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

// WithComponent creates a child logger with a component field
func WithComponent(ctx context.Context, component string) context.Context {
	logger := FromContext(ctx)
	childLogger := logger.With().Str("component", component).Logger()
	return WithContext(ctx, childLogger)
}

// WithDisplay creates a child logger with a display field
func WithDisplay(ctx context.Context, displayID int) context.Context {
	logger := FromContext(ctx)
	childLogger := logger.With().Int("display", displayID).Logger()
	return WithContext(ctx, childLogger)
}

// WithCycle creates a child logger with a cycle field
func WithCycle(ctx context.Context, cycleID string) context.Context {
	logger := FromContext(ctx)
	childLogger := logger.With().Str("cycle", cycleID).Logger()
	return WithContext(ctx, childLogger)
}
