// Package reconcile converges observed window bounds onto the regions the
// active layout computes for them.
//
// A Reconciler runs single cycles. A Loop owns one Reconciler per display
// and serialises all work for that display on one goroutine: change
// notifications are debounced, cycles never overlap, and commands cancel
// the in-flight cycle before acting. The Engine owns the configuration and
// one Loop per display.
package reconcile

import (
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/droidtile/internal/layout"
)

// Settings tune the reconciliation loop.
type Settings struct {
	// Gap is the symmetric inset in pixels applied to every target region.
	Gap int
	// Debounce is the quiet period after the last notification.
	Debounce time.Duration
	// MinInterval is the minimum time between non-forced cycles.
	MinInterval time.Duration
	// StartupDelay lets the host settle before the first cycle.
	StartupDelay time.Duration
	// Fallback governs windows whose package no leaf is assigned to.
	Fallback layout.Fallback
	// DefaultApps are launched into an empty display when the active layout
	// assigns no apps.
	DefaultApps []string
	// SeedDefaults enables launching apps into empty displays.
	SeedDefaults bool
	// MaxRetries bounds consecutive retry cycles after failed moves.
	MaxRetries int
}

// DefaultSettings returns the stock tuning.
func DefaultSettings() Settings {
	return Settings{
		Gap:          8,
		Debounce:     500 * time.Millisecond,
		MinInterval:  500 * time.Millisecond,
		StartupDelay: time.Second,
		Fallback:     layout.FallbackSingleWindow,
		SeedDefaults: true,
		MaxRetries:   3,
	}
}

// Validate reports every invalid field.
func (s Settings) Validate() error {
	var errs []error
	if s.Gap < 0 {
		errs = append(errs, fmt.Errorf("gap must be >= 0, got %d", s.Gap))
	}
	if s.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must be >= 0, got %s", s.Debounce))
	}
	if s.MinInterval < 0 {
		errs = append(errs, fmt.Errorf("min_interval must be >= 0, got %s", s.MinInterval))
	}
	if s.StartupDelay < 0 {
		errs = append(errs, fmt.Errorf("startup_delay must be >= 0, got %s", s.StartupDelay))
	}
	if s.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries must be >= 0, got %d", s.MaxRetries))
	}
	if _, err := layout.ParseFallback(string(s.Fallback)); err != nil {
		errs = append(errs, err)
	}
	seen := make(map[string]bool)
	for _, app := range s.DefaultApps {
		if seen[app] {
			errs = append(errs, fmt.Errorf("default app %s listed twice", app))
		}
		seen[app] = true
	}
	return errors.Join(errs...)
}
