package platform

import (
	"context"
	"errors"

	"github.com/mj1618/droidtile/internal/model"
)

var (
	// ErrFreeformDisabled means the host has freeform windowing switched off.
	ErrFreeformDisabled = errors.New("freeform windows are disabled")
	// ErrNotConnected means no device is reachable.
	ErrNotConnected = errors.New("device not connected")
	// ErrNoWindow is returned for operations on windows the host does not report.
	ErrNoWindow = errors.New("no such window")
)

// WindowSource reports the windows currently shown on a display. Results are
// eventually consistent: count and order may change between calls.
type WindowSource interface {
	ListWindows(ctx context.Context, displayID int) ([]model.Window, error)
}

// WindowMover repositions a window. It is the only sanctioned way to change
// a window's placement and may fail.
type WindowMover interface {
	MoveWindow(ctx context.Context, windowID int, bounds model.Rect) error
}

// AppLauncher starts an app as a freeform window with the given bounds.
type AppLauncher interface {
	LaunchApp(ctx context.Context, pkg string, displayID int, bounds model.Rect) error
}

// WindowActioner focuses or closes apps.
type WindowActioner interface {
	FocusApp(ctx context.Context, pkg string, displayID int) error
	CloseApp(ctx context.Context, pkg string) error
}

// ScreenSource reports displays and their usable bounds.
type ScreenSource interface {
	Displays(ctx context.Context) ([]int, error)
	ScreenBounds(ctx context.Context, displayID int) (model.Rect, error)
}

// EventSource delivers change notifications until ctx is done, then closes
// the channel.
type EventSource interface {
	Events(ctx context.Context) (<-chan Event, error)
}

// Checker reports whether the host is usable. It returns ErrNotConnected or
// ErrFreeformDisabled (possibly wrapped) for the known failure modes.
type Checker interface {
	Check(ctx context.Context) error
}

// FreeformToggler switches freeform windowing on.
type FreeformToggler interface {
	EnableFreeform(ctx context.Context) error
}
