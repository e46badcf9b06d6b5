package platform

import (
	"errors"
	"fmt"
	"strings"
)

// WindowAction is a user-initiated operation on a single app window.
type WindowAction string

const (
	ActionMaximize WindowAction = "maximize"
	ActionClose    WindowAction = "close"
	ActionFocus    WindowAction = "focus"
)

// ErrUnknownAction is returned for action names other than maximize, close
// and focus.
var ErrUnknownAction = errors.New("unknown window action")

// ParseWindowAction converts a string flag value to a WindowAction.
func ParseWindowAction(s string) (WindowAction, error) {
	switch WindowAction(strings.ToLower(strings.TrimSpace(s))) {
	case ActionMaximize:
		return ActionMaximize, nil
	case ActionClose:
		return ActionClose, nil
	case ActionFocus:
		return ActionFocus, nil
	default:
		return "", fmt.Errorf("%w: %q (expected maximize, close, or focus)", ErrUnknownAction, s)
	}
}

// EventKind distinguishes the two change notifications the host emits.
type EventKind string

const (
	// EventWindowStateChanged signals that one app's window changed.
	EventWindowStateChanged EventKind = "window-state-changed"
	// EventWindowsChanged signals that the set of windows changed.
	EventWindowsChanged EventKind = "windows-changed"
)

// AllDisplays in an Event addresses every display.
const AllDisplays = -1

// Event is a change notification. Package is a hint and may be empty.
type Event struct {
	DisplayID int       `yaml:"display" json:"display"`
	Package   string    `yaml:"package,omitempty" json:"package,omitempty"`
	Kind      EventKind `yaml:"kind" json:"kind"`
}
