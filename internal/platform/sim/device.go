// Package sim is an in-memory Android device for demos and tests. It keeps
// displays and freeform windows in memory and emits change events on every
// mutation, the way the accessibility service would.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/platform"
)

// DefaultScreen is the size of display 0 on a device built by the registered
// "sim" backend.
var DefaultScreen = model.Rect{Width: 1920, Height: 1080}

func init() {
	platform.Register("sim", func(opts platform.Options) (*platform.Provider, error) {
		d := NewDevice()
		d.AddDisplay(0, DefaultScreen)
		return d.Provider(), nil
	})
}

// ErrMoveRejected is returned by MoveWindow while a failure is injected.
var ErrMoveRejected = errors.New("move rejected")

// Move records one MoveWindow call.
type Move struct {
	WindowID int
	Package  string
	Bounds   model.Rect
	Err      error
}

// Launch records one LaunchApp call.
type Launch struct {
	Package   string
	DisplayID int
	Bounds    model.Rect
}

// Device is a simulated host. All methods are safe for concurrent use.
type Device struct {
	mu           sync.Mutex
	displays     map[int]model.Rect
	windows      []model.Window
	nextID       int
	failMoves    map[string]int
	unlaunchable map[string]bool
	disconnected bool
	freeformOff  bool
	moves        []Move
	launches     []Launch
	subs         map[chan platform.Event]struct{}
}

// NewDevice returns an empty, connected device with freeform enabled.
func NewDevice() *Device {
	return &Device{
		displays:     make(map[int]model.Rect),
		nextID:       100,
		failMoves:    make(map[string]int),
		unlaunchable: make(map[string]bool),
		subs:         make(map[chan platform.Event]struct{}),
	}
}

// Provider bundles d as every backend interface.
func (d *Device) Provider() *platform.Provider {
	return &platform.Provider{
		Name:     "sim",
		Windows:  d,
		Mover:    d,
		Launcher: d,
		Actioner: d,
		Screens:  d,
		Events:   d,
		Checker:  d,
		Toggler:  d,
	}
}

// AddDisplay adds or resizes a display.
func (d *Device) AddDisplay(id int, screen model.Rect) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.displays[id] = screen
	d.emitLocked(platform.Event{DisplayID: id, Kind: platform.EventWindowsChanged})
}

// AddWindow opens a window for pkg as if the user had started it.
func (d *Device) AddWindow(pkg string, displayID int, bounds model.Rect) model.Window {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addWindowLocked(pkg, displayID, bounds)
}

func (d *Device) addWindowLocked(pkg string, displayID int, bounds model.Rect) model.Window {
	d.nextID++
	w := model.Window{Package: pkg, Title: pkg, ID: d.nextID, DisplayID: displayID, Bounds: bounds}
	d.windows = append(d.windows, w)
	d.emitLocked(platform.Event{DisplayID: displayID, Package: pkg, Kind: platform.EventWindowsChanged})
	return w
}

// RemoveWindow closes every window of pkg.
func (d *Device) RemoveWindow(pkg string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.removeLocked(pkg)
}

func (d *Device) removeLocked(pkg string) bool {
	kept := d.windows[:0]
	var removed []model.Window
	for _, w := range d.windows {
		if w.Package == pkg {
			removed = append(removed, w)
			continue
		}
		kept = append(kept, w)
	}
	d.windows = kept
	for _, w := range removed {
		d.emitLocked(platform.Event{DisplayID: w.DisplayID, Package: pkg, Kind: platform.EventWindowsChanged})
	}
	return len(removed) > 0
}

// SetBounds changes a window's bounds as if the user had dragged it.
func (d *Device) SetBounds(pkg string, bounds model.Rect) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexLocked(func(w model.Window) bool { return w.Package == pkg })
	if i < 0 {
		return fmt.Errorf("%w: %s", platform.ErrNoWindow, pkg)
	}
	d.windows[i].Bounds = bounds
	d.emitLocked(platform.Event{DisplayID: d.windows[i].DisplayID, Package: pkg, Kind: platform.EventWindowStateChanged})
	return nil
}

// FailMoves makes the next n moves of pkg's window fail.
func (d *Device) FailMoves(pkg string, n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failMoves[pkg] = n
}

// SetUnlaunchable makes LaunchApp fail for pkg.
func (d *Device) SetUnlaunchable(pkg string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.unlaunchable[pkg] = true
}

// SetConnected toggles the simulated adb connection.
func (d *Device) SetConnected(ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disconnected = !ok
}

// SetFreeform toggles freeform support.
func (d *Device) SetFreeform(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.freeformOff = !on
}

// Moves returns every MoveWindow call so far.
func (d *Device) Moves() []Move {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Move(nil), d.moves...)
}

// Launches returns every LaunchApp call so far.
func (d *Device) Launches() []Launch {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Launch(nil), d.launches...)
}

// Window returns the current window of pkg.
func (d *Device) Window(pkg string) (model.Window, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexLocked(func(w model.Window) bool { return w.Package == pkg })
	if i < 0 {
		return model.Window{}, false
	}
	return d.windows[i], true
}

// ListWindows implements platform.WindowSource.
func (d *Device) ListWindows(ctx context.Context, displayID int) ([]model.Window, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disconnected {
		return nil, platform.ErrNotConnected
	}
	var out []model.Window
	for _, w := range d.windows {
		if w.DisplayID == displayID {
			out = append(out, w)
		}
	}
	return out, nil
}

// MoveWindow implements platform.WindowMover.
func (d *Device) MoveWindow(ctx context.Context, windowID int, bounds model.Rect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disconnected {
		return platform.ErrNotConnected
	}
	i := d.indexLocked(func(w model.Window) bool { return w.ID == windowID })
	if i < 0 {
		err := fmt.Errorf("%w: id %d", platform.ErrNoWindow, windowID)
		d.moves = append(d.moves, Move{WindowID: windowID, Bounds: bounds, Err: err})
		return err
	}
	w := &d.windows[i]
	if n := d.failMoves[w.Package]; n > 0 {
		d.failMoves[w.Package] = n - 1
		err := fmt.Errorf("%w: %s", ErrMoveRejected, w.Package)
		d.moves = append(d.moves, Move{WindowID: windowID, Package: w.Package, Bounds: bounds, Err: err})
		return err
	}
	w.Bounds = bounds
	d.moves = append(d.moves, Move{WindowID: windowID, Package: w.Package, Bounds: bounds})
	d.emitLocked(platform.Event{DisplayID: w.DisplayID, Package: w.Package, Kind: platform.EventWindowStateChanged})
	return nil
}

// LaunchApp implements platform.AppLauncher. A running app is brought to
// the front and resized instead of being started twice.
func (d *Device) LaunchApp(ctx context.Context, pkg string, displayID int, bounds model.Rect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disconnected {
		return platform.ErrNotConnected
	}
	if d.unlaunchable[pkg] {
		return fmt.Errorf("no launchable activity for %s", pkg)
	}
	screen, ok := d.displays[displayID]
	if !ok {
		return fmt.Errorf("unknown display %d", displayID)
	}
	if bounds.Empty() {
		bounds = screen
	}
	d.launches = append(d.launches, Launch{Package: pkg, DisplayID: displayID, Bounds: bounds})
	d.removeLocked(pkg)
	d.addWindowLocked(pkg, displayID, bounds)
	return nil
}

// FocusApp implements platform.WindowActioner by raising pkg to the top of
// the window list.
func (d *Device) FocusApp(ctx context.Context, pkg string, displayID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexLocked(func(w model.Window) bool { return w.Package == pkg })
	if i < 0 {
		return fmt.Errorf("%w: %s", platform.ErrNoWindow, pkg)
	}
	w := d.windows[i]
	d.windows = append(append(d.windows[:i:i], d.windows[i+1:]...), w)
	d.emitLocked(platform.Event{DisplayID: w.DisplayID, Package: pkg, Kind: platform.EventWindowStateChanged})
	return nil
}

// CloseApp implements platform.WindowActioner.
func (d *Device) CloseApp(ctx context.Context, pkg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.removeLocked(pkg) {
		return fmt.Errorf("%w: %s", platform.ErrNoWindow, pkg)
	}
	return nil
}

// Displays implements platform.ScreenSource.
func (d *Device) Displays(ctx context.Context) ([]int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disconnected {
		return nil, platform.ErrNotConnected
	}
	ids := make([]int, 0, len(d.displays))
	for id := range d.displays {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

// ScreenBounds implements platform.ScreenSource.
func (d *Device) ScreenBounds(ctx context.Context, displayID int) (model.Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disconnected {
		return model.Rect{}, platform.ErrNotConnected
	}
	screen, ok := d.displays[displayID]
	if !ok {
		return model.Rect{}, fmt.Errorf("unknown display %d", displayID)
	}
	return screen, nil
}

// Check implements platform.Checker.
func (d *Device) Check(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch {
	case d.disconnected:
		return platform.ErrNotConnected
	case d.freeformOff:
		return platform.ErrFreeformDisabled
	}
	return nil
}

// EnableFreeform implements platform.FreeformToggler.
func (d *Device) EnableFreeform(ctx context.Context) error {
	d.SetFreeform(true)
	return nil
}

// Events implements platform.EventSource. Events are dropped when the
// subscriber falls behind; the next one triggers the same reconciliation.
func (d *Device) Events(ctx context.Context) (<-chan platform.Event, error) {
	ch := make(chan platform.Event, 64)
	d.mu.Lock()
	d.subs[ch] = struct{}{}
	d.mu.Unlock()

	go func() {
		<-ctx.Done()
		d.mu.Lock()
		delete(d.subs, ch)
		close(ch)
		d.mu.Unlock()
	}()
	return ch, nil
}

func (d *Device) emitLocked(ev platform.Event) {
	for ch := range d.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (d *Device) indexLocked(match func(model.Window) bool) int {
	for i, w := range d.windows {
		if match(w) {
			return i
		}
	}
	return -1
}
