package adb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/platform"
)

const (
	defaultPollInterval = time.Second
	defaultCacheTTL     = 250 * time.Millisecond
	launchAttempts      = 10
	launchPoll          = 300 * time.Millisecond
	// windowingModeFreeform is WINDOWING_MODE_FREEFORM in ActivityManager.
	windowingModeFreeform = "5"
)

var defaultIgnore = []string{
	"com.android.launcher3",
	"com.google.android.apps.nexuslauncher",
	"com.android.systemui",
}

func init() {
	platform.Register("adb", func(opts platform.Options) (*platform.Provider, error) {
		b := New(ExecRunner{Path: opts.ADBPath, Serial: opts.Serial}, opts)
		return b.Provider(), nil
	})
}

// Backend implements the platform interfaces on top of adb shell commands.
type Backend struct {
	runner       Runner
	cache        *listingCache
	ignore       map[string]bool
	pollInterval time.Duration
	launchPoll   time.Duration
	log          zerolog.Logger
}

// New returns a backend that runs commands through runner.
func New(runner Runner, opts platform.Options) *Backend {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	ttl := opts.CacheTTL
	if ttl < 0 {
		ttl = 0
	} else if ttl == 0 {
		ttl = defaultCacheTTL
	}
	ignore := make(map[string]bool)
	for _, pkg := range append(append([]string(nil), defaultIgnore...), opts.IgnorePackages...) {
		ignore[pkg] = true
	}
	return &Backend{
		runner:       runner,
		cache:        newListingCache(ttl),
		ignore:       ignore,
		pollInterval: poll,
		launchPoll:   launchPoll,
		log:          opts.Logger.With().Str("component", "adb").Logger(),
	}
}

// Provider bundles b as every backend interface.
func (b *Backend) Provider() *platform.Provider {
	return &platform.Provider{
		Name:     "adb",
		Windows:  b,
		Mover:    b,
		Launcher: b,
		Actioner: b,
		Screens:  b,
		Events:   b,
		Checker:  b,
		Toggler:  b,
	}
}

func (b *Backend) loadListing(ctx context.Context) (string, []model.Window, error) {
	out, err := shell(ctx, b.runner, "am", "stack", "list")
	if err != nil {
		return "", nil, fmt.Errorf("list tasks: %w", err)
	}
	windows, err := parseStackList(out, b.ignore)
	if err != nil {
		return "", nil, err
	}
	return out, windows, nil
}

func (b *Backend) listAll(ctx context.Context) ([]model.Window, error) {
	_, windows, err := b.cache.get(ctx, b.loadListing)
	return windows, err
}

// ListWindows implements platform.WindowSource.
func (b *Backend) ListWindows(ctx context.Context, displayID int) ([]model.Window, error) {
	all, err := b.listAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []model.Window
	for _, w := range all {
		if w.DisplayID == displayID {
			out = append(out, w)
		}
	}
	return out, nil
}

// MoveWindow implements platform.WindowMover.
func (b *Backend) MoveWindow(ctx context.Context, windowID int, bounds model.Rect) error {
	defer b.cache.invalidate()
	out, err := shell(ctx, b.runner, "am", "task", "resize", strconv.Itoa(windowID),
		strconv.Itoa(bounds.X), strconv.Itoa(bounds.Y), strconv.Itoa(bounds.Right()), strconv.Itoa(bounds.Bottom()))
	if err != nil {
		return fmt.Errorf("resize task %d: %w", windowID, err)
	}
	if err := commandFailure(out); err != nil {
		return fmt.Errorf("resize task %d: %w", windowID, err)
	}
	b.log.Debug().Int("task", windowID).Stringer("bounds", bounds).Msg("task resized")
	return nil
}

// LaunchApp implements platform.AppLauncher. The app is started in freeform
// mode and its task is resized once it shows up in the stack list.
func (b *Backend) LaunchApp(ctx context.Context, pkg string, displayID int, bounds model.Rect) error {
	component, err := b.resolve(ctx, pkg)
	if err != nil {
		return err
	}
	out, err := shell(ctx, b.runner, "am", "start", "-n", component,
		"--windowingMode", windowingModeFreeform, "--display", strconv.Itoa(displayID))
	b.cache.invalidate()
	if err != nil {
		return fmt.Errorf("start %s: %w", pkg, err)
	}
	if err := commandFailure(out); err != nil {
		return fmt.Errorf("start %s: %w", pkg, err)
	}
	if bounds.Empty() {
		return nil
	}

	for attempt := 0; attempt < launchAttempts; attempt++ {
		windows, err := b.ListWindows(ctx, displayID)
		if err == nil {
			if w, ok := model.IndexByPackage(windows)[pkg]; ok {
				if w.Bounds == bounds {
					return nil
				}
				return b.MoveWindow(ctx, w.ID, bounds)
			}
		}
		b.cache.invalidate()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.launchPoll):
		}
	}
	return fmt.Errorf("started %s but no window appeared on display %d", pkg, displayID)
}

func (b *Backend) resolve(ctx context.Context, pkg string) (string, error) {
	out, err := shell(ctx, b.runner, "cmd", "package", "resolve-activity", "--brief",
		"-c", "android.intent.category.LAUNCHER", pkg)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", pkg, err)
	}
	return parseResolvedActivity(pkg, out)
}

// FocusApp implements platform.WindowActioner.
func (b *Backend) FocusApp(ctx context.Context, pkg string, displayID int) error {
	component, err := b.resolve(ctx, pkg)
	if err != nil {
		return err
	}
	defer b.cache.invalidate()
	out, err := shell(ctx, b.runner, "am", "start", "-n", component, "--display", strconv.Itoa(displayID))
	if err != nil {
		return fmt.Errorf("focus %s: %w", pkg, err)
	}
	return commandFailure(out)
}

// CloseApp implements platform.WindowActioner.
func (b *Backend) CloseApp(ctx context.Context, pkg string) error {
	defer b.cache.invalidate()
	if _, err := shell(ctx, b.runner, "am", "force-stop", pkg); err != nil {
		return fmt.Errorf("close %s: %w", pkg, err)
	}
	return nil
}

// Displays implements platform.ScreenSource.
func (b *Backend) Displays(ctx context.Context) ([]int, error) {
	raw, _, err := b.cache.get(ctx, b.loadListing)
	if err != nil {
		return nil, err
	}
	return parseDisplays(raw), nil
}

// ScreenBounds implements platform.ScreenSource.
func (b *Backend) ScreenBounds(ctx context.Context, displayID int) (model.Rect, error) {
	args := []string{"wm", "size"}
	if displayID != 0 {
		args = append(args, "-d", strconv.Itoa(displayID))
	}
	out, err := shell(ctx, b.runner, args...)
	if err != nil {
		return model.Rect{}, fmt.Errorf("screen size of display %d: %w", displayID, err)
	}
	return parseWMSize(out)
}

// Check implements platform.Checker.
func (b *Backend) Check(ctx context.Context) error {
	state, err := b.runner.Run(ctx, "get-state")
	if err != nil {
		return err
	}
	if s := strings.TrimSpace(state); s != "device" {
		return fmt.Errorf("%w: state %q", platform.ErrNotConnected, s)
	}
	out, err := shell(ctx, b.runner, "settings", "get", "global", "enable_freeform_support")
	if err != nil {
		return err
	}
	if strings.TrimSpace(out) != "1" {
		return platform.ErrFreeformDisabled
	}
	return nil
}

// EnableFreeform implements platform.FreeformToggler. Some Android versions
// only pick the setting up after a reboot.
func (b *Backend) EnableFreeform(ctx context.Context) error {
	for _, key := range []string{"enable_freeform_support", "force_resizable_activities"} {
		if _, err := shell(ctx, b.runner, "settings", "put", "global", key, "1"); err != nil {
			return fmt.Errorf("enable %s: %w", key, err)
		}
	}
	return nil
}

func commandFailure(out string) error {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Error") || strings.HasPrefix(line, "Exception") ||
			strings.Contains(line, "java.lang.") {
			return fmt.Errorf("device reported: %s", line)
		}
	}
	return nil
}
