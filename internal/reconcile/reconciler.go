package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mj1618/droidtile/internal/layout"
	"github.com/mj1618/droidtile/internal/logging"
	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/platform"
	"github.com/mj1618/droidtile/internal/telemetry"
	"github.com/mj1618/droidtile/internal/workspace"
)

var (
	// ErrUnknownDisplay is returned for commands addressing a display no
	// loop runs for.
	ErrUnknownDisplay = errors.New("unknown display")
	// ErrUnknownWindow is returned for actions on packages with no window.
	ErrUnknownWindow = errors.New("no window for package")
	// ErrUnknownAction is returned for unsupported window actions.
	ErrUnknownAction = platform.ErrUnknownAction
)

// CycleInput is the configuration a cycle runs against.
type CycleInput struct {
	Workspace workspace.Workspace
	Settings  Settings
	Force     bool
}

// CycleResult is the outcome of one cycle plus copies of the state it left.
type CycleResult struct {
	Summary model.CycleSummary
	// Retry is set for throttled cycles: the delay until the next cycle may run.
	Retry   time.Duration
	Screen  model.Rect
	Windows []model.Window
	Targets map[string]model.Rect
}

type planItem struct {
	pkg    string
	target model.Rect
}

// Reconciler holds the per-display reconciliation state: the known windows,
// the package -> target map, maximize overrides and dynamic placements. It
// is not safe for concurrent use; a Loop is its only caller.
type Reconciler struct {
	displayID int
	windows   platform.WindowSource
	mover     platform.WindowMover
	launcher  platform.AppLauncher
	screens   platform.ScreenSource
	clock     Clock
	metrics   *telemetry.Metrics

	limiter  *rate.Limiter
	interval time.Duration

	known     []model.Window
	targets   map[string]model.Rect
	overrides map[string]bool
	placed    map[string]string
	screen    model.Rect
}

// NewReconciler returns a reconciler for displayID. metrics may be nil.
func NewReconciler(displayID int, p *platform.Provider, clock Clock, metrics *telemetry.Metrics) *Reconciler {
	if clock == nil {
		clock = RealClock{}
	}
	return &Reconciler{
		displayID: displayID,
		windows:   p.Windows,
		mover:     p.Mover,
		launcher:  p.Launcher,
		screens:   p.Screens,
		clock:     clock,
		metrics:   metrics,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		targets:   make(map[string]model.Rect),
		overrides: make(map[string]bool),
		placed:    make(map[string]string),
	}
}

// Reset drops targets, maximize overrides and dynamic placements. Known
// windows are kept so the next cycle can still diff against them.
func (r *Reconciler) Reset() {
	r.targets = make(map[string]model.Rect)
	r.overrides = make(map[string]bool)
	r.placed = make(map[string]string)
}

// Maximize toggles a full-screen override for pkg. It reports whether the
// window is now maximized.
func (r *Reconciler) Maximize(pkg string) (bool, error) {
	if _, ok := model.IndexByPackage(r.known)[pkg]; !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownWindow, pkg)
	}
	if r.overrides[pkg] {
		delete(r.overrides, pkg)
		return false, nil
	}
	r.overrides[pkg] = true
	return true, nil
}

// Cycle runs one reconciliation pass. It never panics on host failures;
// they are reported through the result.
func (r *Reconciler) Cycle(ctx context.Context, in CycleInput) CycleResult {
	now := r.clock.Now()
	res := CycleResult{Summary: model.CycleSummary{
		ID:      uuid.NewString(),
		Forced:  in.Force,
		Started: now,
	}}
	ctx = logging.WithCycle(ctx, res.Summary.ID)

	r.cycle(ctx, in, now, &res)

	res.Summary.Duration = r.clock.Now().Sub(now)
	res.Screen = r.screen
	res.Windows = append([]model.Window(nil), r.known...)
	res.Targets = make(map[string]model.Rect, len(r.targets))
	for k, v := range r.targets {
		res.Targets[k] = v
	}
	r.metrics.RecordCycle(ctx, r.displayID, res.Summary)

	log := logging.FromContext(ctx)
	evt := log.Debug()
	if res.Summary.Moves > 0 || res.Summary.Launches > 0 || res.Summary.MoveFailures > 0 {
		evt = log.Info()
	}
	evt.Str("outcome", string(res.Summary.Outcome)).
		Bool("forced", in.Force).
		Int("moves", res.Summary.Moves).
		Int("failures", res.Summary.MoveFailures).
		Int("noops", res.Summary.NoOps).
		Int("launches", res.Summary.Launches).
		Dur("took", res.Summary.Duration).
		Msg("cycle finished")
	return res
}

func (r *Reconciler) cycle(ctx context.Context, in CycleInput, now time.Time, res *CycleResult) {
	sum := &res.Summary
	log := logging.FromContext(ctx)

	screen, err := r.screens.ScreenBounds(ctx, r.displayID)
	if err != nil {
		sum.Outcome, sum.Error = model.OutcomeAborted, err.Error()
		return
	}
	if screen.Empty() {
		sum.Outcome, sum.Error = model.OutcomeAborted, fmt.Sprintf("empty screen bounds %s", screen)
		return
	}
	snapshot, err := r.windows.ListWindows(ctx, r.displayID)
	if err != nil {
		sum.Outcome, sum.Error = model.OutcomeAborted, err.Error()
		return
	}
	r.screen = screen

	needs := r.observe(ctx, snapshot)

	if in.Interval() != r.interval {
		r.interval = in.Interval()
		r.limiter.SetLimitAt(now, rate.Every(r.interval))
	}

	if in.Force {
		// A forced cycle restarts the interval even when the budget is spent.
		r.limiter = rate.NewLimiter(r.limiter.Limit(), 1)
		r.limiter.AllowN(now, 1)
		r.targets = make(map[string]model.Rect)
	} else {
		if len(r.known) > 0 && needs == 0 {
			sum.Outcome = model.OutcomeSkipped
			return
		}
		if len(r.known) == 0 && !in.Settings.SeedDefaults {
			sum.Outcome = model.OutcomeSkipped
			return
		}
		if !r.limiter.AllowN(now, 1) {
			rsv := r.limiter.ReserveN(now, 1)
			delay := rsv.DelayFrom(now)
			rsv.CancelAt(now)
			if delay <= 0 {
				delay = time.Millisecond
			}
			res.Retry = delay
			sum.Outcome = model.OutcomeThrottled
			log.Debug().Dur("retry", delay).Msg("throttled")
			return
		}
	}

	if len(r.known) == 0 {
		if !in.Settings.SeedDefaults {
			sum.Outcome = model.OutcomeSkipped
			return
		}
		r.seed(ctx, in, screen, sum)
		return
	}
	r.apply(ctx, in, screen, sum)
}

// Interval is the effective minimum interval.
func (in CycleInput) Interval() time.Duration {
	if in.Settings.MinInterval < 0 {
		return 0
	}
	return in.Settings.MinInterval
}

// observe replaces the known windows with snapshot and flags the ones that
// need repositioning. Removed windows are dropped from every per-package map.
func (r *Reconciler) observe(ctx context.Context, snapshot []model.Window) int {
	log := logging.FromContext(ctx)
	prev := model.IndexByPackage(r.known)

	for _, c := range model.DiffWindows(r.known, snapshot) {
		switch c.Type {
		case model.ChangeRemoved:
			delete(r.targets, c.Package)
			delete(r.overrides, c.Package)
			delete(r.placed, c.Package)
			log.Debug().Str("package", c.Package).Msg("window removed")
		case model.ChangeAdded:
			log.Debug().Str("package", c.Package).Int("id", c.Window.ID).Msg("window added")
		}
	}

	needs := 0
	seen := make(map[string]bool, len(snapshot))
	next := make([]model.Window, 0, len(snapshot))
	for _, w := range snapshot {
		if seen[w.Package] {
			continue
		}
		seen[w.Package] = true

		old, existed := prev[w.Package]
		target, hasTarget := r.targets[w.Package]
		w.NeedsRepositioning = !existed ||
			old.NeedsRepositioning ||
			old.Bounds != w.Bounds ||
			(hasTarget && target != w.Bounds)
		if w.NeedsRepositioning {
			needs++
		}
		next = append(next, w)
	}
	r.known = next
	return needs
}

// seed launches apps into an empty display: the layout's assigned apps
// into their leaves, or the default apps side by side when the layout
// assigns none. The target map is cleared afterwards.
func (r *Reconciler) seed(ctx context.Context, in CycleInput, screen model.Rect, sum *model.CycleSummary) {
	log := logging.FromContext(ctx)
	defer func() { r.targets = make(map[string]model.Rect) }()

	for _, lr := range SeedRegions(in.Workspace.Layout, in.Settings.DefaultApps, screen) {
		if ctx.Err() != nil {
			sum.Outcome = model.OutcomeCancelled
			return
		}
		target := lr.Bounds
		if inset, ok := target.Inset(in.Settings.Gap); ok {
			target = inset
		}
		pkg := lr.Leaf.App.Package
		if err := r.launcher.LaunchApp(ctx, pkg, r.displayID, target); err != nil {
			log.Warn().Err(err).Str("package", pkg).Msg("launch failed")
			sum.Error = err.Error()
			continue
		}
		sum.Launches++
	}
	sum.Outcome = model.OutcomeSeeded
}

// SeedRegions returns the leaves an empty display is seeded with: the
// assigned, usable leaves of tree, or defaults laid out in equal columns
// when tree assigns no apps.
func SeedRegions(tree layout.Node, defaults []string, screen model.Rect) []layout.LeafRegion {
	if tree == nil {
		tree = layout.Empty()
	}
	if len(layout.Apps(tree)) == 0 {
		nodes := make([]layout.Node, 0, len(defaults))
		for _, pkg := range defaults {
			nodes = append(nodes, layout.App(pkg))
		}
		tree = layout.EvenHorizontal(nodes...)
	}
	var out []layout.LeafRegion
	for _, lr := range layout.ComputeLeafBounds(tree, screen) {
		if lr.Leaf.App != nil && !lr.Bounds.Empty() {
			out = append(out, lr)
		}
	}
	return out
}

func (r *Reconciler) apply(ctx context.Context, in CycleInput, screen model.Rect, sum *model.CycleSummary) {
	log := logging.FromContext(ctx)

	tree := in.Workspace.Layout
	if tree == nil {
		tree = layout.Empty()
	}
	fallback, _ := layout.ParseFallback(string(in.Settings.Fallback))
	if fallback == layout.FallbackFirstFree {
		tree = r.placeUnassigned(tree, screen)
	}

	var plan []planItem
	planned := make(map[string]bool)
	for _, p := range layout.MapWindowsToRegions(tree, r.known, screen, fallback) {
		target := p.Bounds
		if inset, ok := target.Inset(in.Settings.Gap); ok {
			target = inset
		}
		if r.overrides[p.Window.Package] {
			target = screen
		}
		plan = append(plan, planItem{pkg: p.Window.Package, target: target})
		planned[p.Window.Package] = true
	}
	for _, w := range r.known {
		if r.overrides[w.Package] && !planned[w.Package] {
			plan = append(plan, planItem{pkg: w.Package, target: screen})
			planned[w.Package] = true
		}
	}
	for i := range r.known {
		if !planned[r.known[i].Package] {
			r.known[i].NeedsRepositioning = false
		}
	}

	for _, item := range plan {
		if ctx.Err() != nil {
			r.targets = make(map[string]model.Rect)
			sum.Outcome = model.OutcomeCancelled
			return
		}
		w := r.window(item.pkg)
		r.targets[item.pkg] = item.target
		if w.Bounds == item.target {
			w.NeedsRepositioning = false
			sum.NoOps++
			continue
		}
		if err := r.mover.MoveWindow(ctx, w.ID, item.target); err != nil {
			w.NeedsRepositioning = true
			sum.MoveFailures++
			if ctx.Err() != nil {
				r.targets = make(map[string]model.Rect)
				sum.Outcome = model.OutcomeCancelled
				return
			}
			log.Warn().Err(err).Str("package", item.pkg).Int("id", w.ID).Msg("move failed")
			sum.Error = err.Error()
			continue
		}
		w.NeedsRepositioning = false
		w.Bounds = item.target
		sum.Moves++
	}
	sum.Outcome = model.OutcomeApplied
}

// placeUnassigned gives every window without an assigned leaf its own free
// leaf, keeping leaves handed out in earlier cycles.
func (r *Reconciler) placeUnassigned(tree layout.Node, screen model.Rect) layout.Node {
	assigned := make(map[string]bool)
	for _, app := range layout.Apps(tree) {
		assigned[app.Package] = true
	}

	for _, w := range r.known {
		path, ok := r.placed[w.Package]
		if !ok || assigned[w.Package] {
			continue
		}
		next, err := layout.Assign(tree, path, model.AppIdentity{Package: w.Package})
		if err != nil {
			delete(r.placed, w.Package)
			continue
		}
		tree = next
		assigned[w.Package] = true
	}

	for _, w := range r.known {
		if assigned[w.Package] {
			continue
		}
		lr, ok := layout.FindFirstUnassignedLeaf(tree, screen)
		if !ok || lr.Bounds.Empty() {
			break
		}
		next, err := layout.Assign(tree, lr.Path, model.AppIdentity{Package: w.Package})
		if err != nil {
			break
		}
		tree = next
		r.placed[w.Package] = lr.Path
		assigned[w.Package] = true
	}
	return tree
}

func (r *Reconciler) window(pkg string) *model.Window {
	for i := range r.known {
		if r.known[i].Package == pkg {
			return &r.known[i]
		}
	}
	return nil
}

// Known reports whether a window of pkg was seen in the last snapshot.
func (r *Reconciler) Known(pkg string) bool {
	return r.window(pkg) != nil
}
