package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/platform"
	"github.com/mj1618/droidtile/internal/telemetry"
	"github.com/mj1618/droidtile/internal/workspace"
)

// ErrNotRunning is returned for commands issued while the engine is stopped.
var ErrNotRunning = errors.New("engine is not running")

const (
	subscribeBackoff    = time.Second
	maxSubscribeBackoff = 30 * time.Second
)

// EngineOptions configure an Engine. The zero value is usable.
type EngineOptions struct {
	Clock   Clock
	Logger  zerolog.Logger
	Metrics *telemetry.Metrics
	// Displays are reconciled even when the backend does not report them.
	Displays []int
}

type displayApps struct {
	workspace int
	apps      []model.AppIdentity
}

// Engine owns the tiling configuration and one Loop per display.
type Engine struct {
	provider *platform.Provider
	clock    Clock
	log      zerolog.Logger
	metrics  *telemetry.Metrics
	extra    []int

	mu       sync.RWMutex
	cfg      *workspace.Config
	settings Settings
	loops    map[int]*Loop
	running  map[int]displayApps
	group    *errgroup.Group
	runCtx   context.Context
}

// NewEngine validates cfg and settings and returns a stopped engine.
func NewEngine(p *platform.Provider, cfg *workspace.Config, settings Settings, opts EngineOptions) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = workspace.Default()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	return &Engine{
		provider: p,
		clock:    opts.Clock,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		extra:    append([]int(nil), opts.Displays...),
		cfg:      cfg.Clone(),
		settings: settings,
		loops:    make(map[int]*Loop),
		running:  make(map[int]displayApps),
	}, nil
}

// Run starts a loop per display and routes backend events to them until
// ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	displays, err := e.provider.Screens.Displays(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("listing displays failed, using display 0")
		displays = []int{0}
	}
	e.mu.Lock()
	displays = mergeDisplays(displays, e.extra, e.cfg.Displays())
	e.mu.Unlock()

	e.mu.Lock()
	if e.group != nil {
		e.mu.Unlock()
		return errors.New("engine is already running")
	}
	e.group, e.runCtx = g, gctx
	for _, id := range displays {
		e.startLocked(id)
	}
	e.mu.Unlock()

	e.log.Info().Ints("displays", displays).Str("backend", e.provider.Name).Msg("engine started")

	g.Go(func() error {
		events, ok := e.subscribe(gctx)
		if !ok {
			return nil
		}
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-events:
				if !ok {
					e.log.Warn().Msg("event stream closed")
					return nil
				}
				e.route(ev)
			}
		}
	})

	err = g.Wait()

	e.mu.Lock()
	e.group, e.runCtx = nil, nil
	e.loops = make(map[int]*Loop)
	e.running = make(map[int]displayApps)
	e.mu.Unlock()
	e.log.Info().Msg("engine stopped")
	return err
}

// subscribe retries the event subscription with backoff until it succeeds
// or ctx ends. Loops keep reconciling on their own timers meanwhile.
func (e *Engine) subscribe(ctx context.Context) (<-chan platform.Event, bool) {
	delay := subscribeBackoff
	for {
		events, err := e.provider.Events.Events(ctx)
		if err == nil {
			return events, true
		}
		e.log.Warn().Err(err).Dur("retry", delay).Msg("subscribe to window events failed")
		t := e.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, false
		case <-t.C():
		}
		delay = min(delay*2, maxSubscribeBackoff)
	}
}

func (e *Engine) route(ev platform.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.DisplayID == platform.AllDisplays {
		for _, l := range e.loops {
			l.Notify(ev.Package)
		}
		return
	}
	l, ok := e.loops[ev.DisplayID]
	if !ok {
		if e.group == nil {
			return
		}
		e.log.Info().Int("display", ev.DisplayID).Msg("new display")
		l = e.startLocked(ev.DisplayID)
	}
	l.Notify(ev.Package)
}

func (e *Engine) startLocked(displayID int) *Loop {
	rec := NewReconciler(displayID, e.provider, e.clock, e.metrics)
	l := NewLoop(displayID, rec, e.provider, e.source,
		WithClock(e.clock),
		WithLogger(e.log),
		WithPublishHook(e.published),
	)
	e.loops[displayID] = l
	ctx := e.runCtx
	e.group.Go(func() error { return l.Run(ctx) })
	return l
}

func (e *Engine) source(displayID int) (workspace.Workspace, int, Settings) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ws, idx := e.cfg.Active(displayID)
	return ws, idx, e.settings
}

// published records the apps running on the workspace a snapshot belongs
// to. A workspace shown on several displays lists the apps of all of them.
func (e *Engine) published(s model.Snapshot) {
	if s.LastCycle == nil || s.LastCycle.Outcome == model.OutcomeAborted {
		return
	}
	apps := make([]model.AppIdentity, 0, len(s.Windows))
	for _, w := range s.Windows {
		apps = append(apps, model.AppIdentity{Package: w.Package, Label: w.Title})
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	prev, had := e.running[s.DisplayID]
	e.running[s.DisplayID] = displayApps{workspace: s.Workspace, apps: apps}
	e.refreshRunningLocked(s.Workspace)
	if had && prev.workspace != s.Workspace {
		e.refreshRunningLocked(prev.workspace)
	}
}

func (e *Engine) refreshRunningLocked(index int) {
	if index < 0 || index >= e.cfg.Len() {
		e.log.Debug().Int("workspace", index).Msg("workspace no longer exists, running apps not recorded")
		return
	}
	ids := make([]int, 0, len(e.running))
	for id := range e.running {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var apps []model.AppIdentity
	seen := make(map[string]bool)
	for _, id := range ids {
		da := e.running[id]
		if da.workspace != index {
			continue
		}
		for _, app := range da.apps {
			if !seen[app.Package] {
				seen[app.Package] = true
				apps = append(apps, app)
			}
		}
	}
	if err := e.cfg.SetRunningApps(index, apps); err != nil {
		e.log.Debug().Err(err).Msg("record running apps")
	}
}

func (e *Engine) loop(displayID int) (*Loop, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.group == nil {
		return nil, ErrNotRunning
	}
	l, ok := e.loops[displayID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDisplay, displayID)
	}
	return l, nil
}

// SwitchWorkspace activates workspace index on displayID and forces a
// cycle there. Other displays are unaffected.
func (e *Engine) SwitchWorkspace(displayID, index int) error {
	l, err := e.loop(displayID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	err = e.cfg.Switch(displayID, index)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	l.Refresh(fmt.Sprintf("switch to workspace %d", index))
	return nil
}

// ForceRefreshLayout clears the target map of displayID and forces a cycle.
func (e *Engine) ForceRefreshLayout(displayID int) error {
	l, err := e.loop(displayID)
	if err != nil {
		return err
	}
	l.Refresh("forced")
	return nil
}

// WindowAction applies maximize, close or focus to the window of pkg on
// whichever display shows it.
func (e *Engine) WindowAction(pkg, action string) error {
	a, err := platform.ParseWindowAction(action)
	if err != nil {
		return err
	}
	e.mu.RLock()
	if e.group == nil {
		e.mu.RUnlock()
		return ErrNotRunning
	}
	var target *Loop
	for _, id := range sortedKeys(e.loops) {
		l := e.loops[id]
		for _, w := range l.Snapshot().Windows {
			if w.Package == pkg {
				target = l
				break
			}
		}
		if target != nil {
			break
		}
	}
	e.mu.RUnlock()
	if target == nil {
		return fmt.Errorf("%w: %s", ErrUnknownWindow, pkg)
	}
	target.Action(pkg, a)
	return nil
}

// UpdateConfig replaces configuration and settings. Active workspace
// indices that are still valid survive; every display is refreshed.
func (e *Engine) UpdateConfig(cfg *workspace.Config, settings Settings) error {
	if cfg == nil {
		return errors.New("nil configuration")
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	next := cfg.Clone()

	e.mu.Lock()
	next.Adopt(e.cfg)
	e.cfg = next
	e.settings = settings
	for _, da := range e.running {
		e.refreshRunningLocked(da.workspace)
	}
	loops := make([]*Loop, 0, len(e.loops))
	for _, id := range sortedKeys(e.loops) {
		loops = append(loops, e.loops[id])
	}
	e.mu.Unlock()

	for _, l := range loops {
		l.Refresh("configuration reloaded")
	}
	e.log.Info().Int("workspaces", next.Len()).Msg("configuration updated")
	return nil
}

// Snapshots returns the published state of every display, ordered by id.
func (e *Engine) Snapshots() []model.Snapshot {
	e.mu.RLock()
	out := make([]model.Snapshot, 0, len(e.loops))
	for _, l := range e.loops {
		out = append(out, l.Snapshot())
	}
	e.mu.RUnlock()
	model.SortSnapshots(out)
	return out
}

// Snapshot returns the published state of one display.
func (e *Engine) Snapshot(displayID int) (model.Snapshot, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.loops[displayID]
	if !ok {
		return model.Snapshot{}, fmt.Errorf("%w: %d", ErrUnknownDisplay, displayID)
	}
	return l.Snapshot(), nil
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() *workspace.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg.Clone()
}

// Settings returns the current settings.
func (e *Engine) Settings() Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.settings
}

func mergeDisplays(lists ...[]int) []int {
	seen := make(map[int]bool)
	var out []int
	for _, list := range lists {
		for _, id := range list {
			if id < 0 || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Ints(out)
	return out
}

func sortedKeys(m map[int]*Loop) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
