package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/mj1618/droidtile/internal/logging"
	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/platform"
	"github.com/mj1618/droidtile/internal/workspace"
)

// Status strings published in snapshots.
const (
	StatusStarting   = "starting"
	StatusReady      = "ready"
	StatusRefreshing = "refreshing"
)

// Source supplies the active workspace and settings for a display. It is
// consulted at the start of every cycle.
type Source func(displayID int) (workspace.Workspace, int, Settings)

type commandKind int

const (
	cmdRefresh commandKind = iota
	cmdAction
)

type command struct {
	kind   commandKind
	reason string
	pkg    string
	action platform.WindowAction
}

type cycleDone struct {
	res    CycleResult
	status string
}

// Loop serialises reconciliation for one display. Notify, Refresh and
// Action may be called from any goroutine; everything else happens on the
// goroutine running Run.
type Loop struct {
	displayID int
	rec       *Reconciler
	provider  *platform.Provider
	source    Source
	clock     Clock
	log       zerolog.Logger
	onPublish func(model.Snapshot)

	notify chan string
	cmds   chan command
	exited chan struct{}

	snap          atomic.Pointer[model.Snapshot]
	notifications atomic.Int64
	cycles        atomic.Int64

	// Owned by the Run goroutine.
	timer        Timer
	timerC       <-chan time.Time
	cancelCycle  context.CancelFunc
	done         chan cycleDone
	rerun        bool
	retries      int
	lastSettings Settings
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock replaces the wall clock.
func WithClock(c Clock) LoopOption {
	return func(l *Loop) { l.clock = c }
}

// WithLogger sets the loop's logger.
func WithLogger(log zerolog.Logger) LoopOption {
	return func(l *Loop) { l.log = log }
}

// WithPublishHook is called with every published snapshot.
func WithPublishHook(fn func(model.Snapshot)) LoopOption {
	return func(l *Loop) { l.onPublish = fn }
}

// NewLoop returns a loop for displayID. rec must belong to the same display.
func NewLoop(displayID int, rec *Reconciler, p *platform.Provider, source Source, opts ...LoopOption) *Loop {
	l := &Loop{
		displayID: displayID,
		rec:       rec,
		provider:  p,
		source:    source,
		clock:     RealClock{},
		log:       zerolog.Nop(),
		notify:    make(chan string, 1),
		cmds:      make(chan command, 16),
		exited:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.snap.Store(&model.Snapshot{
		DisplayID: displayID,
		State:     model.StateIdle,
		Status:    StatusStarting,
		TS:        l.clock.Now().Unix(),
	})
	return l
}

// DisplayID returns the display the loop reconciles.
func (l *Loop) DisplayID() int { return l.displayID }

// Notify signals a window change. It never blocks; notifications arriving
// while one is queued are coalesced.
func (l *Loop) Notify(pkgHint string) {
	select {
	case l.notify <- pkgHint:
	default:
	}
}

// Refresh cancels pending and in-flight work, clears the target map and
// runs a forced cycle.
func (l *Loop) Refresh(reason string) {
	l.send(command{kind: cmdRefresh, reason: reason})
}

// Action queues a window action. Results show up in snapshots and logs.
func (l *Loop) Action(pkg string, action platform.WindowAction) {
	l.send(command{kind: cmdAction, pkg: pkg, action: action})
}

// Commands sent after Run returned are dropped.
func (l *Loop) send(cmd command) {
	select {
	case l.cmds <- cmd:
	case <-l.exited:
	}
}

// Snapshot returns the last published snapshot.
func (l *Loop) Snapshot() model.Snapshot {
	return *l.snap.Load()
}

// Cycles returns the number of finished cycles.
func (l *Loop) Cycles() int { return int(l.cycles.Load()) }

// Notifications returns the number of notifications the loop has handled.
func (l *Loop) Notifications() int { return int(l.notifications.Load()) }

// Run processes notifications and commands until ctx is done. The startup
// delay honours ctx; an in-flight cycle is cancelled and awaited on exit.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.exited)
	ctx = logging.WithContext(ctx, l.log.With().Int("display", l.displayID).Logger())
	log := logging.FromContext(ctx)

	ws, idx, settings := l.source(l.displayID)
	l.lastSettings = settings
	l.publish(func(s *model.Snapshot) {
		s.Workspace = idx
		s.WorkspaceName = ws.Title()
	})
	if err := l.sleep(ctx, settings.StartupDelay); err != nil {
		return nil
	}
	if err := l.provider.Checker.Check(ctx); err != nil {
		l.publish(func(s *model.Snapshot) { s.Status = statusFor(err) })
		log.Warn().Err(err).Msg("host not ready")
	}
	l.startCycle(ctx, true, StatusStarting)

	for {
		select {
		case <-ctx.Done():
			l.stopTimer()
			l.cancelInFlight()
			return nil

		case pkg := <-l.notify:
			log.Trace().Str("package", pkg).Msg("notified")
			l.arm(l.lastSettings.Debounce)
			n := l.notifications.Load() + 1
			l.publish(func(s *model.Snapshot) {
				s.Notifications = int(n)
				if l.done == nil {
					s.State = model.StatePending
				}
			})
			l.notifications.Store(n)

		case <-l.timerC:
			l.timerC = nil
			if l.done != nil {
				l.rerun = true
				continue
			}
			l.startCycle(ctx, false, "")

		case cmd := <-l.cmds:
			l.handle(ctx, cmd)

		case d := <-l.done:
			l.finish(d)
			if l.rerun && l.done == nil {
				l.rerun = false
				l.startCycle(ctx, false, "")
			}
		}
	}
}

func (l *Loop) handle(ctx context.Context, cmd command) {
	log := logging.FromContext(ctx)
	switch cmd.kind {
	case cmdRefresh:
		log.Info().Str("reason", cmd.reason).Msg("refresh")
		l.stopTimer()
		l.cancelInFlight()
		l.rec.Reset()
		l.rerun = false
		l.retries = 0
		l.startCycle(ctx, true, StatusRefreshing)

	case cmdAction:
		var err error
		switch cmd.action {
		case platform.ActionMaximize:
			l.cancelInFlight()
			var on bool
			on, err = l.rec.Maximize(cmd.pkg)
			if err == nil {
				log.Info().Str("package", cmd.pkg).Bool("maximized", on).Msg("maximize")
				l.startCycle(ctx, true, "")
			}
		case platform.ActionFocus:
			err = l.provider.Actioner.FocusApp(ctx, cmd.pkg, l.displayID)
		case platform.ActionClose:
			err = l.provider.Actioner.CloseApp(ctx, cmd.pkg)
		default:
			err = fmt.Errorf("%w: %q", ErrUnknownAction, cmd.action)
		}
		if err != nil {
			log.Warn().Err(err).Str("package", cmd.pkg).Str("action", string(cmd.action)).Msg("window action failed")
		}
	}
}

// startCycle runs one cycle on its own goroutine so the loop keeps
// accepting notifications and commands. At most one cycle is in flight.
func (l *Loop) startCycle(ctx context.Context, force bool, status string) {
	ws, idx, settings := l.source(l.displayID)
	l.lastSettings = settings

	cctx, cancel := context.WithCancel(ctx)
	done := make(chan cycleDone, 1)
	l.cancelCycle = cancel
	l.done = done

	l.publish(func(s *model.Snapshot) {
		s.State = model.StateReconciling
		s.Workspace = idx
		s.WorkspaceName = ws.Title()
		if status != "" {
			s.Status = status
		}
	})

	in := CycleInput{Workspace: ws, Settings: settings, Force: force}
	go func() {
		res := l.rec.Cycle(cctx, in)
		st := StatusReady
		if res.Summary.Outcome == model.OutcomeAborted {
			if err := l.provider.Checker.Check(cctx); err != nil {
				st = statusFor(err)
			} else {
				st = "error: " + res.Summary.Error
			}
		}
		done <- cycleDone{res: res, status: st}
	}()
}

// finish publishes a finished cycle and schedules follow-ups.
func (l *Loop) finish(d cycleDone) {
	l.cancelCycle()
	l.cancelCycle = nil
	l.done = nil

	res := d.res
	switch {
	case res.Summary.Outcome == model.OutcomeThrottled:
		l.arm(res.Retry)
	case res.Summary.MoveFailures > 0 && l.retries < l.lastSettings.MaxRetries:
		l.retries++
		l.arm(l.lastSettings.Debounce)
	case res.Summary.MoveFailures == 0:
		l.retries = 0
	}
	l.cycles.Add(1)

	summary := res.Summary
	l.publish(func(s *model.Snapshot) {
		s.State = model.StateIdle
		if l.timerC != nil {
			s.State = model.StatePending
		}
		s.Status = d.status
		if res.Summary.Outcome != model.OutcomeAborted {
			s.Screen = res.Screen
			s.Windows = res.Windows
			s.Targets = res.Targets
		}
		s.LastCycle = &summary
		s.Cycles = l.Cycles()
	})
}

// cancelInFlight cancels the running cycle and waits for it. The
// reconciler clears its target map when cancelled mid-plan.
func (l *Loop) cancelInFlight() {
	if l.done == nil {
		return
	}
	l.cancelCycle()
	d := <-l.done
	l.done = nil
	l.cancelCycle = nil
	l.cycles.Add(1)
	summary := d.res.Summary
	l.publish(func(s *model.Snapshot) {
		s.State = model.StateIdle
		s.LastCycle = &summary
		s.Cycles = l.Cycles()
	})
}

func (l *Loop) arm(d time.Duration) {
	if d < 0 {
		d = 0
	}
	if l.timer == nil {
		l.timer = l.clock.NewTimer(d)
	} else {
		l.timer.Reset(d)
	}
	l.timerC = l.timer.C()
}

func (l *Loop) stopTimer() {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timerC = nil
}

func (l *Loop) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := l.clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C():
		return nil
	}
}

func (l *Loop) publish(mutate func(*model.Snapshot)) {
	next := *l.snap.Load()
	mutate(&next)
	next.TS = l.clock.Now().Unix()
	l.snap.Store(&next)
	if l.onPublish != nil {
		l.onPublish(next)
	}
}

func statusFor(err error) string {
	switch {
	case errors.Is(err, platform.ErrFreeformDisabled):
		return "needs freeform windows enabled"
	case errors.Is(err, platform.ErrNotConnected):
		return "needs device connected"
	}
	return "error: " + err.Error()
}
