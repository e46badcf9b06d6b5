package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/platform"
)

func TestRegisteredBackend(t *testing.T) {
	p, err := platform.NewProvider("sim", platform.Options{})
	require.NoError(t, err)
	assert.Equal(t, "sim", p.Name)

	screen, err := p.Screens.ScreenBounds(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultScreen, screen)
}

func TestMoveWindow(t *testing.T) {
	ctx := context.Background()
	d := NewDevice()
	d.AddDisplay(0, model.Rect{Width: 1000, Height: 800})
	w := d.AddWindow("a", 0, model.Rect{Width: 10, Height: 10})

	target := model.LTRB(0, 0, 500, 800)
	require.NoError(t, d.MoveWindow(ctx, w.ID, target))

	got, ok := d.Window("a")
	require.True(t, ok)
	assert.Equal(t, target, got.Bounds)
	require.Len(t, d.Moves(), 1)
	assert.NoError(t, d.Moves()[0].Err)
}

func TestMoveWindow_InjectedFailures(t *testing.T) {
	ctx := context.Background()
	d := NewDevice()
	w := d.AddWindow("a", 0, model.Rect{Width: 10, Height: 10})
	d.FailMoves("a", 2)

	target := model.Rect{Width: 20, Height: 20}
	assert.ErrorIs(t, d.MoveWindow(ctx, w.ID, target), ErrMoveRejected)
	assert.ErrorIs(t, d.MoveWindow(ctx, w.ID, target), ErrMoveRejected)
	assert.NoError(t, d.MoveWindow(ctx, w.ID, target))
	assert.ErrorIs(t, d.MoveWindow(ctx, 9999, target), platform.ErrNoWindow)
	assert.Len(t, d.Moves(), 4)
}

func TestLaunchApp(t *testing.T) {
	ctx := context.Background()
	d := NewDevice()
	d.AddDisplay(0, model.Rect{Width: 1000, Height: 800})

	require.NoError(t, d.LaunchApp(ctx, "a", 0, model.LTRB(0, 0, 500, 800)))
	require.NoError(t, d.LaunchApp(ctx, "b", 0, model.Rect{}))
	require.NoError(t, d.LaunchApp(ctx, "a", 0, model.LTRB(500, 0, 1000, 800)))

	windows, err := d.ListWindows(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, model.Packages(windows), "relaunch replaces the running window")
	assert.Equal(t, model.Rect{Width: 1000, Height: 800}, windows[0].Bounds, "empty bounds launch full screen")
	assert.Len(t, d.Launches(), 3)

	d.SetUnlaunchable("x")
	assert.Error(t, d.LaunchApp(ctx, "x", 0, model.Rect{}))
	assert.Error(t, d.LaunchApp(ctx, "y", 7, model.Rect{}))
}

func TestFocusAndClose(t *testing.T) {
	ctx := context.Background()
	d := NewDevice()
	d.AddWindow("a", 0, model.Rect{Width: 1, Height: 1})
	d.AddWindow("b", 0, model.Rect{Width: 1, Height: 1})

	require.NoError(t, d.FocusApp(ctx, "a", 0))
	windows, _ := d.ListWindows(ctx, 0)
	assert.Equal(t, []string{"b", "a"}, model.Packages(windows))

	require.NoError(t, d.CloseApp(ctx, "b"))
	windows, _ = d.ListWindows(ctx, 0)
	assert.Equal(t, []string{"a"}, model.Packages(windows))
	assert.ErrorIs(t, d.CloseApp(ctx, "b"), platform.ErrNoWindow)
	assert.ErrorIs(t, d.FocusApp(ctx, "b", 0), platform.ErrNoWindow)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	d := NewDevice()
	assert.NoError(t, d.Check(ctx))

	d.SetFreeform(false)
	assert.ErrorIs(t, d.Check(ctx), platform.ErrFreeformDisabled)
	require.NoError(t, d.EnableFreeform(ctx))
	assert.NoError(t, d.Check(ctx))

	d.SetConnected(false)
	assert.ErrorIs(t, d.Check(ctx), platform.ErrNotConnected)
	_, err := d.ListWindows(ctx, 0)
	assert.ErrorIs(t, err, platform.ErrNotConnected)
}

func TestDisplays(t *testing.T) {
	d := NewDevice()
	d.AddDisplay(3, model.Rect{Width: 1, Height: 1})
	d.AddDisplay(0, model.Rect{Width: 1, Height: 1})

	ids, err := d.Displays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3}, ids)

	_, err = d.ScreenBounds(context.Background(), 5)
	assert.Error(t, err)
}

func TestEvents(t *testing.T) {
	d := NewDevice()
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := d.Events(ctx)
	require.NoError(t, err)

	d.AddWindow("a", 1, model.Rect{Width: 1, Height: 1})
	require.NoError(t, d.SetBounds("a", model.Rect{Width: 2, Height: 2}))

	want := []platform.Event{
		{DisplayID: 1, Package: "a", Kind: platform.EventWindowsChanged},
		{DisplayID: 1, Package: "a", Kind: platform.EventWindowStateChanged},
	}
	for _, w := range want {
		select {
		case ev := <-ch:
			assert.Equal(t, w, ev)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}
