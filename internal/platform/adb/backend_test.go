package adb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/platform"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, args ...string) (string, error) {
	ret := m.Called(strings.Join(args, " "))
	return ret.String(0), ret.Error(1)
}

func newTestBackend(r Runner, ttl time.Duration) *Backend {
	b := New(r, platform.Options{CacheTTL: ttl, PollInterval: 10 * time.Millisecond, Logger: zerolog.Nop()})
	b.launchPoll = time.Millisecond
	return b
}

func TestListWindows_FiltersDisplayAndCaches(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", "shell am stack list").Return(stackList, nil).Once()
	b := newTestBackend(r, time.Minute)

	d0, err := b.ListWindows(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.android.chrome", "org.videolan.vlc"}, model.Packages(d0))

	d2, err := b.ListWindows(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"com.termux"}, model.Packages(d2))

	displays, err := b.Displays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, displays)

	r.AssertNumberOfCalls(t, "Run", 1)
}

func TestListWindows_Error(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", "shell am stack list").Return("", platform.ErrNotConnected)
	b := newTestBackend(r, time.Minute)

	_, err := b.ListWindows(context.Background(), 0)
	assert.ErrorIs(t, err, platform.ErrNotConnected)
}

func TestMoveWindow_InvalidatesCache(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", "shell am stack list").Return(stackList, nil).Twice()
	r.On("Run", "shell am task resize 21 8 8 492 792").Return("", nil).Once()
	b := newTestBackend(r, time.Minute)

	_, err := b.ListWindows(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, b.MoveWindow(context.Background(), 21, model.LTRB(8, 8, 492, 792)))
	_, err = b.ListWindows(context.Background(), 0)
	require.NoError(t, err)

	r.AssertExpectations(t)
}

func TestMoveWindow_DeviceError(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", "shell am task resize 99 0 0 10 10").Return("Error: task 99 not found\n", nil)
	b := newTestBackend(r, 0)

	err := b.MoveWindow(context.Background(), 99, model.Rect{Width: 10, Height: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task 99 not found")
}

func TestLaunchApp_StartsFreeformAndResizes(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", "shell cmd package resolve-activity --brief -c android.intent.category.LAUNCHER org.videolan.vlc").
		Return("priority=0\norg.videolan.vlc/.StartActivity\n", nil)
	r.On("Run", "shell am start -n org.videolan.vlc/.StartActivity --windowingMode 5 --display 0").
		Return("Starting: Intent { cmp=org.videolan.vlc/.StartActivity }\n", nil)
	r.On("Run", "shell am stack list").Return(stackList, nil)
	r.On("Run", "shell am task resize 22 0 0 500 800").Return("", nil).Once()
	b := newTestBackend(r, time.Minute)

	err := b.LaunchApp(context.Background(), "org.videolan.vlc", 0, model.LTRB(0, 0, 500, 800))
	require.NoError(t, err)
	r.AssertExpectations(t)
}

func TestLaunchApp_NoWindowAppears(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", mock.MatchedBy(func(s string) bool { return strings.HasPrefix(s, "shell cmd package resolve-activity") })).
		Return("com.example/.Main\n", nil)
	r.On("Run", "shell am start -n com.example/.Main --windowingMode 5 --display 0").Return("", nil)
	r.On("Run", "shell am stack list").Return(stackList, nil)
	b := newTestBackend(r, time.Minute)

	err := b.LaunchApp(context.Background(), "com.example", 0, model.Rect{Width: 10, Height: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no window appeared")
	r.AssertNumberOfCalls(t, "Run", 2+launchAttempts)
}

func TestLaunchApp_Unresolvable(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", mock.Anything).Return("No activity found\n", nil)
	b := newTestBackend(r, 0)

	err := b.LaunchApp(context.Background(), "nope", 0, model.Rect{})
	require.Error(t, err)
	r.AssertNumberOfCalls(t, "Run", 1)
}

func TestScreenBounds(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", "shell wm size").Return("Physical size: 1080x2400\n", nil)
	r.On("Run", "shell wm size -d 2").Return("Physical size: 1920x1080\n", nil)
	b := newTestBackend(r, 0)

	got, err := b.ScreenBounds(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, model.Rect{Width: 1080, Height: 2400}, got)

	got, err = b.ScreenBounds(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, model.Rect{Width: 1920, Height: 1080}, got)
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		state    string
		freeform string
		want     error
	}{
		{"ready", "device\n", "1\n", nil},
		{"freeform off", "device\n", "0\n", platform.ErrFreeformDisabled},
		{"freeform unset", "device\n", "null\n", platform.ErrFreeformDisabled},
		{"offline", "offline\n", "", platform.ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &mockRunner{}
			r.On("Run", "get-state").Return(tt.state, nil)
			r.On("Run", "shell settings get global enable_freeform_support").Return(tt.freeform, nil)
			b := newTestBackend(r, 0)

			err := b.Check(context.Background())
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestEnableFreeform(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", "shell settings put global enable_freeform_support 1").Return("", nil).Once()
	r.On("Run", "shell settings put global force_resizable_activities 1").Return("", nil).Once()
	b := newTestBackend(r, 0)

	require.NoError(t, b.EnableFreeform(context.Background()))
	r.AssertExpectations(t)
}

func TestCloseAndFocus(t *testing.T) {
	r := &mockRunner{}
	r.On("Run", "shell am force-stop org.videolan.vlc").Return("", nil).Once()
	r.On("Run", mock.MatchedBy(func(s string) bool { return strings.HasPrefix(s, "shell cmd package resolve-activity") })).
		Return("org.videolan.vlc/.StartActivity\n", nil)
	r.On("Run", "shell am start -n org.videolan.vlc/.StartActivity --display 0").Return("", nil).Once()
	b := newTestBackend(r, 0)

	require.NoError(t, b.CloseApp(context.Background(), "org.videolan.vlc"))
	require.NoError(t, b.FocusApp(context.Background(), "org.videolan.vlc", 0))
	r.AssertExpectations(t)
}

func TestEvents_EmitsDiff(t *testing.T) {
	before := "RootTask id=1 bounds=[0,0][1000,800] displayId=0 userId=0\n" +
		"  taskId=5: a.chrome/.Main bounds=[0,0][500,800] userId=0 visible=true\n" +
		"  taskId=6: b.vlc/.Main bounds=[500,0][1000,800] userId=0 visible=true\n"
	after := "RootTask id=1 bounds=[0,0][1000,800] displayId=0 userId=0\n" +
		"  taskId=5: a.chrome/.Main bounds=[0,0][1000,800] userId=0 visible=true\n"

	r := &mockRunner{}
	r.On("Run", "shell am stack list").Return(before, nil).Once()
	r.On("Run", "shell am stack list").Return(after, nil)
	b := newTestBackend(r, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := b.Events(ctx)
	require.NoError(t, err)

	var got []platform.Event
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-ch:
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	assert.Equal(t, platform.Event{DisplayID: 0, Package: "a.chrome", Kind: platform.EventWindowStateChanged}, got[0])
	assert.Equal(t, platform.Event{DisplayID: 0, Package: "b.vlc", Kind: platform.EventWindowsChanged}, got[1])

	cancel()
	for range ch {
	}
}

func TestEvents_DeviceUnreachableAtStart(t *testing.T) {
	listing := "RootTask id=1 bounds=[0,0][1000,800] displayId=0 userId=0\n" +
		"  taskId=5: a.chrome/.Main bounds=[0,0][500,800] userId=0 visible=true\n"

	r := &mockRunner{}
	r.On("Run", "shell am stack list").Return("", platform.ErrNotConnected).Twice()
	r.On("Run", "shell am stack list").Return(listing, nil)
	b := newTestBackend(r, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, err := b.Events(ctx)
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, platform.Event{DisplayID: 0, Package: "a.chrome", Kind: platform.EventWindowsChanged}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no event once the device answered")
	}

	cancel()
	for range ch {
	}
}
