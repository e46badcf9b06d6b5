package platform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mj1618/droidtile/internal/model"
)

type stubBackend struct{}

func (stubBackend) ListWindows(context.Context, int) ([]model.Window, error) { return nil, nil }
func (stubBackend) MoveWindow(context.Context, int, model.Rect) error        { return nil }
func (stubBackend) LaunchApp(context.Context, string, int, model.Rect) error { return nil }
func (stubBackend) FocusApp(context.Context, string, int) error              { return nil }
func (stubBackend) CloseApp(context.Context, string) error                   { return nil }
func (stubBackend) Displays(context.Context) ([]int, error)                  { return []int{0}, nil }
func (stubBackend) ScreenBounds(context.Context, int) (model.Rect, error)    { return model.Rect{}, nil }
func (stubBackend) Check(context.Context) error                              { return nil }
func (stubBackend) Events(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event)
	close(ch)
	return ch, nil
}

func fullProvider() *Provider {
	s := stubBackend{}
	return &Provider{Windows: s, Mover: s, Launcher: s, Actioner: s, Screens: s, Events: s, Checker: s}
}

func registerStub(name string, fn NewProviderFunc) {
	for _, n := range Backends() {
		if n == name {
			return
		}
	}
	Register(name, fn)
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider("does-not-exist", Options{})
	if !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got: %v", err)
	}
}

func TestNewProvider_Registered(t *testing.T) {
	registerStub("stub-ok", func(Options) (*Provider, error) { return fullProvider(), nil })

	p, err := NewProvider("stub-ok", Options{})
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "stub-ok" {
		t.Errorf("got name %q, want stub-ok", p.Name)
	}

	found := false
	for _, name := range Backends() {
		if name == "stub-ok" {
			found = true
		}
	}
	if !found {
		t.Errorf("stub-ok missing from %v", Backends())
	}
}

func TestNewProvider_Incomplete(t *testing.T) {
	registerStub("stub-partial", func(Options) (*Provider, error) {
		p := fullProvider()
		p.Mover = nil
		p.Checker = nil
		return p, nil
	})

	_, err := NewProvider("stub-partial", Options{})
	if err == nil {
		t.Fatal("expected error for incomplete provider")
	}
	if !strings.Contains(err.Error(), "mover, checker") {
		t.Errorf("got %v", err)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	registerStub("stub-dup", func(Options) (*Provider, error) { return fullProvider(), nil })
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	Register("stub-dup", func(Options) (*Provider, error) { return fullProvider(), nil })
}
