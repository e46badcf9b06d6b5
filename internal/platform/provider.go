package platform

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Provider bundles the backend interfaces for one host.
type Provider struct {
	Name     string
	Windows  WindowSource
	Mover    WindowMover
	Launcher AppLauncher
	Actioner WindowActioner
	Screens  ScreenSource
	Events   EventSource
	Checker  Checker
	// Toggler is optional.
	Toggler FreeformToggler
}

// Validate reports missing required backends.
func (p *Provider) Validate() error {
	var missing []string
	if p.Windows == nil {
		missing = append(missing, "windows")
	}
	if p.Mover == nil {
		missing = append(missing, "mover")
	}
	if p.Launcher == nil {
		missing = append(missing, "launcher")
	}
	if p.Actioner == nil {
		missing = append(missing, "actioner")
	}
	if p.Screens == nil {
		missing = append(missing, "screens")
	}
	if p.Events == nil {
		missing = append(missing, "events")
	}
	if p.Checker == nil {
		missing = append(missing, "checker")
	}
	if len(missing) > 0 {
		return fmt.Errorf("backend %q is missing: %s", p.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Options configures backend construction.
type Options struct {
	// Serial selects the adb device; empty uses the only attached device.
	Serial string
	// ADBPath is the adb binary, "adb" when empty.
	ADBPath string
	// PollInterval is how often polling backends look for changes.
	PollInterval time.Duration
	// CacheTTL bounds how long a window listing may be reused. Zero picks
	// the backend default, negative disables caching.
	CacheTTL time.Duration
	// IgnorePackages are never reported as windows (launchers, system UI).
	IgnorePackages []string
	Logger         zerolog.Logger
}

// NewProviderFunc builds a Provider. Backends register one via Register.
type NewProviderFunc func(opts Options) (*Provider, error)

// ErrUnknownBackend is returned by NewProvider for unregistered names.
var ErrUnknownBackend = errors.New("unknown backend")

var (
	registryMu sync.RWMutex
	registry   = make(map[string]NewProviderFunc)
)

// Register makes a backend available by name. It is called from the init
// function of backend packages and panics on duplicates.
func Register(name string, fn NewProviderFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("platform: backend registered twice: " + name)
	}
	registry[name] = fn
}

// Backends returns the registered backend names, sorted.
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewProvider returns the named backend.
func NewProvider(name string, opts Options) (*Provider, error) {
	registryMu.RLock()
	fn, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q; registered: %s", ErrUnknownBackend, name, strings.Join(Backends(), ", "))
	}
	p, err := fn(opts)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", name, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
