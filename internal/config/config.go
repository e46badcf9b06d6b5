// Package config loads droidtile's YAML configuration through viper:
// defaults, the XDG config file and DROIDTILE_* environment overrides, with
// validation and hot reload.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mj1618/droidtile/internal/layout"
	"github.com/mj1618/droidtile/internal/logging"
	"github.com/mj1618/droidtile/internal/platform"
	"github.com/mj1618/droidtile/internal/reconcile"
	"github.com/mj1618/droidtile/internal/telemetry"
	"github.com/mj1618/droidtile/internal/workspace"
)

// Config is the complete configuration.
type Config struct {
	// Backend selects the host implementation.
	Backend    string            `mapstructure:"backend" yaml:"backend" json:"backend" jsonschema:"enum=adb,enum=sim,default=adb"`
	Device     DeviceConfig      `mapstructure:"device" yaml:"device" json:"device"`
	Tiling     TilingConfig      `mapstructure:"tiling" yaml:"tiling" json:"tiling"`
	Workspaces []WorkspaceConfig `mapstructure:"workspaces" yaml:"workspaces" json:"workspaces"`
	Logging    LoggingConfig     `mapstructure:"logging" yaml:"logging" json:"logging"`
	Telemetry  telemetry.Config  `mapstructure:"telemetry" yaml:"telemetry" json:"telemetry"`
	Server     ServerConfig      `mapstructure:"server" yaml:"server" json:"server"`
}

// DeviceConfig configures the adb backend.
type DeviceConfig struct {
	// Serial picks a device when several are attached.
	Serial  string `mapstructure:"serial" yaml:"serial,omitempty" json:"serial,omitempty"`
	ADBPath string `mapstructure:"adb_path" yaml:"adb_path" json:"adb_path"`
	// PollInterval is how often the window list is diffed for change events.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" json:"poll_interval"`
	// CacheTTL bounds how stale a window listing may be. Negative disables caching.
	CacheTTL       time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl" json:"cache_ttl"`
	IgnorePackages []string      `mapstructure:"ignore_packages" yaml:"ignore_packages,omitempty" json:"ignore_packages,omitempty"`
}

// TilingConfig tunes the reconciliation loop.
type TilingConfig struct {
	Gap          int           `mapstructure:"gap" yaml:"gap" json:"gap" jsonschema:"minimum=0"`
	Debounce     time.Duration `mapstructure:"debounce" yaml:"debounce" json:"debounce"`
	MinInterval  time.Duration `mapstructure:"min_interval" yaml:"min_interval" json:"min_interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay" yaml:"startup_delay" json:"startup_delay"`
	Fallback     string        `mapstructure:"fallback" yaml:"fallback" json:"fallback" jsonschema:"enum=single-window,enum=first-free,enum=none"`
	DefaultApps  []string      `mapstructure:"default_apps" yaml:"default_apps,omitempty" json:"default_apps,omitempty"`
	SeedDefaults bool          `mapstructure:"seed_defaults" yaml:"seed_defaults" json:"seed_defaults"`
	MaxRetries   int           `mapstructure:"max_retries" yaml:"max_retries" json:"max_retries" jsonschema:"minimum=0"`
	// Displays are reconciled even when the backend does not list them.
	Displays []int `mapstructure:"displays" yaml:"displays,omitempty" json:"displays,omitempty"`
}

// WorkspaceConfig is one workspace in the config file.
type WorkspaceConfig struct {
	Name   string       `mapstructure:"name" yaml:"name" json:"name"`
	Layout *layout.Spec `mapstructure:"layout" yaml:"layout,omitempty" json:"layout,omitempty"`
	// Displays lists the displays this workspace is active on at startup.
	Displays []int `mapstructure:"displays" yaml:"displays,omitempty" json:"displays,omitempty"`
}

// LoggingConfig selects level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error,enum=disabled"`
	Format string `mapstructure:"format" yaml:"format" json:"format" jsonschema:"enum=console,enum=json"`
}

// ServerConfig configures the MCP control surface of `droidtile run`.
type ServerConfig struct {
	// Transport is empty (no server), "stdio" or "http".
	Transport string `mapstructure:"transport" yaml:"transport,omitempty" json:"transport,omitempty" jsonschema:"enum=,enum=stdio,enum=http"`
	Addr      string `mapstructure:"addr" yaml:"addr" json:"addr"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	s := reconcile.DefaultSettings()
	return &Config{
		Backend: "adb",
		Device: DeviceConfig{
			ADBPath:      "adb",
			PollInterval: time.Second,
			CacheTTL:     250 * time.Millisecond,
		},
		Tiling: TilingConfig{
			Gap:          s.Gap,
			Debounce:     s.Debounce,
			MinInterval:  s.MinInterval,
			StartupDelay: s.StartupDelay,
			Fallback:     string(s.Fallback),
			SeedDefaults: s.SeedDefaults,
			MaxRetries:   s.MaxRetries,
		},
		Workspaces: []WorkspaceConfig{{Name: "main"}},
		Logging:    LoggingConfig{Level: "info", Format: "console"},
		Telemetry:  telemetry.Config{Interval: 30 * time.Second},
		Server:     ServerConfig{Addr: "localhost:8765"},
	}
}

// Settings converts the tiling section.
func (c *Config) Settings() (reconcile.Settings, error) {
	fallback, fallbackErr := layout.ParseFallback(c.Tiling.Fallback)
	s := reconcile.Settings{
		Gap:          c.Tiling.Gap,
		Debounce:     c.Tiling.Debounce,
		MinInterval:  c.Tiling.MinInterval,
		StartupDelay: c.Tiling.StartupDelay,
		Fallback:     fallback,
		DefaultApps:  append([]string(nil), c.Tiling.DefaultApps...),
		SeedDefaults: c.Tiling.SeedDefaults,
		MaxRetries:   c.Tiling.MaxRetries,
	}
	return s, errors.Join(fallbackErr, s.Validate())
}

// WorkspaceConfig builds the tiling configuration, with each workspace
// active on the displays it lists.
func (c *Config) WorkspaceConfig() (*workspace.Config, error) {
	list := make([]workspace.Workspace, 0, len(c.Workspaces))
	for i, wc := range c.Workspaces {
		tree, err := wc.Layout.Build()
		if err != nil {
			return nil, fmt.Errorf("workspace %d (%s): %w", i, wc.Name, err)
		}
		list = append(list, workspace.Workspace{ID: i, Name: wc.Name, Layout: tree})
	}
	wsc, err := workspace.New(list...)
	if err != nil {
		return nil, err
	}
	for i, wc := range c.Workspaces {
		for _, d := range wc.Displays {
			if err := wsc.Switch(d, i); err != nil {
				return nil, err
			}
		}
	}
	return wsc, nil
}

// ProviderOptions converts the device section for platform.NewProvider.
func (c *Config) ProviderOptions(log zerolog.Logger) platform.Options {
	return platform.Options{
		Serial:         c.Device.Serial,
		ADBPath:        c.Device.ADBPath,
		PollInterval:   c.Device.PollInterval,
		CacheTTL:       c.Device.CacheTTL,
		IgnorePackages: append([]string(nil), c.Device.IgnorePackages...),
		Logger:         log,
	}
}

// LogConfig converts the logging section.
func (c *Config) LogConfig() (logging.Config, error) {
	lvl, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return logging.Config{}, err
	}
	lc := logging.DefaultConfig()
	lc.Level = lvl
	if c.Logging.Format != "" {
		lc.Format = c.Logging.Format
	}
	return lc, nil
}

// Displays lists the extra displays from the tiling section.
func (c *Config) Displays() []int {
	return append([]int(nil), c.Tiling.Displays...)
}
