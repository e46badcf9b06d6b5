package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const appName = "droidtile"

// Dir returns the user config directory, $XDG_CONFIG_HOME/droidtile.
func Dir() string {
	return filepath.Join(xdg.ConfigHome, appName)
}

// DefaultPath returns the path of the user config file.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	viper     *viper.Viper
	log       zerolog.Logger
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
	watching  bool
	explicit  bool
}

// NewManager creates a manager. An empty path searches the XDG config
// directories for config.yaml; a missing file there means defaults. An
// explicit path must exist.
func NewManager(path string, log zerolog.Logger) (*Manager, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(Dir())
		for _, dir := range xdg.ConfigDirs {
			v.AddConfigPath(filepath.Join(dir, appName))
		}
	}

	v.SetEnvPrefix("DROIDTILE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("logging.level", "DROIDTILE_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind DROIDTILE_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "DROIDTILE_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("failed to bind DROIDTILE_LOG_FORMAT: %w", err)
	}
	if err := v.BindEnv("device.serial", "ANDROID_SERIAL", "DROIDTILE_DEVICE_SERIAL"); err != nil {
		return nil, fmt.Errorf("failed to bind ANDROID_SERIAL: %w", err)
	}

	return &Manager{viper: v, log: log, explicit: path != ""}, nil
}

// Load reads defaults, the config file and the environment, then
// validates the result. On error the previous configuration is kept.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setDefaults()
	if err := m.readConfigFile(); err != nil {
		return err
	}
	cfg, err := m.unmarshal()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

func (m *Manager) setDefaults() {
	d := DefaultConfig()
	m.viper.SetDefault("backend", d.Backend)

	m.viper.SetDefault("device.serial", d.Device.Serial)
	m.viper.SetDefault("device.adb_path", d.Device.ADBPath)
	m.viper.SetDefault("device.poll_interval", d.Device.PollInterval)
	m.viper.SetDefault("device.cache_ttl", d.Device.CacheTTL)
	m.viper.SetDefault("device.ignore_packages", d.Device.IgnorePackages)

	m.viper.SetDefault("tiling.gap", d.Tiling.Gap)
	m.viper.SetDefault("tiling.debounce", d.Tiling.Debounce)
	m.viper.SetDefault("tiling.min_interval", d.Tiling.MinInterval)
	m.viper.SetDefault("tiling.startup_delay", d.Tiling.StartupDelay)
	m.viper.SetDefault("tiling.fallback", d.Tiling.Fallback)
	m.viper.SetDefault("tiling.default_apps", d.Tiling.DefaultApps)
	m.viper.SetDefault("tiling.seed_defaults", d.Tiling.SeedDefaults)
	m.viper.SetDefault("tiling.max_retries", d.Tiling.MaxRetries)

	m.viper.SetDefault("logging.level", d.Logging.Level)
	m.viper.SetDefault("logging.format", d.Logging.Format)

	m.viper.SetDefault("telemetry.otlp_endpoint", d.Telemetry.OTLPEndpoint)
	m.viper.SetDefault("telemetry.insecure", d.Telemetry.Insecure)
	m.viper.SetDefault("telemetry.interval", d.Telemetry.Interval)

	m.viper.SetDefault("server.transport", d.Server.Transport)
	m.viper.SetDefault("server.addr", d.Server.Addr)
}

func (m *Manager) readConfigFile() error {
	err := m.viper.ReadInConfig()
	if err == nil {
		m.log.Debug().Str("file", m.viper.ConfigFileUsed()).Msg("config file loaded")
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) && !m.explicit {
		m.log.Debug().Str("dir", Dir()).Msg("no config file, using defaults")
		return nil
	}
	file := m.viper.ConfigFileUsed()
	if file == "" {
		file = DefaultPath()
	}
	return fmt.Errorf("failed to read config file at %s: %w", file, err)
}

func (m *Manager) unmarshal() (*Config, error) {
	cfg := &Config{}
	if err := m.viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file at %s: %w", m.viper.ConfigFileUsed(), err)
	}
	normalizeConfig(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func normalizeConfig(cfg *Config) {
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Tiling.Fallback = strings.ToLower(strings.TrimSpace(cfg.Tiling.Fallback))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))
	cfg.Server.Transport = strings.ToLower(strings.TrimSpace(cfg.Server.Transport))
	if len(cfg.Workspaces) == 0 {
		cfg.Workspaces = DefaultConfig().Workspaces
	}
}

// Get returns the loaded configuration. It returns the defaults before
// the first successful Load.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.config == nil {
		return DefaultConfig()
	}
	return m.config
}

// ConfigFileUsed returns the file the configuration was read from, if any.
func (m *Manager) ConfigFileUsed() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viper.ConfigFileUsed()
}

// Set overrides a key for the lifetime of the manager, as command-line
// flags do. Call Load afterwards.
func (m *Manager) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viper.Set(key, value)
}

// WriteDefault writes the built-in configuration to path as YAML. Existing
// files are left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
