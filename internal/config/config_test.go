package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/droidtile/internal/layout"
)

const sampleConfig = `
backend: sim
device:
  serial: emulator-5554
  poll_interval: 2s
tiling:
  gap: 4
  debounce: 250ms
  fallback: first-free
  default_apps: [com.example.mail, com.example.chat]
workspaces:
  - name: code
    displays: [0]
    layout:
      split: horizontal
      ratio: 0.6
      first: {app: com.example.editor}
      second:
        split: vertical
        first: {app: com.example.term}
        second: {}
  - name: read
    layout: {app: com.example.reader}
    displays: [1]
logging:
  level: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func load(t *testing.T, body string) (*Manager, error) {
	t.Helper()
	m, err := NewManager(writeConfig(t, body), zerolog.Nop())
	require.NoError(t, err)
	return m, m.Load()
}

func TestLoad_File(t *testing.T) {
	m, err := load(t, sampleConfig)
	require.NoError(t, err)
	cfg := m.Get()

	assert.Equal(t, "sim", cfg.Backend)
	assert.Equal(t, "emulator-5554", cfg.Device.Serial)
	assert.Equal(t, 2*time.Second, cfg.Device.PollInterval)
	assert.Equal(t, "adb", cfg.Device.ADBPath, "default kept")
	assert.Equal(t, 4, cfg.Tiling.Gap)
	assert.Equal(t, 250*time.Millisecond, cfg.Tiling.Debounce)
	assert.Equal(t, 500*time.Millisecond, cfg.Tiling.MinInterval, "default kept")
	assert.True(t, cfg.Tiling.SeedDefaults)
	require.Len(t, cfg.Workspaces, 2)

	s, err := cfg.Settings()
	require.NoError(t, err)
	assert.Equal(t, layout.FallbackFirstFree, s.Fallback)
	assert.Equal(t, []string{"com.example.mail", "com.example.chat"}, s.DefaultApps)

	wsc, err := cfg.WorkspaceConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, wsc.Len())
	assert.Equal(t, 1, wsc.ActiveIndex(1))
	ws, idx := wsc.Active(0)
	assert.Equal(t, 0, idx)
	assert.Equal(t, "code", ws.Name)
	assert.Equal(t, 3, layout.LeafCount(ws.Layout))
	apps := layout.Apps(ws.Layout)
	require.Len(t, apps, 2)
	assert.Equal(t, "com.example.editor", apps[0].Package)

	lc, err := cfg.LogConfig()
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lc.Level)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DROIDTILE_TILING_GAP", "12")
	t.Setenv("DROIDTILE_LOG_LEVEL", "warn")
	t.Setenv("ANDROID_SERIAL", "R58M")

	m, err := load(t, "backend: adb\n")
	require.NoError(t, err)
	cfg := m.Get()
	assert.Equal(t, 12, cfg.Tiling.Gap)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "R58M", cfg.Device.Serial)
}

func TestLoad_MissingDefaultFileUsesDefaults(t *testing.T) {
	m, err := NewManager("", zerolog.Nop())
	require.NoError(t, err)
	m.viper = viper.New()
	m.viper.SetConfigType("yaml")
	m.viper.SetConfigName("config")
	m.viper.AddConfigPath(t.TempDir())

	require.NoError(t, m.Load())
	assert.Equal(t, DefaultConfig().Tiling, m.Get().Tiling)
	assert.Equal(t, []WorkspaceConfig{{Name: "main"}}, m.Get().Workspaces)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "nope.yaml"), zerolog.Nop())
	require.NoError(t, err)
	assert.Error(t, m.Load())
}

func TestLoad_CollectsAllProblems(t *testing.T) {
	_, err := load(t, `
backend: adb
tiling:
  gap: -3
  fallback: diagonal
workspaces:
  - name: a
    layout: {split: horizontal, ratio: 1.5, first: {app: x}, second: {app: y}}
    displays: [0]
  - name: a
    displays: [0]
logging:
  level: loud
  format: xml
server:
  transport: carrier-pigeon
`)
	require.Error(t, err)
	for _, want := range []string{
		"tiling", "diagonal", "gap must be", "ratio", `name "a" already used`,
		"display 0 already shows", "logging.level", "logging.format", "server.transport",
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestSettings_ReportsFallbackWithOtherProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tiling.Gap = -1
	cfg.Tiling.MaxRetries = -2
	cfg.Tiling.Fallback = "sideways"

	_, err := cfg.Settings()
	require.Error(t, err)
	assert.ErrorContains(t, err, "sideways")
	assert.ErrorContains(t, err, "gap must be >= 0")
	assert.ErrorContains(t, err, "max_retries must be >= 0")
}

func TestLoad_FailureKeepsPrevious(t *testing.T) {
	path := writeConfig(t, "backend: sim\ntiling: {gap: 2}\n")
	m, err := NewManager(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Load())

	require.NoError(t, os.WriteFile(path, []byte("tiling: {gap: -1}\n"), 0o644))
	assert.Error(t, m.Load())
	assert.Equal(t, 2, m.Get().Tiling.Gap)
}

func TestSet_OverridesFile(t *testing.T) {
	m, err := NewManager(writeConfig(t, "backend: adb\n"), zerolog.Nop())
	require.NoError(t, err)
	m.Set("backend", "sim")
	require.NoError(t, m.Load())
	assert.Equal(t, "sim", m.Get().Backend)
}

func TestWatch_ReloadsAndNotifies(t *testing.T) {
	path := writeConfig(t, "backend: sim\ntiling: {gap: 2}\n")
	m, err := NewManager(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Load())

	var mu sync.Mutex
	var got []int
	m.OnConfigChange(func(c *Config) {
		mu.Lock()
		got = append(got, c.Tiling.Gap)
		mu.Unlock()
	})
	m.Watch()
	m.Watch()

	require.NoError(t, os.WriteFile(path, []byte("backend: sim\ntiling: {gap: 6}\n"), 0o644))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0 && got[len(got)-1] == 6
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 6, m.Get().Tiling.Gap)
}

func TestWriteDefault_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteDefault(path))
	assert.Error(t, WriteDefault(path), "existing files are not overwritten")

	m, err := NewManager(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, m.Load())
	got, want := m.Get(), DefaultConfig()
	assert.Equal(t, want.Backend, got.Backend)
	assert.Equal(t, want.Device, got.Device)
	assert.Equal(t, want.Tiling, got.Tiling)
	assert.Equal(t, want.Workspaces, got.Workspaces)
	assert.Equal(t, want.Telemetry, got.Telemetry)
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "droidtile configuration", doc["title"])
	assert.Contains(t, string(data), "min_interval")
	assert.Contains(t, string(data), "first-free")
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(DefaultPath()))
	assert.Equal(t, "droidtile", filepath.Base(Dir()))
}
