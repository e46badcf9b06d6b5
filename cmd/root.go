package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mj1618/droidtile/internal/config"
	"github.com/mj1618/droidtile/internal/logging"
	"github.com/mj1618/droidtile/internal/output"
	"github.com/mj1618/droidtile/internal/platform"
	"github.com/mj1618/droidtile/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "droidtile",
	Short: "Tile freeform app windows on Android displays",
	Long: `droidtile arranges freeform app windows on an Android device into the
layout of the active workspace and keeps them there as apps open, close and move.

Layouts, workspaces and tuning live in a YAML config file (see 'droidtile config init').`,
	SilenceUsage: true,
}

var (
	cfgManager *config.Manager
	logger     = logging.NewFromEnv()
)

// Execute runs the root command until it finishes or the process is signalled.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(versionString()),
	); err != nil {
		stop()
		os.Exit(1)
	}
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
}

func init() {
	rootCmd.Version = versionString()
	rootCmd.PersistentFlags().String("config", "", "Config file (default: "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().String("backend", "", "Device backend (overrides config): adb, sim")
	rootCmd.PersistentFlags().StringP("serial", "s", "", "adb device serial (overrides config and ANDROID_SERIAL)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		f, err := output.ParseFormat(format)
		if err != nil {
			return err
		}
		output.OutputFormat = f
		output.PrettyOutput, _ = rootCmd.PersistentFlags().GetBool("pretty")

		path, _ := rootCmd.PersistentFlags().GetString("config")
		m, err := config.NewManager(path, logger)
		if err != nil {
			return err
		}
		for flag, key := range map[string]string{
			"backend":   "backend",
			"serial":    "device.serial",
			"log-level": "logging.level",
		} {
			if rootCmd.PersistentFlags().Changed(flag) {
				v, _ := rootCmd.PersistentFlags().GetString(flag)
				m.Set(key, v)
			}
		}
		cfgManager = m
		return nil
	}
}

// loadConfig reads and validates the config file and reconfigures the logger
// from its logging section.
func loadConfig() (*config.Config, error) {
	if cfgManager == nil {
		return nil, fmt.Errorf("config manager not initialised")
	}
	if err := cfgManager.Load(); err != nil {
		return nil, err
	}
	cfg := cfgManager.Get()
	lc, err := cfg.LogConfig()
	if err != nil {
		return nil, err
	}
	logger = logging.New(lc)
	if used := cfgManager.ConfigFileUsed(); used != "" {
		logger.Debug().Str("file", used).Msg("config loaded")
	}
	return cfg, nil
}

// newProvider connects to the backend named in cfg.
func newProvider(cfg *config.Config) (*platform.Provider, error) {
	return platform.NewProvider(cfg.Backend, cfg.ProviderOptions(logger.With().Str("component", "backend").Logger()))
}

// connect loads the config and connects to the device, the common preamble
// of device commands.
func connect() (*config.Config, *platform.Provider, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	p, err := newProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, p, nil
}

// componentLogger scopes the process logger to a component.
func componentLogger(name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
