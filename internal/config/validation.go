package config

import (
	"errors"
	"fmt"

	"github.com/mj1618/droidtile/internal/logging"
)

// Validate reports every problem in cfg at once.
func Validate(cfg *Config) error {
	var errs []error
	errs = append(errs, validateBackend(cfg)...)
	errs = append(errs, validateDevice(cfg)...)
	errs = append(errs, validateTiling(cfg)...)
	errs = append(errs, validateWorkspaces(cfg)...)
	errs = append(errs, validateLogging(cfg)...)
	errs = append(errs, validateServer(cfg)...)
	if cfg.Telemetry.Interval < 0 {
		errs = append(errs, errors.New("telemetry.interval must be non-negative"))
	}
	return errors.Join(errs...)
}

func validateBackend(cfg *Config) []error {
	if cfg.Backend == "" {
		return []error{errors.New("backend must be set")}
	}
	return nil
}

func validateDevice(cfg *Config) []error {
	var errs []error
	if cfg.Device.PollInterval < 0 {
		errs = append(errs, errors.New("device.poll_interval must be non-negative"))
	}
	if cfg.Backend == "adb" && cfg.Device.ADBPath == "" {
		errs = append(errs, errors.New("device.adb_path must be set for the adb backend"))
	}
	return errs
}

func validateTiling(cfg *Config) []error {
	if _, err := cfg.Settings(); err != nil {
		return []error{fmt.Errorf("tiling: %w", err)}
	}
	return nil
}

func validateWorkspaces(cfg *Config) []error {
	var errs []error
	names := make(map[string]int)
	displays := make(map[int]int)
	for i, ws := range cfg.Workspaces {
		if ws.Name != "" {
			if j, dup := names[ws.Name]; dup {
				errs = append(errs, fmt.Errorf("workspaces[%d]: name %q already used by workspaces[%d]", i, ws.Name, j))
			}
			names[ws.Name] = i
		}
		if _, err := ws.Layout.Build(); err != nil {
			errs = append(errs, fmt.Errorf("workspaces[%d].layout: %w", i, err))
		}
		for _, d := range ws.Displays {
			if d < 0 {
				errs = append(errs, fmt.Errorf("workspaces[%d].displays: invalid display %d", i, d))
				continue
			}
			if j, dup := displays[d]; dup {
				errs = append(errs, fmt.Errorf("workspaces[%d].displays: display %d already shows workspaces[%d]", i, d, j))
			}
			displays[d] = i
		}
	}
	return errs
}

func validateLogging(cfg *Config) []error {
	var errs []error
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	switch cfg.Logging.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be console or json, got %q", cfg.Logging.Format))
	}
	return errs
}

func validateServer(cfg *Config) []error {
	switch cfg.Server.Transport {
	case "", "stdio":
		return nil
	case "http":
		if cfg.Server.Addr == "" {
			return []error{errors.New("server.addr must be set for the http transport")}
		}
		return nil
	default:
		return []error{fmt.Errorf("server.transport must be stdio or http, got %q", cfg.Server.Transport)}
	}
}
