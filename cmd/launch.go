package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/output"
)

// LaunchResult is the YAML output of a successful launch.
type LaunchResult struct {
	OK       bool          `yaml:"ok"                  json:"ok"`
	Action   string        `yaml:"action"              json:"action"`
	Package  string        `yaml:"package"             json:"package"`
	Display  int           `yaml:"display"             json:"display"`
	Bounds   model.Rect    `yaml:"bounds"              json:"bounds"`
	Window   *model.Window `yaml:"window,omitempty"    json:"window,omitempty"`
	Elapsed  string        `yaml:"elapsed,omitempty"   json:"elapsed,omitempty"`
	TimedOut bool          `yaml:"timed_out,omitempty" json:"timed_out,omitempty"`
}

var launchCmd = &cobra.Command{
	Use:   "launch <package>",
	Short: "Launch an app as a freeform window",
	Long: `Launch an app into a freeform window with the given bounds.

Without --bounds the window fills the display minus the configured gap.
With --wait, poll until the app's window shows up on the display.`,
	Args: cobra.ExactArgs(1),
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
	launchCmd.Flags().IntP("display", "d", 0, "Display to launch on")
	launchCmd.Flags().String("bounds", "", "Window bounds as x,y,w,h")
	launchCmd.Flags().Bool("wait", false, "Wait for the app window to appear")
	launchCmd.Flags().Duration("timeout", 10*time.Second, "Max time to wait (with --wait)")
	launchCmd.Flags().Duration("interval", 500*time.Millisecond, "Polling interval (with --wait)")
}

func runLaunch(cmd *cobra.Command, args []string) error {
	pkg := args[0]
	display, _ := cmd.Flags().GetInt("display")
	boundsStr, _ := cmd.Flags().GetString("bounds")
	wait, _ := cmd.Flags().GetBool("wait")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	interval, _ := cmd.Flags().GetDuration("interval")

	cfg, p, err := connect()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	var bounds model.Rect
	if boundsStr != "" {
		if bounds, err = model.ParseRect(boundsStr); err != nil {
			return err
		}
		if bounds.Empty() {
			return fmt.Errorf("invalid bounds %q: width and height must be positive", boundsStr)
		}
	} else if bounds, err = fullScreen(ctx, p, display, cfg.Tiling.Gap); err != nil {
		return err
	}

	if err := p.Launcher.LaunchApp(ctx, pkg, display, bounds); err != nil {
		return fmt.Errorf("launch %s: %w", pkg, err)
	}
	result := LaunchResult{OK: true, Action: "launch", Package: pkg, Display: display, Bounds: bounds}
	if !wait {
		return output.Print(result)
	}

	start := time.Now()
	deadline := start.Add(timeout)
	for {
		w, err := findWindow(ctx, p, display, pkg)
		if err == nil {
			result.Window = &w
			result.Elapsed = fmt.Sprintf("%.1fs", time.Since(start).Seconds())
			return output.Print(result)
		}
		if time.Now().After(deadline) {
			result.OK = false
			result.TimedOut = true
			result.Elapsed = fmt.Sprintf("%.1fs", time.Since(start).Seconds())
			if perr := output.Print(result); perr != nil {
				return perr
			}
			return fmt.Errorf("timeout after %s waiting for %s (last error: %w)", timeout, pkg, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
