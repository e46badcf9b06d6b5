package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/output"
	"github.com/mj1618/droidtile/internal/platform"
)

// ActionResult is the YAML output of a successful window action.
type ActionResult struct {
	OK      bool        `yaml:"ok"               json:"ok"`
	Action  string      `yaml:"action"           json:"action"`
	Package string      `yaml:"package"          json:"package"`
	Display int         `yaml:"display"          json:"display"`
	Bounds  *model.Rect `yaml:"bounds,omitempty" json:"bounds,omitempty"`
}

var actionCmd = &cobra.Command{
	Use:   "action <maximize|focus|close> <package>",
	Short: "Maximize, focus or close an app window",
	Long: `Perform a one-off action on an app's window.

  maximize  Resize the window to the whole display (minus the gap)
  focus     Bring the app to the front
  close     Stop the app

A running 'droidtile run' re-tiles a maximized window on its next cycle; use
the window_action MCP tool to toggle maximize on a running tiler instead.`,
	Args: cobra.ExactArgs(2),
	RunE: runAction,
}

func init() {
	rootCmd.AddCommand(actionCmd)
	actionCmd.Flags().IntP("display", "d", 0, "Display the window is on")
}

func runAction(cmd *cobra.Command, args []string) error {
	action, err := platform.ParseWindowAction(args[0])
	if err != nil {
		return err
	}
	pkg := args[1]
	display, _ := cmd.Flags().GetInt("display")

	cfg, p, err := connect()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	result := ActionResult{OK: true, Action: string(action), Package: pkg, Display: display}

	switch action {
	case platform.ActionMaximize:
		w, err := findWindow(ctx, p, display, pkg)
		if err != nil {
			return err
		}
		bounds, err := fullScreen(ctx, p, display, cfg.Tiling.Gap)
		if err != nil {
			return err
		}
		if err := p.Mover.MoveWindow(ctx, w.ID, bounds); err != nil {
			return err
		}
		result.Bounds = &bounds
	case platform.ActionFocus:
		if err := p.Actioner.FocusApp(ctx, pkg, display); err != nil {
			return err
		}
	case platform.ActionClose:
		if err := p.Actioner.CloseApp(ctx, pkg); err != nil {
			return err
		}
	}
	return output.Print(result)
}
