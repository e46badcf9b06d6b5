package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/droidtile/internal/config"
	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/output"
	"github.com/mj1618/droidtile/internal/preview"
	"github.com/mj1618/droidtile/internal/workspace"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Inspect workspace layouts",
}

var layoutBoundsCmd = &cobra.Command{
	Use:   "bounds",
	Short: "Print the tile bounds of a workspace layout",
	Long: `Compute the bounds of every tile of a workspace layout, gap-inset the way
'droidtile run' applies them. Use --screen to compute without a device.`,
	RunE: runLayoutBounds,
}

var layoutPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a workspace layout to a PNG",
	Long: `Render the tiles of a workspace layout to a PNG image. With --windows the
device's current windows are outlined on top, showing where they are versus
where the layout wants them.`,
	RunE: runLayoutPreview,
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.AddCommand(layoutBoundsCmd, layoutPreviewCmd)
	for _, c := range []*cobra.Command{layoutBoundsCmd, layoutPreviewCmd} {
		addWorkspaceFlags(c)
		c.Flags().String("screen", "", "Screen size as WxH instead of querying the device")
	}
	layoutPreviewCmd.Flags().StringP("output", "o", "layout.png", "Output PNG path")
	layoutPreviewCmd.Flags().Float64("scale", 0.5, "Image scale relative to the screen")
	layoutPreviewCmd.Flags().Bool("windows", false, "Outline the device's current windows")
}

// layoutTarget resolves the workspace and screen size a layout command
// works on, connecting to the device only when needed.
func layoutTarget(ctx context.Context, cmd *cobra.Command, needDevice bool) (*config.Config, workspace.Workspace, model.Rect, []model.Window, error) {
	var (
		ws      workspace.Workspace
		screen  model.Rect
		windows []model.Window
	)
	cfg, err := loadConfig()
	if err != nil {
		return nil, ws, screen, nil, err
	}
	ref, display := getWorkspaceFlags(cmd)
	wsc, err := cfg.WorkspaceConfig()
	if err != nil {
		return nil, ws, screen, nil, err
	}
	if ws, _, err = resolveWorkspace(wsc, ref, display); err != nil {
		return nil, ws, screen, nil, err
	}

	if size, _ := cmd.Flags().GetString("screen"); size != "" {
		if screen, err = model.ParseSize(size); err != nil {
			return nil, ws, screen, nil, err
		}
	}
	if !screen.Empty() && !needDevice {
		return cfg, ws, screen, nil, nil
	}

	p, err := newProvider(cfg)
	if err != nil {
		return nil, ws, screen, nil, err
	}
	if screen.Empty() {
		if screen, err = p.Screens.ScreenBounds(ctx, display); err != nil {
			return nil, ws, screen, nil, fmt.Errorf("display %d: %w (pass --screen to work offline)", display, err)
		}
	}
	if needDevice {
		if windows, err = p.Windows.ListWindows(ctx, display); err != nil {
			return nil, ws, screen, nil, fmt.Errorf("display %d: %w", display, err)
		}
	}
	return cfg, ws, screen, windows, nil
}

func runLayoutBounds(cmd *cobra.Command, args []string) error {
	cfg, ws, screen, _, err := layoutTarget(cmd.Context(), cmd, false)
	if err != nil {
		return err
	}
	return output.Print(output.NewBoundsResult(ws.Title(), ws.Layout, screen, cfg.Tiling.Gap))
}

// PreviewResult is the YAML output of layout preview.
type PreviewResult struct {
	OK        bool       `yaml:"ok"        json:"ok"`
	Workspace string     `yaml:"workspace" json:"workspace"`
	File      string     `yaml:"file"      json:"file"`
	Screen    model.Rect `yaml:"screen"    json:"screen"`
	Windows   int        `yaml:"windows"   json:"windows"`
}

func runLayoutPreview(cmd *cobra.Command, args []string) error {
	withWindows, _ := cmd.Flags().GetBool("windows")
	path, _ := cmd.Flags().GetString("output")
	scale, _ := cmd.Flags().GetFloat64("scale")
	if scale <= 0 || scale > 2 {
		return fmt.Errorf("--scale must be in (0, 2], got %g", scale)
	}

	cfg, ws, screen, windows, err := layoutTarget(cmd.Context(), cmd, withWindows)
	if err != nil {
		return err
	}
	img, err := preview.Render(ws.Layout, screen, preview.Options{
		Scale:   scale,
		Gap:     cfg.Tiling.Gap,
		Windows: windows,
	})
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := preview.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return output.Print(PreviewResult{OK: true, Workspace: ws.Title(), File: path, Screen: screen, Windows: len(windows)})
}
