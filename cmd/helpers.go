package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/platform"
	"github.com/mj1618/droidtile/internal/workspace"
)

// resolveWorkspace finds a workspace by index or name. An empty ref selects
// the workspace active on display.
func resolveWorkspace(wsc *workspace.Config, ref string, display int) (workspace.Workspace, int, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ws, idx := wsc.Active(display)
		return ws, idx, nil
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		ws, err := wsc.Get(idx)
		return ws, idx, err
	}
	var names []string
	for i, ws := range wsc.Workspaces() {
		if strings.EqualFold(ws.Name, ref) {
			return ws, i, nil
		}
		names = append(names, ws.Title())
	}
	return workspace.Workspace{}, -1, fmt.Errorf("no workspace named %q (have: %s)", ref, strings.Join(names, ", "))
}

// addWorkspaceFlags registers --workspace and --display.
func addWorkspaceFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("workspace", "w", "", "Workspace index or name (default: active on the display)")
	cmd.Flags().IntP("display", "d", 0, "Display id")
}

func getWorkspaceFlags(cmd *cobra.Command) (ref string, display int) {
	ref, _ = cmd.Flags().GetString("workspace")
	display, _ = cmd.Flags().GetInt("display")
	return ref, display
}

// findWindow returns the first window of pkg on display.
func findWindow(ctx context.Context, p *platform.Provider, display int, pkg string) (model.Window, error) {
	windows, err := p.Windows.ListWindows(ctx, display)
	if err != nil {
		return model.Window{}, err
	}
	for _, w := range windows {
		if w.Package == pkg {
			return w, nil
		}
	}
	return model.Window{}, fmt.Errorf("%w: %s on display %d", platform.ErrNoWindow, pkg, display)
}

// fullScreen returns the gap-inset screen of display.
func fullScreen(ctx context.Context, p *platform.Provider, display, gap int) (model.Rect, error) {
	screen, err := p.Screens.ScreenBounds(ctx, display)
	if err != nil {
		return model.Rect{}, fmt.Errorf("display %d: %w", display, err)
	}
	if inset, ok := screen.Inset(gap); ok {
		return inset, nil
	}
	return screen, nil
}
