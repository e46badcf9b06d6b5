package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mj1618/droidtile/internal/layout"
	"github.com/mj1618/droidtile/internal/model"
	"github.com/mj1618/droidtile/internal/output"
)

// workspaceEntry is one row of list_workspaces.
type workspaceEntry struct {
	Index       int          `yaml:"index"`
	Name        string       `yaml:"name"`
	Tiles       int          `yaml:"tiles"`
	Apps        []string     `yaml:"apps,omitempty"`
	RunningApps []string     `yaml:"running_apps,omitempty"`
	Displays    []int        `yaml:"displays,omitempty"`
	Layout      *layout.Spec `yaml:"layout"`
}

// commandResult acknowledges a command tool.
type commandResult struct {
	OK      bool   `yaml:"ok"`
	Action  string `yaml:"action"`
	Display *int   `yaml:"display,omitempty"`
	Package string `yaml:"package,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

// textResult serializes v to YAML for an MCP response.
func textResult(v interface{}) (*mcp.CallToolResult, error) {
	text, err := output.YAML(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

// commandHandler runs fn and reports it as a commandResult.
func commandHandler(res commandResult, fn func() error) (*mcp.CallToolResult, error) {
	if err := fn(); err != nil {
		res.Error = err.Error()
		text, _ := output.YAML(res)
		return mcp.NewToolResultError(text), nil
	}
	res.OK = true
	return textResult(res)
}

func (s *Server) handleListWindows(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	display := intParam(request.GetArguments(), "display", -1)

	results := []output.WindowsResult{}
	for _, snap := range s.ctl.Snapshots() {
		if display >= 0 && snap.DisplayID != display {
			continue
		}
		windows := snap.Windows
		if windows == nil {
			windows = []model.Window{}
		}
		results = append(results, output.WindowsResult{
			Display: snap.DisplayID,
			Screen:  snap.Screen,
			TS:      snap.TS,
			Windows: windows,
		})
	}
	if display >= 0 && len(results) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("display %d is not being tiled", display)), nil
	}
	return textResult(results)
}

func (s *Server) handleStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return textResult(output.StatusResult{Backend: s.backend, Displays: s.ctl.Snapshots()})
}

func (s *Server) handleListWorkspaces(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := s.ctl.Config()
	shown := make(map[int][]int)
	for _, snap := range s.ctl.Snapshots() {
		shown[snap.Workspace] = append(shown[snap.Workspace], snap.DisplayID)
	}

	entries := make([]workspaceEntry, 0, cfg.Len())
	for i, ws := range cfg.Workspaces() {
		e := workspaceEntry{
			Index:    i,
			Name:     ws.Title(),
			Tiles:    layout.LeafCount(ws.Layout),
			Displays: shown[i],
			Layout:   layout.Describe(ws.Layout),
		}
		for _, app := range layout.Apps(ws.Layout) {
			e.Apps = append(e.Apps, app.Package)
		}
		for _, app := range ws.RunningApps {
			e.RunningApps = append(e.RunningApps, app.Package)
		}
		entries = append(entries, e)
	}
	return textResult(entries)
}

func (s *Server) handleSwitchWorkspace(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	display := intParam(params, "display", 0)
	index := intParam(params, "workspace", -1)
	if index < 0 {
		return mcp.NewToolResultError("workspace is required"), nil
	}
	s.log.Info().Int("display", display).Int("workspace", index).Msg("switch workspace")
	return commandHandler(commandResult{Action: "switch_workspace", Display: &display}, func() error {
		return s.ctl.SwitchWorkspace(display, index)
	})
}

func (s *Server) handleForceRefresh(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	display := intParam(request.GetArguments(), "display", 0)
	s.log.Info().Int("display", display).Msg("force refresh")
	return commandHandler(commandResult{Action: "force_refresh", Display: &display}, func() error {
		return s.ctl.ForceRefreshLayout(display)
	})
}

func (s *Server) handleWindowAction(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	pkg := stringParam(params, "package", "")
	action := stringParam(params, "action", "")
	if pkg == "" || action == "" {
		return mcp.NewToolResultError("package and action are required"), nil
	}
	s.log.Info().Str("package", pkg).Str("action", action).Msg("window action")
	return commandHandler(commandResult{Action: action, Package: pkg}, func() error {
		return s.ctl.WindowAction(pkg, action)
	})
}

func (s *Server) handleLayoutBounds(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	display := intParam(params, "display", 0)
	cfg := s.ctl.Config()

	index := intParam(params, "workspace", -1)
	if index < 0 {
		index = cfg.ActiveIndex(display)
	}
	ws, err := cfg.Get(index)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var screen model.Rect
	if size := stringParam(params, "screen", ""); size != "" {
		if screen, err = model.ParseSize(size); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		for _, snap := range s.ctl.Snapshots() {
			if snap.DisplayID == display {
				screen = snap.Screen
			}
		}
	}
	if screen.Empty() {
		return mcp.NewToolResultError(fmt.Sprintf("screen size of display %d is unknown; pass screen", display)), nil
	}

	return textResult(output.NewBoundsResult(ws.Title(), ws.Layout, screen, s.ctl.Settings().Gap))
}

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

func intParam(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		}
	}
	return defaultVal
}
