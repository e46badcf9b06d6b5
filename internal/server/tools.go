package server

import "github.com/mark3labs/mcp-go/mcp"

func (s *Server) registerTools() {
	// list_windows
	s.mcp.AddTool(
		mcp.NewTool("list_windows",
			mcp.WithDescription("List the windows observed on each display with their current bounds"),
			mcp.WithNumber("display", mcp.Description("Only this display (default: all)")),
		),
		s.handleListWindows,
	)

	// status
	s.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Show the reconciliation state of every display: active workspace, status line, last cycle and target bounds"),
		),
		s.handleStatus,
	)

	// list_workspaces
	s.mcp.AddTool(
		mcp.NewTool("list_workspaces",
			mcp.WithDescription("List the configured workspaces, the apps their layouts assign and the displays showing them"),
		),
		s.handleListWorkspaces,
	)

	// switch_workspace
	s.mcp.AddTool(
		mcp.NewTool("switch_workspace",
			mcp.WithDescription("Make a workspace active on a display and re-tile it immediately"),
			mcp.WithNumber("workspace", mcp.Description("Workspace index"), mcp.Required()),
			mcp.WithNumber("display", mcp.Description("Display id (default: 0)")),
		),
		s.handleSwitchWorkspace,
	)

	// force_refresh
	s.mcp.AddTool(
		mcp.NewTool("force_refresh",
			mcp.WithDescription("Drop maximize overrides and re-apply the active layout now, bypassing debounce and throttling"),
			mcp.WithNumber("display", mcp.Description("Display id (default: 0)")),
		),
		s.handleForceRefresh,
	)

	// window_action
	s.mcp.AddTool(
		mcp.NewTool("window_action",
			mcp.WithDescription("Maximize (toggle), focus or close the window of an app"),
			mcp.WithString("package", mcp.Description("App package name, e.g. com.android.chrome"), mcp.Required()),
			mcp.WithString("action", mcp.Description("maximize, focus or close"), mcp.Required(),
				mcp.Enum("maximize", "focus", "close")),
		),
		s.handleWindowAction,
	)

	// layout_bounds
	s.mcp.AddTool(
		mcp.NewTool("layout_bounds",
			mcp.WithDescription("Compute the tile bounds of a workspace layout on a display's screen"),
			mcp.WithNumber("display", mcp.Description("Display whose screen size is used (default: 0)")),
			mcp.WithNumber("workspace", mcp.Description("Workspace index (default: active on the display)")),
			mcp.WithString("screen", mcp.Description("Override the screen size, e.g. 2560x1600")),
		),
		s.handleLayoutBounds,
	)
}
