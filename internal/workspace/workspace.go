// Package workspace holds the tiling configuration: the ordered workspaces
// and which of them is active on each display.
package workspace

import (
	"errors"
	"fmt"
	"sort"

	"github.com/mj1618/droidtile/internal/layout"
	"github.com/mj1618/droidtile/internal/model"
)

// ErrWorkspaceOutOfRange is returned for workspace indices that do not exist.
var ErrWorkspaceOutOfRange = errors.New("workspace index out of range")

// Workspace is a named, independently switchable layout.
type Workspace struct {
	ID          int
	Name        string
	Layout      layout.Node
	RunningApps []model.AppIdentity
}

// Title returns the name, or a generated one for unnamed workspaces.
func (w Workspace) Title() string {
	if w.Name != "" {
		return w.Name
	}
	return fmt.Sprintf("workspace %d", w.ID)
}

// Config is the tiling configuration. Displays without an explicit entry
// show workspace 0. Config is not safe for concurrent use; the engine
// guards it and hands out clones.
type Config struct {
	workspaces []Workspace
	active     map[int]int
}

// New returns a configuration over the given workspaces. Every layout is
// validated; at least one workspace is required.
func New(workspaces ...Workspace) (*Config, error) {
	if len(workspaces) == 0 {
		return nil, errors.New("at least one workspace is required")
	}
	c := &Config{
		workspaces: append([]Workspace(nil), workspaces...),
		active:     make(map[int]int),
	}
	for i, ws := range c.workspaces {
		if ws.Layout == nil {
			c.workspaces[i].Layout = layout.Empty()
			continue
		}
		if err := layout.Validate(ws.Layout); err != nil {
			return nil, fmt.Errorf("workspace %d (%s): %w", i, ws.Title(), err)
		}
	}
	return c, nil
}

// Default returns a configuration with a single empty workspace.
func Default() *Config {
	c, _ := New(Workspace{ID: 0, Name: "main", Layout: layout.Empty()})
	return c
}

// Len returns the number of workspaces.
func (c *Config) Len() int { return len(c.workspaces) }

// Workspaces returns a copy of the workspace list.
func (c *Config) Workspaces() []Workspace {
	out := make([]Workspace, len(c.workspaces))
	for i, ws := range c.workspaces {
		out[i] = ws
		out[i].RunningApps = append([]model.AppIdentity(nil), ws.RunningApps...)
	}
	return out
}

// Get returns the workspace at index.
func (c *Config) Get(index int) (Workspace, error) {
	if index < 0 || index >= len(c.workspaces) {
		return Workspace{}, fmt.Errorf("%w: %d (have %d)", ErrWorkspaceOutOfRange, index, len(c.workspaces))
	}
	return c.workspaces[index], nil
}

// Switch makes index the active workspace on displayID. Other displays are
// never affected, also not on error.
func (c *Config) Switch(displayID, index int) error {
	if index < 0 || index >= len(c.workspaces) {
		return fmt.Errorf("%w: %d (have %d)", ErrWorkspaceOutOfRange, index, len(c.workspaces))
	}
	c.active[displayID] = index
	return nil
}

// ActiveIndex returns the active workspace index on displayID.
func (c *Config) ActiveIndex(displayID int) int {
	if i, ok := c.active[displayID]; ok && i < len(c.workspaces) {
		return i
	}
	return 0
}

// Active returns the active workspace on displayID and its index.
func (c *Config) Active(displayID int) (Workspace, int) {
	i := c.ActiveIndex(displayID)
	return c.workspaces[i], i
}

// Displays returns the displays with an explicit active entry, sorted.
func (c *Config) Displays() []int {
	ids := make([]int, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SetRunningApps records the apps currently open on the workspace at index.
func (c *Config) SetRunningApps(index int, apps []model.AppIdentity) error {
	if index < 0 || index >= len(c.workspaces) {
		return fmt.Errorf("%w: %d", ErrWorkspaceOutOfRange, index)
	}
	c.workspaces[index].RunningApps = append([]model.AppIdentity(nil), apps...)
	return nil
}

// Adopt copies the per-display active indices from prev that are still in
// range. Used when a new configuration replaces a running one.
func (c *Config) Adopt(prev *Config) {
	if prev == nil {
		return
	}
	for display, index := range prev.active {
		if index < len(c.workspaces) {
			c.active[display] = index
		}
	}
}

// Clone returns a deep copy of the mutable parts. Layout trees are
// immutable and shared.
func (c *Config) Clone() *Config {
	cp := &Config{
		workspaces: c.Workspaces(),
		active:     make(map[int]int, len(c.active)),
	}
	for k, v := range c.active {
		cp.active[k] = v
	}
	return cp
}
