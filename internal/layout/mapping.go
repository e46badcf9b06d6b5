package layout

import (
	"fmt"
	"strings"

	"github.com/mj1618/droidtile/internal/model"
)

// Fallback selects what happens at leaves that have no assigned app.
type Fallback string

const (
	// FallbackNone leaves unassigned leaves empty.
	FallbackNone Fallback = "none"
	// FallbackSingleWindow places the only window whose package matches no
	// assigned leaf into the first usable unassigned leaf. With two or more
	// such windows nothing is placed.
	FallbackSingleWindow Fallback = "single-window"
	// FallbackFirstFree is handled by the reconciler: every unassigned
	// package is given its own free leaf through Assign before mapping.
	// MapWindowsToRegions treats it like FallbackNone.
	FallbackFirstFree Fallback = "first-free"
)

// ParseFallback converts a config value to a Fallback.
func ParseFallback(s string) (Fallback, error) {
	switch Fallback(strings.ToLower(strings.TrimSpace(s))) {
	case "", FallbackSingleWindow:
		return FallbackSingleWindow, nil
	case FallbackNone:
		return FallbackNone, nil
	case FallbackFirstFree:
		return FallbackFirstFree, nil
	default:
		return FallbackSingleWindow, fmt.Errorf("unknown placement %q (expected single-window, first-free, or none)", s)
	}
}

// Placement pairs an observed window with the region it should occupy.
type Placement struct {
	Window model.Window
	Bounds model.Rect
	Path   string
}

// MapWindowsToRegions walks the tree and matches assigned leaves to windows
// by package name. The output follows left/top-first traversal order and is
// a pure function of its inputs. Zero-area leaves produce no placement, so
// their windows stay where they are.
func MapWindowsToRegions(n Node, windows []model.Window, region model.Rect, fallback Fallback) []Placement {
	byPkg := model.IndexByPackage(windows)
	leaves := ComputeLeafBounds(n, region)

	assigned := make(map[string]bool, len(leaves))
	for _, lr := range leaves {
		if lr.Leaf.App != nil {
			assigned[lr.Leaf.App.Package] = true
		}
	}

	var stray *model.Window
	if fallback == FallbackSingleWindow {
		stray = singleUnclaimed(windows, assigned)
	}

	var out []Placement
	for _, lr := range leaves {
		if lr.Bounds.Empty() {
			continue
		}
		if lr.Leaf.App != nil {
			if w, ok := byPkg[lr.Leaf.App.Package]; ok {
				out = append(out, Placement{Window: w, Bounds: lr.Bounds, Path: lr.Path})
			}
			continue
		}
		if stray != nil {
			out = append(out, Placement{Window: *stray, Bounds: lr.Bounds, Path: lr.Path})
			stray = nil
		}
	}
	return out
}

// singleUnclaimed returns the window whose package is not assigned anywhere
// in the tree, provided there is exactly one such package.
func singleUnclaimed(windows []model.Window, assigned map[string]bool) *model.Window {
	var found *model.Window
	seen := make(map[string]bool)
	for i := range windows {
		pkg := windows[i].Package
		if assigned[pkg] || seen[pkg] {
			continue
		}
		seen[pkg] = true
		if found != nil {
			return nil
		}
		found = &windows[i]
	}
	if found == nil {
		return nil
	}
	w := *found
	return &w
}
