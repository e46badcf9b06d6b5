package model

import "fmt"

// ChangeType represents the kind of window change detected.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeChanged ChangeType = "changed"
)

// WindowChange represents a single change between two window snapshots.
type WindowChange struct {
	Type    ChangeType           `yaml:"type"              json:"type"`
	Package string               `yaml:"package"           json:"package"`
	Window  Window               `yaml:"window"            json:"window"`            // current window (previous one for removals)
	Changes map[string][2]string `yaml:"changes,omitempty" json:"changes,omitempty"` // For changed: field diffs
}

// DiffWindows compares two window snapshots and returns the changes.
// Windows are matched by package name; when a snapshot reports the same
// package twice only the first occurrence counts.
func DiffWindows(prev, curr []Window) []WindowChange {
	prevMap := IndexByPackage(prev)
	currMap := IndexByPackage(curr)

	var changes []WindowChange
	seen := make(map[string]bool, len(curr))

	for _, w := range curr {
		if seen[w.Package] {
			continue
		}
		seen[w.Package] = true

		prevW, existed := prevMap[w.Package]
		if !existed {
			changes = append(changes, WindowChange{Type: ChangeAdded, Package: w.Package, Window: w})
			continue
		}
		if diffs := diffWindowProperties(prevW, w); len(diffs) > 0 {
			changes = append(changes, WindowChange{Type: ChangeChanged, Package: w.Package, Window: w, Changes: diffs})
		}
	}

	removed := make(map[string]bool)
	for _, w := range prev {
		if _, exists := currMap[w.Package]; !exists && !removed[w.Package] {
			removed[w.Package] = true
			changes = append(changes, WindowChange{Type: ChangeRemoved, Package: w.Package, Window: w})
		}
	}

	return changes
}

// IndexByPackage maps package names to the first window reporting them.
func IndexByPackage(windows []Window) map[string]Window {
	m := make(map[string]Window, len(windows))
	for _, w := range windows {
		if _, ok := m[w.Package]; !ok {
			m[w.Package] = w
		}
	}
	return m
}

// diffWindowProperties compares two windows of the same package.
func diffWindowProperties(prev, curr Window) map[string][2]string {
	diffs := make(map[string][2]string)

	if prev.Bounds != curr.Bounds {
		diffs["bounds"] = [2]string{prev.Bounds.String(), curr.Bounds.String()}
	}
	if prev.ID != curr.ID {
		diffs["id"] = [2]string{fmt.Sprint(prev.ID), fmt.Sprint(curr.ID)}
	}
	if prev.DisplayID != curr.DisplayID {
		diffs["display"] = [2]string{fmt.Sprint(prev.DisplayID), fmt.Sprint(curr.DisplayID)}
	}
	if prev.Title != curr.Title {
		diffs["title"] = [2]string{prev.Title, curr.Title}
	}

	if len(diffs) == 0 {
		return nil
	}
	return diffs
}
