package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/droidtile/internal/model"
)

// Assign returns a copy of n with app placed in the unassigned leaf at
// path. Nodes off the path are shared with the input; n is not modified.
func Assign(n Node, path string, app model.AppIdentity) (Node, error) {
	for _, existing := range Apps(n) {
		if existing.Package == app.Package {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateApp, app.Package)
		}
	}
	steps, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	return assign(n, steps, path, app)
}

func assign(n Node, steps []int, path string, app model.AppIdentity) (Node, error) {
	if len(steps) == 0 {
		leaf, ok := n.(*Leaf)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotLeaf, path)
		}
		if leaf.App != nil {
			return nil, fmt.Errorf("%w: %q holds %s", ErrLeafAssigned, path, leaf.App.Package)
		}
		return NewLeaf(&app), nil
	}

	switch v := n.(type) {
	case *HSplit:
		cp := *v
		var err error
		if steps[0] == 0 {
			cp.Left, err = assign(v.Left, steps[1:], path, app)
		} else {
			cp.Right, err = assign(v.Right, steps[1:], path, app)
		}
		if err != nil {
			return nil, err
		}
		return &cp, nil
	case *VSplit:
		cp := *v
		var err error
		if steps[0] == 0 {
			cp.Top, err = assign(v.Top, steps[1:], path, app)
		} else {
			cp.Bottom, err = assign(v.Bottom, steps[1:], path, app)
		}
		if err != nil {
			return nil, err
		}
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
}

func parsePath(path string) ([]int, error) {
	if path == "" {
		return nil, nil
	}
	parts := strings.Split(path, ".")
	steps := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || (v != 0 && v != 1) {
			return nil, fmt.Errorf("%w: %q", ErrBadPath, path)
		}
		steps[i] = v
	}
	return steps, nil
}
