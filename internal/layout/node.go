// Package layout implements the binary-split tiling tree: how a workspace's
// display area divides into regions and how observed windows map onto them.
// It does no I/O and never calls the platform.
package layout

import (
	"errors"
	"fmt"
	"math"

	"github.com/mj1618/droidtile/internal/model"
)

var (
	ErrInvalidRatio = errors.New("split ratio must be strictly between 0 and 1")
	ErrMissingChild = errors.New("split node requires two children")
	ErrDuplicateApp = errors.New("app assigned to more than one leaf")
	ErrNotLeaf      = errors.New("path does not address a leaf")
	ErrLeafAssigned = errors.New("leaf already holds an app")
	ErrBadPath      = errors.New("invalid leaf path")
)

// Node is a layout tree node: *Leaf, *HSplit or *VSplit.
// Trees are treated as immutable once built.
type Node interface {
	node()
}

// Leaf is a tile holding at most one application.
type Leaf struct {
	App *model.AppIdentity
}

// HSplit divides its region into a left and a right part.
// Ratio is the share of the width given to Left.
type HSplit struct {
	Left, Right Node
	Ratio       float64
}

// VSplit divides its region into a top and a bottom part.
// Ratio is the share of the height given to Top.
type VSplit struct {
	Top, Bottom Node
	Ratio       float64
}

func (*Leaf) node()   {}
func (*HSplit) node() {}
func (*VSplit) node() {}

// Empty returns an unassigned leaf.
func Empty() *Leaf { return &Leaf{} }

// App returns a leaf assigned to the given package.
func App(pkg string) *Leaf {
	return &Leaf{App: &model.AppIdentity{Package: pkg}}
}

// NewLeaf returns a leaf for app; a nil app yields an unassigned leaf.
func NewLeaf(app *model.AppIdentity) *Leaf {
	if app == nil {
		return Empty()
	}
	a := *app
	return &Leaf{App: &a}
}

// NewHSplit builds a horizontal split, rejecting invalid ratios.
func NewHSplit(left, right Node, ratio float64) (*HSplit, error) {
	if left == nil || right == nil {
		return nil, ErrMissingChild
	}
	if !validRatio(ratio) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRatio, ratio)
	}
	return &HSplit{Left: left, Right: right, Ratio: ratio}, nil
}

// NewVSplit builds a vertical split, rejecting invalid ratios.
func NewVSplit(top, bottom Node, ratio float64) (*VSplit, error) {
	if top == nil || bottom == nil {
		return nil, ErrMissingChild
	}
	if !validRatio(ratio) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidRatio, ratio)
	}
	return &VSplit{Top: top, Bottom: bottom, Ratio: ratio}, nil
}

// MustHSplit is like NewHSplit but panics on error. Intended for static layouts.
func MustHSplit(left, right Node, ratio float64) *HSplit {
	n, err := NewHSplit(left, right, ratio)
	if err != nil {
		panic(err)
	}
	return n
}

// MustVSplit is like NewVSplit but panics on error.
func MustVSplit(top, bottom Node, ratio float64) *VSplit {
	n, err := NewVSplit(top, bottom, ratio)
	if err != nil {
		panic(err)
	}
	return n
}

// HorizontalSplitLayout returns a two-tile left/right layout for apps a and b.
func HorizontalSplitLayout(ratio float64, a, b string) (Node, error) {
	return NewHSplit(leafFor(a), leafFor(b), ratio)
}

// VerticalSplitLayout returns a two-tile top/bottom layout for apps a and b.
func VerticalSplitLayout(ratio float64, a, b string) (Node, error) {
	return NewVSplit(leafFor(a), leafFor(b), ratio)
}

// SingleLeaf returns a one-tile layout covering the whole region.
func SingleLeaf(pkg string) Node {
	return leafFor(pkg)
}

func leafFor(pkg string) *Leaf {
	if pkg == "" {
		return Empty()
	}
	return App(pkg)
}

// EvenHorizontal arranges nodes in equal-width columns, left to right.
func EvenHorizontal(nodes ...Node) Node {
	switch len(nodes) {
	case 0:
		return Empty()
	case 1:
		return nodes[0]
	}
	return &HSplit{
		Left:  nodes[0],
		Right: EvenHorizontal(nodes[1:]...),
		Ratio: 1 / float64(len(nodes)),
	}
}

func validRatio(r float64) bool {
	return !math.IsNaN(r) && r > 0 && r < 1
}

// Validate checks ratios, children and app uniqueness across the whole tree.
func Validate(n Node) error {
	if n == nil {
		return ErrMissingChild
	}
	seen := make(map[string]string)
	var err error
	Walk(n, func(path string, node Node) bool {
		switch v := node.(type) {
		case *HSplit:
			if v.Left == nil || v.Right == nil {
				err = fmt.Errorf("node %q: %w", displayPath(path), ErrMissingChild)
			} else if !validRatio(v.Ratio) {
				err = fmt.Errorf("node %q: %w: got %v", displayPath(path), ErrInvalidRatio, v.Ratio)
			}
		case *VSplit:
			if v.Top == nil || v.Bottom == nil {
				err = fmt.Errorf("node %q: %w", displayPath(path), ErrMissingChild)
			} else if !validRatio(v.Ratio) {
				err = fmt.Errorf("node %q: %w: got %v", displayPath(path), ErrInvalidRatio, v.Ratio)
			}
		case *Leaf:
			if v == nil {
				err = fmt.Errorf("node %q: %w", displayPath(path), ErrMissingChild)
				break
			}
			if v.App == nil {
				break
			}
			if prev, dup := seen[v.App.Package]; dup {
				err = fmt.Errorf("%w: %s at %q and %q", ErrDuplicateApp, v.App.Package, displayPath(prev), displayPath(path))
			}
			seen[v.App.Package] = path
		case nil:
			err = fmt.Errorf("node %q: %w", displayPath(path), ErrMissingChild)
		}
		return err == nil
	})
	return err
}

// Walk visits nodes depth-first, left/top child first. Returning false
// from fn stops the walk.
func Walk(n Node, fn func(path string, node Node) bool) {
	walk(n, "", fn)
}

func walk(n Node, path string, fn func(string, Node) bool) bool {
	if !fn(path, n) {
		return false
	}
	switch v := n.(type) {
	case *HSplit:
		return walk(v.Left, childPath(path, 0), fn) && walk(v.Right, childPath(path, 1), fn)
	case *VSplit:
		return walk(v.Top, childPath(path, 0), fn) && walk(v.Bottom, childPath(path, 1), fn)
	}
	return true
}

// Apps returns assigned apps in traversal order.
func Apps(n Node) []model.AppIdentity {
	var apps []model.AppIdentity
	Walk(n, func(_ string, node Node) bool {
		if leaf, ok := node.(*Leaf); ok && leaf.App != nil {
			apps = append(apps, *leaf.App)
		}
		return true
	})
	return apps
}

// LeafCount returns the number of leaves in the tree.
func LeafCount(n Node) int {
	count := 0
	Walk(n, func(_ string, node Node) bool {
		if _, ok := node.(*Leaf); ok {
			count++
		}
		return true
	})
	return count
}

func childPath(parent string, i int) string {
	if parent == "" {
		return fmt.Sprint(i)
	}
	return fmt.Sprintf("%s.%d", parent, i)
}

func displayPath(p string) string {
	if p == "" {
		return "root"
	}
	return p
}
