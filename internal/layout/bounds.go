package layout

import "github.com/mj1618/droidtile/internal/model"

// LeafRegion is a leaf together with its computed pixel bounds.
// Path is the child-index path from the root ("" for a root leaf).
type LeafRegion struct {
	Leaf   *Leaf
	Path   string
	Bounds model.Rect
}

// ComputeLeafBounds partitions region among the leaves of n, in
// left/top-first order. Degenerate regions propagate as zero-area bounds;
// callers must treat empty leaves as unusable.
func ComputeLeafBounds(n Node, region model.Rect) []LeafRegion {
	var out []LeafRegion
	computeLeafBounds(n, clampRegion(region), "", &out)
	return out
}

func computeLeafBounds(n Node, region model.Rect, path string, out *[]LeafRegion) {
	switch v := n.(type) {
	case *Leaf:
		*out = append(*out, LeafRegion{Leaf: v, Path: path, Bounds: region})
	case *HSplit:
		left, right := SplitHorizontal(region, v.Ratio)
		computeLeafBounds(v.Left, left, childPath(path, 0), out)
		computeLeafBounds(v.Right, right, childPath(path, 1), out)
	case *VSplit:
		top, bottom := SplitVertical(region, v.Ratio)
		computeLeafBounds(v.Top, top, childPath(path, 0), out)
		computeLeafBounds(v.Bottom, bottom, childPath(path, 1), out)
	}
}

// SplitHorizontal divides region into left and right parts. The left width
// is truncated and the right part takes the remainder, so the widths always
// sum to region.Width.
func SplitHorizontal(region model.Rect, ratio float64) (left, right model.Rect) {
	region = clampRegion(region)
	lw := splitLength(region.Width, ratio)
	left = model.Rect{X: region.X, Y: region.Y, Width: lw, Height: region.Height}
	right = model.Rect{X: region.X + lw, Y: region.Y, Width: region.Width - lw, Height: region.Height}
	return left, right
}

// SplitVertical divides region into top and bottom parts; see SplitHorizontal.
func SplitVertical(region model.Rect, ratio float64) (top, bottom model.Rect) {
	region = clampRegion(region)
	th := splitLength(region.Height, ratio)
	top = model.Rect{X: region.X, Y: region.Y, Width: region.Width, Height: th}
	bottom = model.Rect{X: region.X, Y: region.Y + th, Width: region.Width, Height: region.Height - th}
	return top, bottom
}

func splitLength(total int, ratio float64) int {
	if total <= 0 {
		return 0
	}
	n := int(float64(total) * ratio)
	if n < 0 {
		return 0
	}
	if n > total {
		return total
	}
	return n
}

func clampRegion(r model.Rect) model.Rect {
	if r.Width < 0 {
		r.Width = 0
	}
	if r.Height < 0 {
		r.Height = 0
	}
	return r
}

// FindFirstUnassignedLeaf returns the first leaf without an app, preferring
// left over right and top over bottom.
func FindFirstUnassignedLeaf(n Node, region model.Rect) (LeafRegion, bool) {
	for _, lr := range ComputeLeafBounds(n, region) {
		if lr.Leaf.App == nil {
			return lr, true
		}
	}
	return LeafRegion{}, false
}
