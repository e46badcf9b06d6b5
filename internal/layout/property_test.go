package layout

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/mj1618/droidtile/internal/model"
)

// treeFromRatios builds a balanced tree with one split per ratio,
// alternating direction by depth. Every leaf gets a distinct app.
func treeFromRatios(ratios []float64) Node {
	next := 0
	var build func(rs []float64, depth int) Node
	build = func(rs []float64, depth int) Node {
		if len(rs) == 0 {
			next++
			return App(fmt.Sprintf("app%d", next))
		}
		mid := 1 + (len(rs)-1)/2
		first := build(rs[1:mid], depth+1)
		second := build(rs[mid:], depth+1)
		if depth%2 == 0 {
			return &HSplit{Left: first, Right: second, Ratio: rs[0]}
		}
		return &VSplit{Top: first, Bottom: second, Ratio: rs[0]}
	}
	return build(ratios, 0)
}

func TestLayoutProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	ratios := gen.SliceOf(gen.Float64Range(0.01, 0.99))
	width := gen.IntRange(0, 4000)
	height := gen.IntRange(0, 3000)

	properties.Property("leaves partition the region exactly", prop.ForAll(
		func(rs []float64, w, h int) bool {
			region := model.Rect{X: 13, Y: 7, Width: w, Height: h}
			leaves := ComputeLeafBounds(treeFromRatios(rs), region)
			if len(leaves) != len(rs)+1 {
				return false
			}
			area := 0
			for i, a := range leaves {
				b := a.Bounds
				if b.Width < 0 || b.Height < 0 {
					return false
				}
				if b.X < region.X || b.Y < region.Y || b.Right() > region.Right() || b.Bottom() > region.Bottom() {
					return false
				}
				for _, other := range leaves[i+1:] {
					if b.Overlaps(other.Bounds) {
						return false
					}
				}
				area += b.Area()
			}
			return area == region.Area()
		},
		ratios, width, height,
	))

	properties.Property("split widths sum to the parent", prop.ForAll(
		func(r float64, w int) bool {
			left, right := SplitHorizontal(model.Rect{Width: w, Height: 10}, r)
			top, bottom := SplitVertical(model.Rect{Width: 10, Height: w}, r)
			return left.Width+right.Width == w && right.X == left.Right() &&
				top.Height+bottom.Height == w && bottom.Y == top.Bottom()
		},
		gen.Float64Range(0.01, 0.99), width,
	))

	properties.Property("mapping is a pure function", prop.ForAll(
		func(rs []float64, n int) bool {
			root := treeFromRatios(rs)
			var windows []model.Window
			for i := n; i > 0; i-- {
				windows = append(windows, model.Window{Package: fmt.Sprintf("app%d", i), ID: i})
			}
			region := model.Rect{Width: 1920, Height: 1080}
			a := MapWindowsToRegions(root, windows, region, FallbackSingleWindow)
			b := MapWindowsToRegions(root, windows, region, FallbackSingleWindow)
			if len(a) != len(b) {
				return false
			}
			seen := make(map[string]bool)
			for i := range a {
				if a[i] != b[i] || seen[a[i].Window.Package] {
					return false
				}
				seen[a[i].Window.Package] = true
			}
			return true
		},
		ratios, gen.IntRange(0, 12),
	))

	properties.TestingRun(t)
}
