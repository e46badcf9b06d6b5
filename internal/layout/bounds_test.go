package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/droidtile/internal/model"
)

var screen = model.Rect{X: 0, Y: 0, Width: 1000, Height: 800}

func TestComputeLeafBounds_HorizontalSixtyForty(t *testing.T) {
	root, err := HorizontalSplitLayout(0.6, "A", "B")
	require.NoError(t, err)

	leaves := ComputeLeafBounds(root, screen)
	require.Len(t, leaves, 2)

	assert.Equal(t, "A", leaves[0].Leaf.App.Package)
	assert.Equal(t, "[0,0,600,800]", leaves[0].Bounds.String())
	assert.Equal(t, "0", leaves[0].Path)
	assert.Equal(t, "B", leaves[1].Leaf.App.Package)
	assert.Equal(t, "[600,0,1000,800]", leaves[1].Bounds.String())
	assert.Equal(t, "1", leaves[1].Path)
}

func TestComputeLeafBounds_Vertical(t *testing.T) {
	root, err := VerticalSplitLayout(0.25, "top", "bottom")
	require.NoError(t, err)

	leaves := ComputeLeafBounds(root, model.Rect{X: 10, Y: 20, Width: 100, Height: 401})
	require.Len(t, leaves, 2)
	assert.Equal(t, model.Rect{X: 10, Y: 20, Width: 100, Height: 100}, leaves[0].Bounds)
	assert.Equal(t, model.Rect{X: 10, Y: 120, Width: 100, Height: 301}, leaves[1].Bounds)
}

func TestComputeLeafBounds_Nested(t *testing.T) {
	root := MustHSplit(
		App("left"),
		MustVSplit(App("top"), Empty(), 0.5),
		0.5,
	)

	leaves := ComputeLeafBounds(root, screen)
	require.Len(t, leaves, 3)
	assert.Equal(t, []string{"0", "1.0", "1.1"}, []string{leaves[0].Path, leaves[1].Path, leaves[2].Path})
	assert.Equal(t, model.LTRB(0, 0, 500, 800), leaves[0].Bounds)
	assert.Equal(t, model.LTRB(500, 0, 1000, 400), leaves[1].Bounds)
	assert.Equal(t, model.LTRB(500, 400, 1000, 800), leaves[2].Bounds)
	assert.Nil(t, leaves[2].Leaf.App)
}

func TestComputeLeafBounds_TruncatesLeftWidth(t *testing.T) {
	left, right := SplitHorizontal(model.Rect{Width: 7, Height: 1}, 0.5)
	assert.Equal(t, 3, left.Width)
	assert.Equal(t, 4, right.Width)
	assert.Equal(t, 3, right.X)
}

func TestComputeLeafBounds_DegenerateRegion(t *testing.T) {
	root := MustHSplit(App("a"), MustVSplit(App("b"), App("c"), 0.5), 0.5)

	for _, region := range []model.Rect{
		{Width: 0, Height: 800},
		{Width: 1000, Height: 0},
		{Width: -10, Height: -10},
	} {
		leaves := ComputeLeafBounds(root, region)
		require.Len(t, leaves, 3, "degenerate regions still yield every leaf")
		for _, lr := range leaves {
			assert.True(t, lr.Bounds.Empty(), "leaf %s should be zero-area for %+v", lr.Path, region)
			assert.GreaterOrEqual(t, lr.Bounds.Width, 0)
			assert.GreaterOrEqual(t, lr.Bounds.Height, 0)
		}
	}
}

func TestComputeLeafBounds_SingleLeaf(t *testing.T) {
	leaves := ComputeLeafBounds(App("solo"), screen)
	require.Len(t, leaves, 1)
	assert.Equal(t, screen, leaves[0].Bounds)
	assert.Equal(t, "", leaves[0].Path)
}

func TestFindFirstUnassignedLeaf_PrefersLeftThenTop(t *testing.T) {
	root := MustHSplit(
		MustVSplit(App("a"), Empty(), 0.5),
		Empty(),
		0.5,
	)

	lr, ok := FindFirstUnassignedLeaf(root, screen)
	require.True(t, ok)
	assert.Equal(t, "0.1", lr.Path)
	assert.Equal(t, model.LTRB(0, 400, 500, 800), lr.Bounds)
}

func TestFindFirstUnassignedLeaf_NoneFree(t *testing.T) {
	root, err := HorizontalSplitLayout(0.5, "a", "b")
	require.NoError(t, err)

	_, ok := FindFirstUnassignedLeaf(root, screen)
	assert.False(t, ok)
}

func TestEvenHorizontal(t *testing.T) {
	root := EvenHorizontal(App("a"), App("b"), App("c"))
	require.NoError(t, Validate(root))

	leaves := ComputeLeafBounds(root, screen)
	require.Len(t, leaves, 3)
	total := 0
	for _, lr := range leaves {
		total += lr.Bounds.Width
		assert.InDelta(t, 333, lr.Bounds.Width, 1)
	}
	assert.Equal(t, 1000, total)

	two := ComputeLeafBounds(EvenHorizontal(App("a"), App("b")), screen)
	assert.Equal(t, "[0,0,500,800]", two[0].Bounds.String())
	assert.Equal(t, "[500,0,1000,800]", two[1].Bounds.String())
}

func TestEvenHorizontal_Empty(t *testing.T) {
	leaves := ComputeLeafBounds(EvenHorizontal(), screen)
	require.Len(t, leaves, 1)
	assert.Nil(t, leaves[0].Leaf.App)
}
