package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/droidtile/internal/model"
)

func TestAssign_CopyOnWrite(t *testing.T) {
	shared := App("b")
	base := MustHSplit(Empty(), MustVSplit(shared, Empty(), 0.5), 0.4)

	next, err := Assign(base, "1.1", model.AppIdentity{Package: "c"})
	require.NoError(t, err)

	assert.Nil(t, base.Right.(*VSplit).Bottom.(*Leaf).App, "input tree must not change")
	assert.Equal(t, "c", next.(*HSplit).Right.(*VSplit).Bottom.(*Leaf).App.Package)
	assert.Same(t, base.Left, next.(*HSplit).Left, "untouched subtrees are shared")
	assert.Same(t, shared, next.(*HSplit).Right.(*VSplit).Top)
	assert.Equal(t, 0.4, next.(*HSplit).Ratio)
	require.NoError(t, Validate(next))
}

func TestAssign_RootLeaf(t *testing.T) {
	next, err := Assign(Empty(), "", model.AppIdentity{Package: "solo"})
	require.NoError(t, err)
	assert.Equal(t, "solo", next.(*Leaf).App.Package)
}

func TestAssign_Errors(t *testing.T) {
	base := MustHSplit(App("a"), Empty(), 0.5)

	tests := []struct {
		name string
		path string
		pkg  string
		want error
	}{
		{"duplicate", "1", "a", ErrDuplicateApp},
		{"assigned", "0", "z", ErrLeafAssigned},
		{"split", "", "z", ErrNotLeaf},
		{"too deep", "1.0", "z", ErrBadPath},
		{"bad index", "2", "z", ErrBadPath},
		{"garbage", "x.y", "z", ErrBadPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Assign(base, tt.path, model.AppIdentity{Package: tt.pkg})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAssign_FillsFirstFreeInOrder(t *testing.T) {
	tree := Node(MustHSplit(Empty(), MustVSplit(Empty(), Empty(), 0.5), 0.5))

	for _, pkg := range []string{"x", "y", "z"} {
		lr, ok := FindFirstUnassignedLeaf(tree, screen)
		require.True(t, ok)
		var err error
		tree, err = Assign(tree, lr.Path, model.AppIdentity{Package: pkg})
		require.NoError(t, err)
	}

	_, ok := FindFirstUnassignedLeaf(tree, screen)
	assert.False(t, ok)

	leaves := ComputeLeafBounds(tree, screen)
	assert.Equal(t, "x", leaves[0].Leaf.App.Package)
	assert.Equal(t, "y", leaves[1].Leaf.App.Package)
	assert.Equal(t, "z", leaves[2].Leaf.App.Package)
}
