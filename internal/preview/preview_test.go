package preview

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/droidtile/internal/layout"
	"github.com/mj1618/droidtile/internal/model"
)

func TestRender_TilesAndWindows(t *testing.T) {
	screen := model.Rect{Width: 1000, Height: 800}
	tree := layout.MustHSplit(layout.App("com.example.mail"), layout.Empty(), 0.6)

	img, err := Render(tree, screen, Options{
		Scale:   0.5,
		Windows: []model.Window{{Package: "x", Bounds: model.Rect{X: 100, Y: 100, Width: 200, Height: 200}}},
	})
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())

	// Inside the assigned tile, away from borders and text.
	assert.Equal(t, tileFill, img.RGBAAt(20, 380))
	// Inside the free tile.
	assert.Equal(t, freeFill, img.RGBAAt(480, 380))
	// Window outline at (100,100) screen -> (50,50) image.
	assert.Equal(t, windowColor, img.RGBAAt(50, 60))
}

func TestRender_EmptyScreen(t *testing.T) {
	_, err := Render(layout.Empty(), model.Rect{}, Options{})
	assert.Error(t, err)
}

func TestWritePNG(t *testing.T) {
	img, err := Render(layout.Empty(), model.Rect{Width: 64, Height: 32}, Options{Scale: 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, img))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, decoded.Bounds().Dx())
}
