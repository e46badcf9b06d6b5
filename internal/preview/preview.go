// Package preview renders a layout's tiles, and optionally the observed
// windows, to an image for `droidtile layout preview`.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/droidtile/internal/layout"
	"github.com/mj1618/droidtile/internal/model"
)

// Options control rendering.
type Options struct {
	// Scale converts screen pixels to image pixels. Zero means 0.5.
	Scale float64
	// Gap insets every tile, as the reconciler does.
	Gap int
	// Windows are outlined on top of the tiles.
	Windows []model.Window
}

var (
	background  = color.RGBA{R: 32, G: 32, B: 36, A: 255}
	tileFill    = color.RGBA{R: 70, G: 110, B: 170, A: 255}
	freeFill    = color.RGBA{R: 60, G: 60, B: 66, A: 255}
	tileBorder  = color.RGBA{R: 200, G: 220, B: 255, A: 255}
	windowColor = color.RGBA{R: 255, G: 80, B: 80, A: 255}
	textColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outline     = color.RGBA{R: 0, G: 0, B: 0, A: 200}
)

// Render draws tree laid out on screen.
func Render(tree layout.Node, screen model.Rect, opts Options) (*image.RGBA, error) {
	if screen.Empty() {
		return nil, fmt.Errorf("empty screen %s", screen)
	}
	scale := opts.Scale
	if scale <= 0 {
		scale = 0.5
	}
	px := func(v int) int { return int(float64(v) * scale) }

	img := image.NewRGBA(image.Rect(0, 0, max(px(screen.Width), 1), max(px(screen.Height), 1)))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	toImage := func(r model.Rect) image.Rectangle {
		return image.Rect(px(r.X-screen.X), px(r.Y-screen.Y), px(r.Right()-screen.X), px(r.Bottom()-screen.Y))
	}

	for _, lr := range layout.ComputeLeafBounds(tree, screen) {
		b := lr.Bounds
		if inset, ok := b.Inset(opts.Gap); ok {
			b = inset
		}
		if b.Empty() {
			continue
		}
		r := toImage(b).Intersect(img.Bounds())
		fill, label := freeFill, "(free)"
		if lr.Leaf.App != nil {
			fill, label = tileFill, lr.Leaf.App.DisplayName()
		}
		draw.Draw(img, r, image.NewUniform(fill), image.Point{}, draw.Src)
		drawRectangle(img, r, tileBorder)
		center := r.Min.Add(r.Size().Div(2))
		drawTextWithOutline(img, label, center.X, center.Y-8, textColor, outline)
		drawTextWithOutline(img, b.String(), center.X, center.Y+8, textColor, outline)
	}

	for _, w := range opts.Windows {
		if w.Bounds.Empty() {
			continue
		}
		drawRectangle(img, toImage(w.Bounds), windowColor)
	}
	return img, nil
}

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("png encode: %w", err)
	}
	return nil
}

// drawRectangle draws a one-pixel outline clipped to the image.
func drawRectangle(img *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

// drawTextWithOutline centers text on (x, y) using basicfont.Face7x13.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	offsetX := x - len(text)*7/2
	offsetY := y + 13/2

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			drawString(img, text, offsetX+dx, offsetY+dy, outlineColor)
		}
	}
	drawString(img, text, offsetX, offsetY, textColor)
}

func drawString(img *image.RGBA, text string, x, y int, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
