package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect is an integer pixel rectangle anchored at its top-left corner.
type Rect struct {
	X      int `yaml:"x"      json:"x"`
	Y      int `yaml:"y"      json:"y"`
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Right returns the exclusive right edge.
func (r Rect) Right() int { return r.X + r.Width }

// Bottom returns the exclusive bottom edge.
func (r Rect) Bottom() int { return r.Y + r.Height }

// Empty reports whether the rectangle has no usable area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Area returns width*height, or 0 for empty rectangles.
func (r Rect) Area() int {
	if r.Empty() {
		return 0
	}
	return r.Width * r.Height
}

// Inset shrinks the rectangle by gap on every side. It returns the original
// rectangle and false when the inset would leave no positive width or height.
func (r Rect) Inset(gap int) (Rect, bool) {
	if gap <= 0 {
		return r, gap == 0
	}
	if r.Width-2*gap <= 0 || r.Height-2*gap <= 0 {
		return r, false
	}
	return Rect{X: r.X + gap, Y: r.Y + gap, Width: r.Width - 2*gap, Height: r.Height - 2*gap}, true
}

// Overlaps reports whether two non-empty rectangles share any pixel.
func (r Rect) Overlaps(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X < o.Right() && o.X < r.Right() && r.Y < o.Bottom() && o.Y < r.Bottom()
}

// String renders the rectangle as [left,top,right,bottom].
func (r Rect) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", r.X, r.Y, r.Right(), r.Bottom())
}

// LTRB builds a rectangle from its edges.
func LTRB(left, top, right, bottom int) Rect {
	return Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
}

// ParseRect parses a "x,y,w,h" string into a Rect.
func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("invalid bounds %q: expected x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rect{}, fmt.Errorf("invalid bounds %q: %w", s, err)
		}
		vals[i] = v
	}
	return Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// ParseSize parses a "WxH" screen size into a Rect at the origin.
func ParseSize(s string) (Rect, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return Rect{}, fmt.Errorf("invalid size %q: expected WxH", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return Rect{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return Rect{}, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return Rect{}, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return Rect{Width: width, Height: height}, nil
}
