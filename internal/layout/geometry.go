package layout

import "math"

// Rect is a pixel rectangle on a monitor.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// RectIn maps the fractional zone onto a pixel bounds rectangle. The
// result is clamped to at least 1x1 so degenerate zones stay drawable.
func (z Zone) RectIn(bounds Rect) Rect {
	out := Rect{
		X:      bounds.X + int(math.Round(z.X*float64(bounds.Width))),
		Y:      bounds.Y + int(math.Round(z.Y*float64(bounds.Height))),
		Width:  int(math.Round(z.W * float64(bounds.Width))),
		Height: int(math.Round(z.H * float64(bounds.Height))),
	}
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Height < 1 {
		out.Height = 1
	}
	return out
}
