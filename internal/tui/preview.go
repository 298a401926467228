package tui

import (
	"fmt"
	"strings"

	"github.com/1broseidon/zonetile/internal/layout"
)

// RenderPreview generates an ASCII art representation of a layout's zones
// on a width x height character canvas. The zone at highlight is filled;
// pass -1 to highlight nothing.
func RenderPreview(l layout.Layout, width, height, highlight int) []string {
	if width < 5 || height < 3 || len(l.Zones) == 0 {
		return emptyCanvas(width, height)
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Map fractional zones onto the interior of the canvas, leaving a
	// one-character margin for the outer border.
	bounds := layout.Rect{X: 1, Y: 1, Width: width - 2, Height: height - 2}
	for i, z := range l.Zones {
		drawZone(canvas, z.RectIn(bounds), i+1, i == highlight, width, height)
	}

	drawBorder(canvas, width, height)

	lines := make([]string, height)
	for i, row := range canvas {
		lines[i] = string(row)
	}
	return lines
}

func drawZone(canvas [][]rune, rect layout.Rect, num int, filled bool, canvasW, canvasH int) {
	x1, y1 := rect.X, rect.Y
	x2 := rect.X + rect.Width - 1
	y2 := rect.Y + rect.Height - 1

	if x1 < 1 {
		x1 = 1
	}
	if y1 < 1 {
		y1 = 1
	}
	if x2 >= canvasW-1 {
		x2 = canvasW - 2
	}
	if y2 >= canvasH-1 {
		y2 = canvasH - 2
	}
	if x2 <= x1 || y2 <= y1 {
		return
	}

	if filled {
		for y := y1 + 1; y < y2; y++ {
			for x := x1 + 1; x < x2; x++ {
				canvas[y][x] = '░'
			}
		}
	}

	for x := x1; x <= x2; x++ {
		canvas[y1][x] = '─'
		canvas[y2][x] = '─'
	}
	for y := y1; y <= y2; y++ {
		canvas[y][x1] = '│'
		canvas[y][x2] = '│'
	}
	canvas[y1][x1] = '┌'
	canvas[y1][x2] = '┐'
	canvas[y2][x1] = '└'
	canvas[y2][x2] = '┘'

	// Zone number in center
	centerY := (y1 + y2) / 2
	centerX := (x1 + x2) / 2
	if centerY > y1 && centerY < y2 && centerX > x1 && centerX < x2 {
		label := fmt.Sprintf("%d", num)
		startX := centerX - len(label)/2
		for i, r := range label {
			if startX+i > x1 && startX+i < x2 {
				canvas[centerY][startX+i] = r
			}
		}
	}
}

func drawBorder(canvas [][]rune, width, height int) {
	for x := 0; x < width; x++ {
		canvas[0][x] = '═'
		canvas[height-1][x] = '═'
	}
	for y := 0; y < height; y++ {
		canvas[y][0] = '║'
		canvas[y][width-1] = '║'
	}
	canvas[0][0] = '╔'
	canvas[0][width-1] = '╗'
	canvas[height-1][0] = '╚'
	canvas[height-1][width-1] = '╝'
}

func emptyCanvas(width, height int) []string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	lines := make([]string, height)
	empty := strings.Repeat(" ", width)
	for i := range lines {
		lines[i] = empty
	}
	return lines
}

func summarizeLayout(l layout.Layout) string {
	if len(l.Zones) == 0 {
		return "no zones"
	}
	names := make([]string, len(l.Zones))
	for i, z := range l.Zones {
		names[i] = z.Name
	}
	return fmt.Sprintf("%d zones: %s", len(l.Zones), strings.Join(names, ", "))
}
