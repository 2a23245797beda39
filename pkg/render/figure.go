package render

// Viewport is the pixel-space plotting area of one grid panel.
// All coordinates are in SVG user units with the origin at the top left.
type Viewport struct {
	Left, Right float64
	Top, Bottom float64
}

// Width returns the horizontal span of the viewport.
func (v Viewport) Width() float64 { return v.Right - v.Left }

// Height returns the vertical span of the viewport.
func (v Viewport) Height() float64 { return v.Bottom - v.Top }

// CenterX returns the horizontal center of the viewport.
func (v Viewport) CenterX() float64 { return (v.Left + v.Right) / 2 }

// Panel padding fractions of the grid cell, leaving room for axis labels,
// titles, and the colorbar strip.
const (
	padLeft   = 0.14
	padRight  = 0.10
	padTop    = 0.12
	padBottom = 0.14
)

// Figure is the shared rendering surface: a rows x cols grid of panels with
// deterministic pixel geometry.
type Figure struct {
	Rows, Cols    int
	Width, Height float64 // pixels
}

// NewFigure creates a figure for a grid, converting layout units to pixels
// at the given resolution.
func NewFigure(rows, cols int, unitW, unitH, dpi float64) *Figure {
	return &Figure{
		Rows:   rows,
		Cols:   cols,
		Width:  unitW * dpi,
		Height: unitH * dpi,
	}
}

// Panel returns the viewport of the flattened grid position index.
func (f *Figure) Panel(index int) Viewport {
	row := index / f.Cols
	col := index % f.Cols
	cellW := f.Width / float64(f.Cols)
	cellH := f.Height / float64(f.Rows)
	x := float64(col) * cellW
	y := float64(row) * cellH
	return Viewport{
		Left:   x + padLeft*cellW,
		Right:  x + cellW - padRight*cellW,
		Top:    y + padTop*cellH,
		Bottom: y + cellH - padBottom*cellH,
	}
}

// axes maps data coordinates into a viewport.
type axes struct {
	box                    Viewport
	xmin, xmax, ymin, ymax float64
}

// newAxes fits a coordinate system over the data ranges, padding degenerate
// ranges so single-valued data still maps inside the viewport.
func newAxes(box Viewport, x, y []float64) axes {
	xmin, xmax := dataRange(x)
	ymin, ymax := dataRange(y)
	return axes{box: box, xmin: xmin, xmax: xmax, ymin: ymin, ymax: ymax}
}

// px converts a data x value to pixels.
func (a axes) px(x float64) float64 {
	return a.box.Left + (x-a.xmin)/(a.xmax-a.xmin)*a.box.Width()
}

// py converts a data y value to pixels. The data y axis points up, SVG down.
func (a axes) py(y float64) float64 {
	return a.box.Bottom - (y-a.ymin)/(a.ymax-a.ymin)*a.box.Height()
}

// dataRange returns the padded [min, max] of v.
func dataRange(v []float64) (lo, hi float64) {
	if len(v) == 0 {
		return 0, 1
	}
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	// 2% padding keeps edge points off the frame.
	pad := (hi - lo) * 0.02
	return lo - pad, hi + pad
}
