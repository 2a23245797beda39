package render

import (
	"math"
	"testing"
)

func TestNewFigurePixelSize(t *testing.T) {
	f := NewFigure(1, 3, 10.5, 2.5, 80)
	if f.Width != 840 || f.Height != 200 {
		t.Errorf("figure = %vx%v px, want 840x200", f.Width, f.Height)
	}
}

func TestFigurePanelGeometry(t *testing.T) {
	f := NewFigure(2, 2, 10, 10, 100)

	// Panel 3 is the bottom-right cell: x in [500, 1000), y in [500, 1000).
	box := f.Panel(3)
	if box.Left <= 500 || box.Right >= 1000 {
		t.Errorf("horizontal span = [%v, %v]", box.Left, box.Right)
	}
	if box.Top <= 500 || box.Bottom >= 1000 {
		t.Errorf("vertical span = [%v, %v]", box.Top, box.Bottom)
	}
	if box.Width() <= 0 || box.Height() <= 0 {
		t.Error("degenerate viewport")
	}
	if c := box.CenterX(); c != (box.Left+box.Right)/2 {
		t.Errorf("CenterX = %v", c)
	}
}

func TestAxesMapping(t *testing.T) {
	box := Viewport{Left: 0, Right: 100, Top: 0, Bottom: 100}
	a := newAxes(box, []float64{0, 10}, []float64{0, 10})

	// Minimum maps near the left/bottom edge, maximum near the right/top.
	if a.px(0) < box.Left || a.px(0) > box.Left+5 {
		t.Errorf("px(min) = %v", a.px(0))
	}
	if a.px(10) > box.Right || a.px(10) < box.Right-5 {
		t.Errorf("px(max) = %v", a.px(10))
	}
	// SVG y grows downward, data y upward.
	if a.py(0) < a.py(10) {
		t.Error("y axis not inverted")
	}
}

func TestDataRange(t *testing.T) {
	lo, hi := dataRange([]float64{1, 5, 3})
	if lo >= 1 || hi <= 5 {
		t.Errorf("range = (%v, %v), want padding beyond [1, 5]", lo, hi)
	}
	if math.Abs((1-lo)-(hi-5)) > 1e-12 {
		t.Error("padding should be symmetric")
	}

	// Degenerate and empty inputs stay non-zero width.
	lo, hi = dataRange([]float64{4, 4})
	if hi <= lo {
		t.Errorf("degenerate range = (%v, %v)", lo, hi)
	}
	lo, hi = dataRange(nil)
	if lo != 0 || hi != 1 {
		t.Errorf("empty range = (%v, %v)", lo, hi)
	}
}
