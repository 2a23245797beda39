package render

import (
	"fmt"
	"math"
	"sort"
)

// rgb is one color anchor of a ramp.
type rgb struct{ r, g, b float64 }

// hex formats the color as an SVG hex string.
func (c rgb) hex() string {
	return fmt.Sprintf("#%02x%02x%02x", clamp8(c.r), clamp8(c.g), clamp8(c.b))
}

func clamp8(v float64) int {
	x := int(math.Round(v * 255))
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return x
}

// colorRamps are the named continuous color maps. Anchors are evenly spaced
// over [0, 1] and interpolated linearly. Unknown names fall back to
// defaultRamp.
var colorRamps = map[string][]rgb{
	"RdYlGn": {
		{0.65, 0.00, 0.15},
		{0.98, 0.55, 0.32},
		{1.00, 1.00, 0.75},
		{0.53, 0.81, 0.40},
		{0.00, 0.41, 0.22},
	},
	"gnuplot_r": {
		{1.00, 1.00, 0.00},
		{0.95, 0.45, 0.00},
		{0.60, 0.00, 0.50},
		{0.25, 0.00, 0.75},
		{0.00, 0.00, 0.00},
	},
	"viridis": {
		{0.27, 0.00, 0.33},
		{0.23, 0.32, 0.55},
		{0.13, 0.57, 0.55},
		{0.37, 0.79, 0.38},
		{0.99, 0.91, 0.14},
	},
}

var defaultRamp = []rgb{
	{0.85, 0.87, 0.91},
	{0.19, 0.36, 0.60},
}

// rampColor interpolates the named ramp at t in [0, 1].
func rampColor(name string, t float64) rgb {
	anchors, ok := colorRamps[name]
	if !ok {
		anchors = defaultRamp
	}
	if t <= 0 {
		return anchors[0]
	}
	if t >= 1 {
		return anchors[len(anchors)-1]
	}
	pos := t * float64(len(anchors)-1)
	i := int(pos)
	f := pos - float64(i)
	a, b := anchors[i], anchors[i+1]
	return rgb{
		r: a.r + (b.r-a.r)*f,
		g: a.g + (b.g-a.g)*f,
		b: a.b + (b.b-a.b)*f,
	}
}

// percentileClip returns the [lo, hi] percentile bounds of v.
func percentileClip(v []float64, perc [2]float64) (lo, hi float64) {
	if len(v) == 0 {
		return 0, 1
	}
	sorted := append([]float64(nil), v...)
	sort.Float64s(sorted)
	lo = percentile(sorted, perc[0])
	hi = percentile(sorted, perc[1])
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

// percentile returns the p-th percentile of sorted values, with linear
// interpolation between ranks.
func percentile(sorted []float64, p float64) float64 {
	if p <= 0 {
		return sorted[0]
	}
	if p >= 100 {
		return sorted[len(sorted)-1]
	}
	pos := p / 100 * float64(len(sorted)-1)
	i := int(pos)
	f := pos - float64(i)
	if i+1 >= len(sorted) {
		return sorted[i]
	}
	return sorted[i] + (sorted[i+1]-sorted[i])*f
}

// categoricalPalette colors unordered group labels.
var categoricalPalette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// neutralPointColor is used when no color key applies.
const neutralPointColor = "#808080"
