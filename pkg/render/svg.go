// Package render implements the scatter/line renderer consumed by the
// plotting pipeline.
//
// The renderer draws into a single SVG surface addressed by flattened panel
// position. [ToPNG] and [ToPDF] convert the SVG to raster and print formats
// using rsvg-convert.
package render

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/velopane/velopane/pkg/dataset"
	"github.com/velopane/velopane/pkg/velocity"
)

// Style defaults applied when a request leaves the value unset.
const (
	defaultPointRadius = 2.2
	defaultFontSize    = 11
	colorbarWidth      = 6
	colorbarSteps      = 24
)

// SVGOption configures an SVGRenderer.
type SVGOption func(*SVGRenderer)

// WithPointRadius overrides the default point radius in pixels.
func WithPointRadius(r float64) SVGOption {
	return func(s *SVGRenderer) { s.pointRadius = r }
}

// WithFontSize overrides the default font size in pixels.
func WithFontSize(f float64) SVGOption {
	return func(s *SVGRenderer) { s.fontSize = f }
}

// SVGRenderer accumulates scatter and line draws into one SVG figure. It
// implements [velocity.Renderer]. Draws must arrive in plan order; a Line
// draw requires its panel's coordinate system, established by the panel's
// Scatter.
type SVGRenderer struct {
	fig         *Figure
	axes        map[int]axes
	body        bytes.Buffer
	defs        bytes.Buffer
	pointRadius float64
	fontSize    float64
}

// NewSVGRenderer creates an empty SVG renderer.
func NewSVGRenderer(opts ...SVGOption) *SVGRenderer {
	r := &SVGRenderer{
		axes:        map[int]axes{},
		pointRadius: defaultPointRadius,
		fontSize:    defaultFontSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Init allocates the panel grid surface.
func (r *SVGRenderer) Init(plan *velocity.Plan, fig velocity.FigureSpec) error {
	if plan.Rows <= 0 || plan.Cols <= 0 {
		return fmt.Errorf("svg: empty grid %dx%d", plan.Rows, plan.Cols)
	}
	r.fig = NewFigure(plan.Rows, plan.Cols, fig.Width, fig.Height, fig.DPI)
	return nil
}

// Scatter draws one colored scatter into its panel.
func (r *SVGRenderer) Scatter(ds *dataset.Dataset, req velocity.ScatterRequest) error {
	if r.fig == nil {
		return fmt.Errorf("svg: renderer not initialized")
	}
	x, y, err := coordinates(ds, req)
	if err != nil {
		return err
	}
	if len(x) != len(y) {
		return fmt.Errorf("svg: %d x values against %d y values", len(x), len(y))
	}

	box := r.fig.Panel(req.Panel)
	a := newAxes(box, x, y)
	r.axes[req.Panel] = a

	colors, continuous := r.pointColors(ds, req, len(x))

	font := req.FontSize
	if font <= 0 {
		font = r.fontSize
	}
	radius := r.pointRadius
	if req.Size > 0 {
		radius = req.Size / 2
	}

	fmt.Fprintf(&r.body, `<g class="panel" id="panel-%d">`+"\n", req.Panel)
	if req.Frame {
		fmt.Fprintf(&r.body, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="none" stroke="#333" stroke-width="1"/>`+"\n",
			box.Left, box.Top, box.Width(), box.Height())
	}
	for i := range x {
		fmt.Fprintf(&r.body, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="%.2f"/>`+"\n",
			a.px(x[i]), a.py(y[i]), radius, colors[i], req.Alpha)
	}
	if req.Title != "" {
		fmt.Fprintf(&r.body, `<text x="%.1f" y="%.1f" font-size="%.1f" text-anchor="middle">%s</text>`+"\n",
			box.CenterX(), box.Top-4, font, escape(req.Title))
	}
	if req.Frame {
		if req.XLabel != "" {
			fmt.Fprintf(&r.body, `<text x="%.1f" y="%.1f" font-size="%.1f" text-anchor="middle">%s</text>`+"\n",
				box.CenterX(), box.Bottom+font+6, font*0.9, escape(req.XLabel))
		}
		if req.YLabel != "" {
			fmt.Fprintf(&r.body, `<text x="%.1f" y="%.1f" font-size="%.1f" text-anchor="middle" transform="rotate(-90 %.1f %.1f)">%s</text>`+"\n",
				box.Left-font-4, (box.Top+box.Bottom)/2, font*0.9, box.Left-font-4, (box.Top+box.Bottom)/2, escape(req.YLabel))
		}
	}

	if len(req.Fits) > 0 && req.Gene != "" {
		r.renderFitLines(ds, req, a)
	}
	if continuous && req.Colorbar {
		r.renderColorbar(req.Panel, box, req.ColorMap)
	}
	r.body.WriteString("</g>\n")
	return nil
}

// renderFitLines overlays one steady-state line per fit, each solving
// y = gamma/beta * x + offset/beta from the gene's fitted parameters.
func (r *SVGRenderer) renderFitLines(ds *dataset.Dataset, req velocity.ScatterRequest, a axes) {
	for i, fit := range req.Fits {
		gamma := ds.VarParam(req.Gene, fit+"_gamma", 1)
		beta := ds.VarParam(req.Gene, fit+"_beta", 1)
		offset := ds.VarParam(req.Gene, fit+"_offset", 0)

		color := categoricalPalette[i%len(categoricalPalette)]
		y0 := gamma/beta*a.xmin + offset/beta
		y1 := gamma/beta*a.xmax + offset/beta
		fmt.Fprintf(&r.body, `<line class="fit" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="1.5"/>`+"\n",
			a.px(a.xmin), a.py(y0), a.px(a.xmax), a.py(y1), color)

		if req.LegendLoc != "" && req.LegendLoc != "none" {
			legendFont := req.LegendFontSize
			if legendFont <= 0 {
				legendFont = r.fontSize * 0.8
			}
			ly := a.box.Top + float64(i+1)*(legendFont+3)
			fmt.Fprintf(&r.body, `<text class="legend" x="%.1f" y="%.1f" font-size="%.1f" fill="%s">%s</text>`+"\n",
				a.box.Left+4, ly, legendFont, color, escape(fit))
		}
	}
}

// renderColorbar draws a vertical gradient strip right of the panel.
func (r *SVGRenderer) renderColorbar(panel int, box Viewport, cmap string) {
	id := fmt.Sprintf("cbar-%d", panel)
	fmt.Fprintf(&r.defs, `<linearGradient id="%s" x1="0" y1="1" x2="0" y2="0">`+"\n", id)
	for i := 0; i <= colorbarSteps; i++ {
		t := float64(i) / colorbarSteps
		fmt.Fprintf(&r.defs, `<stop offset="%.3f" stop-color="%s"/>`+"\n", t, rampColor(cmap, t).hex())
	}
	r.defs.WriteString("</linearGradient>\n")
	fmt.Fprintf(&r.body, `<rect class="colorbar" x="%.1f" y="%.1f" width="%d" height="%.1f" fill="url(#%s)"/>`+"\n",
		box.Right+3, box.Top, colorbarWidth, box.Height(), id)
}

// Line draws an overlay line into an already scattered panel.
func (r *SVGRenderer) Line(panel int, x, y []float64, style velocity.LineStyle) error {
	a, ok := r.axes[panel]
	if !ok {
		return fmt.Errorf("svg: panel %d has no coordinate system", panel)
	}
	if len(x) != len(y) || len(x) == 0 {
		return fmt.Errorf("svg: invalid line with %d/%d points", len(x), len(y))
	}
	color := style.Color
	if color == "" {
		color = "black"
	}
	width := style.Width
	if width <= 0 {
		width = 1.5
	}
	var points []string
	for i := range x {
		points = append(points, fmt.Sprintf("%.1f,%.1f", a.px(x[i]), a.py(y[i])))
	}
	dash := ""
	if style.Dashed {
		dash = ` stroke-dasharray="5,3"`
	}
	fmt.Fprintf(&r.body, `<polyline class="overlay" points="%s" fill="none" stroke="%s" stroke-width="%.1f"%s/>`+"\n",
		strings.Join(points, " "), color, width, dash)
	return nil
}

// SVG assembles the figure document.
func (r *SVGRenderer) SVG() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="sans-serif">`+"\n",
		r.fig.Width, r.fig.Height, r.fig.Width, r.fig.Height)
	if r.defs.Len() > 0 {
		buf.WriteString("<defs>\n")
		buf.Write(r.defs.Bytes())
		buf.WriteString("</defs>\n")
	}
	buf.Write(r.body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// Finalize encodes the surface, converting by save-target extension, and
// writes the artifact when a save path is given. The show flag is accepted
// for interface compatibility; an SVG surface has no display of its own.
func (r *SVGRenderer) Finalize(show bool, save string, dpi float64) ([]byte, error) {
	if r.fig == nil {
		return nil, fmt.Errorf("svg: renderer not initialized")
	}
	artifact, err := ConvertFor(r.SVG(), save, dpi)
	if err != nil {
		return nil, err
	}
	if save != "" {
		if err := os.WriteFile(save, artifact, 0o644); err != nil {
			return nil, fmt.Errorf("save figure: %w", err)
		}
	}
	return artifact, nil
}

// coordinates resolves the request's coordinate source.
func coordinates(ds *dataset.Dataset, req velocity.ScatterRequest) (x, y []float64, err error) {
	switch {
	case req.X != nil && req.Y != nil:
		return req.X, req.Y, nil
	case req.Gene != "":
		x = ds.GeneColumn(req.XLayer, req.Gene)
		y = ds.GeneColumn(req.YLayer, req.Gene)
		if x == nil || y == nil {
			return nil, nil, fmt.Errorf("svg: gene %q missing in layers %q/%q", req.Gene, req.XLayer, req.YLayer)
		}
		return x, y, nil
	case req.Basis != "":
		m, ok := ds.Obsm["X_"+req.Basis]
		if !ok || m.Cols() < 2 {
			return nil, nil, fmt.Errorf("svg: embedding %q not found", req.Basis)
		}
		return m.Col(0), m.Col(1), nil
	}
	return nil, nil, fmt.Errorf("svg: scatter request has no coordinate source")
}

// pointColors resolves per-point colors and reports whether the coloring is
// continuous (and thus gets a colorbar).
func (r *SVGRenderer) pointColors(ds *dataset.Dataset, req velocity.ScatterRequest, n int) ([]string, bool) {
	colors := make([]string, n)

	if labels, ok := ds.Obs[req.Color]; ok && len(labels) == n {
		cats := ds.Categories(req.Color)
		index := make(map[string]int, len(cats))
		for i, c := range cats {
			index[c] = i
		}
		for i, label := range labels {
			colors[i] = categoricalPalette[index[label]%len(categoricalPalette)]
		}
		return colors, false
	}

	if req.Color != "" && ds.HasGene(req.Color) {
		layer := req.Layer
		if layer == "" {
			layer = dataset.LayerX
		}
		values := ds.GeneColumn(layer, req.Color)
		if values != nil {
			lo, hi := percentileClip(values, req.Perc)
			for i, v := range values {
				t := (v - lo) / (hi - lo)
				colors[i] = rampColor(req.ColorMap, t).hex()
			}
			return colors, true
		}
	}

	for i := range colors {
		colors[i] = neutralPointColor
	}
	return colors, false
}

// escape sanitizes text for SVG embedding.
func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// Ensure SVGRenderer implements the pipeline's renderer contract.
var _ velocity.Renderer = (*SVGRenderer)(nil)
