// Package render draws velocity figures as SVG and converts them to raster
// and print formats.
//
// # Overview
//
// [SVGRenderer] implements the plotting pipeline's renderer interface: it
// receives a panel plan plus scatter and line draw calls and assembles a
// single SVG document laid out as a grid of panels. Continuous coloring uses
// the named color ramps in this package with percentile clipping; categorical
// coloring cycles a fixed palette.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg, err := velocity.RenderPanels(ds, render.NewSVGRenderer(), opts)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
package render
