package velocity

import "github.com/velopane/velopane/pkg/dataset"

// =============================================================================
// Collaborator Interfaces
// =============================================================================

// Ranker produces per-group ordered gene rankings. Implementations write the
// result back to the Dataset's ranking cache; the pipeline only recomputes
// when the cached grouping key differs from the requested one.
type Ranker interface {
	// Rank scores all genes per group of the groupBy annotation using the
	// vkey layer and returns the top nGenes per group, best first.
	Rank(ds *dataset.Dataset, vkey, groupBy string, nGenes int) (*dataset.Ranking, error)
}

// MomentEstimator computes per-gene second-order moment vectors, one value
// per cell, for the covariability portrait in stochastic mode.
type MomentEstimator interface {
	// SecondOrderMoments returns the smoothed second moments of the
	// spliced signal (ss) and the spliced/unspliced cross term (us).
	SecondOrderMoments(ds *dataset.Dataset, gene string) (ss, us []float64, err error)
}

// ScatterRequest describes one colored scatter draw into a grid panel.
// Exactly one coordinate source is used, checked in this order: explicit
// X/Y override, gene phase portrait (XLayer/YLayer columns of Gene), or the
// Basis embedding.
type ScatterRequest struct {
	// Panel is the flattened grid position the draw targets.
	Panel int

	// Basis selects an embedding (Obsm key "X_<basis>") as coordinates.
	Basis string

	// Gene with XLayer/YLayer selects a phase portrait: YLayer values
	// against XLayer values of that gene.
	Gene           string
	XLayer, YLayer string

	// X, Y override the coordinates with synthetic values.
	X, Y []float64

	// Color is an Obs key (categorical coloring), a gene name (continuous
	// coloring by Layer), or empty for the neutral point color.
	Color string

	// Layer backs the color values when Color names a gene.
	Layer string

	ColorMap string
	Perc     [2]float64 // percentile clip bounds for continuous coloring

	Title          string
	XLabel, YLabel string

	FontSize       float64
	LegendFontSize float64
	Size           float64
	Alpha          float64

	Frame    bool
	Colorbar bool

	// LegendLoc places the fit-line legend; "none" suppresses it.
	LegendLoc string

	// Fits lists model names whose steady-state lines the renderer overlays
	// on a phase portrait, using the per-gene parameters
	// "<fit>_gamma"/"<fit>_beta"/"<fit>_offset".
	Fits []string
}

// LineStyle configures an overlay line draw.
type LineStyle struct {
	Dashed bool
	Color  string
	Width  float64
}

// FigureSpec fixes the pixel geometry of the rendering surface.
type FigureSpec struct {
	// Width and Height are the figure size in layout units (the per-panel
	// base size already multiplied by the grid dimensions).
	Width, Height float64

	// DPI scales layout units to pixels.
	DPI float64
}

// Renderer is the external scatter/line collaborator. All draws target one
// shared surface addressed by flattened panel position; draws must be issued
// in plan order.
type Renderer interface {
	// Init allocates the grid surface for the given plan.
	Init(plan *Plan, fig FigureSpec) error

	// Scatter draws one colored scatter into its target panel.
	Scatter(ds *dataset.Dataset, req ScatterRequest) error

	// Line draws an overlay line into a panel previously drawn by Scatter.
	Line(panel int, x, y []float64, style LineStyle) error

	// Finalize displays and/or encodes the surface. When save is non-empty
	// the artifact is written there; the encoded bytes are returned either
	// way so callers can cache them.
	Finalize(show bool, save string, dpi float64) ([]byte, error)
}
