package velocity

import (
	"fmt"

	"github.com/velopane/velopane/pkg/dataset"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultVKey is the velocity layer used for ranking and layer panels.
	DefaultVKey = "velocity"

	// DefaultNCols is the number of gene columns in the grid.
	DefaultNCols = 1

	// DefaultAlpha is the point blending factor.
	DefaultAlpha = 0.5

	// DefaultLegendLoc suppresses the fit-line legend.
	DefaultLegendLoc = "none"

	// DefaultLegendFontSize is the legend font size in points.
	DefaultLegendFontSize = 8

	// DefaultDPI is the figure resolution.
	DefaultDPI = 80

	// rankTopGenes is how many candidates the ranking collaborator keeps
	// per group. Group-subset selection divides this budget among the
	// matching groups.
	rankTopGenes = 10
)

// Default percentile clip bounds for continuous coloring.
var DefaultPerc = [2]float64{2, 98}

// DefaultFigSize is the per-panel base size in layout units.
var DefaultFigSize = [2]float64{7, 5}

// LayersAll is the sentinel requesting the default layer set
// (velocity layer plus the chosen abundance layer).
const LayersAll = "all"

// FitsAll is the sentinel expanding the fit list to every layer name.
const FitsAll = "all"

// =============================================================================
// Color Maps
// =============================================================================

// ColorMap is either a single named color map or a velocity/expression pair.
// The paired form resolves per panel: the expression map applies when the
// colored quantity is the primary abundance signal, the velocity map
// otherwise.
type ColorMap struct {
	velocity   string
	expression string
	paired     bool
}

// SingleColorMap uses one map for every panel.
func SingleColorMap(name string) ColorMap {
	return ColorMap{velocity: name, expression: name}
}

// PairedColorMap uses separate maps for velocity-like and expression-like
// panels.
func PairedColorMap(velocity, expression string) ColorMap {
	return ColorMap{velocity: velocity, expression: expression, paired: true}
}

// Resolve returns the map name for a panel. expressionLike is true when the
// colored quantity is the primary abundance layer or X.
func (c ColorMap) Resolve(expressionLike bool) string {
	if expressionLike {
		return c.expression
	}
	return c.velocity
}

// IsZero reports whether no color map was configured.
func (c ColorMap) IsZero() bool {
	return c.velocity == "" && c.expression == ""
}

// =============================================================================
// Options
// =============================================================================

// Options configures one RenderPanels invocation. These are exactly the
// recognized knobs; zero values mean "use the default" and are filled in by
// ValidateAndSetDefaults.
type Options struct {
	// Gene selection: either explicit names (Gene or Genes) or a grouping
	// annotation key with an optional group subset.
	Gene    string
	Genes   []string
	GroupBy string
	Groups  []string

	// Basis is the embedding key for layer panels (e.g. "umap"). Empty
	// picks the dataset's first embedding.
	Basis string

	// VKey is the velocity layer key.
	VKey string

	// Layers lists extra layers to show as embedding panels. Empty or
	// {"all"} means {VKey, abundance layer}.
	Layers []string

	// Fits lists model names considered for steady-state overlays.
	// {"all"} expands to every layer name.
	Fits []string

	// Stochastic enables the covariability portrait.
	Stochastic bool

	// Styling.
	Color          string
	ColorMap       ColorMap
	HideColorbar   bool
	Perc           [2]float64
	Alpha          float64
	Size           float64
	LegendLoc      string
	LegendFontSize float64
	UseRaw         bool
	FontSize       float64
	FigSize        [2]float64
	DPI            float64
	NCols          int

	// Output.
	Show bool
	Save string

	// Collaborators, injected at the call boundary. Ranker is required only
	// for group selection, Moments only for stochastic mode.
	Ranker  Ranker
	Moments MomentEstimator

	validated bool
}

// DefaultOptions returns Options with every styling default resolved.
func DefaultOptions() Options {
	return Options{
		VKey:           DefaultVKey,
		Fits:           []string{"velocity", "dynamics"},
		ColorMap:       PairedColorMap("RdYlGn", "gnuplot_r"),
		Perc:           DefaultPerc,
		Alpha:          DefaultAlpha,
		LegendLoc:      DefaultLegendLoc,
		LegendFontSize: DefaultLegendFontSize,
		FigSize:        DefaultFigSize,
		DPI:            DefaultDPI,
		NCols:          DefaultNCols,
	}
}

// ValidateAndSetDefaults checks required fields and fills in defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Gene != "" {
		o.Genes = append([]string{o.Gene}, o.Genes...)
		o.Gene = ""
	}
	if o.VKey == "" {
		o.VKey = DefaultVKey
	}
	if o.Fits == nil {
		o.Fits = []string{"velocity", "dynamics"}
	}
	if o.ColorMap.IsZero() {
		o.ColorMap = PairedColorMap("RdYlGn", "gnuplot_r")
	}
	if o.Perc == [2]float64{} {
		o.Perc = DefaultPerc
	}
	if o.Alpha == 0 {
		o.Alpha = DefaultAlpha
	}
	if o.LegendLoc == "" {
		o.LegendLoc = DefaultLegendLoc
	}
	if o.LegendFontSize == 0 {
		o.LegendFontSize = DefaultLegendFontSize
	}
	if o.FigSize == [2]float64{} {
		o.FigSize = DefaultFigSize
	}
	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
	if o.NCols <= 0 {
		o.NCols = DefaultNCols
	}
	if len(o.Genes) == 0 && o.GroupBy == "" {
		return ErrNoSelection
	}
	o.validated = true
	return nil
}

// resolveBasis picks the embedding for layer panels: the configured basis if
// its Obsm key exists, otherwise the dataset's first embedding.
func (o *Options) resolveBasis(ds *dataset.Dataset) (string, error) {
	if o.Basis != "" {
		if _, ok := ds.Obsm["X_"+o.Basis]; !ok {
			return "", fmt.Errorf("basis %q not found in dataset", o.Basis)
		}
		return o.Basis, nil
	}
	for _, key := range []string{"X_umap", "X_tsne", "X_pca"} {
		if _, ok := ds.Obsm[key]; ok {
			return key[2:], nil
		}
	}
	for key := range ds.Obsm {
		if len(key) > 2 && key[:2] == "X_" {
			return key[2:], nil
		}
	}
	return "", fmt.Errorf("dataset has no embedding for layer panels")
}
