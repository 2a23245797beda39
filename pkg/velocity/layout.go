package velocity

// PanelKind identifies what a grid panel shows.
type PanelKind int

const (
	// PanelPhase is the spliced/unspliced phase portrait.
	PanelPhase PanelKind = iota

	// PanelLayer is an embedding panel colored by one layer.
	PanelLayer

	// PanelStochastic is the covariability portrait with fit-slope lines.
	PanelStochastic

	// PanelSpare is allocated by stochastic mode but never drawn; it keeps
	// the per-gene stride constant and leaves room next to the
	// covariability portrait.
	PanelSpare
)

// Panel is one rendering slot in the output grid.
type Panel struct {
	Gene      string
	GeneIndex int

	// Offset is the panel's position within its gene's stride.
	Offset int

	Kind PanelKind

	// Layer backs PanelLayer panels.
	Layer string

	// Index is the flattened grid position; Row and Col are derived from it.
	Index    int
	Row, Col int
}

// Plan is the full ordered panel sequence plus grid geometry for one
// invocation. Panels are gene-major: gene v occupies flattened positions
// [v*PanelsPerGene, (v+1)*PanelsPerGene).
type Plan struct {
	Genes  []string
	Layers []string

	Stochastic    bool
	PanelsPerGene int
	Rows, Cols    int

	// FigWidth and FigHeight are the figure dimensions in layout units,
	// scaling linearly with the grid.
	FigWidth, FigHeight float64

	Panels []Panel
}

// PlanLayout computes the panel grid for the selected genes.
//
// Each gene gets one phase portrait, one panel per extra layer, and two
// stochastic slots when stochastic mode is on. ncols is the caller-requested
// gene column multiplier: the grid has ncols*panelsPerGene total columns and
// ceil(genes/ncols) rows.
func PlanLayout(genes, layers []string, stochastic bool, ncols int, figSize [2]float64) *Plan {
	perGene := 1 + len(layers)
	if stochastic {
		perGene += 2
	}
	if ncols <= 0 {
		ncols = 1
	}
	rows := (len(genes) + ncols - 1) / ncols
	cols := ncols * perGene

	p := &Plan{
		Genes:         genes,
		Layers:        layers,
		Stochastic:    stochastic,
		PanelsPerGene: perGene,
		Rows:          rows,
		Cols:          cols,
		FigWidth:      figSize[0] * float64(cols) / 2,
		FigHeight:     figSize[1] * float64(rows) / 2,
	}

	for v, gene := range genes {
		for off := 0; off < perGene; off++ {
			panel := Panel{
				Gene:      gene,
				GeneIndex: v,
				Offset:    off,
				Index:     v*perGene + off,
			}
			panel.Row = panel.Index / cols
			panel.Col = panel.Index % cols
			switch {
			case off == 0:
				panel.Kind = PanelPhase
			case off <= len(layers):
				panel.Kind = PanelLayer
				panel.Layer = layers[off-1]
			case off == len(layers)+1:
				panel.Kind = PanelStochastic
			default:
				panel.Kind = PanelSpare
			}
			p.Panels = append(p.Panels, panel)
		}
	}
	return p
}

// GenePanels returns the panels of gene index v in offset order.
func (p *Plan) GenePanels(v int) []Panel {
	start := v * p.PanelsPerGene
	return p.Panels[start : start+p.PanelsPerGene]
}
