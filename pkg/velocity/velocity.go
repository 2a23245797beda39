package velocity

import (
	"errors"
	"time"

	"github.com/velopane/velopane/pkg/dataset"
	"github.com/velopane/velopane/pkg/observability"
)

// RenderPanels is the public entry point of the plotting pipeline: it
// selects genes, resolves layers and fits, plans the panel grid, and issues
// all scatter and line draws against the renderer in gene-major panel order.
//
// The returned bytes are the finalized artifact (nil when the renderer only
// displays). No drawing happens before selection and layout succeed.
func RenderPanels(ds *dataset.Dataset, r Renderer, opts Options) ([]byte, error) {
	if r == nil {
		return nil, errors.New("no renderer configured")
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	genes, err := SelectGenes(ds, &opts)
	if err != nil {
		return nil, err
	}
	observability.Pipeline().OnSelectComplete(opts.GroupBy, len(genes))

	res := ResolveLayers(ds, &opts)

	var basis string
	if len(res.Layers) > 0 {
		if basis, err = opts.resolveBasis(ds); err != nil {
			return nil, err
		}
	}

	plan := PlanLayout(genes, res.Layers, opts.Stochastic, opts.NCols, opts.FigSize)
	observability.Pipeline().OnLayoutComplete(plan.Rows, plan.Cols, len(plan.Panels))

	if err := r.Init(plan, FigureSpec{Width: plan.FigWidth, Height: plan.FigHeight, DPI: opts.DPI}); err != nil {
		return nil, err
	}

	start := time.Now()
	for v, gene := range genes {
		if err := renderGene(ds, r, &opts, res, plan, basis, v, gene); err != nil {
			observability.Pipeline().OnRenderComplete(time.Since(start), err)
			return nil, err
		}
	}

	artifact, err := r.Finalize(opts.Show, opts.Save, opts.DPI)
	observability.Pipeline().OnRenderComplete(time.Since(start), err)
	return artifact, err
}

// renderGene draws all panels of one gene: the phase portrait, the embedding
// panels, and in stochastic mode the covariability portrait.
func renderGene(ds *dataset.Dataset, r Renderer, opts *Options, res Resolved, plan *Plan, basis string, v int, gene string) error {
	base := v * plan.PanelsPerGene

	// Fit-line legend only on the last gene.
	legend := DefaultLegendLoc
	if v == len(plan.Genes)-1 {
		legend = opts.LegendLoc
	}

	err := r.Scatter(ds, ScatterRequest{
		Panel:          base,
		Gene:           gene,
		XLayer:         res.SKey,
		YLayer:         res.UKey,
		Color:          opts.Color,
		ColorMap:       opts.ColorMap.Resolve(expressionLike(opts.Color, res.SKey)),
		Perc:           opts.Perc,
		Title:          gene,
		XLabel:         "spliced",
		YLabel:         "unspliced",
		FontSize:       opts.FontSize,
		LegendFontSize: opts.LegendFontSize,
		Size:           opts.Size,
		Alpha:          opts.Alpha,
		Frame:          true,
		Colorbar:       !opts.HideColorbar,
		LegendLoc:      legend,
		Fits:           res.Fits,
	})
	if err != nil {
		return err
	}

	for l, layer := range res.Layers {
		title := layer
		if expressionLike(layer, res.SKey) {
			title = "expression"
		}
		err := r.Scatter(ds, ScatterRequest{
			Panel:    base + 1 + l,
			Basis:    basis,
			Color:    gene,
			Layer:    layer,
			ColorMap: opts.ColorMap.Resolve(expressionLike(layer, res.SKey)),
			Perc:     opts.Perc,
			Title:    title,
			FontSize: opts.FontSize,
			Size:     opts.Size,
			Alpha:    opts.Alpha,
			Frame:    false,
			Colorbar: !opts.HideColorbar,
		})
		if err != nil {
			return err
		}
	}

	if opts.Stochastic {
		return renderStochastic(ds, r, opts, res, gene, base+len(res.Layers)+1)
	}
	return nil
}

// expressionLike reports whether a color key or layer denotes the primary
// abundance signal; the paired color map's expression map applies then.
func expressionLike(key, skey string) bool {
	return key == dataset.LayerX || key == skey
}
