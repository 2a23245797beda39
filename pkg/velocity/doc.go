// Package velocity implements the multi-panel phase-portrait plotting core
// for RNA velocity analysis.
//
// For a chosen set of genes the pipeline renders, per gene, a phase portrait
// (one abundance layer scattered against another with fitted steady-state
// lines) followed by one embedding panel per requested layer colored by that
// gene's values, and, in stochastic mode, a covariability portrait comparing
// the slopes of all stochastic-capable model fits.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Select: resolve the ordered, deduplicated gene set, either from an
//     explicit list or from a per-group ranking collaborator
//  2. Resolve: decide the phase-portrait layer pair, the extra layers to
//     show, and the model fits to overlay
//  3. Plan: compute panels per gene and the resulting grid geometry
//  4. Render: issue scatter and line draws against a Renderer, strictly in
//     gene-major panel order
//
// Ranking, moment estimation, and the actual scatter drawing are external
// collaborators (see [Ranker], [MomentEstimator], [Renderer]); this package
// owns only the selection policy, the layout arithmetic, the coordinate
// transforms, and the fallback parameter policy.
//
// # Usage
//
//	opts := velocity.DefaultOptions()
//	opts.Genes = []string{"Actb", "Gapdh"}
//	opts.Stochastic = true
//	opts.Moments = stats.NewMomentEstimator()
//
//	r := render.NewSVGRenderer()
//	artifact, err := velocity.RenderPanels(ds, r, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("velocity.svg", artifact, 0o644)
package velocity
