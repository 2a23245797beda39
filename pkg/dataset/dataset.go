// Package dataset defines the annotated expression matrix container used by
// the plotting pipeline.
//
// A Dataset mirrors the AnnData layout used by single-cell toolchains: a
// primary cells x genes matrix X, named layer variants of the same shape
// (spliced/unspliced counts, smoothed moments, velocities, variances),
// per-gene scalar annotations (fitted model parameters named
// "<model>_<param>"), per-cell categorical annotations with an explicit
// category order, low-dimensional embeddings, and cell x cell graph matrices
// such as neighbor connectivities.
//
// The plotting core only reads the Dataset. The single exception is the gene
// ranking cache, which the ranking collaborator writes back so repeated plot
// calls with the same grouping skip the ranking pass.
package dataset

import "sort"

// LayerX is the sentinel layer name addressing the primary matrix X.
const LayerX = "X"

// Reserved layer names with special pair semantics in the plotting core.
const (
	LayerSpliced   = "spliced"
	LayerUnspliced = "unspliced"
	LayerMs        = "Ms" // smoothed spliced (first-order moments)
	LayerMu        = "Mu" // smoothed unspliced
)

// Ranking is a cached per-group gene ranking, keyed by the grouping
// annotation that produced it.
type Ranking struct {
	GroupBy string
	Groups  []string   // group labels, in category order
	Names   [][]string // per group, genes ordered best-first
}

// Dataset is a caller-owned annotated cells x genes matrix collection.
type Dataset struct {
	CellNames []string
	GeneNames []string

	// X is the primary expression matrix, cells x genes.
	X *Matrix

	// Layers holds named matrix variants of X, all cells x genes.
	Layers map[string]*Matrix

	// Var holds per-gene scalar annotations, e.g. "velocity_gamma".
	Var map[string][]float64

	// Obs holds per-cell categorical annotations.
	Obs map[string][]string

	// ObsCategories fixes the category order of an Obs key. Keys without an
	// entry fall back to sorted unique values.
	ObsCategories map[string][]string

	// Obsm holds per-cell embeddings, e.g. "X_umap" (cells x 2).
	Obsm map[string]*Matrix

	// Obsp holds cell x cell graph matrices, e.g. "connectivities".
	Obsp map[string]*Matrix

	// Ranking is the cached gene ranking, written by the ranking
	// collaborator.
	Ranking *Ranking

	geneIndex map[string]int
}

// New creates an empty Dataset over the given cell and gene axes.
func New(cellNames, geneNames []string) *Dataset {
	d := &Dataset{
		CellNames:     cellNames,
		GeneNames:     geneNames,
		Layers:        map[string]*Matrix{},
		Var:           map[string][]float64{},
		Obs:           map[string][]string{},
		ObsCategories: map[string][]string{},
		Obsm:          map[string]*Matrix{},
		Obsp:          map[string]*Matrix{},
	}
	d.reindex()
	return d
}

// reindex rebuilds the gene name lookup.
func (d *Dataset) reindex() {
	d.geneIndex = make(map[string]int, len(d.GeneNames))
	for i, name := range d.GeneNames {
		d.geneIndex[name] = i
	}
}

// NumCells returns the number of cells.
func (d *Dataset) NumCells() int { return len(d.CellNames) }

// NumGenes returns the number of genes.
func (d *Dataset) NumGenes() int { return len(d.GeneNames) }

// GeneIndex returns the column index of a gene and whether it exists.
func (d *Dataset) GeneIndex(name string) (int, bool) {
	if d.geneIndex == nil || len(d.geneIndex) != len(d.GeneNames) {
		d.reindex()
	}
	i, ok := d.geneIndex[name]
	return i, ok
}

// HasGene reports whether a gene exists on the gene axis.
func (d *Dataset) HasGene(name string) bool {
	_, ok := d.GeneIndex(name)
	return ok
}

// HasLayer reports whether a named layer exists. The X sentinel counts as
// present when the primary matrix is set.
func (d *Dataset) HasLayer(name string) bool {
	if name == LayerX {
		return d.X != nil
	}
	_, ok := d.Layers[name]
	return ok
}

// Layer returns a named layer, resolving the X sentinel to the primary
// matrix. Returns nil when absent.
func (d *Dataset) Layer(name string) *Matrix {
	if name == LayerX {
		return d.X
	}
	return d.Layers[name]
}

// GeneColumn returns the dense per-cell values of one gene in the given
// layer, or nil when the layer or gene is absent.
func (d *Dataset) GeneColumn(layer, gene string) []float64 {
	m := d.Layer(layer)
	if m == nil {
		return nil
	}
	j, ok := d.GeneIndex(gene)
	if !ok {
		return nil
	}
	return m.Col(j)
}

// HasVar reports whether a per-gene annotation column exists.
func (d *Dataset) HasVar(key string) bool {
	_, ok := d.Var[key]
	return ok
}

// VarParam returns the per-gene scalar annotation for key, or fallback when
// the column or the gene is absent.
func (d *Dataset) VarParam(gene, key string, fallback float64) float64 {
	col, ok := d.Var[key]
	if !ok {
		return fallback
	}
	j, ok := d.GeneIndex(gene)
	if !ok || j >= len(col) {
		return fallback
	}
	return col[j]
}

// Categories returns the category labels of an Obs key in their declared
// order, falling back to sorted unique observed values.
func (d *Dataset) Categories(key string) []string {
	if cats, ok := d.ObsCategories[key]; ok {
		return cats
	}
	values, ok := d.Obs[key]
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var cats []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			cats = append(cats, v)
		}
	}
	sort.Strings(cats)
	return cats
}

// GroupCells returns the row indices of all cells whose Obs[key] equals
// group.
func (d *Dataset) GroupCells(key, group string) []int {
	var idx []int
	for i, v := range d.Obs[key] {
		if v == group {
			idx = append(idx, i)
		}
	}
	return idx
}
