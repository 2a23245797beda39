// Package stats provides the default ranking and moment-estimation
// collaborators for the plotting pipeline.
package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/velopane/velopane/pkg/dataset"
)

// scoreEps stabilizes the signal-to-noise score for near-constant genes.
const scoreEps = 1e-10

// Ranker ranks genes per cell group by the coherence of their velocity
// signal: within each group a gene scores mean/(std+eps) of its velocity
// values, and the top-N genes per group are kept, best first.
type Ranker struct{}

// NewRanker creates the default velocity-gene ranker.
func NewRanker() *Ranker { return &Ranker{} }

// Rank computes per-group gene rankings over the vkey layer and writes the
// result to the dataset's ranking cache.
func (r *Ranker) Rank(ds *dataset.Dataset, vkey, groupBy string, nGenes int) (*dataset.Ranking, error) {
	layer := ds.Layer(vkey)
	if layer == nil {
		return nil, fmt.Errorf("rank genes: layer %q not found", vkey)
	}
	labels, ok := ds.Obs[groupBy]
	if !ok {
		return nil, fmt.Errorf("rank genes: grouping %q not found", groupBy)
	}
	if len(labels) != layer.Rows() {
		return nil, fmt.Errorf("rank genes: %d group labels for %d cells", len(labels), layer.Rows())
	}

	groups := ds.Categories(groupBy)
	ranking := &dataset.Ranking{GroupBy: groupBy, Groups: groups}

	for _, group := range groups {
		cells := ds.GroupCells(groupBy, group)
		scores := make([]float64, ds.NumGenes())
		for j := range scores {
			scores[j] = snr(layer, cells, j)
		}
		order := argsortDesc(scores)
		n := nGenes
		if n > len(order) {
			n = len(order)
		}
		names := make([]string, n)
		for i := 0; i < n; i++ {
			names[i] = ds.GeneNames[order[i]]
		}
		ranking.Names = append(ranking.Names, names)
	}

	ds.Ranking = ranking
	return ranking, nil
}

// snr computes mean/(std+eps) of column j over the given rows.
func snr(m *dataset.Matrix, rows []int, j int) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum float64
	for _, i := range rows {
		sum += m.At(i, j)
	}
	mean := sum / float64(len(rows))

	var varsum float64
	for _, i := range rows {
		d := m.At(i, j) - mean
		varsum += d * d
	}
	std := math.Sqrt(varsum / float64(len(rows)))
	return mean / (std + scoreEps)
}

// argsortDesc returns indices ordering v from highest to lowest. Ties break
// by index so rankings are deterministic.
func argsortDesc(v []float64) []int {
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return v[idx[a]] > v[idx[b]]
	})
	return idx
}
