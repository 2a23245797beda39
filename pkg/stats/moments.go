package stats

import (
	"fmt"

	"github.com/velopane/velopane/pkg/dataset"
)

// connectivityKey is the Obsp entry holding the cell neighbor graph.
const connectivityKey = "connectivities"

// MomentEstimator computes second-order moments of the raw abundance layers
// by smoothing over the cell neighbor graph: with A the row-normalized
// (connectivities + I) operator,
//
//	ss = A · (s ∘ s)
//	us = A · (u ∘ s)
//
// where s and u are the raw spliced and unspliced counts of one gene.
type MomentEstimator struct{}

// NewMomentEstimator creates the default graph-smoothing moment estimator.
func NewMomentEstimator() *MomentEstimator { return &MomentEstimator{} }

// SecondOrderMoments returns the smoothed second moments of gene, one value
// per cell.
func (e *MomentEstimator) SecondOrderMoments(ds *dataset.Dataset, gene string) (ss, us []float64, err error) {
	s := ds.GeneColumn(dataset.LayerSpliced, gene)
	u := ds.GeneColumn(dataset.LayerUnspliced, gene)
	if s == nil || u == nil {
		return nil, nil, fmt.Errorf("moments: gene %q needs spliced and unspliced layers", gene)
	}

	conn, ok := ds.Obsp[connectivityKey]
	if !ok {
		return nil, nil, fmt.Errorf("moments: dataset has no %q graph", connectivityKey)
	}
	if conn.Rows() != len(s) || conn.Cols() != len(s) {
		return nil, nil, fmt.Errorf("moments: %q is %dx%d for %d cells", connectivityKey, conn.Rows(), conn.Cols(), len(s))
	}

	sq := make([]float64, len(s))
	cross := make([]float64, len(s))
	for i := range s {
		sq[i] = s[i] * s[i]
		cross[i] = u[i] * s[i]
	}

	ss, err = smooth(conn, sq)
	if err != nil {
		return nil, nil, err
	}
	us, err = smooth(conn, cross)
	if err != nil {
		return nil, nil, err
	}
	return ss, us, nil
}

// smooth applies the row-normalized (conn + I) operator to v.
func smooth(conn *dataset.Matrix, v []float64) ([]float64, error) {
	weighted, err := conn.MulVec(v)
	if err != nil {
		return nil, fmt.Errorf("moments: %w", err)
	}
	sums := conn.RowSums()
	out := make([]float64, len(v))
	for i := range out {
		// Each cell contributes itself with unit weight.
		out[i] = (weighted[i] + v[i]) / (sums[i] + 1)
	}
	return out, nil
}
