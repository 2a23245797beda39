package dataset

import "fmt"

// Matrix is a two-dimensional float matrix in either dense row-major or
// CSR (compressed sparse row) storage. Expression layers are cells x genes;
// cell graphs (e.g. neighbor connectivities) are cells x cells.
type Matrix struct {
	rows, cols int

	// Dense storage, row-major. nil when the matrix is sparse.
	dense []float64

	// CSR storage. indptr has rows+1 entries.
	data    []float64
	indices []int
	indptr  []int
}

// NewDense creates a dense matrix from row-major data.
// len(data) must equal rows*cols.
func NewDense(rows, cols int, data []float64) (*Matrix, error) {
	if len(data) != rows*cols {
		return nil, fmt.Errorf("dense matrix: have %d values, want %d (%dx%d)", len(data), rows*cols, rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, dense: data}, nil
}

// NewCSR creates a sparse matrix from CSR arrays.
func NewCSR(rows, cols int, data []float64, indices, indptr []int) (*Matrix, error) {
	if len(indptr) != rows+1 {
		return nil, fmt.Errorf("csr matrix: indptr has %d entries, want %d", len(indptr), rows+1)
	}
	if len(data) != len(indices) {
		return nil, fmt.Errorf("csr matrix: %d values but %d column indices", len(data), len(indices))
	}
	return &Matrix{rows: rows, cols: cols, data: data, indices: indices, indptr: indptr}, nil
}

// Zeros creates a dense all-zero matrix.
func Zeros(rows, cols int) *Matrix {
	return &Matrix{rows: rows, cols: cols, dense: make([]float64, rows*cols)}
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// IsSparse reports whether the matrix uses CSR storage.
func (m *Matrix) IsSparse() bool { return m.dense == nil }

// At returns the value at (i, j).
func (m *Matrix) At(i, j int) float64 {
	if m.dense != nil {
		return m.dense[i*m.cols+j]
	}
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		if m.indices[k] == j {
			return m.data[k]
		}
	}
	return 0
}

// Col returns column j as a dense vector of length Rows().
// The returned slice is always a fresh copy.
func (m *Matrix) Col(j int) []float64 {
	out := make([]float64, m.rows)
	if m.dense != nil {
		for i := 0; i < m.rows; i++ {
			out[i] = m.dense[i*m.cols+j]
		}
		return out
	}
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			if m.indices[k] == j {
				out[i] = m.data[k]
				break
			}
		}
	}
	return out
}

// Row returns row i as a dense vector of length Cols().
// The returned slice is always a fresh copy.
func (m *Matrix) Row(i int) []float64 {
	out := make([]float64, m.cols)
	if m.dense != nil {
		copy(out, m.dense[i*m.cols:(i+1)*m.cols])
		return out
	}
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		out[m.indices[k]] = m.data[k]
	}
	return out
}

// ToDense returns a dense copy of the matrix. Dense matrices are returned
// as-is; sparse matrices are expanded.
func (m *Matrix) ToDense() *Matrix {
	if m.dense != nil {
		return m
	}
	out := make([]float64, m.rows*m.cols)
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			out[i*m.cols+m.indices[k]] = m.data[k]
		}
	}
	return &Matrix{rows: m.rows, cols: m.cols, dense: out}
}

// MulVec computes the matrix-vector product m * v.
// len(v) must equal Cols().
func (m *Matrix) MulVec(v []float64) ([]float64, error) {
	if len(v) != m.cols {
		return nil, fmt.Errorf("mulvec: vector has %d entries, want %d", len(v), m.cols)
	}
	out := make([]float64, m.rows)
	if m.dense != nil {
		for i := 0; i < m.rows; i++ {
			row := m.dense[i*m.cols : (i+1)*m.cols]
			var sum float64
			for j, x := range row {
				sum += x * v[j]
			}
			out[i] = sum
		}
		return out, nil
	}
	for i := 0; i < m.rows; i++ {
		var sum float64
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			sum += m.data[k] * v[m.indices[k]]
		}
		out[i] = sum
	}
	return out, nil
}

// RowSums returns the sum of each row.
func (m *Matrix) RowSums() []float64 {
	out := make([]float64, m.rows)
	if m.dense != nil {
		for i := 0; i < m.rows; i++ {
			var sum float64
			for _, x := range m.dense[i*m.cols : (i+1)*m.cols] {
				sum += x
			}
			out[i] = sum
		}
		return out
	}
	for i := 0; i < m.rows; i++ {
		var sum float64
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			sum += m.data[k]
		}
		out[i] = sum
	}
	return out
}
