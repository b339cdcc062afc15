// Package sparse implements the compressed sparse row matrix used for
// document-by-term weights. It satisfies gonum's mat.Matrix so small
// matrices can be handed to dense routines without an intermediate copy.
package sparse

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CSR is an immutable compressed sparse row matrix. Column indices within a
// row are strictly increasing and explicit zeros are never stored.
type CSR struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float64
}

var _ mat.Matrix = (*CSR)(nil)

// Dims returns the number of rows and columns.
func (m *CSR) Dims() (r, c int) { return m.rows, m.cols }

// NNZ returns the number of stored (non-zero) cells.
func (m *CSR) NNZ() int { return len(m.data) }

// At returns the value at row i, column j.
func (m *CSR) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(mat.ErrIndexOutOfRange)
	}
	lo, hi := m.indptr[i], m.indptr[i+1]
	k := lo + sort.SearchInts(m.indices[lo:hi], j)
	if k < hi && m.indices[k] == j {
		return m.data[k]
	}
	return 0
}

// T returns the transpose as a mat.Matrix.
func (m *CSR) T() mat.Matrix { return m.Transpose() }

// DoRowNonZero calls fn for every stored cell of row i in column order.
func (m *CSR) DoRowNonZero(i int, fn func(j int, v float64)) {
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		fn(m.indices[k], m.data[k])
	}
}

// RowNNZ returns the number of stored cells in row i.
func (m *CSR) RowNNZ(i int) int { return m.indptr[i+1] - m.indptr[i] }

// Transpose returns a new CSR holding the transpose of m.
func (m *CSR) Transpose() *CSR {
	counts := make([]int, m.cols+1)
	for _, j := range m.indices {
		counts[j+1]++
	}
	for j := 0; j < m.cols; j++ {
		counts[j+1] += counts[j]
	}
	indptr := make([]int, m.cols+1)
	copy(indptr, counts)

	indices := make([]int, len(m.indices))
	data := make([]float64, len(m.data))
	next := counts[:m.cols]
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			j := m.indices[k]
			dst := next[j]
			indices[dst] = i
			data[dst] = m.data[k]
			next[j]++
		}
	}
	return &CSR{rows: m.cols, cols: m.rows, indptr: indptr, indices: indices, data: data}
}

// ColMeans returns the mean of every column over all rows.
func (m *CSR) ColMeans() []float64 {
	means := make([]float64, m.cols)
	if m.rows == 0 {
		return means
	}
	for k, j := range m.indices {
		means[j] += m.data[k]
	}
	for j := range means {
		means[j] /= float64(m.rows)
	}
	return means
}

// RowMeans returns the mean of every row over all columns.
func (m *CSR) RowMeans() []float64 {
	means := make([]float64, m.rows)
	if m.cols == 0 {
		return means
	}
	for i := 0; i < m.rows; i++ {
		var sum float64
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			sum += m.data[k]
		}
		means[i] = sum / float64(m.cols)
	}
	return means
}

// RowNorm returns the Euclidean norm of row i.
func (m *CSR) RowNorm(i int) float64 {
	var ss float64
	for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
		ss += m.data[k] * m.data[k]
	}
	return math.Sqrt(ss)
}

// RowDot returns the dot product of rows a and b.
func (m *CSR) RowDot(a, b int) float64 {
	ka, ea := m.indptr[a], m.indptr[a+1]
	kb, eb := m.indptr[b], m.indptr[b+1]
	var dot float64
	for ka < ea && kb < eb {
		switch ja, jb := m.indices[ka], m.indices[kb]; {
		case ja == jb:
			dot += m.data[ka] * m.data[kb]
			ka++
			kb++
		case ja < jb:
			ka++
		default:
			kb++
		}
	}
	return dot
}

// SelectRows returns a new matrix made of the given rows in the given order.
func (m *CSR) SelectRows(rows []int) (*CSR, error) {
	b := NewBuilder(m.cols)
	for _, i := range rows {
		if i < 0 || i >= m.rows {
			return nil, fmt.Errorf("sparse: row %d out of range [0,%d)", i, m.rows)
		}
		b.indices = append(b.indices, m.indices[m.indptr[i]:m.indptr[i+1]]...)
		b.data = append(b.data, m.data[m.indptr[i]:m.indptr[i+1]]...)
		b.indptr = append(b.indptr, len(b.data))
	}
	return b.Build(), nil
}

// Dense copies m into a gonum dense matrix. Only meant for small matrices
// handed to algorithms that need random access.
func (m *CSR) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	d := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for k := m.indptr[i]; k < m.indptr[i+1]; k++ {
			d.Set(i, m.indices[k], m.data[k])
		}
	}
	return d
}

// Builder assembles a CSR matrix row by row.
type Builder struct {
	cols    int
	indptr  []int
	indices []int
	data    []float64
}

// NewBuilder creates a builder for a matrix with cols columns.
func NewBuilder(cols int) *Builder {
	return &Builder{cols: cols, indptr: []int{0}}
}

// AddRow appends a row given as column -> value. Zero values are skipped.
func (b *Builder) AddRow(row map[int]float64) error {
	cols := make([]int, 0, len(row))
	for j, v := range row {
		if j < 0 || j >= b.cols {
			return fmt.Errorf("sparse: column %d out of range [0,%d)", j, b.cols)
		}
		if v != 0 {
			cols = append(cols, j)
		}
	}
	sort.Ints(cols)
	for _, j := range cols {
		b.indices = append(b.indices, j)
		b.data = append(b.data, row[j])
	}
	b.indptr = append(b.indptr, len(b.data))
	return nil
}

// Build returns the assembled matrix. The builder must not be reused.
func (b *Builder) Build() *CSR {
	return &CSR{
		rows:    len(b.indptr) - 1,
		cols:    b.cols,
		indptr:  b.indptr,
		indices: b.indices,
		data:    b.data,
	}
}
