package projection

import (
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/threadlens/pkg/threadlens/sparse"
)

// Cosine returns the pairwise cosine similarity of the rows of m. The
// diagonal is 1 for every row, including rows with no stored cells; other
// pairs involving an all-zero row are 0.
func Cosine(m *sparse.CSR) *mat.SymDense {
	n, _ := m.Dims()
	norms := make([]float64, n)
	for i := range norms {
		norms[i] = m.RowNorm(i)
	}

	sim := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sim.SetSym(i, i, 1)
		if norms[i] == 0 {
			continue
		}
		for j := i + 1; j < n; j++ {
			if norms[j] == 0 {
				continue
			}
			s := m.RowDot(i, j) / (norms[i] * norms[j])
			sim.SetSym(i, j, clamp(s, -1, 1))
		}
	}
	return sim
}

// submatrix returns sim restricted to idx, in idx order.
func submatrix(sim *mat.SymDense, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for a, i := range idx {
		out[a] = make([]float64, len(idx))
		for b, j := range idx {
			out[a][b] = sim.At(i, j)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
