package projection

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
)

// MDSConfig tunes the SMACOF solver.
type MDSConfig struct {
	NInit   int     `yaml:"n_init" json:"n_init"`     // random restarts, best stress wins
	MaxIter int     `yaml:"max_iter" json:"max_iter"` // iterations per restart
	Eps     float64 `yaml:"eps" json:"eps"`           // relative stress tolerance
}

// minDistance replaces zero embedding distances in the Guttman transform.
const minDistance = 1e-5

// MDS is metric multidimensional scaling of the dissimilarity 1 - cosine,
// solved with SMACOF from seeded random starts.
type MDS struct {
	cfg  MDSConfig
	seed int64
}

// Reduce implements Reducer.
func (r *MDS) Reduce(in Input) (*mat.Dense, error) {
	if in.Similarity == nil {
		return nil, fmt.Errorf("%w: mds needs a similarity matrix", internalerr.ErrPrecondition)
	}
	n := in.Similarity.SymmetricDim()
	if n < 2 {
		return nil, fmt.Errorf("%w: mds needs at least 2 items, got %d", internalerr.ErrInsufficientItems, n)
	}

	dissim := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dissim.SetSym(i, j, math.Max(0, 1-in.Similarity.At(i, j)))
		}
	}

	nInit := max(r.cfg.NInit, 1)
	rng := rand.New(rand.NewSource(r.seed))
	var best *mat.Dense
	bestStress := math.Inf(1)
	for k := 0; k < nInit; k++ {
		y, stress := r.smacof(dissim, rng)
		if best == nil || stress < bestStress {
			best, bestStress = y, stress
		}
	}
	center(best)
	return best, nil
}

// smacof runs one restart and returns the embedding with its raw stress.
func (r *MDS) smacof(d *mat.SymDense, rng *rand.Rand) (*mat.Dense, float64) {
	n := d.SymmetricDim()
	x := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, rng.Float64())
		x.Set(i, 1, rng.Float64())
	}

	b := mat.NewDense(n, n, nil)
	var next mat.Dense
	oldStress := math.Inf(1)
	var stress float64
	for iter := 0; iter < max(r.cfg.MaxIter, 1); iter++ {
		stress = 0
		for i := 0; i < n; i++ {
			var rowSum float64
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				dist := pointDistance(x, i, j)
				diff := dist - d.At(i, j)
				stress += diff * diff / 2
				if dist == 0 {
					dist = minDistance
				}
				ratio := d.At(i, j) / dist
				b.Set(i, j, -ratio)
				rowSum += ratio
			}
			b.Set(i, i, rowSum)
		}

		next.Mul(b, x)
		next.Scale(1/float64(n), &next)
		x.Copy(&next)

		norm := math.Sqrt(mat.Sum(mulElem(x, x)))
		if norm == 0 {
			break
		}
		if oldStress-stress/norm < r.cfg.Eps {
			break
		}
		oldStress = stress / norm
	}
	return x, stress
}

func pointDistance(x *mat.Dense, i, j int) float64 {
	dx := x.At(i, 0) - x.At(j, 0)
	dy := x.At(i, 1) - x.At(j, 1)
	return math.Hypot(dx, dy)
}

func mulElem(a, b *mat.Dense) *mat.Dense {
	var out mat.Dense
	out.MulElem(a, b)
	return &out
}
