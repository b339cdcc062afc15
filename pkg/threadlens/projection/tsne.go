package projection

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/threadlens/pkg/threadlens/internalerr"
	"github.com/cognicore/threadlens/pkg/threadlens/sparse"
)

// TSNEConfig tunes the exact t-SNE optimiser.
type TSNEConfig struct {
	LearningRate      float64 `yaml:"learning_rate" json:"learning_rate"` // <= 0 selects max(n/exaggeration/4, 50)
	MaxIter           int     `yaml:"max_iter" json:"max_iter"`
	EarlyExaggeration float64 `yaml:"early_exaggeration" json:"early_exaggeration"`
	ExaggerationIter  int     `yaml:"exaggeration_iter" json:"exaggeration_iter"`
	MinGradNorm       float64 `yaml:"min_grad_norm" json:"min_grad_norm"`
}

const (
	perplexitySteps = 100
	perplexityTol   = 1e-5
	minProbability  = 1e-12
	minGain         = 0.01
	initialMomentum = 0.5
	finalMomentum   = 0.8
	initScale       = 1e-4
)

// TSNE embeds item vectors with exact t-distributed stochastic neighbour
// embedding. Pairwise distances are taken on the sparse rows, but the
// optimiser itself is quadratic in the item count.
type TSNE struct {
	cfg        TSNEConfig
	seed       int64
	perplexity float64
}

// Reduce implements Reducer.
func (r *TSNE) Reduce(in Input) (*mat.Dense, error) {
	if in.Vectors == nil {
		return nil, fmt.Errorf("%w: tsne needs item vectors", internalerr.ErrPrecondition)
	}
	n, dim := in.Vectors.Dims()
	if n < 2 {
		return nil, fmt.Errorf("%w: tsne needs at least 2 items, got %d", internalerr.ErrInsufficientItems, n)
	}
	if dim == 0 {
		return nil, fmt.Errorf("%w: tsne needs vectors with at least one dimension", internalerr.ErrPrecondition)
	}

	perplexity := clamp(r.perplexity, 1, float64(n-1))
	p := jointProbabilities(squaredDistances(in.Vectors), perplexity)
	y := r.optimize(p, n)
	center(y)
	return y, nil
}

// squaredDistances returns |a|^2 + |b|^2 - 2a.b for every pair of rows.
func squaredDistances(x *sparse.CSR) [][]float64 {
	n, _ := x.Dims()
	sq := make([]float64, n)
	for i := range sq {
		sq[i] = x.RowDot(i, i)
	}
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := math.Max(sq[i]+sq[j]-2*x.RowDot(i, j), 0)
			d[i][j], d[j][i] = v, v
		}
	}
	return d
}

// jointProbabilities calibrates a Gaussian kernel per point to the target
// perplexity and returns the symmetrised joint distribution.
func jointProbabilities(dist [][]float64, perplexity float64) [][]float64 {
	n := len(dist)
	target := math.Log(perplexity)
	cond := make([][]float64, n)
	for i := 0; i < n; i++ {
		cond[i] = conditionalRow(dist[i], i, target)
	}

	p := make([][]float64, n)
	for i := range p {
		p[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := math.Max((cond[i][j]+cond[j][i])/(2*float64(n)), minProbability)
			p[i][j], p[j][i] = v, v
		}
	}
	return p
}

// conditionalRow binary-searches the precision beta so that the entropy of
// row i matches target (natural log of the perplexity).
func conditionalRow(dist []float64, i int, target float64) []float64 {
	row := make([]float64, len(dist))
	beta, lo, hi := 1.0, math.Inf(-1), math.Inf(1)
	for step := 0; step < perplexitySteps; step++ {
		var sum float64
		for j, d := range dist {
			if j == i {
				row[j] = 0
				continue
			}
			row[j] = math.Exp(-d * beta)
			sum += row[j]
		}
		if sum == 0 {
			sum = minProbability
		}
		var weighted float64
		for j := range row {
			row[j] /= sum
			weighted += dist[j] * row[j]
		}
		entropy := math.Log(sum) + beta*weighted

		diff := entropy - target
		if math.Abs(diff) <= perplexityTol {
			break
		}
		if diff > 0 {
			lo = beta
			if math.IsInf(hi, 1) {
				beta *= 2
			} else {
				beta = (beta + hi) / 2
			}
		} else {
			hi = beta
			if math.IsInf(lo, -1) {
				beta /= 2
			} else {
				beta = (beta + lo) / 2
			}
		}
	}
	return row
}

// optimize runs gradient descent with momentum and adaptive gains.
func (r *TSNE) optimize(p [][]float64, n int) *mat.Dense {
	rng := rand.New(rand.NewSource(r.seed))
	// row i of the layout is yd[2i], yd[2i+1]
	yd := make([]float64, 2*n)
	for k := range yd {
		yd[k] = rng.NormFloat64() * initScale
	}

	exaggeration := r.cfg.EarlyExaggeration
	if exaggeration < 1 {
		exaggeration = 1
	}
	lr := r.cfg.LearningRate
	if lr <= 0 {
		lr = math.Max(float64(n)/exaggeration/4, 50)
	}

	grad := make([]float64, 2*n)
	update := make([]float64, 2*n)
	gains := make([]float64, 2*n)
	for k := range gains {
		gains[k] = 1
	}
	num := make([][]float64, n)
	for i := range num {
		num[i] = make([]float64, n)
	}

	for iter := 0; iter < r.cfg.MaxIter; iter++ {
		momentum, scale := finalMomentum, 1.0
		if iter < r.cfg.ExaggerationIter {
			momentum, scale = initialMomentum, exaggeration
		}

		var sumQ float64
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx := yd[2*i] - yd[2*j]
				dy := yd[2*i+1] - yd[2*j+1]
				q := 1 / (1 + dx*dx + dy*dy)
				num[i][j], num[j][i] = q, q
				sumQ += 2 * q
			}
		}
		if sumQ == 0 {
			sumQ = minProbability
		}

		for i := 0; i < n; i++ {
			var gx, gy float64
			xi, yi := yd[2*i], yd[2*i+1]
			pi, ni := p[i], num[i]
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				q := math.Max(ni[j]/sumQ, minProbability)
				mult := (scale*pi[j] - q) * ni[j]
				gx += mult * (xi - yd[2*j])
				gy += mult * (yi - yd[2*j+1])
			}
			grad[2*i], grad[2*i+1] = 4*gx, 4*gy
		}

		for k := range grad {
			if update[k]*grad[k] < 0 {
				gains[k] += 0.2
			} else {
				gains[k] *= 0.8
			}
			gains[k] = math.Max(gains[k], minGain)
			update[k] = momentum*update[k] - lr*gains[k]*grad[k]
		}
		floats.Add(yd, update)

		if floats.Norm(grad, 2) < r.cfg.MinGradNorm {
			break
		}
	}
	return mat.NewDense(n, 2, yd)
}
