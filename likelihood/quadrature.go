// SPDX-License-Identifier: MIT
package likelihood

import (
	"errors"
	"fmt"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/mat"
)

// DefaultQuadraturePoints is the Gauss–Hermite order NewQuadrature uses for points == 0.
const DefaultQuadraturePoints = 20

// ruleCacheSize bounds the number of distinct orders kept by NewQuadrature.
const ruleCacheSize = 16

// rule is a Gauss–Hermite rule shared read-only between Quadrature values.
type rule struct {
	nodes, weights []float64
}

var rules, _ = lru.New[int, rule](ruleCacheSize)

// errEigen is returned when the Jacobi matrix eigendecomposition does not converge.
var errEigen = errors.New("likelihood: Gauss-Hermite eigendecomposition failed")

// LogDensity is a pointwise log-likelihood log p(y|f) with its first two
// derivatives in the latent value f.
type LogDensity interface {
	LogPdf(f, y float64) float64
	DLogPdfDf(f, y float64) float64
	D2LogPdfDf2(f, y float64) float64
}

// GaussHermite returns the n nodes tₖ (ascending) and weights wₖ of the
// physicists' Gauss–Hermite rule, ∫ e^{−t²} g(t) dt ≈ Σ wₖ·g(tₖ).
//
// Implementation (Golub–Welsch):
//   - Stage 1: build the symmetric tridiagonal Jacobi matrix with zero diagonal
//     and off-diagonal √(k/2), k = 1..n−1.
//   - Stage 2: nodes are its eigenvalues; wₖ = √π·v₀ₖ² where v₀ₖ is the first
//     component of the k-th normalized eigenvector.
//
// Errors: ErrInvalidPoints for n < 1.
// Complexity: Time O(n³), Space O(n²).
func GaussHermite(n int) (nodes, weights []float64, err error) {
	if n < 1 {
		return nil, nil, ErrInvalidPoints
	}
	jacobi := mat.NewSymDense(n, nil)
	for k := 1; k < n; k++ {
		jacobi.SetSym(k-1, k, math.Sqrt(float64(k)/2))
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(jacobi, true); !ok {
		return nil, nil, errEigen
	}
	nodes = eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	weights = make([]float64, n)
	for k := range weights {
		v0 := vecs.At(0, k)
		weights[k] = math.SqrtPi * v0 * v0
	}
	// The rule is symmetric; remove rounding so that tₖ = −t_{n−1−k} and
	// wₖ = w_{n−1−k} hold exactly. Values are ascending.
	for k := 0; k < n/2; k++ {
		t := 0.5 * (nodes[n-1-k] - nodes[k])
		nodes[k], nodes[n-1-k] = -t, t
		w := 0.5 * (weights[k] + weights[n-1-k])
		weights[k], weights[n-1-k] = w, w
	}
	if n%2 == 1 {
		nodes[n/2] = 0
	}

	return nodes, weights, nil
}

// Quadrature approximates variational expectations of an arbitrary LogDensity
// with Gauss–Hermite quadrature:
//
//	fₖ     = √(2v)·tₖ + μ
//	F      = Σ wₖ·log p(y|fₖ) / √π
//	∂F/∂μ  = Σ wₖ·∂log p/∂f / √π
//	∂F/∂v  = Σ wₖ·∂²log p/∂f² / (2√π)
//
// The density carries no hyperparameters, so DFDTheta is empty.
type Quadrature struct {
	Density LogDensity
	nodes   []float64
	weights []float64
}

var _ Likelihood = (*Quadrature)(nil)

// NewQuadrature precomputes a rule of the given order; points == 0 selects
// DefaultQuadraturePoints. Rules are cached per order. The returned value is
// read-only and safe for concurrent use.
//
// Errors: ErrNoDensity, ErrInvalidPoints.
func NewQuadrature(density LogDensity, points int) (*Quadrature, error) {
	if density == nil {
		return nil, ErrNoDensity
	}
	if points == 0 {
		points = DefaultQuadraturePoints
	}
	r, ok := rules.Get(points)
	if !ok {
		nodes, weights, err := GaussHermite(points)
		if err != nil {
			return nil, fmt.Errorf("NewQuadrature(%d): %w", points, err)
		}
		r = rule{nodes: nodes, weights: weights}
		rules.Add(points, r)
	}

	return &Quadrature{Density: density, nodes: r.nodes, weights: r.weights}, nil
}

// Points returns the number of quadrature nodes.
func (q *Quadrature) Points() int { return len(q.nodes) }

// VariationalExpectations implements Likelihood.
//
// Errors: ErrNoDensity, ErrDimensionMismatch, ErrNegativeVariance.
// Complexity: Time O(N·points).
func (q *Quadrature) VariationalExpectations(y, mu, v []float64) (*Expectations, error) {
	if q == nil || q.Density == nil {
		return nil, ErrNoDensity
	}
	if err := checkLengths(y, mu, v); err != nil {
		return nil, err
	}
	n := len(y)
	out := &Expectations{
		F:        make([]float64, n),
		DFDMu:    make([]float64, n),
		DFDV:     make([]float64, n),
		DFDTheta: []float64{},
	}
	var f, sd, sumF, sumD1, sumD2 float64
	for i := 0; i < n; i++ {
		if v[i] < 0 {
			return nil, fmt.Errorf("v[%d]=%v: %w", i, v[i], ErrNegativeVariance)
		}
		sd = math.Sqrt(2 * v[i])
		sumF, sumD1, sumD2 = 0, 0, 0
		for k, t := range q.nodes {
			f = sd*t + mu[i]
			sumF += q.weights[k] * q.Density.LogPdf(f, y[i])
			sumD1 += q.weights[k] * q.Density.DLogPdfDf(f, y[i])
			sumD2 += q.weights[k] * q.Density.D2LogPdfDf2(f, y[i])
		}
		out.F[i] = sumF / math.SqrtPi
		out.DFDMu[i] = sumD1 / math.SqrtPi
		out.DFDV[i] = sumD2 / math.SqrtPi / 2
	}

	return out, nil
}
