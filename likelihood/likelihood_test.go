// SPDX-License-Identifier: MIT
package likelihood_test

import (
	"math"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/svgp/likelihood"
)

var (
	ys  = []float64{0.3, -1.2, 2.0, 0.0, 1.1}
	mus = []float64{0.1, -0.8, 1.5, 0.4, 1.0}
	vs  = []float64{0.2, 0.05, 1.3, 0.7, 0.0}
)

func approx(tol float64) cmp.Option {
	return cmpopts.EquateApprox(0, tol)
}

func TestGaussHermite_Moments(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 5, 20, 31} {
		nodes, weights, err := likelihood.GaussHermite(n)
		require.NoError(t, err, "n=%d", n)
		require.Len(t, nodes, n)

		assert.InDelta(t, math.SqrtPi, floats.Sum(weights), 1e-12, "Σw, n=%d", n)
		assert.True(t, sort.Float64sAreSorted(nodes), "nodes must be ascending, n=%d", n)
		for k := 0; k < n; k++ {
			assert.Equal(t, -nodes[k], nodes[n-1-k], "symmetric nodes, n=%d", n)
		}
		// ∫ t² e^{−t²} dt = √π/2 is exact for n >= 2.
		if n >= 2 {
			var m2 float64
			for k, tk := range nodes {
				m2 += weights[k] * tk * tk
			}
			assert.InDelta(t, math.SqrtPi/2, m2, 1e-12, "second moment, n=%d", n)
		}
	}

	_, _, err := likelihood.GaussHermite(0)
	assert.ErrorIs(t, err, likelihood.ErrInvalidPoints)
}

func TestGaussian_ClosedForm(t *testing.T) {
	t.Parallel()

	g := likelihood.Gaussian{Variance: 0.5}
	ex, err := g.VariationalExpectations(ys, mus, vs)
	require.NoError(t, err)

	for i := range ys {
		r := ys[i] - mus[i]
		want := -0.5*math.Log(2*math.Pi*0.5) - 0.5*(r*r+vs[i])/0.5
		assert.InDelta(t, want, ex.F[i], 1e-14)
		assert.InDelta(t, r/0.5, ex.DFDMu[i], 1e-14)
		assert.Equal(t, -1.0, ex.DFDV[i])
	}
	require.Len(t, ex.DFDTheta, 1)

	// ∂ΣF/∂σ² by central differences.
	const h = 1e-6
	up, err := likelihood.Gaussian{Variance: 0.5 + h}.VariationalExpectations(ys, mus, vs)
	require.NoError(t, err)
	down, err := likelihood.Gaussian{Variance: 0.5 - h}.VariationalExpectations(ys, mus, vs)
	require.NoError(t, err)
	fd := (floats.Sum(up.F) - floats.Sum(down.F)) / (2 * h)
	assert.InDelta(t, fd, ex.DFDTheta[0], 1e-6)
}

func TestQuadrature_MatchesGaussianClosedForm(t *testing.T) {
	t.Parallel()

	g := likelihood.Gaussian{Variance: 0.8}
	exact, err := g.VariationalExpectations(ys, mus, vs)
	require.NoError(t, err)

	q, err := likelihood.NewQuadrature(g, 0)
	require.NoError(t, err)
	assert.Equal(t, likelihood.DefaultQuadraturePoints, q.Points())
	got, err := q.VariationalExpectations(ys, mus, vs)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(exact.F, got.F, approx(1e-10)))
	assert.Empty(t, cmp.Diff(exact.DFDMu, got.DFDMu, approx(1e-10)))
	assert.Empty(t, cmp.Diff(exact.DFDV, got.DFDV, approx(1e-10)))
	assert.Empty(t, got.DFDTheta)
}

// TestQuadrature_DerivativesMatchFiniteDifferences checks ∂F/∂μ and ∂F/∂v of
// the non-conjugate densities against central differences of F.
func TestQuadrature_DerivativesMatchFiniteDifferences(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		density likelihood.LogDensity
		y       []float64
	}{
		"bernoulli": {density: likelihood.Bernoulli{}, y: []float64{1, 0, 1, 0}},
		"poisson":   {density: likelihood.Poisson{}, y: []float64{0, 3, 1, 7}},
	}
	mu := []float64{-0.4, 0.2, 1.1, 1.8}
	v := []float64{0.3, 0.9, 0.1, 0.5}
	const h = 1e-5

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			q, err := likelihood.NewQuadrature(tc.density, 40)
			require.NoError(t, err)
			ex, err := q.VariationalExpectations(tc.y, mu, v)
			require.NoError(t, err)

			for i := range mu {
				shift := func(dm, dv float64) float64 {
					m2 := append([]float64(nil), mu...)
					v2 := append([]float64(nil), v...)
					m2[i] += dm
					v2[i] += dv
					e, err := q.VariationalExpectations(tc.y, m2, v2)
					require.NoError(t, err)
					return e.F[i]
				}
				dmu := (shift(h, 0) - shift(-h, 0)) / (2 * h)
				dv := (shift(0, h) - shift(0, -h)) / (2 * h)
				assert.InDelta(t, dmu, ex.DFDMu[i], 1e-6, "dF/dmu[%d]", i)
				assert.InDelta(t, dv, ex.DFDV[i], 1e-6, "dF/dv[%d]", i)
			}
		})
	}
}

func TestBernoulli_TailIsFinite(t *testing.T) {
	t.Parallel()

	b := likelihood.Bernoulli{}
	for _, f := range []float64{-50, -31, -29, 0, 29, 50} {
		for _, y := range []float64{0, 1} {
			assert.False(t, math.IsInf(b.LogPdf(f, y), 0) || math.IsNaN(b.LogPdf(f, y)), "logp f=%v y=%v", f, y)
			assert.False(t, math.IsNaN(b.DLogPdfDf(f, y)), "dlogp f=%v y=%v", f, y)
			assert.LessOrEqual(t, b.D2LogPdfDf2(f, y), 0.0, "log-concave f=%v y=%v", f, y)
		}
	}
	// Continuity across the asymptotic cutoff.
	assert.InDelta(t, b.LogPdf(-30+1e-9, 1), b.LogPdf(-30-1e-9, 1), 1e-5)
	assert.InDelta(t, b.DLogPdfDf(-30+1e-9, 1), b.DLogPdfDf(-30-1e-9, 1), 1e-5)
}

func TestPoisson_LogPdf(t *testing.T) {
	t.Parallel()

	p := likelihood.Poisson{}
	// y = 2, λ = e⁰ = 1: log(e⁻¹/2!) = −1 − log 2.
	assert.InDelta(t, -1-math.Ln2, p.LogPdf(0, 2), 1e-15)
	assert.InDelta(t, 1.0, p.DLogPdfDf(0, 2), 1e-15)
	assert.InDelta(t, -1.0, p.D2LogPdfDf2(0, 2), 1e-15)
}

func TestLikelihood_Errors(t *testing.T) {
	t.Parallel()

	_, err := likelihood.Gaussian{Variance: 1}.VariationalExpectations(ys, mus[:2], vs)
	assert.ErrorIs(t, err, likelihood.ErrDimensionMismatch)

	_, err = likelihood.Gaussian{Variance: 0}.VariationalExpectations(ys, mus, vs)
	assert.ErrorIs(t, err, likelihood.ErrInvalidParameter)

	_, err = likelihood.NewQuadrature(nil, 10)
	assert.ErrorIs(t, err, likelihood.ErrNoDensity)

	_, err = likelihood.NewQuadrature(likelihood.Poisson{}, -1)
	assert.ErrorIs(t, err, likelihood.ErrInvalidPoints)

	q, err := likelihood.NewQuadrature(likelihood.Poisson{}, 5)
	require.NoError(t, err)
	_, err = q.VariationalExpectations([]float64{1}, []float64{0}, []float64{-0.1})
	assert.ErrorIs(t, err, likelihood.ErrNegativeVariance)
}

func TestNewQuadrature_SharesRulePerOrder(t *testing.T) {
	t.Parallel()

	a, err := likelihood.NewQuadrature(likelihood.Poisson{}, 7)
	require.NoError(t, err)
	b, err := likelihood.NewQuadrature(likelihood.Bernoulli{}, 7)
	require.NoError(t, err)
	d, err := likelihood.NewQuadrature(likelihood.Poisson{}, 0)
	require.NoError(t, err)

	assert.Equal(t, 7, a.Points())
	assert.Equal(t, 7, b.Points())
	assert.Equal(t, likelihood.DefaultQuadraturePoints, d.Points())

	y, mu, v := []float64{2}, []float64{0.3}, []float64{0.4}
	ea, err := a.VariationalExpectations(y, mu, v)
	require.NoError(t, err)
	again, err := likelihood.NewQuadrature(likelihood.Poisson{}, 7)
	require.NoError(t, err)
	eb, err := again.VariationalExpectations(y, mu, v)
	require.NoError(t, err)
	assert.Equal(t, ea, eb)
}
