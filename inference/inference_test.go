// SPDX-License-Identifier: MIT
package inference_test

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/choleskies"
	"github.com/katalvlaran/svgp/inference"
	"github.com/katalvlaran/svgp/kern"
	"github.com/katalvlaran/svgp/likelihood"
	"github.com/katalvlaran/svgp/linalg"
)

// unitRBF is k(a, b) = exp(−‖a−b‖²).
var unitRBF = kern.RBF{Variance: 1, Lengthscale: 1 / math.Sqrt2}

type problem struct {
	x, z, y *mat.Dense
	k       kern.Kernel
	lik     likelihood.Likelihood
}

// smallProblem has N = 5 one-dimensional points and M = 2 inducing inputs.
func smallProblem() problem {
	return problem{
		x:   mat.NewDense(5, 1, []float64{-1, -0.4, 0.1, 0.7, 1.3}),
		z:   mat.NewDense(2, 1, []float64{-0.5, 0.6}),
		y:   mat.NewDense(5, 1, []float64{0.2, -0.1, 0.5, 0.9, 0.3}),
		k:   unitRBF,
		lik: likelihood.Gaussian{Variance: 0.1},
	}
}

// priorChol returns the packed Cholesky factor of K(z, z), so that S = Kmm.
func priorChol(t *testing.T, k kern.Kernel, z mat.Matrix) []float64 {
	t.Helper()

	kmm, err := k.KSym(z)
	require.NoError(t, err)
	l, _, err := linalg.Jitchol(kmm)
	require.NoError(t, err)
	flat, err := choleskies.TriangToFlat(l)
	require.NoError(t, err)

	return flat
}

func covariances(t *testing.T, p problem) *inference.Covariances {
	t.Helper()

	kmm, err := p.k.KSym(p.z)
	require.NoError(t, err)
	knm, err := p.k.K(p.x, p.z)
	require.NoError(t, err)
	kdiag, err := p.k.Kdiag(p.x)
	require.NoError(t, err)

	return &inference.Covariances{Kmm: kmm, Knm: knm, KnnDiag: kdiag}
}

// TestInference_PriorMatchingPosterior runs the M = 2, N = 5 case with m = 0 and
// S = Kmm: the KL vanishes, every marginal is N(0, 1) and the ELBO is ΣF.
func TestInference_PriorMatchingPosterior(t *testing.T) {
	t.Parallel()

	p := smallProblem()
	chol := priorChol(t, p.k, p.z)
	res, err := inference.Inference([]float64{0, 0}, chol, p.k, p.x, p.z, p.lik, p.y)
	require.NoError(t, err)

	assert.InDelta(t, 0, res.KL, 1e-12)
	assert.Equal(t, res.ExpectedLogLik-res.KL, res.LogMarginal)
	assert.InDelta(t, res.ExpectedLogLik, res.LogMarginal, 1e-12)

	const noise = 0.1
	var want float64
	for i := 0; i < 5; i++ {
		y := p.y.At(i, 0)
		want += -0.5*math.Log(2*math.Pi*noise) - 0.5*(y*y+1)/noise
	}
	assert.InDelta(t, want, res.ExpectedLogLik, 1e-10)

	v, err := inference.MarginalVariances(inference.Variational{Mean: []float64{0, 0}, Chol: chol}, covariances(t, p), p.y, p.lik)
	require.NoError(t, err)
	for i, vi := range v {
		assert.InDelta(t, 1, vi, 1e-12, "v[%d]", i)
	}

	g := res.Gradients
	rk, ck := g.DLDKmm.Dims()
	assert.Equal(t, [2]int{2, 2}, [2]int{rk, ck})
	rk, ck = g.DLDKmn.Dims()
	assert.Equal(t, [2]int{2, 5}, [2]int{rk, ck})
	assert.Len(t, g.DLDKdiag, 5)
	assert.Len(t, g.DLDm, 2)
	assert.Len(t, g.DLDChol, 3)
	assert.Len(t, g.DLDThetaL, 1)
	for _, d := range g.DLDKdiag {
		assert.InDelta(t, -0.5/noise, d, 1e-12)
	}

	assert.Equal(t, []float64{0, 0}, res.Posterior.Mean)
	kmm, err := p.k.KSym(p.z)
	require.NoError(t, err)
	assert.True(t, mat.Equal(kmm, res.Posterior.PriorCov))
	assert.True(t, mat.EqualApprox(kmm, res.Posterior.Cov, 1e-14))
}

func TestKL_NonNegative(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(3))
	p := smallProblem()
	p.z = mat.NewDense(3, 1, []float64{-0.9, 0.0, 1.1})
	for trial := 0; trial < 20; trial++ {
		mean := []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		chol := make([]float64, 6)
		for i := range chol {
			chol[i] = 0.5 * rng.NormFloat64()
		}
		// Diagonal entries at positions 0, 2, 5.
		chol[0], chol[2], chol[5] = 0.1+rng.Float64(), 0.1+rng.Float64(), 0.1+rng.Float64()

		res, err := inference.Inference(mean, chol, p.k, p.x, p.z, p.lik, p.y)
		require.NoError(t, err, "trial %d", trial)
		assert.GreaterOrEqual(t, res.KL, -1e-12, "trial %d", trial)
	}
}

// TestKL_SingleInducingPoint checks M = 1 against the univariate Normal KL
// ½(log(k/s) + s/k + m²/k − 1).
func TestKL_SingleInducingPoint(t *testing.T) {
	t.Parallel()

	const (
		kmm  = 2.0
		mean = 0.7
		l    = 0.6
	)
	cov := &inference.Covariances{
		Kmm:     mat.NewSymDense(1, []float64{kmm}),
		Knm:     mat.NewDense(2, 1, []float64{0.5, 1}),
		KnnDiag: []float64{3, 3},
	}
	y := mat.NewDense(2, 1, []float64{0.1, -0.2})
	res, err := inference.Run(inference.Variational{Mean: []float64{mean}, Chol: []float64{l}}, cov, y, likelihood.Gaussian{Variance: 1})
	require.NoError(t, err)

	s := l * l
	want := 0.5 * (math.Log(kmm/s) + s/kmm + mean*mean/kmm - 1)
	assert.InDelta(t, want, res.KL, 1e-14)
}

func TestRun_ZeroDiagonalCholIsUnstable(t *testing.T) {
	t.Parallel()

	p := smallProblem()
	_, err := inference.Inference([]float64{0, 0}, []float64{0, 0.3, 1}, p.k, p.x, p.z, p.lik, p.y)
	require.Error(t, err)
	assert.ErrorIs(t, err, inference.ErrUnstableCholesky)
	assert.NotErrorIs(t, err, inference.ErrMultiOutput)
}

// TestRun_MultiOutputFailsFirst passes otherwise broken inputs (nil covariances,
// singular factor) to show the output-count check runs before anything else.
func TestRun_MultiOutputFailsFirst(t *testing.T) {
	t.Parallel()

	y := mat.NewDense(5, 2, nil)
	_, err := inference.Run(inference.Variational{Mean: []float64{0, 0}, Chol: []float64{0, 0, 0}}, nil, y, likelihood.Gaussian{Variance: 1})
	assert.ErrorIs(t, err, inference.ErrMultiOutput)
	assert.NotErrorIs(t, err, inference.ErrUnstableCholesky)

	p := smallProblem()
	_, err = inference.Inference([]float64{0, 0}, priorChol(t, p.k, p.z), p.k, p.x, p.z, p.lik, y)
	assert.ErrorIs(t, err, inference.ErrMultiOutput)
}

func TestRun_InputErrors(t *testing.T) {
	t.Parallel()

	p := smallProblem()
	chol := priorChol(t, p.k, p.z)
	cov := covariances(t, p)

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"bad chol length", func() error {
			_, err := inference.Run(inference.Variational{Mean: []float64{0, 0}, Chol: []float64{1, 0}}, cov, p.y, p.lik)
			return err
		}, inference.ErrDimensionMismatch},
		{"mean length", func() error {
			_, err := inference.Run(inference.Variational{Mean: []float64{0}, Chol: chol}, cov, p.y, p.lik)
			return err
		}, inference.ErrDimensionMismatch},
		{"y rows", func() error {
			_, err := inference.Run(inference.Variational{Mean: []float64{0, 0}, Chol: chol}, cov, mat.NewDense(4, 1, nil), p.lik)
			return err
		}, inference.ErrDimensionMismatch},
		{"nil covariances", func() error {
			_, err := inference.Run(inference.Variational{Mean: []float64{0, 0}, Chol: chol}, nil, p.y, p.lik)
			return err
		}, inference.ErrNilInput},
		{"nil likelihood", func() error {
			_, err := inference.Run(inference.Variational{Mean: []float64{0, 0}, Chol: chol}, cov, p.y, nil)
			return err
		}, inference.ErrNilInput},
		{"kernel dimension", func() error {
			_, err := inference.Inference([]float64{0, 0}, chol, p.k, mat.NewDense(5, 2, nil), p.z, p.lik, p.y)
			return err
		}, kern.ErrDimensionMismatch},
		{"prior not positive definite", func() error {
			bad := &inference.Covariances{
				Kmm:     mat.NewSymDense(2, []float64{1, 2, 2, 1}),
				Knm:     cov.Knm,
				KnnDiag: cov.KnnDiag,
			}
			_, err := inference.Run(inference.Variational{Mean: []float64{0, 0}, Chol: chol}, bad, p.y, p.lik)
			return err
		}, linalg.ErrNotPositiveDefinite},
	}
	for _, tc := range cases {
		err := tc.run()
		assert.ErrorIs(t, err, tc.want, tc.name)
	}
}

func TestExpectedLogLikGradKmm_ExactlySymmetric(t *testing.T) {
	t.Parallel()

	p := smallProblem()
	p.z = mat.NewDense(3, 1, []float64{-0.8, 0.05, 0.9})
	q := inference.Variational{
		Mean: []float64{0.3, -0.2, 0.8},
		Chol: []float64{0.9, 0.2, 0.7, -0.1, 0.3, 0.5},
	}
	for _, lik := range []likelihood.Likelihood{likelihood.Gaussian{Variance: 0.2}, mustQuadrature(t, likelihood.Poisson{})} {
		g, err := inference.ExpectedLogLikGradKmm(q, covariances(t, p), absTargets(p.y), lik)
		require.NoError(t, err)
		assert.True(t, linalg.IsSymmetric(g))
	}
}

func mustQuadrature(t *testing.T, d likelihood.LogDensity) likelihood.Likelihood {
	t.Helper()

	q, err := likelihood.NewQuadrature(d, 0)
	require.NoError(t, err)

	return q
}

// absTargets rounds |y|·5 to counts so the same inputs serve the Poisson density.
func absTargets(y *mat.Dense) *mat.Dense {
	r, _ := y.Dims()
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, math.Round(5*math.Abs(y.At(i, 0))))
	}

	return out
}

// TestGradients_VariationalParameters compares ∂L/∂m, ∂L/∂L and ∂L/∂σ² with
// central differences of the ELBO.
func TestGradients_VariationalParameters(t *testing.T) {
	t.Parallel()

	p := smallProblem()
	mean := []float64{0.4, -0.3}
	chol := []float64{0.8, 0.25, 0.6}
	res, err := inference.Inference(mean, chol, p.k, p.x, p.z, p.lik, p.y)
	require.NoError(t, err)

	const h = 1e-6
	elbo := func(m, c []float64, noise float64) float64 {
		r, err := inference.Inference(m, c, p.k, p.x, p.z, likelihood.Gaussian{Variance: noise}, p.y)
		require.NoError(t, err)
		return r.LogMarginal
	}
	central := func(x []float64, i int, f func([]float64) float64) float64 {
		up := append([]float64(nil), x...)
		down := append([]float64(nil), x...)
		up[i] += h
		down[i] -= h
		return (f(up) - f(down)) / (2 * h)
	}

	for i := range mean {
		fd := central(mean, i, func(m []float64) float64 { return elbo(m, chol, 0.1) })
		assert.InDelta(t, fd, res.Gradients.DLDm[i], 1e-5*math.Max(1, math.Abs(fd)), "dL/dm[%d]", i)
	}
	for i := range chol {
		fd := central(chol, i, func(c []float64) float64 { return elbo(mean, c, 0.1) })
		assert.InDelta(t, fd, res.Gradients.DLDChol[i], 1e-5*math.Max(1, math.Abs(fd)), "dL/dchol[%d]", i)
	}
	fd := (elbo(mean, chol, 0.1+h) - elbo(mean, chol, 0.1-h)) / (2 * h)
	assert.InDelta(t, fd, res.Gradients.DLDThetaL[0], 1e-5*math.Max(1, math.Abs(fd)))
}

func TestRun_QuadratureLikelihoodHasNoThetaGradient(t *testing.T) {
	t.Parallel()

	p := smallProblem()
	labels := mat.NewDense(5, 1, []float64{0, 0, 1, 1, 0})
	res, err := inference.Inference([]float64{0.1, 0.2}, priorChol(t, p.k, p.z), p.k, p.x, p.z, mustQuadrature(t, likelihood.Bernoulli{}), labels)
	require.NoError(t, err)
	assert.Empty(t, res.Gradients.DLDThetaL)
	assert.False(t, math.IsNaN(res.LogMarginal))
}

func TestPosterior_PredictAtInducingInputs(t *testing.T) {
	t.Parallel()

	p := smallProblem()
	mean := []float64{0.4, -0.3}
	chol := []float64{0.5, 0.1, 0.3}
	res, err := inference.Inference(mean, chol, p.k, p.x, p.z, p.lik, p.y)
	require.NoError(t, err)

	mu, v, err := res.Posterior.Predict(p.k, p.z, p.z)
	require.NoError(t, err)
	for i := range mean {
		assert.InDelta(t, mean[i], mu[i], 1e-12, "mean[%d]", i)
		assert.InDelta(t, res.Posterior.Cov.At(i, i), v[i], 1e-12, "var[%d]", i)
	}

	// A hand-built posterior without the cached inverse predicts the same.
	manual := &inference.Posterior{Mean: mean, Cov: res.Posterior.Cov, PriorCov: res.Posterior.PriorCov}
	xnew := mat.NewDense(3, 1, []float64{-2, 0, 2})
	mu1, v1, err := res.Posterior.Predict(p.k, p.z, xnew)
	require.NoError(t, err)
	mu2, v2, err := manual.Predict(p.k, p.z, xnew)
	require.NoError(t, err)
	assert.InDeltaSlice(t, mu1, mu2, 1e-12)
	assert.InDeltaSlice(t, v1, v2, 1e-12)

	_, _, err = res.Posterior.Predict(p.k, mat.NewDense(3, 1, nil), xnew)
	assert.ErrorIs(t, err, inference.ErrDimensionMismatch)
}

type recordingObserver struct {
	mu    sync.Mutex
	stats []inference.Stats
}

func (r *recordingObserver) ObserveInference(s inference.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats = append(r.stats, s)
}

func TestRun_ObserverAndLogger(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		lines []string
	)
	logger := funcr.New(func(prefix, args string) {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, args)
	}, funcr.Options{Verbosity: 1})

	obs := &recordingObserver{}
	p := smallProblem()
	chol := priorChol(t, p.k, p.z)
	_, err := inference.Inference([]float64{0, 0}, chol, p.k, p.x, p.z, p.lik, p.y,
		inference.WithLogger(logger), inference.WithObserver(obs))
	require.NoError(t, err)
	_, err = inference.Inference([]float64{0, 0}, []float64{0, 0, 0}, p.k, p.x, p.z, p.lik, p.y,
		inference.WithLogger(logger), inference.WithObserver(obs))
	require.ErrorIs(t, err, inference.ErrUnstableCholesky)

	require.Len(t, obs.stats, 2)
	assert.NoError(t, obs.stats[0].Err)
	assert.Equal(t, 5, obs.stats[0].NumData)
	assert.Equal(t, 2, obs.stats[0].NumInducing)
	assert.True(t, errors.Is(obs.stats[1].Err, inference.ErrUnstableCholesky))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lines, 2)
	assert.True(t, strings.Contains(lines[0], `"msg"="inference step"`), lines[0])
	assert.True(t, strings.Contains(lines[1], "inference step failed"), lines[1])
}

func TestRun_JitterIsReported(t *testing.T) {
	t.Parallel()

	// Two identical inducing inputs make Kmm singular.
	p := smallProblem()
	p.z = mat.NewDense(2, 1, []float64{0.3, 0.3})
	obs := &recordingObserver{}
	_, err := inference.Inference([]float64{0, 0}, choleskies.IdentityFlat(2), p.k, p.x, p.z, p.lik, p.y,
		inference.WithObserver(obs))
	require.NoError(t, err)
	require.Len(t, obs.stats, 1)
	assert.Greater(t, obs.stats[0].Jitter, 0.0)

	_, err = inference.Inference([]float64{0, 0}, choleskies.IdentityFlat(2), p.k, p.x, p.z, p.lik, p.y,
		inference.WithPdinvOptions(linalg.WithMaxTries(0)))
	assert.ErrorIs(t, err, linalg.ErrNotPositiveDefinite)
}

// TestRun_Reentrant runs the same step from many goroutines; results must be identical.
func TestRun_Reentrant(t *testing.T) {
	t.Parallel()

	p := smallProblem()
	cov := covariances(t, p)
	q := inference.Variational{Mean: []float64{0.2, -0.1}, Chol: []float64{0.7, 0.1, 0.4}}
	ref, err := inference.Run(q, cov, p.y, p.lik)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*inference.Result, 16)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = inference.Run(q, cov, p.y, p.lik)
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, ref.LogMarginal, r.LogMarginal)
		assert.Equal(t, ref.Gradients.DLDChol, r.Gradients.DLDChol)
		assert.True(t, mat.Equal(ref.Gradients.DLDKmn, r.Gradients.DLDKmn))
	}
}
