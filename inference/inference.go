// SPDX-License-Identifier: MIT
package inference

import (
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/choleskies"
	"github.com/katalvlaran/svgp/kern"
	"github.com/katalvlaran/svgp/likelihood"
	"github.com/katalvlaran/svgp/linalg"
)

// step holds every intermediate of one call.
type step struct {
	mean []float64
	q    *expansion
	p    *propagation
	kl   *klTerm
	ex   *likelihood.Expectations
	out  *assembly
}

// Inference runs one SVGP step from raw inputs: it evaluates Kmm = K(Z, Z),
// Knm = K(X, Z) and diag K(X, X) with k, then proceeds as Run.
//
// Errors:
//   - ErrMultiOutput if y has more than one column (checked first).
//   - ErrNilInput, ErrDimensionMismatch for malformed inputs.
//   - ErrUnstableCholesky if the packed factor cannot be inverted.
//   - kernel, Pdinv and likelihood errors, wrapped once with the stage name.
func Inference(
	mean, chol []float64,
	k kern.Kernel,
	x, z mat.Matrix,
	lik likelihood.Likelihood,
	y mat.Matrix,
	opts ...Option,
) (*Result, error) {
	o := gatherOptions(opts...)
	start := time.Now()

	n := numRows(y)
	covs := func() (*Covariances, error) {
		if k == nil || isNil(x) || isNil(z) {
			return nil, ErrNilInput
		}
		kmm, err := k.KSym(z)
		if err != nil {
			return nil, stageErrorf(stageKernel, err)
		}
		knm, err := k.K(x, z)
		if err != nil {
			return nil, stageErrorf(stageKernel, err)
		}
		kdiag, err := k.Kdiag(x)
		if err != nil {
			return nil, stageErrorf(stageKernel, err)
		}

		return &Covariances{Kmm: kmm, Knm: knm, KnnDiag: kdiag}, nil
	}

	st, err := run(Variational{Mean: mean, Chol: chol}, covs, y, lik, o)

	return finish(st, err, o, n, start)
}

// Run executes one SVGP step on precomputed covariances. It is stateless and
// safe to call concurrently; cov, y and the slices in q are only read.
//
// Errors: as Inference, minus kernel errors.
func Run(q Variational, cov *Covariances, y mat.Matrix, lik likelihood.Likelihood, opts ...Option) (*Result, error) {
	o := gatherOptions(opts...)
	start := time.Now()

	n := numRows(y)
	covs := func() (*Covariances, error) {
		if cov == nil || cov.Kmm == nil || cov.Knm == nil {
			return nil, ErrNilInput
		}

		return cov, nil
	}

	st, err := run(q, covs, y, lik, o)

	return finish(st, err, o, n, start)
}

// run validates the preconditions and executes the four stages in order.
func run(q Variational, covs func() (*Covariances, error), y mat.Matrix, lik likelihood.Likelihood, o options) (*step, error) {
	if isNil(y) || lik == nil {
		return nil, ErrNilInput
	}
	if _, c := y.Dims(); c != 1 {
		return nil, ErrMultiOutput
	}

	m, err := choleskies.NumInducing(len(q.Chol))
	if err != nil {
		return nil, stageErrorf(stageExpand, mismatch("chol length %d", len(q.Chol)))
	}
	if len(q.Mean) != m {
		return nil, mismatch("len(mean)=%d, M=%d", len(q.Mean), m)
	}

	qe, err := expand(q.Chol)
	if err != nil {
		return nil, err
	}

	cov, err := covs()
	if err != nil {
		return nil, err
	}
	if err = checkCovariances(cov, m, y); err != nil {
		return nil, err
	}

	p, err := propagate(qe, q.Mean, cov, o.pdinvOptions())
	if err != nil {
		return nil, err
	}

	kl, err := klDivergence(qe, q.Mean, p)
	if err != nil {
		return nil, err
	}

	ex, err := lik.VariationalExpectations(mat.Col(nil, 0, y), p.mu, p.v)
	if err != nil {
		return nil, stageErrorf(stageAssemble, err)
	}
	if len(ex.F) != len(p.mu) || len(ex.DFDMu) != len(p.mu) || len(ex.DFDV) != len(p.mu) {
		return nil, stageErrorf(stageAssemble, mismatch("likelihood returned %d values for %d points", len(ex.F), len(p.mu)))
	}

	out, err := assemble(qe, p, kl, ex)
	if err != nil {
		return nil, err
	}

	return &step{mean: q.Mean, q: qe, p: p, kl: kl, ex: ex, out: out}, nil
}

func isNil(m mat.Matrix) bool {
	return linalg.ValidateNotNil(m) != nil
}

func numRows(m mat.Matrix) int {
	if isNil(m) {
		return 0
	}
	r, _ := m.Dims()

	return r
}

func checkCovariances(cov *Covariances, m int, y mat.Matrix) error {
	if cov.Kmm.SymmetricDim() != m {
		return mismatch("Kmm is %d×%d, M=%d", cov.Kmm.SymmetricDim(), cov.Kmm.SymmetricDim(), m)
	}
	n, c := cov.Knm.Dims()
	if c != m {
		return mismatch("Knm has %d columns, M=%d", c, m)
	}
	if len(cov.KnnDiag) != n {
		return mismatch("len(KnnDiag)=%d, N=%d", len(cov.KnnDiag), n)
	}
	if r, _ := y.Dims(); r != n {
		return mismatch("Y has %d rows, N=%d", r, n)
	}

	return nil
}

// finish builds the Result, logs the call and notifies the observer.
func finish(st *step, err error, o options, n int, start time.Time) (*Result, error) {
	stats := Stats{Duration: time.Since(start), NumData: n, Err: err}
	var res *Result
	if err == nil {
		m := len(st.kl.kmmim)
		stats.NumInducing = m
		stats.LogMarginal = st.out.logMarginal
		stats.KL = st.kl.value
		stats.Jitter = st.p.jitter

		res = &Result{
			Posterior:      newPosterior(st),
			LogMarginal:    st.out.logMarginal,
			KL:             st.kl.value,
			ExpectedLogLik: st.out.sumF,
			Gradients:      st.out.grads,
		}
		o.logger.V(1).Info("inference step",
			"numData", n, "numInducing", m,
			"logMarginal", res.LogMarginal, "kl", res.KL,
			"duration", stats.Duration)
	} else {
		o.logger.V(1).Info("inference step failed", "numData", n, "error", err.Error())
	}
	if o.observer != nil {
		o.observer.ObserveInference(stats)
	}

	return res, err
}
