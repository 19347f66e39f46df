// SPDX-License-Identifier: MIT
package inference

import (
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/likelihood"
)

// ExpectedLogLikGradKmm exposes ∂F/∂Kmm before the KL gradient is subtracted.
func ExpectedLogLikGradKmm(q Variational, cov *Covariances, y mat.Matrix, lik likelihood.Likelihood) (*mat.Dense, error) {
	st, err := run(q, func() (*Covariances, error) { return cov, nil }, y, lik, gatherOptions())
	if err != nil {
		return nil, err
	}

	return st.out.dFdKmm, nil
}

// MarginalVariances exposes the propagated variances v.
func MarginalVariances(q Variational, cov *Covariances, y mat.Matrix, lik likelihood.Likelihood) ([]float64, error) {
	st, err := run(q, func() (*Covariances, error) { return cov, nil }, y, lik, gatherOptions())
	if err != nil {
		return nil, err
	}

	return st.p.v, nil
}
