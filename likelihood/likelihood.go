// SPDX-License-Identifier: MIT
package likelihood

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch indicates y, mu and v of different lengths.
	ErrDimensionMismatch = errors.New("likelihood: y, mu and v lengths differ")

	// ErrInvalidParameter indicates a non-finite or non-positive likelihood parameter.
	ErrInvalidParameter = errors.New("likelihood: parameter must be finite and > 0")

	// ErrNegativeVariance indicates a negative marginal variance passed to quadrature.
	ErrNegativeVariance = errors.New("likelihood: negative marginal variance")

	// ErrInvalidPoints indicates a quadrature rule with fewer than one node.
	ErrInvalidPoints = errors.New("likelihood: quadrature needs at least one point")

	// ErrNoDensity indicates a Quadrature without a LogDensity.
	ErrNoDensity = errors.New("likelihood: quadrature has no density")
)

// Expectations holds the per-point variational expectations E_q[log p(yᵢ|fᵢ)]
// under q(fᵢ) = N(muᵢ, vᵢ) and their derivatives.
type Expectations struct {
	F        []float64 // E_q[log p(yᵢ | fᵢ)]
	DFDMu    []float64 // ∂F/∂muᵢ
	DFDV     []float64 // ∂F/∂vᵢ
	DFDTheta []float64 // ∂ΣF/∂θ, one entry per likelihood hyperparameter
}

// Likelihood computes variational expectations for one output column.
// Implementations must be safe for concurrent use.
type Likelihood interface {
	VariationalExpectations(y, mu, v []float64) (*Expectations, error)
}

func checkLengths(y, mu, v []float64) error {
	if len(y) != len(mu) || len(y) != len(v) {
		return fmt.Errorf("len(y)=%d len(mu)=%d len(v)=%d: %w", len(y), len(mu), len(v), ErrDimensionMismatch)
	}

	return nil
}
