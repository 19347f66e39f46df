// SPDX-License-Identifier: MIT
package kern

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrDimensionMismatch indicates input sets with different numbers of columns.
	ErrDimensionMismatch = errors.New("kern: input dimension mismatch")

	// ErrNilInput indicates a nil or empty input matrix.
	ErrNilInput = errors.New("kern: nil input")

	// ErrInvalidParameter indicates a non-finite or non-positive hyperparameter.
	ErrInvalidParameter = errors.New("kern: hyperparameter must be finite and > 0")

	// ErrNoParts indicates a Sum without component kernels.
	ErrNoParts = errors.New("kern: sum has no parts")
)

// Kernel is a positive-definite covariance function over points stored as the
// rows of a matrix. Implementations must be safe for concurrent use.
type Kernel interface {
	// K returns the cross-covariance matrix with K[i,j] = k(a_i, b_j).
	K(a, b mat.Matrix) (*mat.Dense, error)

	// KSym returns K(a, a) as a symmetric matrix.
	KSym(a mat.Matrix) (*mat.SymDense, error)

	// Kdiag returns the diagonal of K(a, a) without forming the full matrix.
	Kdiag(a mat.Matrix) ([]float64, error)
}

// Stationary holds the hyperparameters shared by the isotropic stationary kernels.
type Stationary struct {
	Variance    float64 // signal variance σ², k(x, x) = σ²
	Lengthscale float64 // isotropic lengthscale ℓ
}

// Validate reports ErrInvalidParameter for non-finite or non-positive values.
func (s Stationary) Validate() error {
	if !positive(s.Variance) {
		return fmt.Errorf("variance %v: %w", s.Variance, ErrInvalidParameter)
	}
	if !positive(s.Lengthscale) {
		return fmt.Errorf("lengthscale %v: %w", s.Lengthscale, ErrInvalidParameter)
	}

	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// profile maps a scaled distance r = ‖a−b‖/ℓ to the correlation k(r)/σ².
type profile func(r float64) float64

// cross evaluates σ²·f(‖aᵢ−bⱼ‖/ℓ) for every pair of rows.
func (s Stationary) cross(a, b mat.Matrix, f profile) (*mat.Dense, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := checkInputs(a, b); err != nil {
		return nil, err
	}
	n, _ := a.Dims()
	m, _ := b.Dims()
	out := mat.NewDense(n, m, nil)
	var i, j int
	for i = 0; i < n; i++ {
		for j = 0; j < m; j++ {
			out.Set(i, j, s.Variance*f(scaledDist(a, i, b, j, s.Lengthscale)))
		}
	}

	return out, nil
}

// sym fills the upper triangle once and sets the diagonal to σ² exactly.
func (s Stationary) sym(a mat.Matrix, f profile) (*mat.SymDense, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := checkInputs(a, a); err != nil {
		return nil, err
	}
	n, _ := a.Dims()
	out := mat.NewSymDense(n, nil)
	var i, j int
	for i = 0; i < n; i++ {
		out.SetSym(i, i, s.Variance)
		for j = i + 1; j < n; j++ {
			out.SetSym(i, j, s.Variance*f(scaledDist(a, i, a, j, s.Lengthscale)))
		}
	}

	return out, nil
}

func (s Stationary) diag(a mat.Matrix) ([]float64, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := checkInputs(a, a); err != nil {
		return nil, err
	}
	n, _ := a.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = s.Variance
	}

	return out, nil
}

// scaledDist returns ‖aᵢ − bⱼ‖ / ℓ.
func scaledDist(a mat.Matrix, i int, b mat.Matrix, j int, lengthscale float64) float64 {
	_, d := a.Dims()
	var sum, diff float64
	for k := 0; k < d; k++ {
		diff = a.At(i, k) - b.At(j, k)
		sum += diff * diff
	}

	return math.Sqrt(sum) / lengthscale
}

// checkInputs rejects nil or empty inputs and mismatched column counts.
func checkInputs(a, b mat.Matrix) error {
	if isEmpty(a) || isEmpty(b) {
		return ErrNilInput
	}
	_, da := a.Dims()
	_, db := b.Dims()
	if da != db {
		return fmt.Errorf("%d vs %d columns: %w", da, db, ErrDimensionMismatch)
	}

	return nil
}

func isEmpty(m mat.Matrix) bool {
	if m == nil {
		return true
	}
	if d, ok := m.(*mat.Dense); ok && (d == nil || d.IsEmpty()) {
		return true
	}

	return false
}
