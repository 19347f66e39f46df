// SPDX-License-Identifier: MIT
package kern

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	sqrt3 = math.Sqrt(3)
	sqrt5 = math.Sqrt(5)
)

// RBF is the squared-exponential kernel k(a, b) = σ²·exp(−‖a−b‖²/(2ℓ²)).
//
// RBF{Variance: 1, Lengthscale: 1/√2} gives k(a, b) = exp(−‖a−b‖²).
type RBF Stationary

var _ Kernel = RBF{}

func rbfProfile(r float64) float64 { return math.Exp(-0.5 * r * r) }

// K implements Kernel.
func (k RBF) K(a, b mat.Matrix) (*mat.Dense, error) {
	return Stationary(k).cross(a, b, rbfProfile)
}

// KSym implements Kernel.
func (k RBF) KSym(a mat.Matrix) (*mat.SymDense, error) {
	return Stationary(k).sym(a, rbfProfile)
}

// Kdiag implements Kernel.
func (k RBF) Kdiag(a mat.Matrix) ([]float64, error) {
	return Stationary(k).diag(a)
}

// Matern32 is k(r) = σ²·(1 + √3·r)·exp(−√3·r) with r = ‖a−b‖/ℓ.
type Matern32 Stationary

var _ Kernel = Matern32{}

func matern32Profile(r float64) float64 {
	return (1 + sqrt3*r) * math.Exp(-sqrt3*r)
}

// K implements Kernel.
func (k Matern32) K(a, b mat.Matrix) (*mat.Dense, error) {
	return Stationary(k).cross(a, b, matern32Profile)
}

// KSym implements Kernel.
func (k Matern32) KSym(a mat.Matrix) (*mat.SymDense, error) {
	return Stationary(k).sym(a, matern32Profile)
}

// Kdiag implements Kernel.
func (k Matern32) Kdiag(a mat.Matrix) ([]float64, error) {
	return Stationary(k).diag(a)
}

// Matern52 is k(r) = σ²·(1 + √5·r + 5r²/3)·exp(−√5·r) with r = ‖a−b‖/ℓ.
type Matern52 Stationary

var _ Kernel = Matern52{}

func matern52Profile(r float64) float64 {
	return (1 + sqrt5*r + 5*r*r/3) * math.Exp(-sqrt5*r)
}

// K implements Kernel.
func (k Matern52) K(a, b mat.Matrix) (*mat.Dense, error) {
	return Stationary(k).cross(a, b, matern52Profile)
}

// KSym implements Kernel.
func (k Matern52) KSym(a mat.Matrix) (*mat.SymDense, error) {
	return Stationary(k).sym(a, matern52Profile)
}

// Kdiag implements Kernel.
func (k Matern52) Kdiag(a mat.Matrix) ([]float64, error) {
	return Stationary(k).diag(a)
}
