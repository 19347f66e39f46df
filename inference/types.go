// SPDX-License-Identifier: MIT
package inference

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// Variational is the packed variational distribution q(u) = N(Mean, L·Lᵀ) over
// the M inducing values.
type Variational struct {
	Mean []float64 // m, length M
	Chol []float64 // L packed row-major over the lower triangle, length M(M+1)/2
}

// Covariances are the kernel matrices consumed by one step. The full N×N data
// covariance is never needed; only its diagonal.
type Covariances struct {
	Kmm     *mat.SymDense // K(Z, Z), M×M
	Knm     *mat.Dense    // K(X, Z), N×M
	KnnDiag []float64     // diag K(X, X), length N
}

// Gradients of the ELBO with respect to every input of the step.
type Gradients struct {
	DLDKmm    *mat.Dense // M×M, symmetric
	DLDKmn    *mat.Dense // M×N
	DLDKdiag  []float64  // length N, equals ∂F/∂v
	DLDm      []float64  // length M
	DLDChol   []float64  // length M(M+1)/2, same packing as Variational.Chol
	DLDThetaL []float64  // one entry per likelihood hyperparameter
}

// Result is the output of one inference step.
type Result struct {
	Posterior      *Posterior
	LogMarginal    float64 // ELBO = ExpectedLogLik − KL
	KL             float64 // KL(q(u) ‖ p(u))
	ExpectedLogLik float64 // Σᵢ E_q[log p(yᵢ | fᵢ)]
	Gradients      *Gradients
}

// Stats summarizes one call for an Observer.
type Stats struct {
	Duration    time.Duration
	NumData     int
	NumInducing int
	LogMarginal float64
	KL          float64
	Jitter      float64 // jitter added to Kmm by Pdinv, 0 when none
	Err         error
}

// Observer receives Stats after every call of Run or Inference, successful or not.
type Observer interface {
	ObserveInference(Stats)
}
