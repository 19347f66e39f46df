// Package kern provides the covariance functions consumed by the inference step.
//
// A Kernel evaluates cross-covariances K(a, b), the symmetric K(a, a) and its
// diagonal for inputs stored one point per row. Only the diagonal of the N×N data
// covariance is ever requested by inference, so Kdiag never forms the full matrix.
//
// Provided kernels:
//   - RBF: squared exponential, σ²·exp(−r²/2).
//   - Matern32: σ²·(1 + √3r)·exp(−√3r).
//   - Matern52: σ²·(1 + √5r + 5r²/3)·exp(−√5r).
//   - Sum: pointwise sum of other kernels.
//
// Here r = ‖a − b‖/ℓ. All kernels are value types and safe for concurrent use.
package kern
