// Package linalg offers positive-definite matrix helpers built on gonum.
//
// The linalg package provides:
//
//   - Jitchol: lower Cholesky factor with escalating diagonal jitter.
//   - Pdinv: inverse, factor, factor inverse and log-determinant in one call.
//   - CholeskyInverse: (L·Lᵀ)⁻¹ straight from L (dpotri), never forming L·Lᵀ.
//   - TriangularInverse: L⁻¹ (dtrtri).
//   - Small dense kernels (Symmetrize, RowSumProduct, SumProduct, ScaleColumns,
//     Outer) with a fixed accumulation order.
//
// Errors are package sentinels (ErrNotPositiveDefinite, ErrSingular, ...)
// wrapped with an operation tag; match them with errors.Is.
//
// Jitter behaviour is configured with functional options:
//
//	inv, err := linalg.Pdinv(kmm,
//		linalg.WithMaxTries(3),
//		linalg.WithLogger(logger))
//
// Nothing in this package keeps state between calls.
package linalg
