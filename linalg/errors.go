// SPDX-License-Identifier: MIT
// Package linalg: sentinel error set.
// All functions in this package return these sentinels, either plain or wrapped
// once with an operation tag (see linalgErrorf). Callers match with errors.Is.
// Panics are reserved for nonsensical option values (programmer error).

package linalg

import (
	"errors"
	"fmt"
)

var (
	// ErrNilMatrix indicates that a nil matrix (or vector) argument was used.
	ErrNilMatrix = errors.New("linalg: nil matrix")

	// ErrNonSquare signals that a square matrix was required but the input wasn't.
	ErrNonSquare = errors.New("linalg: matrix is not square")

	// ErrDimensionMismatch indicates incompatible dimensions between operands.
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")

	// ErrNotPositiveDefinite is returned by Jitchol/Pdinv when no Cholesky factor
	// exists, either because the diagonal is not strictly positive or because
	// every jitter attempt failed.
	ErrNotPositiveDefinite = errors.New("linalg: matrix is not positive definite")

	// ErrSingular is returned when a triangular factor has a zero pivot, so its
	// inverse (and the inverse of L·Lᵀ) does not exist.
	ErrSingular = errors.New("linalg: singular triangular factor")

	// ErrNaNInf signals a NaN or ±Inf value where finite values are required.
	ErrNaNInf = errors.New("linalg: NaN or Inf encountered")
)

// Operation tags for error wrapping.
const (
	opJitchol          = "Jitchol"
	opPdinv            = "Pdinv"
	opCholeskyInverse  = "CholeskyInverse"
	opTriangularInv    = "TriangularInverse"
	opSymmetrize       = "Symmetrize"
	opRowSumProduct    = "RowSumProduct"
	opSumProduct       = "SumProduct"
	opScaleColumns     = "ScaleColumns"
	opValidateSquare   = "ValidateSquare"
	opValidateFinite   = "ValidateFinite"
	opValidateVecLen   = "ValidateVecLen"
	opValidateSameDims = "ValidateSameShape"
)

// linalgErrorf wraps err with an operation tag, preserving the sentinel via %w.
// Use only when err != nil.
func linalgErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
