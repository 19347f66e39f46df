// SPDX-License-Identifier: MIT
// Package: linalg
//
// Purpose:
//   - Provide a single source of truth for shape and finiteness checks.
//   - Return sentinel errors wrapped with the validator tag so call sites can
//     wrap again uniformly and callers still match with errors.Is.
//
// Determinism & Performance:
//   - All checks are pure and allocate nothing.
//   - Finiteness checks scan in fixed row→column order.

package linalg

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// isNil reports whether m is a nil interface or a typed nil of a gonum concrete type.
func isNil(m mat.Matrix) bool {
	switch t := m.(type) {
	case nil:
		return true
	case *mat.Dense:
		return t == nil
	case *mat.SymDense:
		return t == nil
	case *mat.TriDense:
		return t == nil
	case *mat.DiagDense:
		return t == nil
	case *mat.VecDense:
		return t == nil
	}

	return false
}

// ValidateNotNil ensures the matrix reference is non-nil.
// Complexity: O(1).
func ValidateNotNil(m mat.Matrix) error {
	if isNil(m) {
		return linalgErrorf("ValidateNotNil", ErrNilMatrix)
	}

	return nil
}

// ValidateSquare checks that m is non-nil and square.
//
// Errors: ErrNilMatrix, ErrNonSquare.
// Complexity: O(1).
func ValidateSquare(m mat.Matrix) error {
	if isNil(m) {
		return linalgErrorf(opValidateSquare, ErrNilMatrix)
	}
	r, c := m.Dims()
	if r != c {
		return linalgErrorf(opValidateSquare, ErrNonSquare)
	}

	return nil
}

// ValidateSameShape ensures a and b are non-nil with equal dimensions.
// Complexity: O(1).
func ValidateSameShape(a, b mat.Matrix) error {
	if isNil(a) || isNil(b) {
		return linalgErrorf(opValidateSameDims, ErrNilMatrix)
	}
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return linalgErrorf(opValidateSameDims, ErrDimensionMismatch)
	}

	return nil
}

// ValidateVecLen ensures x is non-nil with exactly n entries.
// Complexity: O(1).
func ValidateVecLen(x []float64, n int) error {
	if x == nil {
		return linalgErrorf(opValidateVecLen, ErrNilMatrix)
	}
	if len(x) != n {
		return linalgErrorf(opValidateVecLen, ErrDimensionMismatch)
	}

	return nil
}

// ValidateFinite returns ErrNaNInf if any entry of m is NaN or ±Inf.
// Complexity: O(r·c).
func ValidateFinite(m mat.Matrix) error {
	if isNil(m) {
		return linalgErrorf(opValidateFinite, ErrNilMatrix)
	}
	if !AllFinite(m) {
		return linalgErrorf(opValidateFinite, ErrNaNInf)
	}

	return nil
}

// AllFinite reports whether every entry of m is finite.
// For *mat.Dense the backing rows are scanned directly.
func AllFinite(m mat.Matrix) bool {
	var i, j int
	r, c := m.Dims()
	if d, ok := m.(*mat.Dense); ok {
		for i = 0; i < r; i++ {
			if !allFiniteSlice(d.RawRowView(i)) {
				return false
			}
		}

		return true
	}
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			if !isFinite(m.At(i, j)) {
				return false
			}
		}
	}

	return true
}

// allFiniteSlice reports whether every element of x is finite.
func allFiniteSlice(x []float64) bool {
	for _, v := range x {
		if !isFinite(v) {
			return false
		}
	}

	return true
}

// isFinite reports whether v is neither NaN nor ±Inf.
func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
