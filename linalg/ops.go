// SPDX-License-Identifier: MIT
// Package linalg: small dense kernels used by the inference stages.
// Every kernel validates its operands, allocates a fresh result and keeps a
// fixed row→column accumulation order so results are reproducible bit-for-bit.

package linalg

import (
	"gonum.org/v1/gonum/mat"
)

// Symmetrize returns 0.5·(a + aᵀ) as a *mat.Dense.
// Entry (i,j) and (j,i) are produced by the same expression with commuted
// operands, so the result is exactly symmetric.
//
// Errors: ErrNilMatrix, ErrNonSquare.
// Complexity: Time O(n²), Space O(n²).
func Symmetrize(a mat.Matrix) (*mat.Dense, error) {
	if err := ValidateSquare(a); err != nil {
		return nil, linalgErrorf(opSymmetrize, err)
	}
	n, _ := a.Dims()
	out := mat.NewDense(n, n, nil)
	var i, j int
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			out.Set(i, j, 0.5*(a.At(i, j)+a.At(j, i)))
		}
	}

	return out, nil
}

// RowSumProduct returns rowsum(a ⊙ b): out[i] = Σⱼ a[i,j]·b[i,j].
//
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: Time O(r·c), Space O(r).
func RowSumProduct(a, b mat.Matrix) ([]float64, error) {
	if err := ValidateSameShape(a, b); err != nil {
		return nil, linalgErrorf(opRowSumProduct, err)
	}
	r, c := a.Dims()
	out := make([]float64, r)
	var (
		i, j int
		sum  float64
	)
	for i = 0; i < r; i++ {
		sum = 0
		for j = 0; j < c; j++ {
			sum += a.At(i, j) * b.At(i, j)
		}
		out[i] = sum
	}

	return out, nil
}

// SumProduct returns Σᵢⱼ a[i,j]·b[i,j]. For symmetric a and b this equals tr(a·b).
//
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: Time O(r·c), Space O(1).
func SumProduct(a, b mat.Matrix) (float64, error) {
	if err := ValidateSameShape(a, b); err != nil {
		return 0, linalgErrorf(opSumProduct, err)
	}
	r, c := a.Dims()
	var (
		i, j int
		sum  float64
	)
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			sum += a.At(i, j) * b.At(i, j)
		}
	}

	return sum, nil
}

// ScaleColumns returns a copy of a with column j multiplied by s[j].
// This is a·diag(s) without materializing the diagonal.
//
// Errors: ErrNilMatrix, ErrDimensionMismatch (len(s) != cols).
// Complexity: Time O(r·c), Space O(r·c).
func ScaleColumns(a mat.Matrix, s []float64) (*mat.Dense, error) {
	if isNil(a) {
		return nil, linalgErrorf(opScaleColumns, ErrNilMatrix)
	}
	r, c := a.Dims()
	if err := ValidateVecLen(s, c); err != nil {
		return nil, linalgErrorf(opScaleColumns, err)
	}
	out := mat.NewDense(r, c, nil)
	var i, j int
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			out.Set(i, j, a.At(i, j)*s[j])
		}
	}

	return out, nil
}

// Outer returns alpha·x·yᵀ.
// Complexity: Time O(len(x)·len(y)).
func Outer(alpha float64, x, y []float64) *mat.Dense {
	out := mat.NewDense(len(x), len(y), nil)
	var i, j int
	for i = 0; i < len(x); i++ {
		for j = 0; j < len(y); j++ {
			out.Set(i, j, alpha*x[i]*y[j])
		}
	}

	return out
}

// Identity returns the n×n identity as a *mat.Dense.
func Identity(n int) *mat.Dense {
	out := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}

	return out
}

// IsSymmetric reports whether a is square and a[i,j] == a[j,i] exactly.
func IsSymmetric(a mat.Matrix) bool {
	if ValidateSquare(a) != nil {
		return false
	}
	n, _ := a.Dims()
	var i, j int
	for i = 0; i < n; i++ {
		for j = i + 1; j < n; j++ {
			if a.At(i, j) != a.At(j, i) {
				return false
			}
		}
	}

	return true
}
