// SPDX-License-Identifier: MIT
// Package linalg provides Cholesky-based kernels for symmetric positive-definite
// matrices: jittered factorization, full inversion with log-determinant
// extraction (Pdinv), and inversion from an existing lower factor.
//
// Notes:
//   - Factorization uses gonum mat.Cholesky; inversion from a factor uses LAPACK
//     dpotri/dtrtri through gonum lapack64 so that a zero pivot is reported
//     instead of being hidden behind a condition-number warning.
//   - Inputs are never mutated; every result is freshly allocated.

package linalg

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/lapack/lapack64"
	"gonum.org/v1/gonum/mat"
)

// PDInverse bundles everything Pdinv extracts from one factorization.
type PDInverse struct {
	Inv    *mat.SymDense // A⁻¹
	L      *mat.TriDense // lower factor actually used (A + jitter·I = L·Lᵀ)
	LInv   *mat.TriDense // L⁻¹
	LogDet float64       // 2·Σ log Lᵢᵢ
	Jitter float64       // 0 when the plain factorization succeeded
}

// Jitchol computes the lower Cholesky factor of a, adding diagonal jitter when
// the plain factorization fails.
//
// Implementation:
//   - Stage 1: try mat.Cholesky on a as given.
//   - Stage 2: reject inputs with a non-positive diagonal entry.
//   - Stage 3: jitter = mean(diag(a))·scale; retry on a + jitter·I, growing the
//     jitter after every failure, at most maxTries times.
//
// Returns the factor and the jitter that was added (0 for the plain path).
//
// Errors:
//   - ErrNilMatrix, ErrNotPositiveDefinite.
//
// Complexity:
//   - Time O(tries·n³), Space O(n²).
func Jitchol(a mat.Symmetric, opts ...Option) (*mat.TriDense, float64, error) {
	if isNil(a) {
		return nil, 0, linalgErrorf(opJitchol, ErrNilMatrix)
	}
	o := gatherOptions(opts...)

	var (
		chol mat.Cholesky
		l    mat.TriDense
		n    = a.SymmetricDim()
	)
	if n == 0 {
		return nil, 0, linalgErrorf(opJitchol, ErrDimensionMismatch)
	}
	if chol.Factorize(a) {
		chol.LTo(&l)
		return &l, 0, nil
	}

	diag := make([]float64, n)
	for i := 0; i < n; i++ {
		diag[i] = a.At(i, i)
		if diag[i] <= 0 {
			return nil, 0, linalgErrorf(opJitchol, ErrNotPositiveDefinite)
		}
	}

	jitter := floats.Sum(diag) / float64(n) * o.jitterScale
	work := mat.NewSymDense(n, nil)
	for try := 1; try <= o.maxTries && isFinite(jitter); try++ {
		work.CopySym(a)
		for i := 0; i < n; i++ {
			work.SetSym(i, i, diag[i]+jitter)
		}
		if chol.Factorize(work) {
			chol.LTo(&l)
			o.logger.Info("added jitter to keep matrix positive definite",
				"jitter", jitter, "attempt", try, "dim", n)
			return &l, jitter, nil
		}
		jitter *= o.jitterGrowth
	}

	return nil, 0, linalgErrorf(opJitchol, ErrNotPositiveDefinite)
}

// Pdinv inverts a symmetric positive-definite matrix through its (jittered)
// Cholesky factor and returns the inverse, the factor, the factor's inverse and
// log|A|.
//
// Implementation:
//   - Stage 1: L = Jitchol(a).
//   - Stage 2: logdet = 2·Σ log Lᵢᵢ.
//   - Stage 3: L⁻¹ via dtrtri; A⁻¹ via dpotri (symmetric, both triangles filled).
//
// Errors propagate from Jitchol and the inversion kernels unchanged.
//
// Complexity:
//   - Time O(n³), Space O(n²).
func Pdinv(a mat.Symmetric, opts ...Option) (*PDInverse, error) {
	l, jitter, err := Jitchol(a, opts...)
	if err != nil {
		return nil, linalgErrorf(opPdinv, err)
	}
	li, err := TriangularInverse(l)
	if err != nil {
		return nil, linalgErrorf(opPdinv, err)
	}
	inv, err := CholeskyInverse(l)
	if err != nil {
		return nil, linalgErrorf(opPdinv, err)
	}

	return &PDInverse{
		Inv:    inv,
		L:      l,
		LInv:   li,
		LogDet: LogDetChol(l),
		Jitter: jitter,
	}, nil
}

// CholeskyInverse computes (L·Lᵀ)⁻¹ from the lower triangle of l (LAPACK dpotri).
// The product L·Lᵀ is never formed.
//
// The result is NOT checked for finiteness: callers that must reject unstable
// factors inspect it with AllFinite. A zero pivot is reported as ErrSingular.
//
// Complexity: Time O(n³), Space O(n²).
func CholeskyInverse(l mat.Matrix) (*mat.SymDense, error) {
	if err := ValidateSquare(l); err != nil {
		return nil, linalgErrorf(opCholeskyInverse, err)
	}
	t := lowerRaw(l)
	a, ok := lapack64.Potri(t)
	if !ok {
		return nil, linalgErrorf(opCholeskyInverse, ErrSingular)
	}

	// dpotri fills only the lower triangle; mirror it into a SymDense.
	n := a.N
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			out.SetSym(j, i, a.Data[i*a.Stride+j])
		}
	}

	return out, nil
}

// TriangularInverse computes L⁻¹ for the lower triangle of l (LAPACK dtrtri).
// Returns ErrSingular on a zero diagonal entry.
//
// Complexity: Time O(n³), Space O(n²).
func TriangularInverse(l mat.Matrix) (*mat.TriDense, error) {
	if err := ValidateSquare(l); err != nil {
		return nil, linalgErrorf(opTriangularInv, err)
	}
	t := lowerRaw(l)
	if ok := lapack64.Trtri(t); !ok {
		return nil, linalgErrorf(opTriangularInv, ErrSingular)
	}

	return mat.NewTriDense(t.N, mat.Lower, t.Data), nil
}

// LogDetChol returns 2·Σ log|Lᵢᵢ|, the log-determinant of L·Lᵀ.
// A zero diagonal yields -Inf.
func LogDetChol(l mat.Matrix) float64 {
	var (
		n, _ = l.Dims()
		sum  float64
	)
	for i := 0; i < n; i++ {
		sum += math.Log(math.Abs(l.At(i, i)))
	}

	return 2 * sum
}

// lowerRaw copies the lower triangle of l (diagonal included) into a fresh
// row-major blas64.Triangular with stride n. Entries above the diagonal are zero.
func lowerRaw(l mat.Matrix) blas64.Triangular {
	n, _ := l.Dims()
	data := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			data[i*n+j] = l.At(i, j)
		}
	}

	return blas64.Triangular{
		Uplo:   blas.Lower,
		Diag:   blas.NonUnit,
		N:      n,
		Stride: n,
		Data:   data,
	}
}
