// SPDX-License-Identifier: MIT
package choleskies

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/linalg"
)

// FlatToTriangs unpacks D blocks stored column-wise: flat is (M(M+1)/2)×D and
// column d holds the packed lower triangle of block d.
//
// Errors: ErrEmpty, ErrBadLength.
// Complexity: Time O(D·M²).
func FlatToTriangs(flat mat.Matrix) ([]*mat.TriDense, error) {
	if err := linalg.ValidateNotNil(flat); err != nil {
		return nil, ErrEmpty
	}
	_, d := flat.Dims()
	out := make([]*mat.TriDense, d)
	for k := 0; k < d; k++ {
		l, err := FlatToTriang(mat.Col(nil, k, flat))
		if err != nil {
			return nil, fmt.Errorf("FlatToTriangs: block %d: %w", k, err)
		}
		out[k] = l
	}

	return out, nil
}

// TriangsToFlat packs D square blocks of equal size into a (M(M+1)/2)×D matrix,
// one column per block. It is the inverse of FlatToTriangs.
//
// Errors: ErrEmpty, ErrNonSquare, ErrBlockMismatch.
func TriangsToFlat(ls []mat.Matrix) (*mat.Dense, error) {
	if len(ls) == 0 {
		return nil, ErrEmpty
	}
	var (
		out *mat.Dense
		m   int
	)
	for k, l := range ls {
		col, err := TriangToFlat(l)
		if err != nil {
			return nil, fmt.Errorf("TriangsToFlat: block %d: %w", k, err)
		}
		if out == nil {
			m, _ = l.Dims()
			out = mat.NewDense(len(col), len(ls), nil)
		} else if r, _ := l.Dims(); r != m {
			return nil, fmt.Errorf("TriangsToFlat: block %d is %d, want %d: %w", k, r, m, ErrBlockMismatch)
		}
		out.SetCol(k, col)
	}

	return out, nil
}

// MultipleDpotri returns (Lₖ·Lₖᵀ)⁻¹ for every block, computed from the factors.
// Errors from linalg.CholeskyInverse are wrapped with the block index.
func MultipleDpotri(ls []*mat.TriDense) ([]*mat.SymDense, error) {
	out := make([]*mat.SymDense, len(ls))
	for k, l := range ls {
		inv, err := linalg.CholeskyInverse(l)
		if err != nil {
			return nil, fmt.Errorf("MultipleDpotri: block %d: %w", k, err)
		}
		out[k] = inv
	}

	return out, nil
}
