// SPDX-License-Identifier: MIT
package inference

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/choleskies"
	"github.com/katalvlaran/svgp/linalg"
)

// expansion is q(u) in dense form.
type expansion struct {
	l       *mat.TriDense // lower factor
	s       *mat.SymDense // S = L·Lᵀ
	si      *mat.SymDense // S⁻¹ from L (dpotri)
	logdetS float64       // 2·Σ log|Lᵢᵢ|
}

// expand unpacks the Cholesky parameters and derives S, S⁻¹ and log|S|.
//
// Implementation:
//   - Stage 1: L = FlatToTriang(chol).
//   - Stage 2: S = L·Lᵀ.
//   - Stage 3: S⁻¹ from L; a zero pivot or a non-finite entry is ErrUnstableCholesky.
//   - Stage 4: log|S| = 2·Σ log|Lᵢᵢ|.
func expand(chol []float64) (*expansion, error) {
	l, err := choleskies.FlatToTriang(chol)
	if err != nil {
		return nil, stageErrorf(stageExpand, mismatch("chol length %d", len(chol)))
	}

	var s mat.SymDense
	s.SymOuterK(1, l)

	si, err := linalg.CholeskyInverse(l)
	if errors.Is(err, linalg.ErrSingular) || (err == nil && !linalg.AllFinite(si)) {
		return nil, stageErrorf(stageExpand, ErrUnstableCholesky)
	}
	if err != nil {
		return nil, stageErrorf(stageExpand, err)
	}

	return &expansion{
		l:       l,
		s:       &s,
		si:      si,
		logdetS: linalg.LogDetChol(l),
	}, nil
}
