// SPDX-License-Identifier: MIT
package inference

import (
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/linalg"
)

// propagation carries the prior inverse and the marginals q(fᵢ) = N(muᵢ, vᵢ).
type propagation struct {
	kmm       *mat.SymDense
	kmmi      *mat.SymDense
	logdetKmm float64
	jitter    float64
	a         *mat.Dense // A = Knm·Kmm⁻¹, N×M
	mu        []float64  // A·m
	v         []float64  // marginal variances
}

// propagate maps q(u) through the prior conditional onto the data points.
//
//	A  = Knm·Kmm⁻¹
//	mu = A·m
//	v  = (Knn_diag − rowsum(A ⊙ Knm)) + rowsum(A ⊙ (A·S))
//
// Pdinv errors propagate unchanged (wrapped once with the stage tag).
// Complexity: Time O(N·M² + M³), Space O(N·M).
func propagate(q *expansion, mean []float64, cov *Covariances, pd []linalg.Option) (*propagation, error) {
	pdi, err := linalg.Pdinv(cov.Kmm, pd...)
	if err != nil {
		return nil, stageErrorf(stagePropagate, err)
	}

	var a mat.Dense
	a.Mul(cov.Knm, pdi.Inv)

	var mu mat.VecDense
	mu.MulVec(&a, mat.NewVecDense(len(mean), mean))

	r1, err := linalg.RowSumProduct(&a, cov.Knm)
	if err != nil {
		return nil, stageErrorf(stagePropagate, err)
	}
	var as mat.Dense
	as.Mul(&a, q.s)
	r2, err := linalg.RowSumProduct(&a, &as)
	if err != nil {
		return nil, stageErrorf(stagePropagate, err)
	}

	v := make([]float64, len(cov.KnnDiag))
	for i := range v {
		v[i] = (cov.KnnDiag[i] - r1[i]) + r2[i]
	}

	return &propagation{
		kmm:       cov.Kmm,
		kmmi:      pdi.Inv,
		logdetKmm: pdi.LogDet,
		jitter:    pdi.Jitter,
		a:         &a,
		mu:        mu.RawVector().Data,
		v:         v,
	}, nil
}
