// SPDX-License-Identifier: MIT
package inference

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/linalg"
)

// klTerm is KL(q(u) ‖ p(u)) and its partial derivatives.
type klTerm struct {
	value float64
	kmmim []float64  // Kmm⁻¹·m, also ∂KL/∂m
	dS    *mat.Dense // ∂KL/∂S
	dKmm  *mat.Dense // ∂KL/∂Kmm
}

// klDivergence evaluates
//
//	KL       = −½·log|S| − ½·M + ½·log|Kmm| + ½·tr(Kmm⁻¹·S) + ½·mᵀ·Kmm⁻¹·m
//	∂KL/∂m   = Kmm⁻¹·m
//	∂KL/∂S   = ½·(Kmm⁻¹ − S⁻¹)
//	∂KL/∂Kmm = ½·Kmm⁻¹ − ½·Kmm⁻¹·S·Kmm⁻¹ − ½·(Kmm⁻¹·m)(Kmm⁻¹·m)ᵀ
//
// tr(Kmm⁻¹·S) is taken as Σᵢⱼ (Kmm⁻¹)ᵢⱼ·Sᵢⱼ; both operands are symmetric.
func klDivergence(q *expansion, mean []float64, p *propagation) (*klTerm, error) {
	m := len(mean)

	var kv mat.VecDense
	kv.MulVec(p.kmmi, mat.NewVecDense(m, mean))
	kmmim := kv.RawVector().Data

	trace, err := linalg.SumProduct(p.kmmi, q.s)
	if err != nil {
		return nil, stageErrorf(stageKL, err)
	}
	value := -0.5*q.logdetS - 0.5*float64(m) + 0.5*p.logdetKmm + 0.5*trace + 0.5*floats.Dot(mean, kmmim)

	var dS mat.Dense
	dS.Sub(p.kmmi, q.si)
	dS.Scale(0.5, &dS)

	var ks, ksk mat.Dense
	ks.Mul(p.kmmi, q.s)
	ksk.Mul(&ks, p.kmmi)

	dKmm := mat.NewDense(m, m, nil)
	var i, j int
	for i = 0; i < m; i++ {
		for j = 0; j < m; j++ {
			dKmm.Set(i, j, 0.5*p.kmmi.At(i, j)-0.5*ksk.At(i, j)-0.5*kmmim[i]*kmmim[j])
		}
	}

	return &klTerm{
		value: value,
		kmmim: kmmim,
		dS:    &dS,
		dKmm:  dKmm,
	}, nil
}
