// SPDX-License-Identifier: MIT
package inference

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/choleskies"
	"github.com/katalvlaran/svgp/likelihood"
	"github.com/katalvlaran/svgp/linalg"
)

// assembly holds the ELBO and its gradients. dFdKmm is kept separately for
// tests of its symmetry.
type assembly struct {
	sumF        float64
	logMarginal float64
	dFdKmm      *mat.Dense
	grads       *Gradients
}

// assemble chains the likelihood derivatives through A and combines them with the KL term.
//
//	Adv     = Aᵀ ⊙ ∂F/∂v                      (column j scaled by ∂F/∂vⱼ)
//	Admu    = Aᵀ·∂F/∂mu
//	AdvA    = Adv·A
//	tmp     = AdvA·S·Kmm⁻¹
//	∂F/∂Kmm = sym(−Admu·(Kmm⁻¹m)ᵀ + AdvA − tmp − tmpᵀ)
//	∂F/∂Kmn = 2·(Kmm⁻¹·S − I)·Adv + (Kmm⁻¹m)·(∂F/∂mu)ᵀ
//	∂L/∂L   = pack(2·(∂F/∂S − ∂KL/∂S)·L)
//
// where sym(X) = ½(X + Xᵀ) and ∂F/∂S = AdvA.
func assemble(q *expansion, p *propagation, kl *klTerm, ex *likelihood.Expectations) (*assembly, error) {
	m := len(kl.kmmim)
	n := len(ex.DFDMu)

	adv, err := linalg.ScaleColumns(p.a.T(), ex.DFDV)
	if err != nil {
		return nil, stageErrorf(stageAssemble, err)
	}
	var admuVec mat.VecDense
	admuVec.MulVec(p.a.T(), mat.NewVecDense(n, ex.DFDMu))
	admu := admuVec.RawVector().Data

	var advA, advAS, tmp mat.Dense
	advA.Mul(adv, p.a)
	advAS.Mul(&advA, q.s)
	tmp.Mul(&advAS, p.kmmi)

	raw := mat.NewDense(m, m, nil)
	var i, j int
	for i = 0; i < m; i++ {
		for j = 0; j < m; j++ {
			raw.Set(i, j, -admu[i]*kl.kmmim[j]+advA.At(i, j)-tmp.At(i, j)-tmp.At(j, i))
		}
	}
	dFdKmm, err := linalg.Symmetrize(raw)
	if err != nil {
		return nil, stageErrorf(stageAssemble, err)
	}

	var ks mat.Dense
	ks.Mul(p.kmmi, q.s)
	ks.Sub(&ks, linalg.Identity(m))
	dFdKmn := mat.NewDense(m, n, nil)
	dFdKmn.Mul(&ks, adv)
	dFdKmn.Scale(2, dFdKmn)
	dFdKmn.Add(dFdKmn, linalg.Outer(1, kl.kmmim, ex.DFDMu))

	dLdm := make([]float64, m)
	floats.SubTo(dLdm, admu, kl.kmmim)

	var dLdS, dLdKmm, dLdL mat.Dense
	dLdS.Sub(&advA, kl.dS)
	dLdKmm.Sub(dFdKmm, kl.dKmm)
	dLdL.Mul(&dLdS, q.l)
	dLdL.Scale(2, &dLdL)
	dLdChol, err := choleskies.TriangToFlat(&dLdL)
	if err != nil {
		return nil, stageErrorf(stageAssemble, err)
	}

	sumF := floats.Sum(ex.F)

	return &assembly{
		sumF:        sumF,
		logMarginal: sumF - kl.value,
		dFdKmm:      dFdKmm,
		grads: &Gradients{
			DLDKmm:    &dLdKmm,
			DLDKmn:    dFdKmn,
			DLDKdiag:  append([]float64(nil), ex.DFDV...),
			DLDm:      dLdm,
			DLDChol:   dLdChol,
			DLDThetaL: append([]float64{}, ex.DFDTheta...),
		},
	}, nil
}
