// SPDX-License-Identifier: MIT
package inference

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/kern"
	"github.com/katalvlaran/svgp/linalg"
)

// Posterior describes q(u) = N(Mean, Cov) together with the prior covariance
// p(u) = N(0, PriorCov) at the inducing inputs.
type Posterior struct {
	Mean     []float64
	Cov      *mat.SymDense // S
	PriorCov *mat.SymDense // Kmm

	kmmi *mat.SymDense // Kmm⁻¹ when produced by Run; nil otherwise
}

// newPosterior copies the step outputs so that the Posterior owns its data.
func newPosterior(st *step) *Posterior {
	m := len(st.kl.kmmim)
	prior := mat.NewSymDense(m, nil)
	prior.CopySym(st.p.kmm)

	return &Posterior{
		Mean:     append([]float64(nil), st.mean...),
		Cov:      st.q.s,
		PriorCov: prior,
		kmmi:     st.p.kmmi,
	}
}

// priorInverse returns Kmm⁻¹, computing it when the Posterior was built by hand.
func (p *Posterior) priorInverse(opts ...linalg.Option) (*mat.SymDense, error) {
	if p.kmmi != nil {
		return p.kmmi, nil
	}
	if p.PriorCov == nil || p.Cov == nil {
		return nil, ErrNilInput
	}
	pdi, err := linalg.Pdinv(p.PriorCov, opts...)
	if err != nil {
		return nil, fmt.Errorf("Posterior: %w", err)
	}

	return pdi.Inv, nil
}

// WoodburyVector returns Kmm⁻¹·m, the weights of the predictive mean.
func (p *Posterior) WoodburyVector(opts ...linalg.Option) ([]float64, error) {
	kmmi, err := p.priorInverse(opts...)
	if err != nil {
		return nil, err
	}
	if len(p.Mean) != kmmi.SymmetricDim() {
		return nil, mismatch("len(Mean)=%d, M=%d", len(p.Mean), kmmi.SymmetricDim())
	}
	var w mat.VecDense
	w.MulVec(kmmi, mat.NewVecDense(len(p.Mean), p.Mean))

	return w.RawVector().Data, nil
}

// WoodburyInv returns Kmm⁻¹ − Kmm⁻¹·S·Kmm⁻¹, the matrix that reduces the prior
// predictive variance.
func (p *Posterior) WoodburyInv(opts ...linalg.Option) (*mat.Dense, error) {
	kmmi, err := p.priorInverse(opts...)
	if err != nil {
		return nil, err
	}
	if p.Cov == nil {
		return nil, ErrNilInput
	}
	if p.Cov.SymmetricDim() != kmmi.SymmetricDim() {
		return nil, mismatch("S is %d×%d, M=%d", p.Cov.SymmetricDim(), p.Cov.SymmetricDim(), kmmi.SymmetricDim())
	}
	var ks, ksk mat.Dense
	ks.Mul(kmmi, p.Cov)
	ksk.Mul(&ks, kmmi)
	ksk.Sub(kmmi, &ksk)

	return &ksk, nil
}

// Predict returns the predictive mean and variance of f at the rows of xnew:
//
//	mean = K*m·Kmm⁻¹·m
//	var  = diag K** − rowsum((K*m·W) ⊙ K*m),  W = Kmm⁻¹ − Kmm⁻¹·S·Kmm⁻¹
//
// z must be the inducing inputs the posterior was computed for.
func (p *Posterior) Predict(k kern.Kernel, z, xnew mat.Matrix, opts ...linalg.Option) (mean, variance []float64, err error) {
	if k == nil || isNil(z) || isNil(xnew) {
		return nil, nil, ErrNilInput
	}
	wv, err := p.WoodburyVector(opts...)
	if err != nil {
		return nil, nil, err
	}
	wi, err := p.WoodburyInv(opts...)
	if err != nil {
		return nil, nil, err
	}

	kxm, err := k.K(xnew, z)
	if err != nil {
		return nil, nil, stageErrorf(stageKernel, err)
	}
	if _, c := kxm.Dims(); c != len(wv) {
		return nil, nil, mismatch("z has %d rows, M=%d", c, len(wv))
	}
	kxx, err := k.Kdiag(xnew)
	if err != nil {
		return nil, nil, stageErrorf(stageKernel, err)
	}

	var mu mat.VecDense
	mu.MulVec(kxm, mat.NewVecDense(len(wv), wv))

	var kw mat.Dense
	kw.Mul(kxm, wi)
	reduce, err := linalg.RowSumProduct(&kw, kxm)
	if err != nil {
		return nil, nil, err
	}
	variance = make([]float64, len(kxx))
	for i := range variance {
		variance[i] = kxx[i] - reduce[i]
	}

	return mu.RawVector().Data, variance, nil
}
