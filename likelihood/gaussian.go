// SPDX-License-Identifier: MIT
package likelihood

import (
	"fmt"
	"math"

	"github.com/viterin/vek"
)

// Gaussian is the likelihood p(y|f) = N(y; f, σ²) with noise variance σ².
// Its variational expectations are available in closed form.
type Gaussian struct {
	Variance float64 // σ²
}

var (
	_ Likelihood = Gaussian{}
	_ LogDensity = Gaussian{}
)

// Validate reports ErrInvalidParameter unless Variance is finite and positive.
func (g Gaussian) Validate() error {
	if !(g.Variance > 0) || math.IsInf(g.Variance, 0) {
		return fmt.Errorf("Gaussian variance %v: %w", g.Variance, ErrInvalidParameter)
	}

	return nil
}

// VariationalExpectations implements Likelihood:
//
//	F      = −½·log(2πσ²) − ½·((y−μ)² + v)/σ²
//	∂F/∂μ  = (y−μ)/σ²
//	∂F/∂v  = −½/σ²
//	∂ΣF/∂σ² = Σ [−½/σ² + ½·((y−μ)² + v)/σ⁴]
//
// DFDTheta has exactly one entry, the noise variance gradient.
func (g Gaussian) VariationalExpectations(y, mu, v []float64) (*Expectations, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := checkLengths(y, mu, v); err != nil {
		return nil, err
	}
	n := len(y)
	prec := 1 / g.Variance
	if n == 0 {
		return &Expectations{F: []float64{}, DFDMu: []float64{}, DFDV: []float64{}, DFDTheta: []float64{0}}, nil
	}

	resid := vek.Sub(y, mu)
	quad := vek.Add(vek.Mul(resid, resid), v)

	f := vek.AddNumber(vek.MulNumber(quad, -0.5*prec), -0.5*math.Log(2*math.Pi*g.Variance))
	dfdv := make([]float64, n)
	for i := range dfdv {
		dfdv[i] = -0.5 * prec
	}
	dtheta := -0.5*float64(n)*prec + 0.5*vek.Sum(quad)*prec*prec

	return &Expectations{
		F:        f,
		DFDMu:    vek.MulNumber(resid, prec),
		DFDV:     dfdv,
		DFDTheta: []float64{dtheta},
	}, nil
}

// LogPdf implements LogDensity.
func (g Gaussian) LogPdf(f, y float64) float64 {
	r := y - f
	return -0.5*math.Log(2*math.Pi*g.Variance) - 0.5*r*r/g.Variance
}

// DLogPdfDf implements LogDensity.
func (g Gaussian) DLogPdfDf(f, y float64) float64 {
	return (y - f) / g.Variance
}

// D2LogPdfDf2 implements LogDensity.
func (g Gaussian) D2LogPdfDf2(_, _ float64) float64 {
	return -1 / g.Variance
}
