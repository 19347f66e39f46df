// SPDX-License-Identifier: MIT
package likelihood

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// millsCutoff is the argument below which the probit uses the asymptotic
// expansion of the inverse Mills ratio instead of the CDF.
const millsCutoff = -30

// Bernoulli is the probit classification density p(y=1|f) = Φ(f), y ∈ {0, 1}.
type Bernoulli struct{}

var _ LogDensity = Bernoulli{}

// sign maps y ∈ {0, 1} to s ∈ {−1, +1}.
func sign(y float64) float64 {
	if y > 0.5 {
		return 1
	}

	return -1
}

// logCDF returns log Φ(z).
func logCDF(z float64) float64 {
	if z < millsCutoff {
		x := -z
		return distuv.UnitNormal.LogProb(z) - math.Log(x) + math.Log1p(-1/(x*x)+3/(x*x*x*x))
	}

	return math.Log(distuv.UnitNormal.CDF(z))
}

// hazard returns φ(z)/Φ(z).
func hazard(z float64) float64 {
	if z < millsCutoff {
		x := -z
		return x / (1 - 1/(x*x) + 3/(x*x*x*x))
	}

	return math.Exp(distuv.UnitNormal.LogProb(z) - math.Log(distuv.UnitNormal.CDF(z)))
}

// LogPdf implements LogDensity: log Φ(s·f).
func (Bernoulli) LogPdf(f, y float64) float64 {
	return logCDF(sign(y) * f)
}

// DLogPdfDf implements LogDensity: s·φ(s·f)/Φ(s·f).
func (Bernoulli) DLogPdfDf(f, y float64) float64 {
	s := sign(y)
	return s * hazard(s*f)
}

// D2LogPdfDf2 implements LogDensity: −λ(z)·(z + λ(z)) with z = s·f, λ = φ/Φ.
func (Bernoulli) D2LogPdfDf2(f, y float64) float64 {
	z := sign(y) * f
	h := hazard(z)

	return -h * (z + h)
}

// Poisson is the count density with log link, λ = exp(f), y ∈ ℕ.
type Poisson struct{}

var _ LogDensity = Poisson{}

// LogPdf implements LogDensity: y·f − eᶠ − log y!.
func (Poisson) LogPdf(f, y float64) float64 {
	lg, _ := math.Lgamma(y + 1)
	return y*f - math.Exp(f) - lg
}

// DLogPdfDf implements LogDensity: y − eᶠ.
func (Poisson) DLogPdfDf(f, y float64) float64 {
	return y - math.Exp(f)
}

// D2LogPdfDf2 implements LogDensity: −eᶠ.
func (Poisson) D2LogPdfDf2(f, _ float64) float64 {
	return -math.Exp(f)
}
