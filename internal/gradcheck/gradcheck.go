// SPDX-License-Identifier: MIT

// Package gradcheck compares the analytic gradients returned by inference.Run
// with central finite differences of the ELBO. Perturbations are independent
// and evaluated concurrently.
package gradcheck

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/inference"
	"github.com/katalvlaran/svgp/likelihood"
)

// DefaultStep is the finite-difference half-width.
const DefaultStep = 1e-6

// ErrInvalidStep indicates a non-positive or non-finite step.
var ErrInvalidStep = errors.New("gradcheck: step must be finite and > 0")

// Gradient group names, in report order.
const (
	GroupMean  = "m"
	GroupChol  = "chol"
	GroupKmm   = "Kmm"
	GroupKmn   = "Kmn"
	GroupKdiag = "Kdiag"
)

// Problem is one inference step to verify.
type Problem struct {
	Variational inference.Variational
	Covariances *inference.Covariances
	Y           mat.Matrix
	Likelihood  likelihood.Likelihood
}

// Options tune Check. The zero value uses DefaultStep and GOMAXPROCS workers.
type Options struct {
	Step        float64
	Concurrency int
	Logger      logr.Logger
}

// Entry summarizes one gradient group.
type Entry struct {
	Group     string  `yaml:"group"`
	Count     int     `yaml:"count"`
	MaxAbsErr float64 `yaml:"max_abs_err"`
	MaxRelErr float64 `yaml:"max_rel_err"` // |a − n| / max(|a|, |n|, 1)
}

// Report is the outcome of Check.
type Report struct {
	LogMarginal float64
	Entries     []Entry
}

// Passed reports whether every group's relative error is within tol.
func (r *Report) Passed(tol float64) bool {
	for _, e := range r.Entries {
		if e.MaxRelErr > tol {
			return false
		}
	}

	return true
}

// probe is one scalar perturbation: shift moves the input by delta in place.
type probe struct {
	group    int
	analytic float64
	shift    func(p *Problem, delta float64)
}

// Check runs the step once for the analytic gradients and twice per scalar
// input for the numeric ones.
//
// Kmm is perturbed symmetrically: an off-diagonal pair (i, j), (j, i) moves
// together, so the matching analytic value is G[i,j] + G[j,i].
//
// Errors from inference.Run and ctx cancellation are returned as is.
func Check(ctx context.Context, p Problem, o Options) (*Report, error) {
	if o.Step == 0 {
		o.Step = DefaultStep
	}
	if !(o.Step > 0) || math.IsInf(o.Step, 0) {
		return nil, ErrInvalidStep
	}
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.Logger.GetSink() == nil {
		o.Logger = logr.Discard()
	}

	base, err := inference.Run(p.Variational, p.Covariances, p.Y, p.Likelihood)
	if err != nil {
		return nil, err
	}
	probes := buildProbes(base.Gradients)

	numeric := make([]float64, len(probes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.Concurrency)
	for i := range probes {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			up, err := evaluate(p, probes[i], o.Step)
			if err != nil {
				return fmt.Errorf("probe %d (+h): %w", i, err)
			}
			down, err := evaluate(p, probes[i], -o.Step)
			if err != nil {
				return fmt.Errorf("probe %d (-h): %w", i, err)
			}
			numeric[i] = (up - down) / (2 * o.Step)

			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, err
	}

	rep := &Report{
		LogMarginal: base.LogMarginal,
		Entries: []Entry{
			{Group: GroupMean}, {Group: GroupChol}, {Group: GroupKmm}, {Group: GroupKmn}, {Group: GroupKdiag},
		},
	}
	for i, pr := range probes {
		e := &rep.Entries[pr.group]
		e.Count++
		abs := math.Abs(pr.analytic - numeric[i])
		rel := abs / math.Max(1, math.Max(math.Abs(pr.analytic), math.Abs(numeric[i])))
		e.MaxAbsErr = math.Max(e.MaxAbsErr, abs)
		e.MaxRelErr = math.Max(e.MaxRelErr, rel)
	}
	for _, e := range rep.Entries {
		o.Logger.V(1).Info("gradient check", "group", e.Group, "count", e.Count,
			"maxAbsErr", e.MaxAbsErr, "maxRelErr", e.MaxRelErr)
	}

	return rep, nil
}

// evaluate returns the ELBO with one input shifted by delta on a private copy.
func evaluate(p Problem, pr probe, delta float64) (float64, error) {
	cp := clone(p)
	pr.shift(&cp, delta)
	res, err := inference.Run(cp.Variational, cp.Covariances, cp.Y, cp.Likelihood)
	if err != nil {
		return 0, err
	}

	return res.LogMarginal, nil
}

func clone(p Problem) Problem {
	cov := p.Covariances
	kmm := mat.NewSymDense(cov.Kmm.SymmetricDim(), nil)
	kmm.CopySym(cov.Kmm)

	return Problem{
		Variational: inference.Variational{
			Mean: append([]float64(nil), p.Variational.Mean...),
			Chol: append([]float64(nil), p.Variational.Chol...),
		},
		Covariances: &inference.Covariances{
			Kmm:     kmm,
			Knm:     mat.DenseCopyOf(cov.Knm),
			KnnDiag: append([]float64(nil), cov.KnnDiag...),
		},
		Y:          p.Y,
		Likelihood: p.Likelihood,
	}
}

// buildProbes lists every scalar input with its analytic derivative.
func buildProbes(g *inference.Gradients) []probe {
	var probes []probe
	for i, a := range g.DLDm {
		i := i
		probes = append(probes, probe{group: 0, analytic: a, shift: func(p *Problem, d float64) {
			p.Variational.Mean[i] += d
		}})
	}
	for i, a := range g.DLDChol {
		i := i
		probes = append(probes, probe{group: 1, analytic: a, shift: func(p *Problem, d float64) {
			p.Variational.Chol[i] += d
		}})
	}
	m, n := g.DLDKmn.Dims()
	for i := 0; i < m; i++ {
		for j := 0; j <= i; j++ {
			i, j := i, j
			a := g.DLDKmm.At(i, j)
			if i != j {
				a += g.DLDKmm.At(j, i)
			}
			probes = append(probes, probe{group: 2, analytic: a, shift: func(p *Problem, d float64) {
				p.Covariances.Kmm.SetSym(i, j, p.Covariances.Kmm.At(i, j)+d)
			}})
		}
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			i, j := i, j
			probes = append(probes, probe{group: 3, analytic: g.DLDKmn.At(i, j), shift: func(p *Problem, d float64) {
				p.Covariances.Knm.Set(j, i, p.Covariances.Knm.At(j, i)+d)
			}})
		}
	}
	for i, a := range g.DLDKdiag {
		i := i
		probes = append(probes, probe{group: 4, analytic: a, shift: func(p *Problem, d float64) {
			p.Covariances.KnnDiag[i] += d
		}})
	}

	return probes
}
