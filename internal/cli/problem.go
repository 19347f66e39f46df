// SPDX-License-Identifier: MIT
package cli

import (
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/svgp/inference"
	"github.com/katalvlaran/svgp/internal/config"
	"github.com/katalvlaran/svgp/kern"
	"github.com/katalvlaran/svgp/likelihood"
)

// problem is a loaded and built configuration.
type problem struct {
	cfg     *config.Config
	x, y, z *mat.Dense
	kernel  kern.Kernel
	lik     likelihood.Likelihood
	q       inference.Variational
}

func (a *app) loadProblem() (*problem, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	p := &problem{cfg: cfg}
	if p.x, p.y, err = cfg.Dataset(); err != nil {
		return nil, err
	}
	if p.z, err = cfg.InducingInputs(p.x); err != nil {
		return nil, err
	}
	if p.kernel, err = cfg.Kernel.Build(); err != nil {
		return nil, err
	}
	if p.lik, err = cfg.Likelihood.Build(); err != nil {
		return nil, err
	}
	if p.q, err = cfg.VariationalParams(p.kernel, p.z); err != nil {
		return nil, err
	}

	n, d := p.x.Dims()
	m, _ := p.z.Dims()
	summary := config.Summarize(p.y)
	a.log.Info("problem loaded", "config", a.configPath, "kernel", cfg.Kernel.Type,
		"likelihood", cfg.Likelihood.Type, "N", n, "D", d, "M", m)
	a.log.V(1).Info("targets", "mean", summary.Mean, "stddev", summary.StdDev,
		"min", summary.Min, "max", summary.Max)

	return p, nil
}

// inferenceOptions wires the logger, the metrics recorder and the jitter policy.
func (a *app) inferenceOptions(p *problem) []inference.Option {
	opts := []inference.Option{
		inference.WithLogger(a.log),
		inference.WithPdinvOptions(p.cfg.Jitter.Options()...),
	}
	if a.recorder != nil {
		opts = append(opts, inference.WithObserver(a.recorder))
	}

	return opts
}

// render writes v as YAML, or calls text for the text format.
func (a *app) render(w io.Writer, v any, text func(io.Writer) error) error {
	if a.output == OutputText {
		return text(w)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("cli: encode report: %w", err)
	}

	return enc.Close()
}
