// SPDX-License-Identifier: MIT
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/inference"
	"github.com/katalvlaran/svgp/internal/config"
)

// GradNorm is the Euclidean (Frobenius for matrices) norm of one gradient.
type GradNorm struct {
	Name string  `yaml:"name"`
	Norm float64 `yaml:"norm"`
}

// ElboReport is the output of the elbo command.
type ElboReport struct {
	RunID          string         `yaml:"run_id"`
	NumData        int            `yaml:"num_data"`
	NumInducing    int            `yaml:"num_inducing"`
	ELBO           float64        `yaml:"elbo"`
	KL             float64        `yaml:"kl"`
	ExpectedLogLik float64        `yaml:"expected_log_lik"`
	ThetaL         []float64      `yaml:"dL_dthetaL"`
	Gradients      []GradNorm     `yaml:"gradient_norms"`
	Targets        config.Summary `yaml:"targets"`
}

func newElboCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "elbo",
		Short: "Evaluate the ELBO and its gradients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.loadProblem()
			if err != nil {
				return err
			}
			res, err := inference.Inference(p.q.Mean, p.q.Chol, p.kernel, p.x, p.z, p.lik, p.y, a.inferenceOptions(p)...)
			if err != nil {
				return err
			}
			rep := a.elboReport(p, res)
			a.log.Info("inference done", "elbo", rep.ELBO, "kl", rep.KL)

			return a.render(cmd.OutOrStdout(), rep, rep.writeText)
		},
	}
}

func (a *app) elboReport(p *problem, res *inference.Result) *ElboReport {
	g := res.Gradients
	n, _ := p.y.Dims()
	m, _ := p.z.Dims()

	return &ElboReport{
		RunID:          a.runID,
		NumData:        n,
		NumInducing:    m,
		ELBO:           res.LogMarginal,
		KL:             res.KL,
		ExpectedLogLik: res.ExpectedLogLik,
		ThetaL:         g.DLDThetaL,
		Gradients: []GradNorm{
			{Name: "dL_dm", Norm: floats.Norm(g.DLDm, 2)},
			{Name: "dL_dchol", Norm: floats.Norm(g.DLDChol, 2)},
			{Name: "dL_dKmm", Norm: mat.Norm(g.DLDKmm, 2)},
			{Name: "dL_dKmn", Norm: mat.Norm(g.DLDKmn, 2)},
			{Name: "dL_dKdiag", Norm: floats.Norm(g.DLDKdiag, 2)},
		},
		Targets: config.Summarize(p.y),
	}
}

func (r *ElboReport) writeText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "N=%d M=%d\nELBO  %.6f\nKL    %.6f\nE[ll] %.6f\n",
		r.NumData, r.NumInducing, r.ELBO, r.KL, r.ExpectedLogLik); err != nil {
		return err
	}
	for _, g := range r.Gradients {
		if _, err := fmt.Fprintf(w, "|%s| %.6g\n", g.Name, g.Norm); err != nil {
			return err
		}
	}
	if len(r.ThetaL) > 0 {
		_, err := fmt.Fprintf(w, "dL_dthetaL %v\n", r.ThetaL)

		return err
	}

	return nil
}
