// SPDX-License-Identifier: MIT
package cli

import (
	"fmt"
	"io"
	"math"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/svgp/inference"
)

// Prediction is the latent posterior at one test input.
type Prediction struct {
	X        []float64 `yaml:"x,flow"`
	Mean     float64   `yaml:"mean"`
	Variance float64   `yaml:"variance"`
}

// PredictReport is the output of the predict command.
type PredictReport struct {
	RunID       string       `yaml:"run_id"`
	ELBO        float64      `yaml:"elbo"`
	Predictions []Prediction `yaml:"predictions"`
}

func newPredictCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "predict",
		Short: "Predict the latent function at predict.x (default: the training inputs)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.loadProblem()
			if err != nil {
				return err
			}
			xs, err := p.cfg.PredictInputs(p.x)
			if err != nil {
				return err
			}
			res, err := inference.Inference(p.q.Mean, p.q.Chol, p.kernel, p.x, p.z, p.lik, p.y, a.inferenceOptions(p)...)
			if err != nil {
				return err
			}
			mean, variance, err := res.Posterior.Predict(p.kernel, p.z, xs, p.cfg.Jitter.Options()...)
			if err != nil {
				return err
			}

			rep := &PredictReport{RunID: a.runID, ELBO: res.LogMarginal}
			for i := range mean {
				rep.Predictions = append(rep.Predictions, Prediction{
					X:        mat.Row(nil, i, xs),
					Mean:     mean[i],
					Variance: variance[i],
				})
			}
			a.log.Info("prediction done", "points", len(mean))

			return a.render(cmd.OutOrStdout(), rep, rep.writeText)
		},
	}
}

func (r *PredictReport) writeText(w io.Writer) error {
	for _, p := range r.Predictions {
		if _, err := fmt.Fprintf(w, "%v\t%.6f ± %.6f\n", p.X, p.Mean, 2*math.Sqrt(math.Max(p.Variance, 0))); err != nil {
			return err
		}
	}

	return nil
}
