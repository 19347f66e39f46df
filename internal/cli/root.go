// SPDX-License-Identifier: MIT

// Package cli implements the svgp command line: one inference step, posterior
// prediction and a finite-difference gradient check, all driven by a YAML
// problem file.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/katalvlaran/svgp/internal/metrics"
)

// Output formats.
const (
	OutputText = "text"
	OutputYAML = "yaml"
)

var (
	// ErrNoConfig is returned when --config is missing.
	ErrNoConfig = errors.New("cli: --config is required")
	// ErrOutputFormat is returned for an unknown --output value.
	ErrOutputFormat = errors.New("cli: unknown output format")
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	configPath string
	logLevel   string
	logDev     bool
	output     string
	metrics    bool

	runID    string
	log      logr.Logger
	sync     func()
	registry *prometheus.Registry
	recorder *metrics.Recorder
}

// NewRootCmd returns the svgp command tree.
func NewRootCmd() *cobra.Command {
	a := &app{sync: func() {}}

	root := &cobra.Command{
		Use:   "svgp",
		Short: "Sparse variational GP inference",
		Long: `svgp evaluates the evidence lower bound of a sparse variational Gaussian
process and its gradients for the problem described in a YAML file.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			defer a.sync()
			if a.registry == nil {
				return nil
			}

			return metrics.WriteText(cmd.OutOrStdout(), a.registry)
		},
	}

	a.bindFlags(root.PersistentFlags())
	root.AddCommand(newElboCmd(a), newPredictCmd(a), newGradcheckCmd(a))

	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) bindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&a.configPath, "config", "c", "", "problem file (YAML)")
	fs.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVar(&a.logDev, "log-dev", false, "human readable development logs")
	fs.StringVarP(&a.output, "output", "o", OutputText, "report format: text or yaml")
	fs.BoolVar(&a.metrics, "metrics", false, "print Prometheus metrics after the run")
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	switch a.output {
	case OutputText, OutputYAML:
	default:
		return fmt.Errorf("%w: %q", ErrOutputFormat, a.output)
	}
	if a.configPath == "" {
		return ErrNoConfig
	}

	log, sync, err := newLogger(cmd.ErrOrStderr(), a.logLevel, a.logDev)
	if err != nil {
		return err
	}
	a.runID = uuid.NewString()
	a.log = log.WithName(cmd.Name()).WithValues("run", a.runID)
	a.sync = sync

	if a.metrics {
		a.registry = prometheus.NewRegistry()
		if a.recorder, err = metrics.NewRecorder(a.registry); err != nil {
			return err
		}
	}

	return nil
}
