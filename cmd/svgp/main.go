// SPDX-License-Identifier: MIT

// Command svgp runs one sparse variational GP inference step from a YAML file.
//
//	svgp elbo --config problem.yaml
//	svgp predict --config problem.yaml --output yaml
//	svgp gradcheck --config problem.yaml --tol 1e-5 --metrics
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/katalvlaran/svgp/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
