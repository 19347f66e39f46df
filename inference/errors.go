// SPDX-License-Identifier: MIT
// Package inference: sentinel error set.
// Errors from linalg.Pdinv, the kernel and the likelihood are wrapped once with
// the stage name and otherwise propagate unchanged; callers match with errors.Is.

package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrMultiOutput is returned when Y has more than one column. It is checked
	// before any computation takes place.
	ErrMultiOutput = errors.New("inference: multiple output columns are not supported")

	// ErrUnstableCholesky is returned when the packed variational Cholesky factor
	// cannot be inverted: a zero pivot or any non-finite entry in S⁻¹.
	ErrUnstableCholesky = errors.New("inference: unstable Cholesky factor of the variational covariance")

	// ErrDimensionMismatch indicates operands whose sizes disagree (len(m) vs M,
	// Knm vs Kmm, Y rows vs N, ...).
	ErrDimensionMismatch = errors.New("inference: dimension mismatch")

	// ErrNilInput indicates a nil kernel, likelihood, matrix or covariance set.
	ErrNilInput = errors.New("inference: nil input")
)

// Stage tags used when wrapping collaborator errors.
const (
	stageExpand    = "expand"
	stagePropagate = "propagate"
	stageKL        = "kl"
	stageAssemble  = "assemble"
	stageKernel    = "kernel"
)

// stageErrorf wraps err with a stage tag, preserving the sentinel via %w.
func stageErrorf(stage string, err error) error {
	return fmt.Errorf("%s: %w", stage, err)
}

// mismatch builds an ErrDimensionMismatch with a short description.
func mismatch(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrDimensionMismatch)...)
}
