// SPDX-License-Identifier: MIT
package kern

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Sum adds the covariances of its parts: k(a, b) = Σ kₚ(a, b).
type Sum []Kernel

var _ Kernel = Sum(nil)

// K implements Kernel.
func (s Sum) K(a, b mat.Matrix) (*mat.Dense, error) {
	if len(s) == 0 {
		return nil, ErrNoParts
	}
	var out *mat.Dense
	for p, part := range s {
		kp, err := part.K(a, b)
		if err != nil {
			return nil, fmt.Errorf("Sum.K: part %d: %w", p, err)
		}
		if out == nil {
			out = kp
			continue
		}
		out.Add(out, kp)
	}

	return out, nil
}

// KSym implements Kernel.
func (s Sum) KSym(a mat.Matrix) (*mat.SymDense, error) {
	if len(s) == 0 {
		return nil, ErrNoParts
	}
	var out *mat.SymDense
	for p, part := range s {
		kp, err := part.KSym(a)
		if err != nil {
			return nil, fmt.Errorf("Sum.KSym: part %d: %w", p, err)
		}
		if out == nil {
			out = kp
			continue
		}
		out.AddSym(out, kp)
	}

	return out, nil
}

// Kdiag implements Kernel.
func (s Sum) Kdiag(a mat.Matrix) ([]float64, error) {
	if len(s) == 0 {
		return nil, ErrNoParts
	}
	var out []float64
	for p, part := range s {
		kp, err := part.Kdiag(a)
		if err != nil {
			return nil, fmt.Errorf("Sum.Kdiag: part %d: %w", p, err)
		}
		if out == nil {
			out = kp
			continue
		}
		for i := range out {
			out[i] += kp[i]
		}
	}

	return out, nil
}
