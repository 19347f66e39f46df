// SPDX-License-Identifier: MIT
package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/katalvlaran/svgp/choleskies"
	"github.com/katalvlaran/svgp/inference"
	"github.com/katalvlaran/svgp/kern"
	"github.com/katalvlaran/svgp/likelihood"
	"github.com/katalvlaran/svgp/linalg"
)

// Build returns the configured kernel.
func (k *KernelConfig) Build() (kern.Kernel, error) {
	if err := k.Validate(); err != nil {
		return nil, err
	}
	s := kern.Stationary{Variance: k.Variance, Lengthscale: k.Lengthscale}
	switch k.Type {
	case KernelRBF:
		return kern.RBF(s), nil
	case KernelMatern32:
		return kern.Matern32(s), nil
	case KernelMatern52:
		return kern.Matern52(s), nil
	}
	parts := make(kern.Sum, len(k.Parts))
	for i := range k.Parts {
		p, err := k.Parts[i].Build()
		if err != nil {
			return nil, err
		}
		parts[i] = p
	}

	return parts, nil
}

// Build returns the configured likelihood.
func (l *LikelihoodConfig) Build() (likelihood.Likelihood, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	switch l.Type {
	case LikelihoodBernoulli:
		return likelihood.NewQuadrature(likelihood.Bernoulli{}, l.Points)
	case LikelihoodPoisson:
		return likelihood.NewQuadrature(likelihood.Poisson{}, l.Points)
	}

	return likelihood.Gaussian{Variance: l.Variance}, nil
}

// Options converts the jitter policy into linalg options. Unset scale and
// growth keep the linalg defaults.
func (j *JitterConfig) Options() []linalg.Option {
	opts := []linalg.Option{linalg.WithMaxTries(max(j.MaxTries, 0))}
	if finitePositive(j.Scale) {
		opts = append(opts, linalg.WithJitterScale(j.Scale))
	}
	if j.Growth > 1 && finitePositive(j.Growth) {
		opts = append(opts, linalg.WithJitterGrowth(j.Growth))
	}

	return opts
}

// Dataset returns X (N×D) and Y (N×1), from the CSV file when Path is set.
func (c *Config) Dataset() (x, y *mat.Dense, err error) {
	rows, targets := c.Data.X, c.Data.Y
	if c.Data.Path != "" {
		f, err := os.Open(c.Data.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("config: open data: %w", err)
		}
		defer f.Close()
		rows, targets, err = ReadCSV(f, c.Data.Header)
		if err != nil {
			return nil, nil, fmt.Errorf("config: %s: %w", c.Data.Path, err)
		}
	}
	x, err = denseFromRows(rows)
	if err != nil {
		return nil, nil, fmt.Errorf("data.x: %w", err)
	}

	return x, mat.NewDense(len(targets), 1, append([]float64(nil), targets...)), nil
}

// ReadCSV parses numeric records; the last column is the target.
func ReadCSV(r io.Reader, header bool) (x [][]float64, y []float64, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = false
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line++
		if header && line == 1 {
			continue
		}
		if len(rec) < 2 {
			return nil, nil, invalid("line %d: need at least one input and a target", line)
		}
		vals := make([]float64, len(rec))
		for i, field := range rec {
			if vals[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
		}
		x = append(x, vals[:len(vals)-1])
		y = append(y, vals[len(vals)-1])
	}
	if len(x) == 0 {
		return nil, nil, invalid("no data rows")
	}

	return x, y, nil
}

// InducingInputs returns Z, either as given or as Count rows of x spread evenly
// from the first row to the last.
func (c *Config) InducingInputs(x *mat.Dense) (*mat.Dense, error) {
	if len(c.Inducing.Z) > 0 {
		z, err := denseFromRows(c.Inducing.Z)
		if err != nil {
			return nil, fmt.Errorf("inducing.z: %w", err)
		}
		if _, dz := z.Dims(); dz != x.RawMatrix().Cols {
			return nil, invalid("inducing.z has %d columns, data has %d", dz, x.RawMatrix().Cols)
		}

		return z, nil
	}
	n, d := x.Dims()
	count := c.Inducing.Count
	if count > n {
		return nil, invalid("inducing.count %d exceeds %d data points", count, n)
	}
	z := mat.NewDense(count, d, nil)
	for i := 0; i < count; i++ {
		src := 0
		if count > 1 {
			src = i * (n - 1) / (count - 1)
		}
		z.SetRow(i, x.RawRowView(src))
	}

	return z, nil
}

// VariationalParams returns the initial q(u) for M inducing inputs z.
func (c *Config) VariationalParams(k kern.Kernel, z mat.Matrix) (inference.Variational, error) {
	m, _ := z.Dims()
	mean := c.Variational.Mean
	if len(mean) == 0 {
		mean = make([]float64, m)
	}
	if len(mean) != m {
		return inference.Variational{}, invalid("variational.mean has %d entries, M=%d", len(mean), m)
	}
	if len(c.Variational.Chol) > 0 {
		if len(c.Variational.Chol) != choleskies.PackedLen(m) {
			return inference.Variational{}, invalid("variational.chol has %d entries, want %d", len(c.Variational.Chol), choleskies.PackedLen(m))
		}

		return inference.Variational{Mean: mean, Chol: c.Variational.Chol}, nil
	}
	if c.Variational.Init == InitIdentity {
		return inference.Variational{Mean: mean, Chol: choleskies.IdentityFlat(m)}, nil
	}

	kmm, err := k.KSym(z)
	if err != nil {
		return inference.Variational{}, fmt.Errorf("variational prior: %w", err)
	}
	l, _, err := linalg.Jitchol(kmm, c.Jitter.Options()...)
	if err != nil {
		return inference.Variational{}, fmt.Errorf("variational prior: %w", err)
	}
	chol, err := choleskies.TriangToFlat(l)
	if err != nil {
		return inference.Variational{}, err
	}

	return inference.Variational{Mean: mean, Chol: chol}, nil
}

// Summary describes a target column.
type Summary struct {
	Count  int     `yaml:"count"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
	Min    float64 `yaml:"min"`
	Max    float64 `yaml:"max"`
}

// Summarize returns count, mean, standard deviation and range of y's first column.
func Summarize(y mat.Matrix) Summary {
	col := mat.Col(nil, 0, y)
	s := Summary{Count: len(col)}
	s.Mean, s.StdDev = stat.MeanStdDev(col, nil)
	s.Min, s.Max = floats.Min(col), floats.Max(col)

	return s
}

func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, invalid("no rows")
	}
	if err := rectangular("rows", rows); err != nil {
		return nil, err
	}
	out := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		out.SetRow(i, r)
	}

	return out, nil
}

// PredictInputs returns predict.x, or fallback when none are configured.
func (c *Config) PredictInputs(fallback *mat.Dense) (*mat.Dense, error) {
	if len(c.Predict.X) == 0 {
		return fallback, nil
	}
	xs, err := denseFromRows(c.Predict.X)
	if err != nil {
		return nil, fmt.Errorf("predict.x: %w", err)
	}

	return xs, nil
}
