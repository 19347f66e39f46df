// SPDX-License-Identifier: MIT

// Package linalg: functional configuration for the positive-definite helpers.
// This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal).
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - Every option changes behavior of Jitchol/Pdinv and is covered by tests.
package linalg

import (
	"math"

	"github.com/go-logr/logr"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultMaxTries is the number of jittered Cholesky attempts made after the
	// plain factorization fails.
	DefaultMaxTries = 5

	// DefaultJitterScale multiplies mean(diag(A)) to obtain the first jitter.
	DefaultJitterScale = 1e-6

	// DefaultJitterGrowth multiplies the jitter after each failed attempt.
	DefaultJitterGrowth = 10.0
)

// ---------- Internal panic messages ----------

const (
	panicMaxTriesInvalid     = "linalg: WithMaxTries: tries must be >= 0"
	panicJitterScaleInvalid  = "linalg: WithJitterScale: scale must be finite and > 0"
	panicJitterGrowthInvalid = "linalg: WithJitterGrowth: growth must be finite and > 1"
)

// Option mutates internal options. Safe to apply repeatedly.
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
// Fields are unexported; public entry points accept ...Option.
type Options struct {
	maxTries     int         // jittered attempts after the plain factorization
	jitterScale  float64     // first jitter = mean(diag)·jitterScale
	jitterGrowth float64     // jitter *= jitterGrowth after each failure
	logger       logr.Logger // receives a line whenever jitter had to be added
}

// defaultOptions returns Options populated from the Default* constants.
func defaultOptions() Options {
	return Options{
		maxTries:     DefaultMaxTries,
		jitterScale:  DefaultJitterScale,
		jitterGrowth: DefaultJitterGrowth,
		logger:       logr.Discard(),
	}
}

// WithMaxTries sets how many jittered factorizations Jitchol attempts.
// Zero disables jitter entirely: a non-PD input fails immediately.
// Panics when tries < 0.
func WithMaxTries(tries int) Option {
	if tries < 0 {
		panic(panicMaxTriesInvalid)
	}

	return func(o *Options) { o.maxTries = tries }
}

// WithJitterScale sets the relative size of the first jitter.
// Panics on non-finite or non-positive values.
func WithJitterScale(scale float64) Option {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		panic(panicJitterScaleInvalid)
	}

	return func(o *Options) { o.jitterScale = scale }
}

// WithJitterGrowth sets the factor applied to the jitter after a failed attempt.
// Panics unless growth is finite and > 1.
func WithJitterGrowth(growth float64) Option {
	if math.IsNaN(growth) || math.IsInf(growth, 0) || growth <= 1 {
		panic(panicJitterGrowthInvalid)
	}

	return func(o *Options) { o.jitterGrowth = growth }
}

// WithLogger routes jitter notices to l.
func WithLogger(l logr.Logger) Option {
	return func(o *Options) { o.logger = l }
}

// gatherOptions applies opts over the defaults in order.
func gatherOptions(opts ...Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}
