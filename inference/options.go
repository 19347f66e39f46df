// SPDX-License-Identifier: MIT
package inference

import (
	"github.com/go-logr/logr"

	"github.com/katalvlaran/svgp/linalg"
)

// Option configures Run and Inference.
type Option func(*options)

type options struct {
	logger   logr.Logger
	observer Observer
	pdinv    []linalg.Option
}

func gatherOptions(opts ...Option) options {
	o := options{logger: logr.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// pdinvOptions forwards the logger to Pdinv ahead of any explicit linalg options.
func (o options) pdinvOptions() []linalg.Option {
	return append([]linalg.Option{linalg.WithLogger(o.logger)}, o.pdinv...)
}

// WithLogger sets the logger. Per-call summaries are logged at V(1); jitter
// added to Kmm is logged at V(0).
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithObserver registers an Observer notified after every call.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithPdinvOptions tunes the jitter policy used when inverting Kmm.
func WithPdinvOptions(opts ...linalg.Option) Option {
	return func(o *options) { o.pdinv = append(o.pdinv, opts...) }
}
