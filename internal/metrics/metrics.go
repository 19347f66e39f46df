// SPDX-License-Identifier: MIT

// Package metrics records inference calls as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/katalvlaran/svgp/inference"
	"github.com/katalvlaran/svgp/linalg"
)

const namespace = "svgp"

// Outcome label values.
const (
	OutcomeOK                  = "ok"
	OutcomeMultiOutput         = "multi_output"
	OutcomeUnstableCholesky    = "unstable_cholesky"
	OutcomeNotPositiveDefinite = "not_positive_definite"
	OutcomeError               = "error"
)

// Recorder implements inference.Observer.
type Recorder struct {
	calls    *prometheus.CounterVec
	duration prometheus.Histogram
	elbo     prometheus.Gauge
	kl       prometheus.Gauge
	jitter   prometheus.Gauge
}

var _ inference.Observer = (*Recorder)(nil)

// NewRecorder creates the collectors and registers them on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inference_calls_total",
			Help:      "Inference steps by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inference_duration_seconds",
			Help:      "Wall time of one inference step.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		elbo: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "elbo",
			Help:      "ELBO of the last successful step.",
		}),
		kl: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kl_divergence",
			Help:      "KL(q(u) || p(u)) of the last successful step.",
		}),
		jitter: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "kmm_jitter",
			Help:      "Diagonal jitter added to Kmm in the last successful step.",
		}),
	}
	for _, c := range []prometheus.Collector{r.calls, r.duration, r.elbo, r.kl, r.jitter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}

	return r, nil
}

// ObserveInference implements inference.Observer.
func (r *Recorder) ObserveInference(s inference.Stats) {
	r.calls.WithLabelValues(Outcome(s.Err)).Inc()
	r.duration.Observe(s.Duration.Seconds())
	if s.Err != nil {
		return
	}
	r.elbo.Set(s.LogMarginal)
	r.kl.Set(s.KL)
	r.jitter.Set(s.Jitter)
}

// Outcome classifies an inference error into a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, inference.ErrMultiOutput):
		return OutcomeMultiOutput
	case errors.Is(err, inference.ErrUnstableCholesky):
		return OutcomeUnstableCholesky
	case errors.Is(err, linalg.ErrNotPositiveDefinite):
		return OutcomeNotPositiveDefinite
	default:
		return OutcomeError
	}
}

// WriteText writes every family gathered from g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("metrics: write %s: %w", mf.GetName(), err)
		}
	}

	return nil
}
