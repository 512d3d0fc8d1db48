// Package metrics exposes Prometheus collectors for generative capability calls.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nexaforge"

const (
	statusOK    = "ok"
	statusError = "error"
)

type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight *prometheus.GaugeVec
}

// MustNewMetrics registers the collectors with reg and panics when registration fails.
// A nil reg means the default registerer.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "calls_total",
				Help:      "Total number of generative capability calls by outcome.",
			},
			[]string{"capability", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "call_duration_seconds",
				Help:      "Latency of generative capability calls.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"capability", "status"},
		),
		inFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "capability",
				Name:      "in_flight",
				Help:      "Number of generative capability calls currently running.",
			},
			[]string{"capability"},
		),
	}

	for _, collector := range []prometheus.Collector{m.calls, m.duration, m.inFlight} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				panic(err)
			}
			switch existing := already.ExistingCollector.(type) {
			case *prometheus.HistogramVec:
				m.duration = existing
			case *prometheus.GaugeVec:
				m.inFlight = existing
			case *prometheus.CounterVec:
				m.calls = existing
			}
		}
	}

	return m
}

// Start marks a call of capability as running. The returned func must be called once it settled.
func (m *Metrics) Start(capability string) func() {
	if m == nil {
		return func() {}
	}
	gauge := m.inFlight.WithLabelValues(capability)
	gauge.Inc()
	return gauge.Dec
}

// Observe records the outcome and latency of a settled call.
func (m *Metrics) Observe(capability string, took time.Duration, err error) {
	if m == nil {
		return
	}
	status := statusOK
	if err != nil {
		status = statusError
	}
	m.calls.WithLabelValues(capability, status).Inc()
	m.duration.WithLabelValues(capability, status).Observe(took.Seconds())
}
