// Package metrics provides observability for the verification pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's Prometheus collectors. All methods are safe on
// a nil receiver so metrics stay optional in tests and embedded use.
type Metrics struct {
	// Verdict outcomes by screening classification.
	Verdicts *prometheus.CounterVec

	// Pipeline failures by stage.
	Failures *prometheus.CounterVec

	// End-to-end verification latency.
	VerifyLatency prometheus.Histogram

	// Current audit chain length.
	ChainLength prometheus.Gauge
}

// New creates a Metrics instance registered on the default Prometheus
// registry, which is what promhttp serves.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates a Metrics instance registered on the given registerer.
// Tests pass a fresh registry so repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridian_verdicts_total",
			Help: "Total verdicts issued by screening outcome",
		}, []string{"outcome"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "veridian_pipeline_failures_total",
			Help: "Total pipeline failures by stage and error kind",
		}, []string{"stage", "kind"}),

		VerifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "veridian_verify_duration_seconds",
			Help:    "Duration of full identity verification including audit append",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		ChainLength: factory.NewGauge(prometheus.GaugeOpts{
			Name: "veridian_audit_chain_length",
			Help: "Number of records in the audit chain",
		}),
	}
}

// IncrementVerdict records a verdict outcome.
func (m *Metrics) IncrementVerdict(outcome string) {
	if m != nil {
		m.Verdicts.WithLabelValues(outcome).Inc()
	}
}

// IncrementFailure records a pipeline failure at a stage.
func (m *Metrics) IncrementFailure(stage, kind string) {
	if m != nil {
		m.Failures.WithLabelValues(stage, kind).Inc()
	}
}

// ObserveVerifyLatency records the duration of one verification run.
func (m *Metrics) ObserveVerifyLatency(d time.Duration) {
	if m != nil {
		m.VerifyLatency.Observe(d.Seconds())
	}
}

// SetChainLength records the current audit chain length.
func (m *Metrics) SetChainLength(n int64) {
	if m != nil {
		m.ChainLength.Set(float64(n))
	}
}
