package report

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts scenario outcomes on a private registry so a run can be
// exported as a node-exporter textfile.
type Metrics struct {
	registry  *prometheus.Registry
	scenarios *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	lastRun   prometheus.Gauge
}

// NewMetrics registers the suite metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery_e2e",
			Name:      "scenarios_total",
			Help:      "Scenarios executed, by expected outcome and result",
		}, []string{"outcome", "result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery_e2e",
			Name:      "failures_total",
			Help:      "Failed scenarios by error kind",
		}, []string{"kind"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "delivery_e2e",
			Name:      "scenario_duration_seconds",
			Help:      "Wall time of a scenario from navigation to final assertion",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 20, 30},
		}, []string{"outcome"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "delivery_e2e",
			Name:      "last_run_timestamp_seconds",
			Help:      "Start time of the last recorded run",
		}),
	}
	m.registry.MustRegister(m.scenarios, m.failures, m.duration, m.lastRun)
	return m
}

// Observe records every entry of s.
func (m *Metrics) Observe(s *Summary) {
	m.lastRun.Set(float64(s.Started.Unix()))
	for _, e := range s.Entries {
		result := "pass"
		if !e.Passed {
			result = "fail"
			m.failures.WithLabelValues(e.ErrorKind).Inc()
		}
		m.scenarios.WithLabelValues(e.Kind, result).Inc()
		m.duration.WithLabelValues(e.Kind).Observe(e.Duration.Seconds())
	}
}

// WriteTextfile writes the metrics in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
