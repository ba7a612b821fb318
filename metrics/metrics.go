// Package metrics exposes indicator runs as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/spektr-org/demografia/engine"
)

// Metrics holds the Prometheus metrics of one process. It implements
// engine.Observer.
type Metrics struct {
	// Indicator computations by indicator name
	Computations *prometheus.CounterVec

	// Undefined values by indicator and reason
	Undefined *prometheus.CounterVec

	// Computation latency by indicator
	Duration *prometheus.HistogramVec

	// Input rows seen by the loaders
	Records prometheus.Counter

	gatherer prometheus.Gatherer
}

var _ engine.Observer = (*Metrics)(nil)

// New registers the metrics with reg. A nil reg uses a fresh registry,
// so tests and repeated runs never collide on the global one.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		Computations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "demografia_indicator_computations_total",
			Help: "Total indicator computations by indicator",
		}, []string{"indicator"}),

		Undefined: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "demografia_indicator_undefined_total",
			Help: "Total undefined indicator values by indicator and reason",
		}, []string{"indicator", "reason"}),

		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "demografia_indicator_duration_seconds",
			Help:    "Duration of one indicator computation over the full relation",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"indicator"}),

		Records: factory.NewCounter(prometheus.CounterOpts{
			Name: "demografia_records_processed_total",
			Help: "Total input records loaded",
		}),

		gatherer: reg,
	}
}

// ObserveIndicator records one computation, its latency and its sentinels.
func (m *Metrics) ObserveIndicator(indicator string, values []engine.CountryValue, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Computations.WithLabelValues(indicator).Inc()
	m.Duration.WithLabelValues(indicator).Observe(elapsed.Seconds())
	for _, v := range values {
		if !v.Defined {
			m.Undefined.WithLabelValues(indicator, v.Reason).Inc()
		}
	}
}

// ObserveRecords adds n loaded input rows.
func (m *Metrics) ObserveRecords(n int) {
	if m != nil && n > 0 {
		m.Records.Add(float64(n))
	}
}

// Gatherer returns the registry the metrics live in.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.gatherer
}

// Push sends the metrics to a Prometheus Pushgateway under job. Batch runs
// end before a scrape could reach them.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if m == nil || url == "" {
		return nil
	}
	err := push.New(url, job).
		Gatherer(m.gatherer).
		Grouping("instance", "demografia").
		PushContext(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to push metrics to %s", url)
	}
	return nil
}
