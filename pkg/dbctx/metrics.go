package dbctx

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks lease lifecycles. A nil *Metrics records nothing.
type Metrics struct {
	LeasesOpened    prometheus.Counter
	LeasesInFlight  prometheus.Gauge
	LeaseOutcomes   *prometheus.CounterVec
	SetupFailures   *prometheus.CounterVec
	AcquireDuration prometheus.Histogram
	LeaseDuration   prometheus.Histogram
}

// NewMetrics creates the lease metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		LeasesOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "dbctx_leases_opened_total",
			Help: "Total number of request transactions opened",
		}),
		LeasesInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "dbctx_leases_in_flight",
			Help: "Connections currently leased to requests or jobs",
		}),
		LeaseOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dbctx_lease_outcomes_total",
			Help: "How leased transactions ended",
		}, []string{"outcome"}),
		SetupFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dbctx_setup_failures_total",
			Help: "Failures while opening a request transaction",
		}, []string{"stage"}),
		AcquireDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dbctx_acquire_duration_seconds",
			Help:    "Time spent waiting for a pooled connection",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		LeaseDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dbctx_lease_duration_seconds",
			Help:    "Time a connection stayed leased",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) observeAcquire(d time.Duration) {
	if m != nil {
		m.AcquireDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) setupFailed(stage string) {
	if m != nil {
		m.SetupFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) opened() {
	if m != nil {
		m.LeasesOpened.Inc()
		m.LeasesInFlight.Inc()
	}
}

func (m *Metrics) finished(outcome string) {
	if m != nil {
		m.LeaseOutcomes.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) released(held time.Duration) {
	if m != nil {
		m.LeasesInFlight.Dec()
		m.LeaseDuration.Observe(held.Seconds())
	}
}
