package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the HTTP and domain-level Prometheus metrics.
type Metrics struct {
	RequestDuration  *prometheus.HistogramVec
	CipherFailures   *prometheus.CounterVec
	ExportsTotal     *prometheus.CounterVec
	SoftDeletesTotal prometheus.Counter
	ConsentChanges   *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "custodian_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		CipherFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodian_cipher_failures_total",
			Help: "Field cipher failures by operation",
		}, []string{"op"}),
		ExportsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodian_exports_total",
			Help: "Personal data exports by outcome",
		}, []string{"outcome"}),
		SoftDeletesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "custodian_soft_deletes_total",
			Help: "Subjects scheduled for deletion",
		}),
		ConsentChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodian_consent_changes_total",
			Help: "Consent grants and revocations",
		}, []string{"change"}),
	}
}

func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, method, status).Observe(seconds)
}

func (m *Metrics) IncCipherFailure(op string) {
	if m == nil {
		return
	}
	m.CipherFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) IncExport(outcome string) {
	if m == nil {
		return
	}
	m.ExportsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncSoftDelete() {
	if m == nil {
		return
	}
	m.SoftDeletesTotal.Inc()
}

func (m *Metrics) IncConsentChange(change string) {
	if m == nil {
		return
	}
	m.ConsentChanges.WithLabelValues(change).Inc()
}
