package publisher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for audit recording.
type Metrics struct {
	Recorded        *prometheus.CounterVec
	WriteFailures   *prometheus.CounterVec
	ForwardFailures prometheus.Counter
	Dropped         prometheus.Counter
}

// NewMetrics registers the audit metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Recorded: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodian_audit_events_recorded_total",
			Help: "Audit events persisted, by action",
		}, []string{"action"}),
		WriteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "custodian_audit_write_failures_total",
			Help: "Audit events that could not be persisted, by action",
		}, []string{"action"}),
		ForwardFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "custodian_audit_forward_failures_total",
			Help: "Audit events persisted but not forwarded downstream",
		}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "custodian_audit_events_dropped_total",
			Help: "Audit events dropped because the async buffer was full",
		}),
	}
}

func (m *Metrics) IncRecorded(action string) {
	if m == nil {
		return
	}
	m.Recorded.WithLabelValues(action).Inc()
}

func (m *Metrics) IncWriteFailures(action string) {
	if m == nil {
		return
	}
	m.WriteFailures.WithLabelValues(action).Inc()
}

func (m *Metrics) IncForwardFailures() {
	if m == nil {
		return
	}
	m.ForwardFailures.Inc()
}

func (m *Metrics) IncDropped() {
	if m == nil {
		return
	}
	m.Dropped.Inc()
}
