package retention

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricSweepRunsTotal       = "retention_sweep_runs_total"
	MetricSweepDuration        = "retention_sweep_duration_seconds"
	MetricSweepSubjectsTotal   = "retention_sweep_subjects_total"
	MetricSweepLeaseSkipsTotal = "retention_sweep_lease_skips_total"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// JobMetrics tracks sweep runs. The collectors are not registered until
// Register is called.
type JobMetrics struct {
	runsTotal  *prometheus.CounterVec
	duration   prometheus.Histogram
	subjects   *prometheus.CounterVec
	leaseSkips prometheus.Counter
}

func NewJobMetrics() *JobMetrics {
	return &JobMetrics{
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSweepRunsTotal,
				Help: "Retention sweep executions by status",
			},
			[]string{"status"},
		),
		duration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricSweepDuration,
				Help:    "Retention sweep duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
		),
		subjects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSweepSubjectsTotal,
				Help: "Subjects handled by the retention sweep by outcome",
			},
			[]string{"outcome"},
		),
		leaseSkips: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricSweepLeaseSkipsTotal,
				Help: "Sweep ticks skipped because another replica held the lease",
			},
		),
	}
}

func (m *JobMetrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *JobMetrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.runsTotal, m.duration, m.subjects, m.leaseSkips}
}

func (m *JobMetrics) observeRun(status string, seconds float64) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
	m.duration.Observe(seconds)
}

func (m *JobMetrics) observeResult(r SweepResult) {
	if m == nil {
		return
	}
	m.subjects.WithLabelValues("purged").Add(float64(r.Purged))
	m.subjects.WithLabelValues("anonymized").Add(float64(r.Anonymized))
	m.subjects.WithLabelValues("skipped").Add(float64(r.Skipped))
	m.subjects.WithLabelValues("failed").Add(float64(r.Failed))
}

func (m *JobMetrics) incLeaseSkip() {
	if m == nil {
		return
	}
	m.leaseSkips.Inc()
}
