package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics tracks scheduled and package-generation job outcomes.
type JobMetrics struct {
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewJobMetrics registers job counters/histograms on the given registerer.
func NewJobMetrics(reg prometheus.Registerer, subsystem string) *JobMetrics {
	m := &JobMetrics{
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopkit",
			Subsystem: subsystem,
			Name:      "job_success_total",
			Help:      "Completed job runs by job name.",
		}, []string{"job"}),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopkit",
			Subsystem: subsystem,
			Name:      "job_failure_total",
			Help:      "Failed job runs by job name.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shopkit",
			Subsystem: subsystem,
			Name:      "job_duration_seconds",
			Help:      "Job wall-clock duration by job name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}

	if reg != nil {
		reg.MustRegister(m.success, m.failure, m.duration)
	}
	return m
}

// IncSuccess records a completed run.
func (m *JobMetrics) IncSuccess(job string) {
	if m == nil {
		return
	}
	m.success.WithLabelValues(job).Inc()
}

// IncFailure records a failed run.
func (m *JobMetrics) IncFailure(job string) {
	if m == nil {
		return
	}
	m.failure.WithLabelValues(job).Inc()
}

// ObserveDuration records how long a run took.
func (m *JobMetrics) ObserveDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(job).Observe(d.Seconds())
}
