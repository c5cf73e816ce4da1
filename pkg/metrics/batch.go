package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BatchJobMetrics records outcomes of scheduled batch jobs. The row counters
// track reconciliation work per run in addition to the usual job counters.
type BatchJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

// NewBatchJobMetrics registers the batch job metrics on the provided
// registerer. A nil registerer yields a no-op instance, which tests use.
func NewBatchJobMetrics(reg prometheus.Registerer) *BatchJobMetrics {
	if reg == nil {
		return &BatchJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "batch_job_duration_seconds",
		Help:    "Duration of batch jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_job_success",
		Help: "Successful batch job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_job_failure",
		Help: "Failed batch job executions.",
	}, []string{"job"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_job_rows_total",
		Help: "Rows touched by batch jobs, labeled by outcome.",
	}, []string{"job", "outcome"})
	reg.MustRegister(duration, success, failure, rows)
	return &BatchJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		rows:     rows,
	}
}

// ObserveDuration records the duration for the named job.
func (b *BatchJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if b == nil || b.duration == nil {
		return
	}
	b.duration.WithLabelValues(jobLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (b *BatchJobMetrics) IncSuccess(job string) {
	if b == nil || b.success == nil {
		return
	}
	b.success.WithLabelValues(jobLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (b *BatchJobMetrics) IncFailure(job string) {
	if b == nil || b.failure == nil {
		return
	}
	b.failure.WithLabelValues(jobLabel(job)).Inc()
}

// AddRows adds n to the row counter for the named job and outcome
// ("updated", "skipped", "errors").
func (b *BatchJobMetrics) AddRows(job string, outcome string, n int) {
	if b == nil || b.rows == nil || n <= 0 {
		return
	}
	b.rows.WithLabelValues(jobLabel(job), outcome).Add(float64(n))
}

func jobLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
