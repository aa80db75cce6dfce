// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of a generation attempt.
const (
	OutcomeAccepted    = "accepted"
	OutcomeDisabled    = "disabled"
	OutcomeUnavailable = "unavailable"
	OutcomeRejected    = "rejected"
	OutcomeCanceled    = "canceled"
)

var (
	ScopeRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scope_requests_total",
			Help: "Pipeline invocations by action and outcome status",
		},
		[]string{"action", "status"},
	)

	ScopeRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scope_request_duration_seconds",
			Help:    "Duration of pipeline invocations in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"action"},
	)

	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scope_generation_attempts_total",
			Help: "Generation attempts per pipeline component and outcome",
		},
		[]string{"component", "outcome"},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scope_fallbacks_total",
			Help: "Template or heuristic fallbacks taken per pipeline component",
		},
		[]string{"component"},
	)

	CaseCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scope_case_cache_lookups_total",
			Help: "Case cache lookups by result",
		},
		[]string{"result"},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// RecordGeneration counts one generation attempt and, unless it was
// accepted or canceled, the fallback it triggers.
func RecordGeneration(component, outcome string) {
	GenerationAttempts.WithLabelValues(component, outcome).Inc()
	if outcome != OutcomeAccepted && outcome != OutcomeCanceled {
		Fallbacks.WithLabelValues(component).Inc()
	}
}
