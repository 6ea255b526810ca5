// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Follow-up workers.
var (
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

// Intake form.
var (
	FormTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_form_transitions_total",
			Help: "Form step transitions by action and outcome",
		},
		[]string{"action", "result"},
	)

	CVUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_cv_uploads_total",
			Help: "CV uploads by outcome",
		},
		[]string{"result"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intake_submissions_total",
			Help: "Application submissions by outcome",
		},
		[]string{"result"},
	)
)

// Dashboard and sessions.
var (
	RecruiterUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_updates_total",
			Help: "Rating and screening updates by kind and outcome",
		},
		[]string{"kind", "result"},
	)

	Exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_exports_total",
			Help: "Exports by target and outcome",
		},
		[]string{"target", "result"},
	)

	SessionEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_events_total",
			Help: "Session lifecycle events observed",
		},
		[]string{"type"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Result returns the outcome label for err.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
