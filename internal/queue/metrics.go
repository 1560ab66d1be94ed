package queue

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Queue metrics for Prometheus monitoring.
var (
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_queue_jobs_pending",
			Help: "Number of jobs in the dispatch stream",
		},
		[]string{"stream"},
	)

	JobsEnqueuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_queue_jobs_enqueued_total",
			Help: "Total number of dispatch jobs enqueued",
		},
	)

	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_queue_jobs_processed_total",
			Help: "Total number of dispatch jobs processed by status",
		},
		[]string{"status"}, // done, retried, dlq
	)

	JobProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_queue_job_duration_seconds",
			Help:    "Duration of dispatch job processing",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		},
	)

	DLQJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_queue_dlq_jobs_total",
			Help: "Total number of jobs moved to the DLQ by cause",
		},
		[]string{"cause"}, // exhausted, permanent
	)
)
