// Package metrics declares the Prometheus collectors shared across the
// service. All collectors register with the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch metrics
var (
	DispatchBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_batches_total",
			Help: "Total number of batches handed to a gateway",
		},
		[]string{"gateway", "status"}, // delivered, failed
	)

	DispatchRecipientsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_recipients_total",
			Help: "Total number of recipients by dispatch result",
		},
		[]string{"result"}, // delivered, failed, unattempted
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_duration_seconds",
			Help:    "Wall-clock duration of whole campaign dispatches",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	DispatchesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_in_flight",
			Help: "Number of campaign dispatches currently running",
		},
	)

	DispatchOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_outcomes_total",
			Help: "Total number of finished dispatches by outcome",
		},
		[]string{"outcome"}, // success, partial, cancelled
	)
)

// Gateway metrics
var (
	GatewaySendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_send_duration_seconds",
			Help:    "Duration of gateway send calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"gateway"},
	)

	GatewayHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gateway_healthy",
			Help: "1 if the gateway passed its recent health checks, else 0",
		},
		[]string{"gateway"},
	)
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Database metrics
var (
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"query"},
	)
)

// ObserveGatewayHealth is a gateway.HealthObserver that exports health as
// a gauge.
func ObserveGatewayHealth(name string, healthy bool) {
	v := 0.0
	if healthy {
		v = 1
	}
	GatewayHealthy.WithLabelValues(name).Set(v)
}
