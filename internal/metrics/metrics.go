// Package metrics defines Prometheus metrics for the back-office change log.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "backoffice_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	RecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_change_records_total",
			Help: "Total change records written, by entity type",
		},
		[]string{"entity_type"},
	)

	PropagationRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_propagation_records_total",
			Help: "Total propagated secondary records written, by trigger",
		},
		[]string{"trigger"},
	)

	PropagationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_propagation_failures_total",
			Help: "Propagation writes that failed and were swallowed, by trigger",
		},
		[]string{"trigger"},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "backoffice_websocket_connections",
			Help: "Active live-tail WebSocket connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		RecordsTotal, PropagationRecordsTotal, PropagationFailuresTotal,
		WSConnections,
	)
}
