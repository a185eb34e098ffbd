// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HttpRequestsTotal counts requests served by the roster API.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// EventsTotal counts handled events by type and outcome (ok/error).
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_events_total",
			Help: "Total number of events handled by the dispatcher.",
		},
		[]string{"type", "status"},
	)

	// OrdersTotal counts routed orders by requested speciality and outcome.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_orders_total",
			Help: "Total number of orders routed to staff.",
		},
		[]string{"speciality", "status"},
	)

	// OrderDuration observes the full client → staff → client relay.
	OrderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_order_duration_seconds",
			Help:    "Time from staff selection until the result reached the client.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"speciality"},
	)

	// StaffOnDuty is the current size of the registry.
	StaffOnDuty = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dispatch_staff_on_duty",
			Help: "Number of staff members currently on duty.",
		},
	)
)
