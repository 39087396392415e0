package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taclean"

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

// Business metrics
var (
	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Total number of booking requests accepted",
		},
		[]string{"channel"}, // "guest" or "customer"
	)

	VerificationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guest_verifications_total",
			Help:      "Total number of guest verification attempts",
		},
		[]string{"outcome"}, // "verified", "invalid", "expired"
	)

	AppointmentsAssigned = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "appointments_assigned_total",
			Help:      "Total number of appointments assigned to staff",
		},
	)
)

// Outbox metrics
var (
	EmailsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_dispatched_total",
			Help:      "Total number of outbox jobs attempted",
		},
		[]string{"template", "status"}, // status: "sent", "failed", "skipped"
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "email_dispatch_duration_seconds",
			Help:      "Outbox dispatch pass duration distribution",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	EmailsRequeued = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_requeued_total",
			Help:      "Total number of failed outbox jobs returned to pending",
		},
	)
)
