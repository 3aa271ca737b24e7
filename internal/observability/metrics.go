package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce        sync.Once
	requestsTotal       *prometheus.CounterVec
	latencySeconds      *prometheus.HistogramVec
	errorsTotal         *prometheus.CounterVec
	paymentsVerified    *prometheus.CounterVec
	applicationsCreated *prometheus.CounterVec
	attemptsFinalized   *prometheus.CounterVec
	outboxDeliveries    *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors for the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsetu_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		latencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jobsetu_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		errorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsetu_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		paymentsVerified = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsetu_payments_verified_total",
			Help: "Payment signature verification outcomes.",
		}, []string{"result"})

		applicationsCreated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsetu_applications_created_total",
			Help: "Applications created, partitioned by payment method.",
		}, []string{"method"})

		attemptsFinalized = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsetu_attempts_finalized_total",
			Help: "Assessment attempts reaching a terminal state.",
		}, []string{"status"})

		outboxDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jobsetu_outbox_deliveries_total",
			Help: "Outbox dispatch outcomes.",
		}, []string{"result"})

		prometheus.MustRegister(
			requestsTotal,
			latencySeconds,
			errorsTotal,
			paymentsVerified,
			applicationsCreated,
			attemptsFinalized,
			outboxDeliveries,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return requestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return latencySeconds
}

// Errors exposes the counter for error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return errorsTotal
}

// PaymentsVerified exposes the counter for payment verification outcomes.
func PaymentsVerified() *prometheus.CounterVec {
	RegisterMetrics()
	return paymentsVerified
}

// ApplicationsCreated exposes the counter for created applications.
func ApplicationsCreated() *prometheus.CounterVec {
	RegisterMetrics()
	return applicationsCreated
}

// AttemptsFinalized exposes the counter for finalized attempts.
func AttemptsFinalized() *prometheus.CounterVec {
	RegisterMetrics()
	return attemptsFinalized
}

// OutboxDeliveries exposes the counter for outbox dispatch outcomes.
func OutboxDeliveries() *prometheus.CounterVec {
	RegisterMetrics()
	return outboxDeliveries
}
