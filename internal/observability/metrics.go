package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce             sync.Once
	apiRequestsTotal         *prometheus.CounterVec
	apiLatencySeconds        *prometheus.HistogramVec
	apiErrorsTotal           *prometheus.CounterVec
	gradingsTotal            *prometheus.CounterVec
	roundFanOutUpdatedTotal  prometheus.Counter
	dispatchAttemptsTotal    *prometheus.CounterVec
	shortlistDecisionsTotal  *prometheus.CounterVec
	statisticsRecomputeTotal prometheus.Counter
)

// RegisterMetrics initialises the Prometheus collectors used across the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hireflow",
			Name:      "api_requests_total",
			Help:      "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hireflow",
			Name:      "api_latency_seconds",
			Help:      "Latency distribution for API requests.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hireflow",
			Name:      "api_errors_total",
			Help:      "Total number of error responses returned.",
		}, []string{"method", "route", "status"})

		gradingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hireflow",
			Name:      "gradings_total",
			Help:      "Graded question submissions by overall result.",
		}, []string{"result"})

		roundFanOutUpdatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hireflow",
			Name:      "round_fanout_updated_total",
			Help:      "Candidate round rows touched by round-transition fan-outs.",
		})

		dispatchAttemptsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hireflow",
			Name:      "dispatch_attempts_total",
			Help:      "Round-invite dispatch attempts by outcome.",
		}, []string{"outcome"})

		shortlistDecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hireflow",
			Name:      "shortlist_decisions_total",
			Help:      "Resume shortlist decisions by verdict.",
		}, []string{"decision"})

		statisticsRecomputeTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hireflow",
			Name:      "statistics_recompute_total",
			Help:      "Number of submission statistics recomputations.",
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			gradingsTotal,
			roundFanOutUpdatedTotal,
			dispatchAttemptsTotal,
			shortlistDecisionsTotal,
			statisticsRecomputeTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// GradingsTotal exposes the counter for graded submissions.
func GradingsTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return gradingsTotal
}

// RoundFanOutUpdated exposes the counter for fan-out row updates.
func RoundFanOutUpdated() prometheus.Counter {
	RegisterMetrics()
	return roundFanOutUpdatedTotal
}

// DispatchAttempts exposes the counter for invite dispatch attempts.
func DispatchAttempts() *prometheus.CounterVec {
	RegisterMetrics()
	return dispatchAttemptsTotal
}

// ShortlistDecisions exposes the counter for shortlist verdicts.
func ShortlistDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return shortlistDecisionsTotal
}

// StatisticsRecomputes exposes the counter for statistics recomputations.
func StatisticsRecomputes() prometheus.Counter {
	RegisterMetrics()
	return statisticsRecomputeTotal
}

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
