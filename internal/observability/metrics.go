package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce        sync.Once
	apiRequestsTotal    *prometheus.CounterVec
	apiLatencySeconds   *prometheus.HistogramVec
	apiErrorsTotal      *prometheus.CounterVec
	scoreUpdatesTotal   *prometheus.CounterVec
	rankingLookupsTotal *prometheus.CounterVec
	ledgerResolvesTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholar_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scholar_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholar_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		scoreUpdatesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholar_score_updates_total",
			Help: "Score record mutations by kind.",
		}, []string{"kind"})

		rankingLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholar_ranking_lookups_total",
			Help: "Class ranking lookups by cache outcome.",
		}, []string{"cache"})

		ledgerResolvesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scholar_ledger_resolves_total",
			Help: "Bursary balances resolved by scope.",
		}, []string{"scope"})

		prometheus.MustRegister(apiRequestsTotal, apiLatencySeconds, apiErrorsTotal, scoreUpdatesTotal, rankingLookupsTotal, ledgerResolvesTotal)
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

// ScoreUpdates counts score record mutations. kind is one of row, traits,
// attendance or remarks.
func ScoreUpdates() *prometheus.CounterVec {
	RegisterMetrics()
	return scoreUpdatesTotal
}

// RankingLookups counts class ranking requests by cache outcome (hit, miss, disabled).
func RankingLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return rankingLookupsTotal
}

// LedgerResolves counts balance computations by scope (student, class).
func LedgerResolves() *prometheus.CounterVec {
	RegisterMetrics()
	return ledgerResolvesTotal
}

// MetricsHandler serves the scholar_* collectors alongside the Go runtime
// collectors of the default registry. A collector that fails to gather is
// skipped rather than failing the scrape.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
}
