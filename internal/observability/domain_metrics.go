package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Unmatched requests share one route label so probing arbitrary paths
// cannot grow the series count.
const otherRoute = "other"

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_http_requests_total",
			Help: "Total number of HTTP requests by matched route.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_http_request_duration_seconds",
			Help:    "HTTP request latency by matched route.",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route", "status"},
	)

	askRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_ask_requests_total",
			Help: "Total number of ask pipeline runs by outcome.",
		},
		[]string{"outcome"},
	)
	askStageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_ask_stage_duration_seconds",
			Help:    "Ask pipeline stage latency.",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)
	askResultRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_ask_result_rows",
			Help:    "Rows returned per successful ask.",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000},
		},
	)
	unsafeQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_unsafe_queries_total",
			Help: "Total number of generated queries rejected by the safety gate.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		askRequestsTotal,
		askStageDurationSeconds,
		askResultRows,
		unsafeQueriesTotal,
	)
}

func observeHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = otherRoute
	}
	code := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, code).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
}

func ObserveAskStage(stage string, elapsed time.Duration) {
	askStageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func ObserveAskOutcome(outcome string, rows int) {
	askRequestsTotal.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		askResultRows.Observe(float64(rows))
	}
}

func IncrementUnsafeQuery() {
	unsafeQueriesTotal.Inc()
}
