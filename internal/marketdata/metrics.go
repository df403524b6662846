package marketdata

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchRequestsTotal tracks total outbound HTTP requests to the Gamma API.
	FetchRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_marketdata_requests_total",
		Help: "Total number of outbound requests to the Gamma API",
	})

	// FetchRetriesTotal tracks retried requests.
	FetchRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_marketdata_retries_total",
		Help: "Total number of retried Gamma API requests",
	})

	// FetchErrorsTotal tracks terminal fetch failures.
	FetchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_marketdata_errors_total",
		Help: "Total number of terminal Gamma API fetch failures",
	})

	// ParseSkippedTotal tracks per-record parse failures.
	ParseSkippedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_marketdata_parse_skipped_total",
		Help: "Total number of raw market records skipped during parsing",
	})

	// FetchDurationSeconds tracks bulk fetch latency.
	FetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_marketdata_fetch_duration_seconds",
		Help:    "Duration of fetch_all_active calls",
		Buckets: prometheus.DefBuckets,
	})
)
