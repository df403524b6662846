package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_orchestrator_polls_total",
		Help: "Total number of poll cycles executed",
	})

	ActiveSubscriptionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polymarket_orchestrator_active_subscriptions",
		Help: "Number of markets currently subscribed to",
	})

	ConvictionEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "polymarket_orchestrator_conviction_events_total",
		Help: "Total number of conviction-change events detected, by direction",
	}, []string{"direction"})

	PublishErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polymarket_orchestrator_publish_errors_total",
		Help: "Total number of event publish failures",
	})

	PollDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polymarket_orchestrator_poll_duration_seconds",
		Help:    "Duration of one poll cycle",
		Buckets: prometheus.DefBuckets,
	})
)
