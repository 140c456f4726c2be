// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CompletionRequests counts calls to the completion provider.
	// Labels: provider, outcome (ok, error, rate_limited, placeholder)
	CompletionRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reframe",
		Subsystem: "completion",
		Name:      "requests_total",
		Help:      "Total text-completion requests by provider and outcome",
	}, []string{"provider", "outcome"})

	// CompletionLatency measures provider round trips.
	CompletionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reframe",
		Subsystem: "completion",
		Name:      "duration_seconds",
		Help:      "Text-completion latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
	}, []string{"provider"})

	// CompletionRetries counts rate-limit retries.
	CompletionRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "reframe",
		Subsystem: "completion",
		Name:      "retries_total",
		Help:      "Total retries after the provider rate limited a request",
	})

	// PipelineResults counts wizard pipeline outcomes.
	// Labels: pipeline (suggestions, insight), outcome (ready, failed, stale)
	PipelineResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reframe",
		Subsystem: "wizard",
		Name:      "pipeline_results_total",
		Help:      "Suggestion and insight pipeline results",
	}, []string{"pipeline", "outcome"})

	// Submissions counts thought-record submissions.
	// Labels: outcome (ok, storage_error)
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reframe",
		Subsystem: "wizard",
		Name:      "submissions_total",
		Help:      "Thought-record submissions by outcome",
	}, []string{"outcome"})

	// ActiveSessions is the number of wizard sessions held by the registry.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reframe",
		Subsystem: "wizard",
		Name:      "active_sessions",
		Help:      "Wizard sessions currently held in memory",
	})

	// HistoryCache counts history cache lookups. Labels: result (hit, miss)
	HistoryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reframe",
		Subsystem: "history",
		Name:      "cache_lookups_total",
		Help:      "History cache lookups by result",
	}, []string{"result"})

	// JournalJobs counts background journal insight jobs.
	// Labels: outcome (completed, failed)
	JournalJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reframe",
		Subsystem: "journal",
		Name:      "insight_jobs_total",
		Help:      "Journal insight jobs processed by outcome",
	}, []string{"outcome"})

	// EventSubscribers is the number of connected websocket event clients.
	EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "reframe",
		Subsystem: "events",
		Name:      "subscribers",
		Help:      "Connected websocket event subscribers",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
