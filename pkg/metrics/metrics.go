package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RemoteRequests counts API calls by logical action and outcome (success|remote_error|transport_error).
	RemoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rasconsole_remote_requests_total",
			Help: "Total number of requests sent to the remote API",
		},
		[]string{"action", "result"},
	)

	// RemoteLatency measures remote API latencies.
	RemoteLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rasconsole_remote_latency_seconds",
			Help:    "Remote API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "action"},
	)

	// SectionLoads counts lazy section loads by section kind and outcome (loaded|error|stale).
	SectionLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rasconsole_section_loads_total",
			Help: "Total number of lazy section loads",
		},
		[]string{"section", "result"},
	)

	// StaleResults counts fetch results discarded because their target left the tree.
	StaleResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rasconsole_stale_results_total",
			Help: "Fetch results dropped by the staleness guard",
		},
		[]string{"kind"},
	)

	// Reorders counts drag/drop reorder intents by kind and outcome (success|failure|noop).
	Reorders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rasconsole_reorders_total",
			Help: "Total number of reorder intents",
		},
		[]string{"intent", "result"},
	)

	// BulkDeletions counts per-connection outcomes of bulk deletion runs (deleted|failed|protected).
	BulkDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rasconsole_bulk_deletions_total",
			Help: "Per-connection outcomes of bulk deletion",
		},
		[]string{"result"},
	)
)
