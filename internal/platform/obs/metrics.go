package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookups counts cache reads per tier, entry class and outcome (hit|miss|error).
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nicufinder_cache_lookups_total",
			Help: "Cache lookups by tier, entry class and outcome",
		},
		[]string{"tier", "class", "outcome"},
	)

	// CacheWrites counts cache population events per tier and class.
	CacheWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nicufinder_cache_writes_total",
			Help: "Cache writes by tier and entry class",
		},
		[]string{"tier", "class"},
	)

	// ProviderCalls counts outbound provider API calls.
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nicufinder_provider_calls_total",
			Help: "Outbound provider calls by provider and operation",
		},
		[]string{"provider", "op"},
	)

	// ProviderErrors counts outbound calls that failed after retries.
	ProviderErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nicufinder_provider_errors_total",
			Help: "Outbound provider calls that failed",
		},
		[]string{"provider", "op"},
	)

	// QuotaDenials counts calls refused by the per-minute quota limiter.
	QuotaDenials = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nicufinder_quota_denials_total",
			Help: "Calls refused by the quota limiter",
		},
		[]string{"class"},
	)

	// SearchLatency tracks end-to-end search pipeline latency.
	SearchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nicufinder_search_duration_seconds",
			Help:    "Search pipeline latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)
)
