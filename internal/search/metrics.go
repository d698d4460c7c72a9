package search

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for search orchestration.
var (
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfdb_searches_total",
		Help: "Total search requests by answering source",
	}, []string{"source"})

	upstreamCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfdb_upstream_calls_total",
		Help: "Total upstream metadata API calls by outcome",
	}, []string{"status"})

	backgroundRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelfdb_background_refresh_total",
		Help: "Total background refresh tasks by outcome",
	}, []string{"status"})
)

// Source labels for searchesTotal.
const (
	sourceMemory      = "memory"
	sourceDBFresh     = "db_fresh"
	sourceDBStale     = "db_stale"
	sourceRateLimited = "rate_limited"
	sourceUpstream    = "upstream"
)
