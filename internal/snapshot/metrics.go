package snapshot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opentrends_resolutions_total",
		Help: "Snapshot resolutions by mode and source (fresh, cached, stale-fallback)",
	}, []string{"mode", "source"})

	fetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opentrends_fetch_failures_total",
		Help: "Catalog fetches that failed during resolution",
	}, []string{"mode"})

	malformedSnapshots = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "opentrends_malformed_snapshots_total",
		Help: "Stored snapshots ignored because they could not be decoded",
	}, []string{"mode"})
)
