package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheLookupsTotal counts cache lookups.
	// Labels: result (hit, miss, extend)
	cacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passage_complete",
		Subsystem: "executor",
		Name:      "cache_lookups_total",
		Help:      "Autocompletion cache lookups by result",
	}, []string{"result"})

	// fetchFailuresTotal counts failed fetches.
	// Labels: reason (transport, status, decode, rate_limit)
	fetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "passage_complete",
		Subsystem: "executor",
		Name:      "fetch_failures_total",
		Help:      "Failed fetches against the raw endpoint by reason",
	}, []string{"reason"})

	fetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "passage_complete",
		Subsystem: "executor",
		Name:      "fetch_duration_seconds",
		Help:      "Round trip time of fetches against the raw endpoint",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	})

	bindingsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "passage_complete",
		Subsystem: "executor",
		Name:      "bindings_fetched_total",
		Help:      "Bindings returned by the raw endpoint",
	})
)

const (
	resultHit    = "hit"
	resultMiss   = "miss"
	resultExtend = "extend"

	reasonTransport = "transport"
	reasonStatus    = "status"
	reasonDecode    = "decode"
	reasonRateLimit = "rate_limit"
)
