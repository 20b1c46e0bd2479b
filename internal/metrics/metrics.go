// Package metrics holds the prometheus collectors for the query cache and
// the mutation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "needled"

var (
	CacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Reads served from a fresh cache entry without a fetch.",
	}, []string{"namespace"})

	CacheMisses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Reads that required a fetch.",
	}, []string{"namespace"})

	CacheFetchErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "fetch_errors_total",
		Help:      "Fetches that failed after retries.",
	}, []string{"namespace"})

	CacheDiscarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "discarded_responses_total",
		Help:      "Fetch results ignored because the read was cancelled.",
	}, []string{"namespace"})

	Mutations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "mutation",
		Name:      "total",
		Help:      "Mutations by name and outcome (committed, rolled_back).",
	}, []string{"mutation", "outcome"})

	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "server",
		Name:      "requests_total",
		Help:      "HTTP requests handled by the reference server.",
	}, []string{"method", "route", "status"})
)

// Outcomes for the Mutations counter.
const (
	OutcomeCommitted  = "committed"
	OutcomeRolledBack = "rolled_back"
)

// Registry holds every collector above plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		CacheHits,
		CacheMisses,
		CacheFetchErrors,
		CacheDiscarded,
		Mutations,
		HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
