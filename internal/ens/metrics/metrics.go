package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	LookupsTotal   prometheus.Counter
	LookupDuration prometheus.Histogram
	SourceFailures *prometheus.CounterVec
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		LookupsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ensgraph_domain_lookups_total",
			Help: "Total number of domain aggregation requests",
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ensgraph_domain_lookup_duration_seconds",
			Help:    "Wall time of one full domain aggregation",
			Buckets: prometheus.DefBuckets,
		}),
		SourceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "ensgraph_domain_source_failures_total",
			Help: "Absorbed per-source provider call failures",
		}, []string{"source"}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ensgraph_domain_cache_hits_total",
			Help: "Domain record cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ensgraph_domain_cache_misses_total",
			Help: "Domain record cache misses",
		}),
	}
}

func (m *Metrics) ObserveSourceFailure(source string) {
	if m == nil {
		return
	}
	m.SourceFailures.WithLabelValues(source).Inc()
}
