// Package metrics defines the client-facing Prometheus instrumentation:
// counters and histograms for get/put traffic, cache behavior, and
// put_all retries. Registry-injectable so a caller can supply their
// own prometheus.Registerer instead of the global default.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every counter/histogram/gauge this client emits.
type Metrics struct {
	GetRequests        prometheus.Counter
	PutRequests        prometheus.Counter
	GetAllRequests     prometheus.Counter
	PutAllRequests     prometheus.Counter
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
	CacheInvalidations prometheus.Counter
	PutAllRetries      prometheus.Counter
	UnaddressableKeys  prometheus.Counter
	ServerErrors       prometheus.Counter
	RequestLatency     *prometheus.HistogramVec
}

// New registers and returns a Metrics instance. If reg is nil, the
// collectors are created but not registered with any registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GetRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_get_requests_total",
			Help: "Total number of Get calls issued.",
		}),
		PutRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_put_requests_total",
			Help: "Total number of Put calls issued.",
		}),
		GetAllRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_get_all_requests_total",
			Help: "Total number of GetAll calls issued.",
		}),
		PutAllRequests: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_put_all_requests_total",
			Help: "Total number of PutAll calls issued.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_address_cache_hits_total",
			Help: "Routing cache lookups satisfied without a routing-tier query.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_address_cache_misses_total",
			Help: "Routing cache lookups that required a routing-tier query.",
		}),
		CacheInvalidations: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_address_cache_invalidations_total",
			Help: "Routing cache entries dropped due to a server invalidate flag.",
		}),
		PutAllRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_put_all_retries_total",
			Help: "PutAll calls that were transparently re-issued after an invalidate.",
		}),
		UnaddressableKeys: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_unaddressable_keys_total",
			Help: "Operations that found no worker endpoint for a key.",
		}),
		ServerErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "anna_client_server_errors_total",
			Help: "Per-tuple server errors observed in responses.",
		}),
		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "anna_client_request_latency_seconds",
			Help:    "Latency of a user-facing operation, by operation name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Noop returns a Metrics instance registered to a private registry, so
// a caller that doesn't care about metrics doesn't pollute the default
// Prometheus registry or collide with other Noop instances.
func Noop() *Metrics {
	return New(prometheus.NewRegistry())
}
