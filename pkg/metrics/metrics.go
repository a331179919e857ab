package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	AuditsTotal         *prometheus.CounterVec
	AuditDuration       *prometheus.HistogramVec
	CacheLookupsTotal   *prometheus.CounterVec
	CacheEvictionsTotal prometheus.Counter
}

// New registers the metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		AuditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audits_total",
				Help: "Total number of audit pipeline runs.",
			},
			[]string{"status", "stage"}, // status: success, failure, cached
		),
		AuditDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "audit_duration_seconds",
				Help:    "Duration of audit pipeline runs.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40},
			},
			[]string{"strategy"},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_cache_lookups_total",
				Help: "Audit cache lookups by result.",
			},
			[]string{"result"}, // hit, miss, error
		),
		CacheEvictionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "audit_cache_evictions_total",
				Help: "Expired audit cache entries removed by the sweeper.",
			},
		),
	}
}
