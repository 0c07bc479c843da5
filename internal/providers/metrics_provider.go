package providers

import (
	"time"
	"wikistats/internal/structures"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	IncDiskCacheHits()
	IncDiskCacheMisses()
	IncUpstreamRequests(kind string)
	IncUpstreamRetries(kind string)
	IncUpstreamRateLimited()
	ObserveUpstreamDuration(kind string, duration time.Duration)
}

type MetricsProvider struct {
	requestsTotal       *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
	cacheHits           prometheus.Counter
	cacheMisses         prometheus.Counter
	diskCacheHits       prometheus.Counter
	diskCacheMisses     prometheus.Counter
	upstreamRequests    *prometheus.CounterVec
	upstreamRetries     *prometheus.CounterVec
	upstreamRateLimited prometheus.Counter
	upstreamDuration    *prometheus.HistogramVec
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) IncDiskCacheHits() {
	m.diskCacheHits.Inc()
}

func (m *MetricsProvider) IncDiskCacheMisses() {
	m.diskCacheMisses.Inc()
}

func (m *MetricsProvider) IncUpstreamRequests(kind string) {
	m.upstreamRequests.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncUpstreamRetries(kind string) {
	m.upstreamRetries.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) IncUpstreamRateLimited() {
	m.upstreamRateLimited.Inc()
}

func (m *MetricsProvider) ObserveUpstreamDuration(kind string, duration time.Duration) {
	m.upstreamDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	m := &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wikistats_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wikistats_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wikistats_response_cache_hits_total",
			Help: "Total number of in-memory response cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wikistats_response_cache_misses_total",
			Help: "Total number of in-memory response cache misses",
		}),

		diskCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wikistats_disk_cache_hits_total",
			Help: "Total number of on-disk MediaWiki cache hits",
		}),

		diskCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wikistats_disk_cache_misses_total",
			Help: "Total number of on-disk MediaWiki cache misses",
		}),

		upstreamRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wikistats_upstream_requests_total",
			Help: "Total number of MediaWiki API requests",
		}, []string{"kind"}),

		upstreamRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wikistats_upstream_retries_total",
			Help: "Total number of retried MediaWiki API requests",
		}, []string{"kind"}),

		upstreamRateLimited: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wikistats_upstream_rate_limited_total",
			Help: "Total number of requests rejected by the rate-limit cooldown",
		}),

		upstreamDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wikistats_upstream_duration_seconds",
			Help:    "MediaWiki API call duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	return m
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                  {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration)  {}
func (n *noopMetrics) IncCacheHits()                                     {}
func (n *noopMetrics) IncCacheMisses()                                   {}
func (n *noopMetrics) IncDiskCacheHits()                                 {}
func (n *noopMetrics) IncDiskCacheMisses()                               {}
func (n *noopMetrics) IncUpstreamRequests(_ string)                      {}
func (n *noopMetrics) IncUpstreamRetries(_ string)                       {}
func (n *noopMetrics) IncUpstreamRateLimited()                           {}
func (n *noopMetrics) ObserveUpstreamDuration(_ string, _ time.Duration) {}
