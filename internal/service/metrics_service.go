package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	upstreamFetch   prometheus.Histogram
	upstreamRows    prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	pendingRequests prometheus.Gauge
}

// NewMetricsService registers the service collectors on a fresh registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	upstreamFetch := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "upstream_fetch_duration_seconds",
		Help:    "Duration of observation fetches from the upstream API",
		Buckets: prometheus.DefBuckets,
	})

	upstreamRows := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "upstream_rows",
		Help: "Row count of the last upstream fetch",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_cache_hits_total",
		Help: "Total dataset cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dataset_cache_misses_total",
		Help: "Total dataset cache misses",
	})

	pendingRequests := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pending_requests",
		Help: "Download requests currently awaiting review",
	})

	registry.MustRegister(requestDuration, requestTotal, upstreamFetch, upstreamRows, cacheHits, cacheMisses, pendingRequests)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		upstreamFetch:   upstreamFetch,
		upstreamRows:    upstreamRows,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		pendingRequests: pendingRequests,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records one request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := []string{method, path, strconv.Itoa(status)}
	m.requestDuration.WithLabelValues(labels...).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(labels...).Inc()
}

// ObserveUpstreamFetch records one upstream pull.
func (m *MetricsService) ObserveUpstreamFetch(duration time.Duration, rows int) {
	if m == nil {
		return
	}
	m.upstreamFetch.Observe(duration.Seconds())
	m.upstreamRows.Set(float64(rows))
}

// ObserveCacheHit counts a dataset cache hit.
func (m *MetricsService) ObserveCacheHit() {
	if m == nil {
		return
	}
	m.cacheHits.Inc()
}

// ObserveCacheMiss counts a dataset cache miss.
func (m *MetricsService) ObserveCacheMiss() {
	if m == nil {
		return
	}
	m.cacheMisses.Inc()
}

// SetPendingRequests publishes the review queue depth.
func (m *MetricsService) SetPendingRequests(count int) {
	if m == nil {
		return
	}
	m.pendingRequests.Set(float64(count))
}
