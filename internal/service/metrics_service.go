package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. A nil service is a no-op.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	activitiesCreated prometheus.Counter
	activityReviews   *prometheus.CounterVec
	quotaRejections   *prometheus.CounterVec
	certificateBytes  prometheus.Histogram
	exportsGenerated  *prometheus.CounterVec
	exportsCleaned    prometheus.Counter

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers the Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache set operations",
			Buckets: prometheus.DefBuckets,
		}),
		cacheHitRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cache_hit_ratio",
			Help: "Ratio of cache hits to total cache lookups",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total cache hits",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total cache misses",
		}),
		activitiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sagha_activities_created_total",
			Help: "Activity requests accepted for analysis",
		}),
		activityReviews: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sagha_activity_reviews_total",
			Help: "Activity reviews by resulting status",
		}, []string{"status"}),
		quotaRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sagha_quota_rejections_total",
			Help: "Requests rejected by an hour quota check",
		}, []string{"check"}),
		certificateBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sagha_certificate_upload_bytes",
			Help:    "Size of uploaded certificates",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 6),
		}),
		exportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sagha_exports_generated_total",
			Help: "Hour statements generated by format",
		}, []string{"format"}),
		exportsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sagha_exports_cleaned_total",
			Help: "Expired export files removed",
		}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.cacheLatency, m.cacheWrite, m.cacheHitRatio, m.cacheHits, m.cacheMisses,
		m.activitiesCreated, m.activityReviews, m.quotaRejections, m.certificateBytes, m.exportsGenerated, m.exportsCleaned, goroutines)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ActivityCreated counts an accepted activity and its certificate size.
func (m *MetricsService) ActivityCreated(certificateSize int64) {
	if m == nil {
		return
	}
	m.activitiesCreated.Inc()
	m.certificateBytes.Observe(float64(certificateSize))
}

// ActivityReviewed counts a completed review.
func (m *MetricsService) ActivityReviewed(status string) {
	if m == nil {
		return
	}
	m.activityReviews.WithLabelValues(status).Inc()
}

// QuotaRejected counts a rejection by the named check.
func (m *MetricsService) QuotaRejected(check string) {
	if m == nil {
		return
	}
	m.quotaRejections.WithLabelValues(check).Inc()
}

// ExportGenerated counts a generated hour statement.
func (m *MetricsService) ExportGenerated(format string) {
	if m == nil {
		return
	}
	m.exportsGenerated.WithLabelValues(format).Inc()
}

// ExportsCleaned counts removed export files.
func (m *MetricsService) ExportsCleaned(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.exportsCleaned.Add(float64(n))
}
