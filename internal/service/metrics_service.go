package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/school-office-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	uploadsTotal    *prometheus.CounterVec
	uploadBytes     prometheus.Histogram
	downloadsTotal  prometheus.Counter
	fanoutTotal     *prometheus.CounterVec

	requestCount         uint64
	requestDurationTotal uint64
	uploadCount          uint64
	downloadCount        uint64
	notifiedCount        uint64
	notifyFailedCount    uint64
}

// NewMetricsService registers core Prometheus collectors.
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

	uploadsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "document_uploads_total",
		Help: "Document uploads by outcome",
	}, []string{"result"})

	uploadBytes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "document_upload_bytes",
		Help:    "Size of stored uploads in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})

	downloadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "document_downloads_total",
		Help: "Total number of streamed document downloads",
	})

	fanoutTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_fanout_total",
		Help: "Notifications written by fan-out, by type and result",
	}, []string{"type", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, uploadsTotal, uploadBytes, downloadsTotal, fanoutTotal, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		uploadsTotal:    uploadsTotal,
		uploadBytes:     uploadBytes,
		downloadsTotal:  downloadsTotal,
		fanoutTotal:     fanoutTotal,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveUpload records an upload attempt that reached storage.
func (m *MetricsService) ObserveUpload(ok bool, size int64) {
	if m == nil {
		return
	}
	if !ok {
		m.uploadsTotal.WithLabelValues("rejected").Inc()
		return
	}
	m.uploadsTotal.WithLabelValues("stored").Inc()
	m.uploadBytes.Observe(float64(size))
	atomic.AddUint64(&m.uploadCount, 1)
}

// ObserveDownload counts a streamed download.
func (m *MetricsService) ObserveDownload() {
	if m == nil {
		return
	}
	m.downloadsTotal.Inc()
	atomic.AddUint64(&m.downloadCount, 1)
}

// ObserveFanout records the outcome of one fan-out.
func (m *MetricsService) ObserveFanout(kind string, succeeded, failed int) {
	if m == nil {
		return
	}
	m.fanoutTotal.WithLabelValues(kind, "delivered").Add(float64(succeeded))
	m.fanoutTotal.WithLabelValues(kind, "failed").Add(float64(failed))
	atomic.AddUint64(&m.notifiedCount, uint64(succeeded))
	atomic.AddUint64(&m.notifyFailedCount, uint64(failed))
}

// Snapshot returns aggregated counters for the admin status endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{GeneratedAt: time.Now().UTC()}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		Uploads:                  atomic.LoadUint64(&m.uploadCount),
		Downloads:                atomic.LoadUint64(&m.downloadCount),
		NotificationsDelivered:   atomic.LoadUint64(&m.notifiedCount),
		NotificationsFailed:      atomic.LoadUint64(&m.notifyFailedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
