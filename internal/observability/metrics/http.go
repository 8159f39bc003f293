package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	classifierCallsTotal *prometheus.CounterVec
	recommendationsTotal *prometheus.CounterVec
	uploadsTotal         *prometheus.CounterVec
	uploadBytes          prometheus.Histogram
	rateLimitedTotal     prometheus.Counter
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diary",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "diary",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "diary",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	classifierCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diary",
			Subsystem: "classifier",
			Name:      "calls_total",
			Help:      "Category classifier calls by outcome.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
		[]string{"outcome"},
	)
	recommendationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diary",
			Subsystem: "layout",
			Name:      "recommendations_total",
			Help:      "Layout recommendations served by category and mode.",
		},
		[]string{"service", "category", "mode"},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "diary",
			Subsystem: "images",
			Name:      "uploads_total",
			Help:      "Uploaded images by whether GPS metadata was found.",
		},
		[]string{"service", "gps"},
	)
	uploadBytes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "diary",
			Subsystem: "images",
			Name:      "upload_bytes",
			Help:      "Size distribution of uploaded images.",
			Buckets:   prometheus.ExponentialBuckets(64<<10, 2, 10),
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rateLimitedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "diary",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		classifierCallsTotal,
		recommendationsTotal,
		uploadsTotal,
		uploadBytes,
		rateLimitedTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		classifierCallsTotal: classifierCallsTotal,
		recommendationsTotal: recommendationsTotal,
		uploadsTotal:         uploadsTotal,
		uploadBytes:          uploadBytes,
		rateLimitedTotal:     rateLimitedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath replaces identifiers with placeholders to bound label
// cardinality.
func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	for i := 1; i < len(parts); i++ {
		if parts[i-1] == "" || parts[i] == "" {
			continue
		}
		switch parts[i-1] {
		case "diaries":
			parts[i] = "{diary_id}"
		case "images":
			parts[i] = "{image_id}"
		case "layouts":
			if _, err := strconv.Atoi(parts[i]); err == nil {
				parts[i] = "{index}"
			}
		}
	}
	return strings.Join(parts, "/")
}

// RecordClassification implements the classifier's outcome recorder.
func (m *HTTPServerMetrics) RecordClassification(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.classifierCallsTotal.WithLabelValues(outcome).Inc()
}

func (m *HTTPServerMetrics) RecordRecommendation(service, category, mode string) {
	if category == "" {
		category = "unknown"
	}
	m.recommendationsTotal.WithLabelValues(service, category, mode).Inc()
}

func (m *HTTPServerMetrics) RecordUpload(service string, size int64, hasGPS bool) {
	m.uploadsTotal.WithLabelValues(service, strconv.FormatBool(hasGPS)).Inc()
	m.uploadBytes.Observe(float64(size))
}

func (m *HTTPServerMetrics) RecordRateLimited() {
	m.rateLimitedTotal.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
