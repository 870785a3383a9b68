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

	askRequestsTotal   *prometheus.CounterVec
	refusalsTotal      *prometheus.CounterVec
	citationPathTotal  *prometheus.CounterVec
	cacheLookupsTotal  *prometheus.CounterVec
	retrievedChunks    *prometheus.HistogramVec
	askStageDuration   *prometheus.HistogramVec
	citationsPerAnswer *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyqa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policyqa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "policyqa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	askRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyqa",
			Subsystem: "ask",
			Name:      "requests_total",
			Help:      "Total completed ask requests.",
		},
		[]string{"service"},
	)
	refusalsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyqa",
			Subsystem: "ask",
			Name:      "refusals_total",
			Help:      "Total refused ask requests by gate reason.",
		},
		[]string{"service", "reason"},
	)
	citationPathTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyqa",
			Subsystem: "ask",
			Name:      "citation_path_total",
			Help:      "Total answers by grounding path.",
		},
		[]string{"service", "path"},
	)
	cacheLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "policyqa",
			Subsystem: "ask",
			Name:      "cache_lookups_total",
			Help:      "Total retrieval cache lookups by result.",
		},
		[]string{"service", "result"},
	)
	retrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policyqa",
			Subsystem: "ask",
			Name:      "retrieved_chunks",
			Help:      "Distribution of ranked chunks per ask request after filtering.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		},
		[]string{"service"},
	)
	askStageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policyqa",
			Subsystem: "ask",
			Name:      "stage_duration_seconds",
			Help:      "Ask pipeline stage duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "stage"},
	)
	citationsPerAnswer := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "policyqa",
			Subsystem: "ask",
			Name:      "citations_per_answer",
			Help:      "Distribution of citations attached to answered requests.",
			Buckets:   []float64{0, 1, 2},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		askRequestsTotal,
		refusalsTotal,
		citationPathTotal,
		cacheLookupsTotal,
		retrievedChunks,
		askStageDuration,
		citationsPerAnswer,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		askRequestsTotal:   askRequestsTotal,
		refusalsTotal:      refusalsTotal,
		citationPathTotal:  citationPathTotal,
		cacheLookupsTotal:  cacheLookupsTotal,
		retrievedChunks:    retrievedChunks,
		askStageDuration:   askStageDuration,
		citationsPerAnswer: citationsPerAnswer,
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

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordAsk captures the pipeline outcome of one completed ask request.
// Reason is empty for answered requests; citationPath is empty for refusals
// observed before generation.
func (m *HTTPServerMetrics) RecordAsk(service, reason, citationPath string, resultCount, citationCount int, cacheHit bool) {
	m.askRequestsTotal.WithLabelValues(service).Inc()
	m.retrievedChunks.WithLabelValues(service).Observe(float64(resultCount))

	if reason != "" {
		m.refusalsTotal.WithLabelValues(service, reason).Inc()
	}
	if citationPath != "" {
		m.citationPathTotal.WithLabelValues(service, citationPath).Inc()
	}
	if reason == "" {
		m.citationsPerAnswer.WithLabelValues(service).Observe(float64(citationCount))
	}

	result := "miss"
	if cacheHit {
		result = "hit"
	}
	m.cacheLookupsTotal.WithLabelValues(service, result).Inc()
}

func (m *HTTPServerMetrics) RecordAskStage(service, stage string, millis int64) {
	if millis < 0 {
		return
	}
	m.askStageDuration.WithLabelValues(service, stage).Observe(float64(millis) / 1000.0)
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
