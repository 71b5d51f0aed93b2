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

	queryTotal          *prometheus.CounterVec
	queryStrategyTotal  *prometheus.CounterVec
	queryDuration       *prometheus.HistogramVec
	fusedContexts       *prometheus.HistogramVec
	sourceFailuresTotal *prometheus.CounterVec
	securityViolations  *prometheus.CounterVec
	fallbackTotal       *prometheus.CounterVec
	cacheHitsTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lrag",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lrag",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lrag",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lrag",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total completed hybrid queries by outcome.",
		},
		[]string{"service", "outcome"},
	)
	queryStrategyTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lrag",
			Subsystem: "query",
			Name:      "strategy_total",
			Help:      "Total hybrid queries by processing strategy.",
		},
		[]string{"service", "strategy"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lrag",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Hybrid query duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	fusedContexts := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lrag",
			Subsystem: "query",
			Name:      "fused_contexts",
			Help:      "Distribution of fused context counts per query.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15},
		},
		[]string{"service", "source"},
	)
	sourceFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lrag",
			Subsystem: "retrieval",
			Name:      "source_failures_total",
			Help:      "Total degraded retrieval sources by plane.",
		},
		[]string{"service", "source"},
	)
	securityViolations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lrag",
			Subsystem: "security",
			Name:      "violations_total",
			Help:      "Total partition denials and owner mismatches.",
		},
		[]string{"service", "kind"},
	)
	fallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lrag",
			Subsystem: "synthesis",
			Name:      "fallback_total",
			Help:      "Total responses served by the deterministic fallback.",
		},
		[]string{"service"},
	)
	cacheHitsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lrag",
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total cache hits by cache class.",
		},
		[]string{"service", "operation"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryTotal,
		queryStrategyTotal,
		queryDuration,
		fusedContexts,
		sourceFailuresTotal,
		securityViolations,
		fallbackTotal,
		cacheHitsTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		queryTotal:          queryTotal,
		queryStrategyTotal:  queryStrategyTotal,
		queryDuration:       queryDuration,
		fusedContexts:       fusedContexts,
		sourceFailuresTotal: sourceFailuresTotal,
		securityViolations:  securityViolations,
		fallbackTotal:       fallbackTotal,
		cacheHitsTotal:      cacheHitsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) RecordQuery(service, outcome, strategy string, contextsUsed int, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.queryTotal.WithLabelValues(service, outcome).Inc()
	if strategy != "" {
		m.queryStrategyTotal.WithLabelValues(service, strategy).Inc()
	}
	m.queryDuration.WithLabelValues(service).Observe(duration.Seconds())
	m.fusedContexts.WithLabelValues(service, "all").Observe(float64(contextsUsed))
}

func (m *HTTPServerMetrics) RecordContextMix(service string, personal, publicSemantic, publicGraph int) {
	m.fusedContexts.WithLabelValues(service, "personal").Observe(float64(personal))
	m.fusedContexts.WithLabelValues(service, "public_semantic").Observe(float64(publicSemantic))
	m.fusedContexts.WithLabelValues(service, "public_graph").Observe(float64(publicGraph))
}

func (m *HTTPServerMetrics) RecordSourceFailure(service, source string) {
	if source == "" {
		source = "unknown"
	}
	m.sourceFailuresTotal.WithLabelValues(service, source).Inc()
}

func (m *HTTPServerMetrics) RecordSecurityViolation(service, kind string) {
	if kind == "" {
		kind = "unknown"
	}
	m.securityViolations.WithLabelValues(service, kind).Inc()
}

func (m *HTTPServerMetrics) RecordFallback(service string) {
	m.fallbackTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordCacheHit(service, operation string) {
	if operation == "" {
		operation = "unknown"
	}
	m.cacheHitsTotal.WithLabelValues(service, operation).Inc()
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
	case strings.HasPrefix(path, "/v1/sessions/"):
		return "/v1/sessions/{session_id}"
	default:
		return path
	}
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
