// Package metrics exposes Prometheus metrics for the HTTP surface and the
// emergency pipelines.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medipulse"

// Collector owns a private registry and every metric the service exports.
type Collector struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec

	emergencies      *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
	dispatches       *prometheus.CounterVec
	completions      *prometheus.CounterVec
	completionTime   *prometheus.HistogramVec
}

// NewCollector constructs a collector and registers its metrics.
func NewCollector() (*Collector, error) {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency distribution for inbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of inbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		emergencies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emergencies_total",
			Help:      "Emergencies handled, by type and pipeline outcome.",
		}, []string{"type", "outcome"}),
		pipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent running an emergency pipeline.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"type"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Ambulance dispatch attempts by outcome.",
		}, []string{"outcome"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_calls_total",
			Help:      "Advisory completion calls by operation and status.",
		}, []string{"operation", "status"}),
		completionTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Latency of advisory completion calls.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"operation"}),
	}

	for _, m := range []prometheus.Collector{
		c.requestDuration, c.requestTotal,
		c.emergencies, c.pipelineDuration, c.dispatches,
		c.completions, c.completionTime,
	} {
		if err := registry.Register(m); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveEmergency records the outcome of one pipeline run.
func (c *Collector) ObserveEmergency(emergencyType, outcome string, duration time.Duration) {
	c.emergencies.WithLabelValues(emergencyType, outcome).Inc()
	c.pipelineDuration.WithLabelValues(emergencyType).Observe(duration.Seconds())
}

// ObserveDispatch records an ambulance dispatch attempt.
func (c *Collector) ObserveDispatch(outcome string) {
	c.dispatches.WithLabelValues(outcome).Inc()
}

// ObserveCompletion records an advisory completion call.
func (c *Collector) ObserveCompletion(operation, status string, duration time.Duration) {
	c.completions.WithLabelValues(operation, status).Inc()
	c.completionTime.WithLabelValues(operation).Observe(duration.Seconds())
}

// InstrumentHandler wraps the provided handler to record HTTP metrics. Paths
// are labelled by their route pattern to bound cardinality.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.status)
		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}

		c.requestTotal.WithLabelValues(r.Method, path, status).Inc()
		c.requestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (w *responseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
