// Package metrics exposes Prometheus collectors for the HTTP API and the code store.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wrale/arcade-auth/internal/codestore"
)

const namespace = "arcade"

var histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RateLimitHits   *prometheus.CounterVec
	CodesIssued     *prometheus.CounterVec
	CodesResolved   *prometheus.CounterVec
	CodesSweptTotal *prometheus.CounterVec
	CodesPending    *prometheus.GaugeVec
}

// New creates and registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		RateLimitHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "rate_limit_hits_total",
			Help:      "Number of rate-limited responses",
		}, []string{"route"}),
		CodesIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codes",
			Name:      "issued_total",
			Help:      "Device and confirmation codes issued",
		}, []string{"kind"}),
		CodesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codes",
			Name:      "resolved_total",
			Help:      "Code state transitions by resulting status",
		}, []string{"kind", "status"}),
		CodesSweptTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "codes",
			Name:      "swept_total",
			Help:      "Codes removed by the eviction sweep",
		}, []string{"kind"}),
		CodesPending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "codes",
			Name:      "pending",
			Help:      "Pending, unexpired codes as of the last sweep",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.RateLimitHits,
		m.CodesIssued,
		m.CodesResolved,
		m.CodesSweptTotal,
		m.CodesPending,
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		labels := prometheus.Labels{
			"method": r.Method,
			"route":  routePattern(r),
			"status": strconv.Itoa(status),
		}
		m.RequestsTotal.With(labels).Inc()
		m.RequestDuration.With(labels).Observe(time.Since(start).Seconds())
	})
}

// RateLimited counts a throttled request.
func (m *Metrics) RateLimited(r *http.Request) {
	m.RateLimitHits.WithLabelValues(r.URL.Path).Inc()
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// CodeIssued implements codestore.Recorder.
func (m *Metrics) CodeIssued(kind string) {
	m.CodesIssued.WithLabelValues(kind).Inc()
}

// CodeResolved implements codestore.Recorder.
func (m *Metrics) CodeResolved(kind string, status codestore.Status) {
	m.CodesResolved.WithLabelValues(kind, status.String()).Inc()
}

// CodesSwept implements codestore.Recorder.
func (m *Metrics) CodesSwept(kind string, n int) {
	if n > 0 {
		m.CodesSweptTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// SetPending implements codestore.Recorder.
func (m *Metrics) SetPending(kind string, n int) {
	m.CodesPending.WithLabelValues(kind).Set(float64(n))
}

var _ codestore.Recorder = (*Metrics)(nil)
