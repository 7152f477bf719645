package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the in-process request counters wired into every route's
// middleware chain. Shipping them to an external collector is out of
// scope; this only exposes what the process itself observed, the way the
// teacher's registry API exposes a local /metrics endpoint rather than
// pushing to a remote gateway.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics builds a fresh registry scoped to one process, rather than
// registering onto prometheus's package-level default registerer, so
// multiple Metrics instances (e.g. across tests) never collide.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_http_requests_total",
			Help: "Total HTTP requests served by the gateway core, by route and status.",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "gateway_http_request_duration_seconds",
			Help: "HTTP request latency in seconds, by route.",
		}, []string{"route"}),
	}
	m.registry.MustRegister(m.requestsTotal, m.requestDuration)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records one request-count and one latency observation per
// request, keyed by the route pattern chi matched rather than the raw URL
// path, so an unbounded set of server/tool names in the path never
// inflates label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// WithMetrics installs m's request-counting middleware on every route and
// exposes its registry at /metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *chi.Mux) {
		r.Use(m.Middleware)
		r.Get("/metrics", m.Handler().ServeHTTP)
	}
}
