package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the service.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	periodsOpened    prometheus.Counter
	periodsClosed    prometheus.Counter
	reportsGenerated *prometheus.CounterVec
	varianceOutcomes *prometheus.CounterVec
}

// NewMetrics initialises the registry and the base metric set.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opentill_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "opentill_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	opened := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opentill_work_periods_opened_total",
		Help: "Work periods opened.",
	})
	closed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "opentill_work_periods_closed_total",
		Help: "Work periods closed.",
	})
	reports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opentill_reports_generated_total",
		Help: "Reports generated by type.",
	}, []string{"type"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opentill_close_variance_outcomes_total",
		Help: "Close reconciliation outcomes.",
	}, []string{"outcome"})
	registry.MustRegister(requests, duration, opened, closed, reports, outcomes)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		periodsOpened:    opened,
		periodsClosed:    closed,
		reportsGenerated: reports,
		varianceOutcomes: outcomes,
	}
}

// Handler exposes the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// PeriodOpened increments the opened counter.
func (m *Metrics) PeriodOpened() {
	if m != nil {
		m.periodsOpened.Inc()
	}
}

// PeriodClosed increments the closed counter.
func (m *Metrics) PeriodClosed() {
	if m != nil {
		m.periodsClosed.Inc()
	}
}

// ReportGenerated counts a generated report, typ is "x" or "z".
func (m *Metrics) ReportGenerated(typ string) {
	if m != nil {
		m.reportsGenerated.WithLabelValues(typ).Inc()
	}
}

// VarianceOutcome counts a reconciliation outcome label.
func (m *Metrics) VarianceOutcome(outcome string) {
	if m != nil {
		m.varianceOutcomes.WithLabelValues(outcome).Inc()
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware instruments request counts and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
