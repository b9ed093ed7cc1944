package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	transactionsPosted *prometheus.CounterVec
	postingsRejected   *prometheus.CounterVec
	periodsClosed      prometheus.Counter
	factRebuildRows    prometheus.Counter
}

// NewMetrics initializes the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meridian_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	posted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_ledger_transactions_posted_total",
		Help: "Posted accounting transactions by fiscal type.",
	}, []string{"fiscal_type"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_ledger_postings_rejected_total",
		Help: "Rejected posting attempts by reason code.",
	}, []string{"reason"})
	closed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_ledger_periods_closed_total",
		Help: "Fiscal periods closed.",
	})
	rebuildRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_ledger_fact_rebuild_rows_total",
		Help: "Fact rows written by rebuild runs.",
	})
	registry.MustRegister(requests, duration, posted, rejected, closed, rebuildRows)
	return &Metrics{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:      requests,
		requestDuration:    duration,
		transactionsPosted: posted,
		postingsRejected:   rejected,
		periodsClosed:      closed,
		factRebuildRows:    rebuildRows,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// TransactionPosted counts a successful post by fiscal type.
func (m *Metrics) TransactionPosted(fiscalType string) {
	if m == nil {
		return
	}
	m.transactionsPosted.WithLabelValues(fiscalType).Inc()
}

// PostingRejected counts a rejected posting attempt by reason code.
func (m *Metrics) PostingRejected(reason string) {
	if m == nil {
		return
	}
	m.postingsRejected.WithLabelValues(reason).Inc()
}

// PeriodClosed counts a period close.
func (m *Metrics) PeriodClosed() {
	if m == nil {
		return
	}
	m.periodsClosed.Inc()
}

// FactRowsRebuilt adds rows written by a fact rebuild.
func (m *Metrics) FactRowsRebuilt(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.factRebuildRows.Add(float64(n))
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
