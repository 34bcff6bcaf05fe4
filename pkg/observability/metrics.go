package observability

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Reconciliation metrics
	ReconcilePassesTotal    *prometheus.CounterVec
	ReconcilePassDuration   prometheus.Histogram
	MembershipFailuresTotal prometheus.Counter

	// Billing metrics
	InvoicesIssuedTotal  prometheus.Counter
	InvoicedCentsTotal   prometheus.Counter
	RemindersSentTotal   *prometheus.CounterVec
	RemindersFailedTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dues_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dues_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ReconcilePassesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dues_reconcile_passes_total",
				Help: "Total number of billing reconciliation passes",
			},
			[]string{"result"},
		),
		ReconcilePassDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dues_reconcile_pass_duration_seconds",
				Help:    "Billing reconciliation pass duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		MembershipFailuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dues_reconcile_membership_failures_total",
				Help: "Total number of memberships that failed during a pass",
			},
		),
		InvoicesIssuedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dues_invoices_issued_total",
				Help: "Total number of invoices issued",
			},
		),
		InvoicedCentsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dues_invoiced_cents_total",
				Help: "Total invoiced amount in cents",
			},
		),
		RemindersSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dues_reminders_sent_total",
				Help: "Total number of reminders delivered",
			},
			[]string{"kind"},
		),
		RemindersFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dues_reminders_failed_total",
				Help: "Total number of reminder delivery failures",
			},
			[]string{"kind"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dues_db_connections_active",
				Help: "Number of active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dues_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ReconcilePassesTotal,
		m.ReconcilePassDuration,
		m.MembershipFailuresTotal,
		m.InvoicesIssuedTotal,
		m.InvoicedCentsTotal,
		m.RemindersSentTotal,
		m.RemindersFailedTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns an HTTP handler serving the metrics registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDBStats copies database pool stats into the gauges
func (m *Metrics) ObserveDBStats(db *sql.DB) {
	if db == nil {
		return
	}
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}

// HTTPMiddleware records request counts and latencies
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &metricsResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		m.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(rw.statusCode)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
	})
}

// metricsResponseWriter captures the response status code
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
