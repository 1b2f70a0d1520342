package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the service and widget layer.
// A nil *Metrics is valid and records nothing, so library callers can skip it.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Widget metrics
	WidgetBuilds  *prometheus.CounterVec
	Fetches       *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	Notifications *prometheus.CounterVec

	// Data source metrics
	DataQueries *prometheus.CounterVec

	// Upstream circuit breaker
	BreakerChanges *prometheus.CounterVec
	BreakerOpen    prometheus.Gauge

	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics registers all collectors on a fresh registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	m := &Metrics{
		Registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widgetkit_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "widgetkit_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "widgetkit_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000},
			},
			[]string{"method", "path"},
		),

		WidgetBuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widgetkit_widget_builds_total",
				Help: "Widget configurations built and attached, by kind",
			},
			[]string{"kind"},
		),
		Fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widgetkit_fetches_total",
				Help: "Widget data requests, by widget kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "widgetkit_fetch_duration_seconds",
				Help:    "Widget data request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widgetkit_notifications_total",
				Help: "Notifications displayed, by type",
			},
			[]string{"type"},
		),

		DataQueries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widgetkit_data_queries_total",
				Help: "Data source queries, by table and envelope format",
			},
			[]string{"table", "format"},
		),

		BreakerChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "widgetkit_upstream_breaker_changes_total",
				Help: "Upstream endpoint circuit breaker state changes, by new state",
			},
			[]string{"to"},
		),
		BreakerOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "widgetkit_upstream_breakers_open",
				Help: "Upstream endpoints whose circuit breaker is not closed",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "widgetkit_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, respSize int64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	if respSize > 0 {
		m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
	}
}

// RecordWidgetBuild counts a widget attached to a document
func (m *Metrics) RecordWidgetBuild(kind string) {
	if m == nil {
		return
	}
	m.WidgetBuilds.WithLabelValues(kind).Inc()
}

// RecordFetch records the outcome of one widget data request
func (m *Metrics) RecordFetch(kind, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.Fetches.WithLabelValues(kind, outcome).Inc()
	m.FetchDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordNotification counts a displayed notification
func (m *Metrics) RecordNotification(kind string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(kind).Inc()
}

// RecordDataQuery counts a data source query
func (m *Metrics) RecordDataQuery(table, format string) {
	if m == nil {
		return
	}
	m.DataQueries.WithLabelValues(table, format).Inc()
}

// RecordBreakerChange counts a breaker state change and tracks how many
// endpoints are currently not closed
func (m *Metrics) RecordBreakerChange(from, to string) {
	if m == nil {
		return
	}
	m.BreakerChanges.WithLabelValues(to).Inc()
	wasOpen, isOpen := from != "closed", to != "closed"
	switch {
	case isOpen && !wasOpen:
		m.BreakerOpen.Inc()
	case wasOpen && !isOpen:
		m.BreakerOpen.Dec()
	}
}
