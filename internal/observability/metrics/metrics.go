package metrics

import (
	"database/sql"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "parking_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	analyticsTotal   *prometheus.CounterVec
	analyticsLatency *prometheus.HistogramVec
	analyticsDropped *prometheus.CounterVec

	recordsRejected *prometheus.CounterVec

	exportTotal   *prometheus.CounterVec
	exportLatency *prometheus.HistogramVec

	httpRequests *prometheus.CounterVec
)

// Init registers metrics and DB-backed gauges. Safe to call more than once.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		analyticsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analytics_requests_total",
				Help: "Total analytics computations by kind and result",
			},
			[]string{"kind", "result"},
		)
		analyticsLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "analytics_latency_seconds",
				Help:    "Analytics computation latency in seconds, including the read",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind", "result"},
		)
		analyticsDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "analytics_dropped_records_total",
				Help: "Records left out of an analytics result by kind and reason",
			},
			[]string{"kind", "reason"},
		)

		recordsRejected = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "records_rejected_total",
				Help: "Rows rejected at the data access boundary by source table",
			},
			[]string{"source"},
		)

		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "export_total",
				Help: "Total report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)

		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method and status class",
			},
			[]string{"method", "status"},
		)

		prometheus.MustRegister(
			analyticsTotal,
			analyticsLatency,
			analyticsDropped,
			recordsRejected,
			exportTotal,
			exportLatency,
			httpRequests,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveAnalytics records an analytics computation.
func ObserveAnalytics(kind, result string, duration time.Duration) {
	if kind == "" {
		kind = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if analyticsTotal != nil {
		analyticsTotal.WithLabelValues(kind, result).Inc()
	}
	if analyticsLatency != nil {
		analyticsLatency.WithLabelValues(kind, result).Observe(duration.Seconds())
	}
}

// AddAnalyticsDropped counts records an analytics result left out.
func AddAnalyticsDropped(kind, reason string, count int) {
	if count <= 0 {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	if analyticsDropped != nil {
		analyticsDropped.WithLabelValues(kind, reason).Add(float64(count))
	}
}

// AddRecordsRejected counts rows dropped while reading a source table.
func AddRecordsRejected(source string, count int) {
	if count <= 0 {
		return
	}
	if source == "" {
		source = "unknown"
	}
	if recordsRejected != nil {
		recordsRejected.WithLabelValues(source).Add(float64(count))
	}
}

// ObserveExport records export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncHTTPRequest counts a served request by status class (2xx, 4xx...).
func IncHTTPRequest(method string, status int) {
	if httpRequests == nil {
		return
	}
	class := "unknown"
	if status >= 100 && status < 600 {
		class = strconv.Itoa(status/100) + "xx"
	}
	httpRequests.WithLabelValues(method, class).Inc()
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)
