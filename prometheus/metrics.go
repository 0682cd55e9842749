package prometheus

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Stock transaction counter by type
	StockTransactionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_stock_transactions_total",
			Help: "Total number of stock transactions recorded, by type",
		},
		[]string{"type"}, // stock-in, stock-out, adjustment, expired, return
	)

	// Rejected stock mutation counter
	StockRejectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_stock_rejections_total",
			Help: "Total number of rejected stock mutations",
		},
		[]string{"reason"}, // insufficient_stock, invalid_argument, not_found
	)

	// Login counter
	LoginCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pharmacy_login_total",
			Help: "Total number of login attempts",
		},
	)

	// Registration counter
	RegisterCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pharmacy_register_total",
			Help: "Total number of user registrations",
		},
	)

	// Auth error counter
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pharmacy_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // login_failure, invalid_token, db_error...
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmacy_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pharmacy_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Gauge metrics
var (
	// Low-stock medicines, refreshed by the report handler
	LowStockGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pharmacy_low_stock_medicines",
			Help: "Number of medicines at or below their reorder level",
		},
	)

	// Expired medicines, refreshed by the report handler
	ExpiredGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pharmacy_expired_medicines",
			Help: "Number of medicines past their expiry date",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pharmacy_info",
			Help: "Information about the pharmacy service",
		},
		[]string{"version"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(StockTransactionCounter)
	prometheus.MustRegister(StockRejectionCounter)
	prometheus.MustRegister(LoginCounter)
	prometheus.MustRegister(RegisterCounter)
	prometheus.MustRegister(AuthErrorCounter)

	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	prometheus.MustRegister(LowStockGauge)
	prometheus.MustRegister(ExpiredGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// RecordStockTransaction records a committed stock transaction by type
func RecordStockTransaction(txType string) {
	StockTransactionCounter.With(prometheus.Labels{"type": txType}).Inc()
}

// RecordStockRejection records a rejected stock mutation by reason
func RecordStockRejection(reason string) {
	StockRejectionCounter.With(prometheus.Labels{"reason": reason}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}
