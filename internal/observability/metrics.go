// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Issuance metrics
	PurchasesTotal  *prometheus.CounterVec
	RefundsTotal    *prometheus.CounterVec
	TicketsMinted   *prometheus.CounterVec
	TicketsRefunded prometheus.Counter
	RevenueTotal    *prometheus.CounterVec

	// Pricing metrics
	PriceComputations   *prometheus.CounterVec
	OracleResolutions   *prometheus.CounterVec
	ComputedPrice       *prometheus.GaugeVec
	PriceComputeLatency prometheus.Histogram

	// API metrics
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestErrors   *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastPurchaseTimestamp prometheus.Gauge
	PricingFrozen         prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ticketd"
	}

	return &Metrics{
		// Issuance metrics
		PurchasesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issuance",
			Name:      "purchases_total",
			Help:      "Total number of purchase attempts by tier and status",
		}, []string{"tier", "status"}),
		RefundsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issuance",
			Name:      "refunds_total",
			Help:      "Total number of refund attempts by status",
		}, []string{"status"}),
		TicketsMinted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issuance",
			Name:      "tickets_minted_total",
			Help:      "Total number of tickets minted by tier and origin",
		}, []string{"tier", "origin"}),
		TicketsRefunded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issuance",
			Name:      "tickets_refunded_total",
			Help:      "Total number of tickets refunded and burned",
		}),
		RevenueTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "issuance",
			Name:      "revenue_total",
			Help:      "Total revenue collected by tier, in price units",
		}, []string{"tier"}),

		// Pricing metrics
		PriceComputations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "computations_total",
			Help:      "Total number of price computations by tier",
		}, []string{"tier"}),
		OracleResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "oracle_resolutions_total",
			Help:      "Total number of oracle resolutions by source outcome",
		}, []string{"source"}),
		ComputedPrice: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "computed_price",
			Help:      "Most recently computed price by tier",
		}, []string{"tier"}),
		PriceComputeLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "compute_latency_seconds",
			Help:      "Price computation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// API metrics
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		HTTPRequestErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_errors_total",
			Help:      "Total number of HTTP error responses by route and code",
		}, []string{"route", "code"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"operation"}),

		// Health metrics
		LastPurchaseTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_purchase_timestamp",
			Help:      "Unix timestamp of the last successful purchase",
		}),
		PricingFrozen: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "pricing_frozen",
			Help:      "1 when pricing is frozen, 0 otherwise",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPurchase records a purchase attempt outcome for a tier.
func RecordPurchase(tier, status string) {
	DefaultMetrics.PurchasesTotal.WithLabelValues(tier, status).Inc()
}

// RecordRefund records a refund attempt outcome.
func RecordRefund(status string) {
	DefaultMetrics.RefundsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		DefaultMetrics.TicketsRefunded.Inc()
	}
}

// RecordMint records minted tickets for a tier.
func RecordMint(tier, origin string, count int) {
	DefaultMetrics.TicketsMinted.WithLabelValues(tier, origin).Add(float64(count))
}

// RecordRevenue adds collected revenue for a tier.
func RecordRevenue(tier string, amount int64) {
	DefaultMetrics.RevenueTotal.WithLabelValues(tier).Add(float64(amount))
}

// RecordPriceComputation records a price computation and its result.
func RecordPriceComputation(tier string, price int64, seconds float64) {
	DefaultMetrics.PriceComputations.WithLabelValues(tier).Inc()
	DefaultMetrics.ComputedPrice.WithLabelValues(tier).Set(float64(price))
	DefaultMetrics.PriceComputeLatency.Observe(seconds)
}

// RecordOracleResolution records which source served a resolution:
// "primary", "fallback", or "none".
func RecordOracleResolution(source string) {
	DefaultMetrics.OracleResolutions.WithLabelValues(source).Inc()
}

// RecordHTTPRequest records one HTTP request.
func RecordHTTPRequest(route, method string, code int, seconds float64) {
	DefaultMetrics.HTTPRequestDuration.WithLabelValues(route, method).Observe(seconds)
	if code >= 400 {
		DefaultMetrics.HTTPRequestErrors.WithLabelValues(route, http.StatusText(code)).Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// SetPricingFrozen updates the frozen-state gauge.
func SetPricingFrozen(frozen bool) {
	if frozen {
		DefaultMetrics.PricingFrozen.Set(1)
	} else {
		DefaultMetrics.PricingFrozen.Set(0)
	}
}

// MarkPurchase updates the last-purchase health gauge.
func MarkPurchase(unixSeconds int64) {
	DefaultMetrics.LastPurchaseTimestamp.Set(float64(unixSeconds))
}
