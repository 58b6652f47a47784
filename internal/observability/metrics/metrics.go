// Package metrics exposes Prometheus collectors for the API and the
// calculation pipeline. Observe helpers are no-ops until Init is called, so
// packages can record unconditionally.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "energysplit_"

	ResultSuccess = "success"
	ResultError   = "error"
)

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	calculationTotal   *prometheus.CounterVec
	calculationLatency *prometheus.HistogramVec

	conservationFailures *prometheus.CounterVec
	thresholdAlerts      *prometheus.GaugeVec
	allocatedAmount      *prometheus.GaugeVec
)

// Init registers the collectors with the default registry.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		calculationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "calculations_total",
				Help: "Total calculations by result",
			},
			[]string{"result"},
		)
		calculationLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "calculation_latency_seconds",
				Help:    "Calculation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		conservationFailures = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "conservation_failures_total",
				Help: "Calculations whose costs or percentages drifted past tolerance, by category",
			},
			[]string{"category"},
		)
		thresholdAlerts = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "threshold_alerts",
				Help: "Readings currently above their threshold, by category",
			},
			[]string{"category"},
		)
		allocatedAmount = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "allocated_amount",
				Help: "Amount allocated by the latest calculation, by category",
			},
			[]string{"category"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			calculationTotal,
			calculationLatency,
			conservationFailures,
			thresholdAlerts,
			allocatedAmount,
		)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	if httpRequests != nil {
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	}
	if httpLatency != nil {
		httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
	}
}

// ObserveCalculation records calculation latency and result.
func ObserveCalculation(result string, duration time.Duration) {
	if result == "" {
		result = ResultSuccess
	}
	if calculationTotal != nil {
		calculationTotal.WithLabelValues(result).Inc()
	}
	if calculationLatency != nil {
		calculationLatency.WithLabelValues(result).Observe(duration.Seconds())
	}
}

// IncConservationFailure counts a category that failed validation.
func IncConservationFailure(category string) {
	if conservationFailures != nil {
		conservationFailures.WithLabelValues(category).Inc()
	}
}

// SetThresholdAlerts sets the number of active alerts of a category.
func SetThresholdAlerts(category string, n int) {
	if thresholdAlerts != nil {
		thresholdAlerts.WithLabelValues(category).Set(float64(n))
	}
}

// SetAllocatedAmount records the amount allocated for a category.
func SetAllocatedAmount(category string, amount float64) {
	if allocatedAmount != nil {
		allocatedAmount.WithLabelValues(category).Set(amount)
	}
}
