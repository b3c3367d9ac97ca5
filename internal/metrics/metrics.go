// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerOperations counts ledger mutations.
	// Labels: op (append, complete, remove), result (success, error)
	LedgerOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "touchbase",
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of communication ledger operations",
		},
		[]string{"op", "result"},
	)

	// Notifications is the size of each notification bucket at the last
	// check. Labels: bucket (overdue, due_today)
	Notifications = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "touchbase",
			Subsystem: "schedule",
			Name:      "notifications",
			Help:      "Pending communications that are overdue or due today",
		},
		[]string{"bucket"},
	)

	// CacheRequests counts company snapshot lookups.
	// Labels: result (hit, miss, error)
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "touchbase",
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Total number of company cache lookups",
		},
		[]string{"result"},
	)

	// HTTPRequestDuration tracks API latency.
	// Labels: method, route, status
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "touchbase",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Result maps an error to the result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
