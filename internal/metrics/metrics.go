package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, route, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	// RequestTotal counts HTTP requests by method, route, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// BridgeQueueDepth is the number of operations waiting in the dispatch queue.
	BridgeQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_queue_depth",
			Help: "Operations waiting in the dispatch bridge queue",
		},
	)

	// BridgeOpsInFlight is the number of storage operations currently executing.
	// Bounded by the worker count.
	BridgeOpsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_ops_in_flight",
			Help: "Storage operations currently executing on bridge workers",
		},
	)

	// BridgeOpsTotal counts completed bridge operations by op name and outcome.
	BridgeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_ops_total",
			Help: "Total bridge operations by op and outcome",
		},
		[]string{"op", "outcome"},
	)

	// RedirectsTotal counts slug resolutions by outcome (hit, inactive, miss).
	RedirectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total slug resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// OrphansPurgedTotal counts orphan links removed by the sweeper.
	OrphansPurgedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orphans_purged_total",
			Help: "Total orphan links purged by the sweeper",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration,
		RequestTotal,
		BridgeQueueDepth,
		BridgeOpsInFlight,
		BridgeOpsTotal,
		RedirectsTotal,
		OrphansPurgedTotal,
	)
}

// RecordRequest records duration and count for an HTTP request. route should be
// the chi route pattern, not the raw path, to keep cardinality bounded.
func RecordRequest(method, route string, statusCode int, durationSeconds float64) {
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, route, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, route, status).Inc()
}

// RecordBridgeOp records a completed bridge operation.
func RecordBridgeOp(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	BridgeOpsTotal.WithLabelValues(op, outcome).Inc()
}
