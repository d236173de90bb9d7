// Package metrics exposes the Prometheus instrumentation shared by the HTTP
// layer, the fetch client and the aggregation engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector bundles every metric the service records.
type Collector struct {
	// HTTP API metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec

	// Upstream fetch metrics
	UpstreamRequestsTotal *prometheus.CounterVec

	// Aggregation metrics
	OperationDuration  *prometheus.HistogramVec
	OperationsTotal    *prometheus.CounterVec
	ActiveAggregations prometheus.Gauge

	// Snapshot cache metrics
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter
}

// NewCollector registers all metrics with reg under the given namespace. Pass
// prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
			},
			[]string{"endpoint"},
		),

		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of upstream feed requests by host and outcome",
			},
			[]string{"host", "outcome"},
		),

		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Aggregation operation duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0, 20.0, 30.0},
			},
			[]string{"operation"},
		),

		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Total number of aggregation operations by name and outcome",
			},
			[]string{"operation", "outcome"},
		),

		ActiveAggregations: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_aggregations",
				Help:      "Number of aggregation operations currently in flight",
			},
		),

		CacheHitsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_cache_hits_total",
				Help:      "Total number of weather snapshot cache hits",
			},
		),

		CacheMissesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshot_cache_misses_total",
				Help:      "Total number of weather snapshot cache misses",
			},
		),
	}
}

// RecordAPIRequest increments the API request counter.
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordUpstreamRequest increments the upstream request counter. It satisfies
// the fetch client's recorder hook.
func (c *Collector) RecordUpstreamRequest(host string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.UpstreamRequestsTotal.WithLabelValues(host, outcome).Inc()
}

// RecordOperation records one finished aggregation operation.
func (c *Collector) RecordOperation(operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.OperationsTotal.WithLabelValues(operation, outcome).Inc()
	c.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordCacheHit increments the snapshot cache hit counter.
func (c *Collector) RecordCacheHit() {
	c.CacheHitsTotal.Inc()
}

// RecordCacheMiss increments the snapshot cache miss counter.
func (c *Collector) RecordCacheMiss() {
	c.CacheMissesTotal.Inc()
}
