// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector owns the prometheus instruments for scans, the oracle channel
// and the host server.
type Collector struct {
	scansTotal    *prometheus.CounterVec
	scanDuration  prometheus.Histogram
	bugsTotal     *prometheus.CounterVec
	workflowsRun  *prometheus.CounterVec
	oracleCalls   *prometheus.CounterVec
	oracleLatency prometheus.Histogram

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector registers the webqa instruments under the given namespace.
// Calling it twice with the same namespace panics, per promauto semantics.
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total number of scans by terminal status",
		},
		[]string{"status"},
	)

	c.scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scan_duration_seconds",
			Help:      "Wall-clock duration of a full scan",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200},
		},
	)

	c.bugsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bugs_total",
			Help:      "Total number of ledger commits by severity",
		},
		[]string{"severity"},
	)

	c.workflowsRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Total number of workflow runs by name and verdict",
		},
		[]string{"workflow", "verdict"},
	)

	c.oracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_requests_total",
			Help:      "Total number of oracle completions by status",
		},
		[]string{"status"},
	)

	c.oracleLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_request_duration_seconds",
			Help:      "Oracle completion latency",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordScan records one finished scan.
func (c *Collector) RecordScan(status string, duration time.Duration) {
	c.scansTotal.WithLabelValues(status).Inc()
	c.scanDuration.Observe(duration.Seconds())
}

// RecordBug records one ledger commit.
func (c *Collector) RecordBug(severity string) {
	c.bugsTotal.WithLabelValues(severity).Inc()
}

// RecordWorkflow records one workflow verdict.
func (c *Collector) RecordWorkflow(name string, passed bool) {
	verdict := "pass"
	if !passed {
		verdict = "fail"
	}
	c.workflowsRun.WithLabelValues(name, verdict).Inc()
}

// RecordOracleCall records one oracle completion attempt.
func (c *Collector) RecordOracleCall(status string, duration time.Duration) {
	c.oracleCalls.WithLabelValues(status).Inc()
	c.oracleLatency.Observe(duration.Seconds())
}

// RecordHTTPRequest records one served HTTP request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
