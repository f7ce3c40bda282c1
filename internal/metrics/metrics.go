// Package metrics exposes the Prometheus collectors observed by the
// dataset service. The /metrics endpoint is served by the standard
// promhttp handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsTotal counts workbook uploads by outcome (accepted,
	// rejected, failed).
	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "efs",
		Subsystem: "uploads",
		Name:      "total",
		Help:      "Number of maintenance-log uploads by outcome.",
	}, []string{"outcome"})

	// ParseDuration observes workbook parse latency in seconds.
	ParseDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "efs",
		Subsystem: "parser",
		Name:      "duration_seconds",
		Help:      "Time spent parsing uploaded workbooks.",
		Buckets:   prometheus.DefBuckets,
	})

	// TransformRunsTotal counts transform pipeline executions.
	TransformRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "efs",
		Subsystem: "transform",
		Name:      "runs_total",
		Help:      "Number of transform pipeline runs.",
	})

	// TransformDuration observes transform pipeline latency in seconds.
	TransformDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "efs",
		Subsystem: "transform",
		Name:      "duration_seconds",
		Help:      "Time spent running the transform pipeline.",
		Buckets:   prometheus.DefBuckets,
	})

	// RowsRemovedTotal counts rows removed during transformation by
	// reason (total_row, incomplete_time).
	RowsRemovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "efs",
		Subsystem: "transform",
		Name:      "rows_removed_total",
		Help:      "Rows removed during transformation by reason.",
	}, []string{"reason"})

	// ValidationFailuresTotal counts datasets rejected by structural
	// validation.
	ValidationFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "efs",
		Subsystem: "validation",
		Name:      "failures_total",
		Help:      "Datasets rejected by structural validation.",
	})

	// ExportsTotal counts dataset exports by format (csv, json, xlsx).
	ExportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "efs",
		Subsystem: "exports",
		Name:      "total",
		Help:      "Dataset exports by format.",
	}, []string{"format"})

	// ChartRequestsTotal counts Pareto chart builds by metric.
	ChartRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "efs",
		Subsystem: "pareto",
		Name:      "chart_requests_total",
		Help:      "Pareto chart builds by metric.",
	}, []string{"metric"})

	// WebSocketClients gauges currently connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "efs",
		Subsystem: "websocket",
		Name:      "clients",
		Help:      "Currently connected WebSocket clients.",
	})
)
