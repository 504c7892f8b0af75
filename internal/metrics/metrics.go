// ================================
// internal/metrics/metrics.go - Self-monitoring for VIGIL-CORE
// ================================

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingest metrics
	SamplesRecordedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_samples_recorded_total",
			Help: "Total number of metric samples and log entries ingested",
		},
		[]string{"kind"}, // metric, log
	)

	StoreEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_store_evictions_total",
			Help: "Total number of samples evicted from the in-memory stores",
		},
		[]string{"store", "reason"}, // metrics/logs, age/capacity
	)

	StoreSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vigil_core_store_size",
			Help: "Current number of items held by each in-memory store",
		},
		[]string{"store"},
	)

	// Rule engine metrics
	RuleEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_rule_evaluations_total",
			Help: "Total number of alert rule condition evaluations",
		},
		[]string{"rule", "result"}, // fired, clear, skipped, error
	)

	AlertsFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_alerts_fired_total",
			Help: "Total number of alerts emitted by the rule engine",
		},
		[]string{"rule", "severity"},
	)

	ActiveAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_core_alerts_active",
			Help: "Number of currently unresolved alerts",
		},
	)

	// Detector metrics
	SecurityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_security_events_total",
			Help: "Total number of security events detected",
		},
		[]string{"type", "severity"},
	)

	GovernanceEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_governance_events_total",
			Help: "Total number of AI governance events detected",
		},
		[]string{"type", "model"},
	)

	// Response orchestrator metrics
	ActionExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_action_executions_total",
			Help: "Total number of remediation action executions",
		},
		[]string{"action", "status"}, // success, error, timeout
	)

	ActionExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigil_core_action_execution_duration_seconds",
			Help:    "Remediation action execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		},
		[]string{"action"},
	)

	ActionQueueDropsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_core_action_queue_drops_total",
			Help: "Events dropped because the action worker queue was full",
		},
	)

	// Notification metrics
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_notifications_sent_total",
			Help: "Total notifications dispatched to configured sinks",
		},
		[]string{"sink", "success"},
	)

	// HTTP API metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_core_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vigil_core_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket stream metrics
	ActiveWebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_core_websocket_connections_active",
			Help: "Number of active WebSocket stream subscribers",
		},
	)
)
