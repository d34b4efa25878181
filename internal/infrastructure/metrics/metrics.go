package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the panel
type Metrics struct {
	// Session metrics
	ActiveSessions       prometheus.Gauge
	InactiveSessions     prometheus.Gauge
	SessionConnectsTotal prometheus.Counter
	SessionConnectErrors *prometheus.CounterVec
	SessionReactivations prometheus.Counter
	SessionsRevoked      prometheus.Counter

	// Bulk operation metrics
	BulkOperationsTotal   *prometheus.CounterVec
	BulkAccountResults    *prometheus.CounterVec
	BulkOperationDuration prometheus.Histogram
	FloodWaitsTotal       prometheus.Counter

	// Monitor metrics
	MonitorMatchesTotal  prometheus.Counter
	MonitorFilteredTotal *prometheus.CounterVec
	MonitorForwardErrors prometheus.Counter

	// Kafka metrics
	KafkaMessagesProduced prometheus.Counter
	KafkaProduceErrors    *prometheus.CounterVec
	KafkaProduceDuration  prometheus.Histogram

	// Config store metrics
	ConfigSavesTotal prometheus.Counter
	ConfigSaveErrors prometheus.Counter
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

func init() {
	// Initialize DefaultMetrics on package import
	GetDefaultMetrics()
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		// Session metrics
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_panel_active_sessions",
			Help: "Current number of connected Telegram sessions",
		}),
		InactiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "telegram_panel_inactive_sessions",
			Help: "Current number of sessions parked as inactive",
		}),
		SessionConnectsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_panel_session_connects_total",
			Help: "Total number of successful session connects",
		}),
		SessionConnectErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_panel_session_connect_errors_total",
				Help: "Total number of failed session connects",
			},
			[]string{"reason"},
		),
		SessionReactivations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_panel_session_reactivations_total",
			Help: "Total number of inactive sessions brought back to active",
		}),
		SessionsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_panel_sessions_revoked_total",
			Help: "Total number of sessions removed after confirmed revocation",
		}),

		// Bulk operation metrics
		BulkOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_panel_bulk_operations_total",
				Help: "Total number of bulk operation batches",
			},
			[]string{"action"},
		),
		BulkAccountResults: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_panel_bulk_account_results_total",
				Help: "Per-account outcomes inside bulk batches",
			},
			[]string{"outcome"},
		),
		BulkOperationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_panel_bulk_operation_duration_seconds",
			Help:    "Duration of bulk operation batches in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		FloodWaitsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_panel_flood_waits_total",
			Help: "Total number of flood wait responses from the Telegram API",
		}),

		// Monitor metrics
		MonitorMatchesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_panel_monitor_matches_total",
			Help: "Total number of messages forwarded to the review channel",
		}),
		MonitorFilteredTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_panel_monitor_filtered_total",
				Help: "Total number of messages dropped by the monitor pipeline",
			},
			[]string{"reason"},
		),
		MonitorForwardErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_panel_monitor_forward_errors_total",
			Help: "Total number of failed forwards to the review channel",
		}),

		// Kafka metrics
		KafkaMessagesProduced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_panel_kafka_messages_produced_total",
			Help: "Total number of audit events produced to Kafka",
		}),
		KafkaProduceErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telegram_panel_kafka_produce_errors_total",
				Help: "Total number of Kafka produce errors",
			},
			[]string{"error_type"},
		),
		KafkaProduceDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_panel_kafka_produce_duration_seconds",
			Help:    "Duration of Kafka produce operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		// Config store metrics
		ConfigSavesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_panel_config_saves_total",
			Help: "Total number of config document persists",
		}),
		ConfigSaveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_panel_config_save_errors_total",
			Help: "Total number of failed config document persists",
		}),
	}
}

// UpdateActiveSessions updates the active sessions gauge
func (m *Metrics) UpdateActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// UpdateInactiveSessions updates the inactive sessions gauge
func (m *Metrics) UpdateInactiveSessions(count int) {
	m.InactiveSessions.Set(float64(count))
}

// RecordSessionConnect records a successful session connect
func (m *Metrics) RecordSessionConnect() {
	m.SessionConnectsTotal.Inc()
}

// RecordSessionConnectError records a failed session connect with reason
func (m *Metrics) RecordSessionConnectError(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.SessionConnectErrors.WithLabelValues(reason).Inc()
}

// RecordSessionReactivation records an inactive session brought back
func (m *Metrics) RecordSessionReactivation() {
	m.SessionReactivations.Inc()
}

// RecordSessionRevoked records a session removed after revocation
func (m *Metrics) RecordSessionRevoked() {
	m.SessionsRevoked.Inc()
}

// RecordBulkOperation records a completed bulk batch with duration
func (m *Metrics) RecordBulkOperation(action string, duration float64) {
	m.BulkOperationsTotal.WithLabelValues(action).Inc()
	m.BulkOperationDuration.Observe(duration)
}

// RecordBulkAccountResult records one per-account outcome inside a batch
func (m *Metrics) RecordBulkAccountResult(outcome string) {
	m.BulkAccountResults.WithLabelValues(outcome).Inc()
}

// RecordFloodWait records a flood wait response
func (m *Metrics) RecordFloodWait() {
	m.FloodWaitsTotal.Inc()
}

// RecordMonitorMatch records a forwarded monitor match
func (m *Metrics) RecordMonitorMatch() {
	m.MonitorMatchesTotal.Inc()
}

// RecordMonitorFiltered records a dropped message with the predicate that dropped it
func (m *Metrics) RecordMonitorFiltered(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.MonitorFilteredTotal.WithLabelValues(reason).Inc()
}

// RecordMonitorForwardError records a failed forward
func (m *Metrics) RecordMonitorForwardError() {
	m.MonitorForwardErrors.Inc()
}

// RecordKafkaMessage records a Kafka message production with duration
func (m *Metrics) RecordKafkaMessage(duration float64) {
	m.KafkaMessagesProduced.Inc()
	m.KafkaProduceDuration.Observe(duration)
}

// RecordKafkaError records a Kafka production error with error type
func (m *Metrics) RecordKafkaError(errorType string) {
	if errorType == "" {
		errorType = "unknown"
	}
	m.KafkaProduceErrors.WithLabelValues(errorType).Inc()
}

// RecordConfigSave records a config persist attempt
func (m *Metrics) RecordConfigSave(success bool) {
	m.ConfigSavesTotal.Inc()
	if !success {
		m.ConfigSaveErrors.Inc()
	}
}
