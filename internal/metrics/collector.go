package metrics

import (
	"time"

	"github.com/nexora/integrity-guard/internal/alerts"
	"github.com/nexora/integrity-guard/internal/config"
	"github.com/nexora/integrity-guard/internal/integrity"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Collector struct {
	config *config.MimirConfig

	// Detection pass metrics
	checkDuration   *prometheus.HistogramVec
	detectionErrors *prometheus.CounterVec
	lastCheckTime   prometheus.Gauge

	// Integrity state
	healthScore        prometheus.Gauge
	contaminatedRows   prometheus.Gauge
	orphanedRecords    prometheus.Gauge
	triggerFailures    prometheus.Gauge
	performanceIssues  prometheus.Gauge
	tenantContaminated *prometheus.GaugeVec

	// Alert state
	alertsActive *prometheus.GaugeVec
	alertsRaised *prometheus.CounterVec
}

func NewCollector(cfg config.MimirConfig) *Collector {
	return &Collector{
		config: &cfg,

		checkDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "integrity_check_duration_seconds",
				Help:    "Duration of integrity detection passes in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"category"},
		),
		detectionErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "integrity_detection_errors_total",
				Help: "Detector failures by category",
			},
			[]string{"category"},
		),
		lastCheckTime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "integrity_last_check_timestamp_seconds",
				Help: "Unix time of the last completed detection pass",
			},
		),

		healthScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "integrity_health_score",
				Help: "Composite data-integrity health score (0-100)",
			},
		),
		contaminatedRows: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "integrity_cross_tenant_contaminated_rows",
				Help: "Rows currently referencing data owned by another tenant",
			},
		),
		orphanedRecords: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "integrity_orphaned_records",
				Help: "Rows whose required foreign reference does not resolve",
			},
		),
		triggerFailures: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "integrity_trigger_failures",
				Help: "Trigger execution failures within the recent window",
			},
		),
		performanceIssues: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "integrity_performance_issues",
				Help: "Detection categories exceeding the slow-query threshold",
			},
		),
		tenantContaminated: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "integrity_tenant_contaminated_rows",
				Help: "Contaminated rows by subject tenant and relationship",
			},
			[]string{"tenant_id", "relationship"},
		),

		alertsActive: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "integrity_alerts_active",
				Help: "Non-resolved alerts by severity",
			},
			[]string{"severity"},
		),
		alertsRaised: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "integrity_alerts_raised_total",
				Help: "Alerts created or refreshed by rule",
			},
			[]string{"rule_id"},
		),
	}
}

// RecordCheckResult publishes one completed detection pass.
func (c *Collector) RecordCheckResult(result integrity.FullCheckResult, healthScore int) {
	c.healthScore.Set(float64(healthScore))
	c.contaminatedRows.Set(float64(result.Metrics.CrossTenantContamination))
	c.orphanedRecords.Set(float64(result.Metrics.OrphanedRecords))
	c.triggerFailures.Set(float64(result.Metrics.TriggerFailures))
	c.performanceIssues.Set(float64(result.Metrics.PerformanceIssues))
	c.lastCheckTime.Set(float64(result.Metrics.LastChecked.Unix()))

	for category := range result.Metrics.Errors {
		c.detectionErrors.WithLabelValues(category).Inc()
	}

	c.tenantContaminated.Reset()
	for _, rec := range result.Details.Contamination {
		c.tenantContaminated.WithLabelValues(rec.SubjectOwnerID, rec.TableName).
			Add(float64(rec.MismatchedCount))
	}
}

// RecordCheckDuration tracks how long one detector category took.
func (c *Collector) RecordCheckDuration(category string, elapsed time.Duration) {
	c.checkDuration.WithLabelValues(category).Observe(elapsed.Seconds())
}

// RecordAlerts publishes the current alert registry state.
func (c *Collector) RecordAlerts(touched []alerts.Alert, activeBySeverity map[string]int) {
	for _, alert := range touched {
		c.alertsRaised.WithLabelValues(alert.RuleID).Inc()
	}

	c.alertsActive.Reset()
	for _, severity := range []integrity.Severity{
		integrity.SeverityLow, integrity.SeverityMedium,
		integrity.SeverityHigh, integrity.SeverityCritical,
	} {
		c.alertsActive.WithLabelValues(string(severity)).
			Set(float64(activeBySeverity[string(severity)]))
	}
}
