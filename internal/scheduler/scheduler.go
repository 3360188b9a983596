package scheduler

import (
	"context"
	"time"

	"github.com/nexora/integrity-guard/internal/alerts"
	"github.com/nexora/integrity-guard/internal/integrity"
	"github.com/nexora/integrity-guard/internal/metrics"
	"go.uber.org/zap"
)

// Scheduler drives background alerting: a full detection pass plus rule
// evaluation on a fixed interval, independent of dashboard traffic.
type Scheduler struct {
	aggregator *integrity.Aggregator
	engine     *alerts.Engine
	registry   *alerts.Registry
	collector  *metrics.Collector
	interval   time.Duration
	logger     *zap.Logger
}

func NewScheduler(aggregator *integrity.Aggregator, engine *alerts.Engine, registry *alerts.Registry, collector *metrics.Collector, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		aggregator: aggregator,
		engine:     engine,
		registry:   registry,
		collector:  collector,
		interval:   interval,
		logger:     logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting integrity scheduler", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping integrity scheduler")
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	start := time.Now()

	result := s.aggregator.RunFullIntegrityCheck(ctx)
	touched := s.engine.CheckAlerts(ctx)

	if s.collector != nil {
		s.collector.RecordCheckResult(result, s.aggregator.HealthScore(result.Metrics))
		s.collector.RecordAlerts(touched, s.registry.CountBySeverity())
	}

	s.logger.Info("Completed integrity pass",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("contaminated_rows", result.Metrics.CrossTenantContamination),
		zap.Int("orphaned_records", result.Metrics.OrphanedRecords),
		zap.Int("trigger_failures", result.Metrics.TriggerFailures),
		zap.Int("alerts_touched", len(touched)),
		zap.Bool("degraded", result.Metrics.Degraded()),
	)
}
