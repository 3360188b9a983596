package integrity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// HealthWeights scale the per-category counts in the composite score.
type HealthWeights struct {
	Contamination int
	Orphans       int
	Triggers      int
}

// Aggregator fans the detectors out, reduces their output to counts and
// merges per-category failures into a partial result. One broken detector
// never takes the others down with it.
type Aggregator struct {
	detector     *Detector
	weights      HealthWeights
	queryTimeout time.Duration
	slowQuery    time.Duration
	observe      func(category string, elapsed time.Duration)
	logger       *zap.Logger
}

// SetDurationObserver registers a callback invoked with each detector's
// wall-clock time, used to feed the prometheus histogram.
func (a *Aggregator) SetDurationObserver(observe func(category string, elapsed time.Duration)) {
	a.observe = observe
}

func NewAggregator(detector *Detector, weights HealthWeights, queryTimeout, slowQuery time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		detector:     detector,
		weights:      weights,
		queryTimeout: queryTimeout,
		slowQuery:    slowQuery,
		logger:       logger,
	}
}

// Detector exposes the underlying detector for callers that need a
// single category rather than a full pass.
func (a *Aggregator) Detector() *Detector {
	return a.detector
}

type detectorOutcome struct {
	category string
	elapsed  time.Duration
	err      error
}

// runDetectors executes the four detectors concurrently, each under its
// own timeout. Results land in the provided slots; outcomes carry the
// per-category error and timing.
func (a *Aggregator) runDetectors(ctx context.Context, details *FullCheckDetails) []detectorOutcome {
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		outcomes  []detectorOutcome
		crossTen  []ContaminationRecord
		analytics []ContaminationRecord
	)

	run := func(category string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dctx, cancel := context.WithTimeout(ctx, a.queryTimeout)
			defer cancel()

			start := time.Now()
			err := fn(dctx)
			elapsed := time.Since(start)

			mu.Lock()
			outcomes = append(outcomes, detectorOutcome{category: category, elapsed: elapsed, err: err})
			mu.Unlock()
		}()
	}

	run(CategoryContamination, func(dctx context.Context) error {
		records, err := a.detector.DetectCrossTenantContamination(dctx)
		if err != nil {
			return err
		}
		mu.Lock()
		crossTen = records
		mu.Unlock()
		return nil
	})

	run(CategoryAnalyticsContamination, func(dctx context.Context) error {
		records, err := a.detector.DetectAnalyticsContamination(dctx)
		if err != nil {
			return err
		}
		mu.Lock()
		analytics = records
		mu.Unlock()
		return nil
	})

	run(CategoryOrphans, func(dctx context.Context) error {
		records, err := a.detector.DetectOrphanedRecords(dctx)
		if err != nil {
			return err
		}
		mu.Lock()
		details.OrphanedRecords = records
		mu.Unlock()
		return nil
	})

	run(CategoryTriggers, func(dctx context.Context) error {
		records, err := a.detector.CheckTriggerHealth(dctx)
		if err != nil {
			return err
		}
		mu.Lock()
		details.TriggerFailures = records
		mu.Unlock()
		return nil
	})

	wg.Wait()

	// Keep the contamination list deterministic: core relationships
	// first, analytics after, each already ordered by the query.
	details.Contamination = append(details.Contamination, crossTen...)
	details.Contamination = append(details.Contamination, analytics...)

	return outcomes
}

// GetDataIntegrityMetrics runs a full detection pass and reduces it to
// counts. A failed or timed-out category contributes zero plus an entry
// in Metrics.Errors.
func (a *Aggregator) GetDataIntegrityMetrics(ctx context.Context) Metrics {
	result := a.RunFullIntegrityCheck(ctx)
	return result.Metrics
}

// RunFullIntegrityCheck returns the metrics together with the detail
// lists and a human-readable summary.
func (a *Aggregator) RunFullIntegrityCheck(ctx context.Context) FullCheckResult {
	details := FullCheckDetails{
		Contamination:   []ContaminationRecord{},
		OrphanedRecords: []OrphanedRecord{},
		TriggerFailures: []TriggerFailureRecord{},
	}

	outcomes := a.runDetectors(ctx, &details)

	metrics := Metrics{
		LastChecked: time.Now(),
		Errors:      map[string]string{},
	}

	for _, out := range outcomes {
		if a.observe != nil {
			a.observe(out.category, out.elapsed)
		}
		if out.err != nil {
			a.logger.Error("Detector failed, degrading category",
				zap.String("category", out.category),
				zap.Error(out.err),
			)
			metrics.Errors[out.category] = out.err.Error()
			continue
		}
		if out.elapsed > a.slowQuery {
			metrics.PerformanceIssues++
			a.logger.Warn("Slow detection query",
				zap.String("category", out.category),
				zap.Duration("elapsed", out.elapsed),
			)
		}
	}
	if len(metrics.Errors) == 0 {
		metrics.Errors = nil
	}

	for _, rec := range details.Contamination {
		metrics.CrossTenantContamination += rec.MismatchedCount
	}
	metrics.OrphanedRecords = len(details.OrphanedRecords)
	metrics.TriggerFailures = len(details.TriggerFailures)

	return FullCheckResult{
		Summary: a.summarize(metrics),
		Metrics: metrics,
		Details: details,
	}
}

// HealthScore folds the weighted counts into a 0-100 composite, clamped.
func (a *Aggregator) HealthScore(m Metrics) int {
	penalty := a.weights.Contamination*m.CrossTenantContamination +
		a.weights.Orphans*m.OrphanedRecords +
		a.weights.Triggers*m.TriggerFailures
	if penalty > 100 {
		penalty = 100
	}
	return 100 - penalty
}

func (a *Aggregator) summarize(m Metrics) string {
	if m.CrossTenantContamination == 0 && m.OrphanedRecords == 0 && m.TriggerFailures == 0 {
		if m.Degraded() {
			return fmt.Sprintf("No integrity issues detected, but %d detection categories are unavailable", len(m.Errors))
		}
		return "All integrity checks passed"
	}

	summary := fmt.Sprintf(
		"Found %d cross-tenant contaminated rows, %d orphaned records, %d trigger failures",
		m.CrossTenantContamination, m.OrphanedRecords, m.TriggerFailures,
	)
	if m.Degraded() {
		summary += fmt.Sprintf(" (%d detection categories unavailable)", len(m.Errors))
	}
	return summary
}
