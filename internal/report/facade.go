package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/nexora/integrity-guard/internal/alerts"
	"github.com/nexora/integrity-guard/internal/integrity"
)

// DashboardReport is the assembled view for the operations dashboard.
type DashboardReport struct {
	Metrics         integrity.Metrics          `json:"metrics"`
	Details         integrity.FullCheckDetails `json:"details"`
	Alerts          []alerts.Alert             `json:"alerts"`
	HealthScore     int                        `json:"health_score"`
	Recommendations []string                   `json:"recommendations"`
}

// Facade assembles metrics, details, alerts and recommendations. It is
// pure assembly over the aggregator and engine, no state of its own.
type Facade struct {
	aggregator *integrity.Aggregator
	engine     *alerts.Engine
}

func NewFacade(aggregator *integrity.Aggregator, engine *alerts.Engine) *Facade {
	return &Facade{
		aggregator: aggregator,
		engine:     engine,
	}
}

// Dashboard runs one full detection pass and folds the result into the
// dashboard shape.
func (f *Facade) Dashboard(ctx context.Context) DashboardReport {
	result := f.aggregator.RunFullIntegrityCheck(ctx)

	return DashboardReport{
		Metrics:         result.Metrics,
		Details:         result.Details,
		Alerts:          f.engine.ActiveAlerts(),
		HealthScore:     f.aggregator.HealthScore(result.Metrics),
		Recommendations: Recommendations(result.Metrics),
	}
}

// Recommendations derives plain-language follow-ups from whichever
// metrics are non-zero or degraded.
func Recommendations(m integrity.Metrics) []string {
	recs := []string{}

	if m.CrossTenantContamination > 0 {
		recs = append(recs, "Cross-tenant contamination detected: audit recent writes to tenant-scoped tables and verify application-level tenant filters")
	}
	if m.OrphanedRecords > 0 {
		recs = append(recs, "Orphaned records found: review cascade rules and clean up rows with dangling references")
	}
	if m.TriggerFailures > 0 {
		recs = append(recs, "Investigate the trigger execution log: store-side consistency triggers are failing")
	}
	if m.PerformanceIssues > 0 {
		recs = append(recs, "Detection queries are running slow: confirm supporting indexes exist on tenant and foreign-key columns")
	}
	degraded := make([]string, 0, len(m.Errors))
	for category := range m.Errors {
		degraded = append(degraded, category)
	}
	sort.Strings(degraded)
	for _, category := range degraded {
		recs = append(recs, fmt.Sprintf("Detection category %q is unavailable: its counts are missing from this report", category))
	}

	if len(recs) == 0 {
		recs = append(recs, "No integrity issues detected")
	}
	return recs
}
