package alerts

import (
	"context"
	"sort"

	"github.com/nexora/integrity-guard/internal/integrity"
)

// Rule is a named trigger condition over detector output. Rules are data:
// a new alert class is a new table entry, not a new code branch in the
// engine.
type Rule struct {
	ID          string
	Description string
	Evaluate    func(ctx context.Context) ([]Finding, error)
}

// DefaultRules wires the standard rule set against a detector and
// classifier.
func DefaultRules(detector *integrity.Detector, classifier *integrity.Classifier) []Rule {
	return []Rule{
		{
			ID:          "cross-tenant-contamination",
			Description: "Dependent rows whose tenant disagrees with the tenant of the record they reference",
			Evaluate: func(ctx context.Context) ([]Finding, error) {
				records, err := detector.DetectCrossTenantContamination(ctx)
				if err != nil {
					return nil, err
				}
				return contaminationFindings(records), nil
			},
		},
		{
			ID:          "analytics-contamination",
			Description: "Analytics rows attributed to the wrong tenant",
			Evaluate: func(ctx context.Context) ([]Finding, error) {
				records, err := detector.DetectAnalyticsContamination(ctx)
				if err != nil {
					return nil, err
				}
				return contaminationFindings(records), nil
			},
		},
		{
			ID:          "orphaned-records",
			Description: "Rows whose required foreign reference no longer resolves",
			Evaluate: func(ctx context.Context) ([]Finding, error) {
				orphans, err := detector.DetectOrphanedRecords(ctx)
				if err != nil {
					return nil, err
				}
				return orphanFindings(orphans, classifier), nil
			},
		},
		{
			ID:          "trigger-failures",
			Description: "Store-side consistency triggers failing within the recent window",
			Evaluate: func(ctx context.Context) ([]Finding, error) {
				failures, err := detector.CheckTriggerHealth(ctx)
				if err != nil {
					return nil, err
				}
				return triggerFindings(failures, classifier), nil
			},
		},
	}
}

// contaminationFindings folds contamination groups into one finding per
// relationship, carrying the affected tenant set and total row count.
func contaminationFindings(records []integrity.ContaminationRecord) []Finding {
	byTable := make(map[string][]integrity.ContaminationRecord)
	tables := []string{}
	for _, rec := range records {
		if _, seen := byTable[rec.TableName]; !seen {
			tables = append(tables, rec.TableName)
		}
		byTable[rec.TableName] = append(byTable[rec.TableName], rec)
	}
	sort.Strings(tables)

	findings := []Finding{}
	for _, table := range tables {
		group := byTable[table]

		total := 0
		severity := integrity.SeverityLow
		tenantSet := make(map[string]struct{})
		for _, rec := range group {
			total += rec.MismatchedCount
			if rec.Severity.Rank() > severity.Rank() {
				severity = rec.Severity
			}
			tenantSet[rec.SubjectOwnerID] = struct{}{}
			tenantSet[rec.ReferencedOwnerID] = struct{}{}
		}

		tenants := make([]string, 0, len(tenantSet))
		for t := range tenantSet {
			tenants = append(tenants, t)
		}
		sort.Strings(tenants)

		findings = append(findings, Finding{
			ResourceKey: table,
			Severity:    severity,
			Details: map[string]interface{}{
				"table_name":       table,
				"mismatched_count": total,
				"group_count":      len(group),
				"affected_tenants": tenants,
			},
		})
	}
	return findings
}

// orphanFindings produces one finding per orphan category with the
// category total classified by the shared threshold table.
func orphanFindings(orphans []integrity.OrphanedRecord, classifier *integrity.Classifier) []Finding {
	byType := make(map[string]int)
	tableByType := make(map[string]string)
	types := []string{}
	for _, o := range orphans {
		if _, seen := byType[o.OrphanType]; !seen {
			types = append(types, o.OrphanType)
			tableByType[o.OrphanType] = o.TableName
		}
		byType[o.OrphanType]++
	}
	sort.Strings(types)

	findings := []Finding{}
	for _, orphanType := range types {
		count := byType[orphanType]
		findings = append(findings, Finding{
			ResourceKey: orphanType,
			Severity:    classifier.Classify(count),
			Details: map[string]interface{}{
				"orphan_type":  orphanType,
				"table_name":   tableByType[orphanType],
				"orphan_count": count,
			},
		})
	}
	return findings
}

// triggerFindings collapses all recent trigger failures into a single
// finding keyed on the log itself.
func triggerFindings(failures []integrity.TriggerFailureRecord, classifier *integrity.Classifier) []Finding {
	if len(failures) == 0 {
		return nil
	}

	triggerSet := make(map[string]struct{})
	for _, f := range failures {
		triggerSet[f.TriggerName] = struct{}{}
	}
	triggers := make([]string, 0, len(triggerSet))
	for t := range triggerSet {
		triggers = append(triggers, t)
	}
	sort.Strings(triggers)

	return []Finding{{
		ResourceKey: "trigger_execution_log",
		Severity:    classifier.Classify(len(failures)),
		Details: map[string]interface{}{
			"failure_count":    len(failures),
			"failed_triggers":  triggers,
			"latest_failure":   failures[0].OccurredAt,
			"latest_operation": failures[0].Operation,
		},
	}}
}
