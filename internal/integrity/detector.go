package integrity

import (
	"context"
	"fmt"

	"github.com/nexora/integrity-guard/internal/db"
	"go.uber.org/zap"
)

// Relationship declares one tenant-scoped foreign-key edge to monitor.
// Relationships are data: adding a table to the watch list is a new entry
// here, not new query code. All identifiers are compiled in, never taken
// from request input.
type Relationship struct {
	Name               string
	DependentTable     string
	DependentTenantCol string
	FKColumn           string
	ParentTable        string
	ParentKeyColumn    string
	ParentTenantCol    string
	OrphanType         string
	Analytics          bool
}

// DefaultRelationships covers the platform's tenant-scoped edges: calls
// reference an agent owned by a tenant, and lead analytics reference a
// call owned by a tenant.
func DefaultRelationships() []Relationship {
	return []Relationship{
		{
			Name:               "calls→agents",
			DependentTable:     "calls",
			DependentTenantCol: "tenant_id",
			FKColumn:           "agent_id",
			ParentTable:        "agents",
			ParentKeyColumn:    "id",
			ParentTenantCol:    "tenant_id",
			OrphanType:         "missing_agent",
		},
		{
			Name:               "lead_analytics→calls",
			DependentTable:     "lead_analytics",
			DependentTenantCol: "tenant_id",
			FKColumn:           "call_id",
			ParentTable:        "calls",
			ParentKeyColumn:    "id",
			ParentTenantCol:    "tenant_id",
			OrphanType:         "missing_call",
			Analytics:          true,
		},
	}
}

type Detector struct {
	q             db.Querier
	relationships []Relationship
	classifier    *Classifier
	triggerWindow int // hours
	logger        *zap.Logger
}

func NewDetector(q db.Querier, relationships []Relationship, classifier *Classifier, triggerWindowHours int, logger *zap.Logger) *Detector {
	return &Detector{
		q:             q,
		relationships: relationships,
		classifier:    classifier,
		triggerWindow: triggerWindowHours,
		logger:        logger,
	}
}

// DetectCrossTenantContamination scans the core relationships for rows
// whose declared tenant disagrees with the tenant of the record they
// reference. Clean data returns an empty slice, never an error.
func (d *Detector) DetectCrossTenantContamination(ctx context.Context) ([]ContaminationRecord, error) {
	return d.detectContamination(ctx, CategoryContamination, false)
}

// DetectAnalyticsContamination runs the same scan over the analytics
// relationships, which are derived data and drift independently of the
// core tables.
func (d *Detector) DetectAnalyticsContamination(ctx context.Context) ([]ContaminationRecord, error) {
	return d.detectContamination(ctx, CategoryAnalyticsContamination, true)
}

func (d *Detector) detectContamination(ctx context.Context, category string, analytics bool) ([]ContaminationRecord, error) {
	records := []ContaminationRecord{}
	tablesHit := 0

	for _, rel := range d.relationships {
		if rel.Analytics != analytics {
			continue
		}

		// Grouped by owner pair with a stable ORDER BY so repeated
		// passes over unchanged data are deep-equal.
		query := fmt.Sprintf(`
			SELECT d.%s AS subject_owner_id,
			       p.%s AS referenced_owner_id,
			       COUNT(*) AS mismatched_count
			FROM %s d
			JOIN %s p ON d.%s = p.%s
			WHERE d.%s <> p.%s
			GROUP BY d.%s, p.%s
			ORDER BY d.%s, p.%s`,
			rel.DependentTenantCol, rel.ParentTenantCol,
			rel.DependentTable,
			rel.ParentTable, rel.FKColumn, rel.ParentKeyColumn,
			rel.DependentTenantCol, rel.ParentTenantCol,
			rel.DependentTenantCol, rel.ParentTenantCol,
			rel.DependentTenantCol, rel.ParentTenantCol,
		)

		groups := []ContaminationRecord{}
		if err := d.q.SelectContext(ctx, &groups, query); err != nil {
			return nil, newDetectionError(category, err)
		}

		if len(groups) > 0 {
			tablesHit++
		}
		for i := range groups {
			groups[i].TableName = rel.Name
		}
		records = append(records, groups...)
	}

	multiTable := tablesHit > 1
	for i := range records {
		records[i].Severity = d.classifier.ClassifyContamination(records[i].MismatchedCount, multiTable)
	}

	if len(records) > 0 {
		d.logger.Warn("Cross-tenant contamination detected",
			zap.String("category", category),
			zap.Int("groups", len(records)),
		)
	}

	return records, nil
}

// DetectOrphanedRecords runs a left-anti-join per required relationship
// and concatenates the results, so one pass covers every orphan category.
func (d *Detector) DetectOrphanedRecords(ctx context.Context) ([]OrphanedRecord, error) {
	orphans := []OrphanedRecord{}

	for _, rel := range d.relationships {
		query := fmt.Sprintf(`
			SELECT d.id::text AS record_id
			FROM %s d
			LEFT JOIN %s p ON d.%s = p.%s
			WHERE d.%s IS NOT NULL AND p.%s IS NULL
			ORDER BY d.id`,
			rel.DependentTable,
			rel.ParentTable, rel.FKColumn, rel.ParentKeyColumn,
			rel.FKColumn, rel.ParentKeyColumn,
		)

		rows := []OrphanedRecord{}
		if err := d.q.SelectContext(ctx, &rows, query); err != nil {
			return nil, newDetectionError(CategoryOrphans, err)
		}

		for i := range rows {
			rows[i].OrphanType = rel.OrphanType
			rows[i].TableName = rel.DependentTable
		}
		orphans = append(orphans, rows...)
	}

	return orphans, nil
}

// CheckTriggerHealth reads recent non-success rows from the trigger
// execution log. An absent log table means trigger logging has not been
// provisioned yet and reads as zero failures.
func (d *Detector) CheckTriggerHealth(ctx context.Context) ([]TriggerFailureRecord, error) {
	failures := []TriggerFailureRecord{}

	query := `
		SELECT trigger_name, table_name, operation,
		       COALESCE(error_message, '') AS error_message,
		       occurred_at
		FROM trigger_execution_log
		WHERE status <> 'success'
		AND occurred_at >= NOW() - ($1 || ' hours')::interval
		ORDER BY occurred_at DESC, trigger_name`

	if err := d.q.SelectContext(ctx, &failures, query, d.triggerWindow); err != nil {
		if isUndefinedTable(err) {
			d.logger.Debug("Trigger execution log not provisioned, treating as zero failures")
			return []TriggerFailureRecord{}, nil
		}
		return nil, newDetectionError(CategoryTriggers, err)
	}

	return failures, nil
}
