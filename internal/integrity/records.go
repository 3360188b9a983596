package integrity

import "time"

// Detection categories. These name the per-category error slots in
// Metrics and the prometheus label values.
const (
	CategoryContamination          = "cross_tenant_contamination"
	CategoryAnalyticsContamination = "analytics_contamination"
	CategoryOrphans                = "orphaned_records"
	CategoryTriggers               = "trigger_failures"
)

// ContaminationRecord is one mismatched owner pair for one relationship.
// It only exists when SubjectOwnerID != ReferencedOwnerID; the detection
// query cannot produce a matching pair. Recomputed on every pass, never
// persisted.
type ContaminationRecord struct {
	SubjectOwnerID    string   `json:"subject_owner_id" db:"subject_owner_id"`
	ReferencedOwnerID string   `json:"referenced_owner_id" db:"referenced_owner_id"`
	MismatchedCount   int      `json:"mismatched_count" db:"mismatched_count"`
	TableName         string   `json:"table_name" db:"-"`
	Severity          Severity `json:"severity" db:"-"`
}

// OrphanedRecord is one dependent row whose required reference no longer
// resolves.
type OrphanedRecord struct {
	OrphanType string `json:"orphan_type" db:"-"`
	RecordID   string `json:"record_id" db:"record_id"`
	TableName  string `json:"table_name" db:"-"`
}

// TriggerFailureRecord is one logged failure of a store-side consistency
// trigger.
type TriggerFailureRecord struct {
	TriggerName  string    `json:"trigger_name" db:"trigger_name"`
	TableName    string    `json:"table_name" db:"table_name"`
	Operation    string    `json:"operation" db:"operation"`
	ErrorMessage string    `json:"error_message" db:"error_message"`
	OccurredAt   time.Time `json:"occurred_at" db:"occurred_at"`
}

// Metrics is the scalar reduction of one detection pass. Errors carries
// the per-category degraded state: a category that failed or timed out
// contributes a zero count plus an entry here, so partial data is never
// silently presented as complete.
type Metrics struct {
	CrossTenantContamination int               `json:"cross_tenant_contamination"`
	OrphanedRecords          int               `json:"orphaned_records"`
	TriggerFailures          int               `json:"trigger_failures"`
	PerformanceIssues        int               `json:"performance_issues"`
	LastChecked              time.Time         `json:"last_checked"`
	Errors                   map[string]string `json:"errors,omitempty"`
}

// Degraded reports whether any category failed this pass.
func (m Metrics) Degraded() bool {
	return len(m.Errors) > 0
}

// FullCheckDetails holds the complete record lists behind the counts.
type FullCheckDetails struct {
	Contamination   []ContaminationRecord  `json:"contamination"`
	OrphanedRecords []OrphanedRecord       `json:"orphaned_records"`
	TriggerFailures []TriggerFailureRecord `json:"trigger_failures"`
}

// FullCheckResult is the metrics plus details plus a human-readable
// summary, as served by the full-check endpoint.
type FullCheckResult struct {
	Summary string           `json:"summary"`
	Metrics Metrics          `json:"metrics"`
	Details FullCheckDetails `json:"details"`
}
