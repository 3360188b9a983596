package integrity

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordering position of s, low < medium < high < critical.
func (s Severity) Rank() int {
	return severityRank[s]
}

type severityBucket struct {
	minCount int
	severity Severity
}

// Classifier maps affected-row counts to severities through a fixed
// bucket table built from config. It is deliberately a standalone type so
// the thresholds are testable in isolation.
type Classifier struct {
	buckets []severityBucket
}

// NewClassifier builds the bucket table. Counts below mediumThreshold are
// low, counts from mediumThreshold up to highThreshold are medium, and
// highThreshold or more is high.
func NewClassifier(mediumThreshold, highThreshold int) *Classifier {
	return &Classifier{
		buckets: []severityBucket{
			{minCount: highThreshold, severity: SeverityHigh},
			{minCount: mediumThreshold, severity: SeverityMedium},
			{minCount: 0, severity: SeverityLow},
		},
	}
}

// Classify returns the severity bucket for a count.
func (c *Classifier) Classify(count int) Severity {
	for _, b := range c.buckets {
		if count >= b.minCount {
			return b.severity
		}
	}
	return SeverityLow
}

// ClassifyContamination classifies one contamination group. A group that
// would be high escalates to critical when the same pass found
// contamination across more than one relationship, since multi-table
// spread indicates a systemic isolation failure rather than a localized
// one.
func (c *Classifier) ClassifyContamination(count int, multiTable bool) Severity {
	s := c.Classify(count)
	if s == SeverityHigh && multiTable {
		return SeverityCritical
	}
	return s
}

// Highest returns the most severe classification among records, or low
// for an empty slice.
func Highest(records []ContaminationRecord) Severity {
	top := SeverityLow
	for _, r := range records {
		if r.Severity.Rank() > top.Rank() {
			top = r.Severity
		}
	}
	return top
}
