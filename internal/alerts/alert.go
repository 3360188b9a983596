package alerts

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nexora/integrity-guard/internal/integrity"
)

type Status string

const (
	StatusActive       Status = "active"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
)

// Alert is a stateful, addressable unit of operator attention. Its ID is
// derived from the rule and resource, so re-detection of the same
// condition addresses the same alert instead of duplicating it.
type Alert struct {
	ID             string                 `json:"id"`
	RuleID         string                 `json:"rule_id"`
	ResourceKey    string                 `json:"resource_key"`
	Severity       integrity.Severity     `json:"severity"`
	Status         Status                 `json:"status"`
	Details        map[string]interface{} `json:"details"`
	CreatedAt      time.Time              `json:"created_at"`
	LastSeenAt     time.Time              `json:"last_seen_at"`
	AcknowledgedAt *time.Time             `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time             `json:"resolved_at,omitempty"`
}

// Finding is one triggered condition produced by a rule evaluation.
type Finding struct {
	ResourceKey string
	Severity    integrity.Severity
	Details     map[string]interface{}
}

// alertID derives the stable id for a (rule, resource) pair. Generation
// increments each time an alert for the pair is resolved, so a recurrence
// after resolution gets a fresh id while live re-detections keep the same
// one.
func alertID(ruleID, resourceKey string, generation int) string {
	sum := sha1.Sum([]byte(ruleID + "|" + resourceKey))
	id := hex.EncodeToString(sum[:])[:12]
	if generation > 0 {
		return fmt.Sprintf("%s-%d", id, generation)
	}
	return id
}
