package alerts

import (
	"testing"

	"github.com/nexora/integrity-guard/internal/integrity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFinding(resource string) Finding {
	return Finding{
		ResourceKey: resource,
		Severity:    integrity.SeverityLow,
		Details:     map[string]interface{}{"mismatched_count": 1},
	}
}

func TestUpsertDeduplicates(t *testing.T) {
	r := NewRegistry()

	first := r.Upsert("cross-tenant-contamination", testFinding("calls→agents"))
	assert.Equal(t, StatusActive, first.Status)

	refreshed := r.Upsert("cross-tenant-contamination", Finding{
		ResourceKey: "calls→agents",
		Severity:    integrity.SeverityMedium,
		Details:     map[string]interface{}{"mismatched_count": 6},
	})

	assert.Equal(t, first.ID, refreshed.ID)
	assert.Equal(t, integrity.SeverityMedium, refreshed.Severity)
	assert.Equal(t, 6, refreshed.Details["mismatched_count"])
	assert.False(t, refreshed.LastSeenAt.Before(first.LastSeenAt))
	assert.Len(t, r.Active(), 1)
}

func TestUpsertDifferentResourcesAreDistinct(t *testing.T) {
	r := NewRegistry()

	a := r.Upsert("orphaned-records", testFinding("missing_agent"))
	b := r.Upsert("orphaned-records", testFinding("missing_call"))

	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, r.Active(), 2)
}

func TestAcknowledgeLifecycle(t *testing.T) {
	r := NewRegistry()
	alert := r.Upsert("trigger-failures", testFinding("trigger_execution_log"))

	assert.True(t, r.Acknowledge(alert.ID))

	got, ok := r.Get(alert.ID)
	require.True(t, ok)
	assert.Equal(t, StatusAcknowledged, got.Status)
	assert.NotNil(t, got.AcknowledgedAt)

	// Acknowledge is active-only; repeat attempts and unknown ids fail
	assert.False(t, r.Acknowledge(alert.ID))
	assert.False(t, r.Acknowledge("no-such-alert"))

	// Acknowledged alerts still count as active (not yet resolved)
	assert.Len(t, r.Active(), 1)
}

func TestResolveLifecycle(t *testing.T) {
	r := NewRegistry()
	alert := r.Upsert("trigger-failures", testFinding("trigger_execution_log"))

	assert.True(t, r.Resolve(alert.ID))
	assert.Empty(t, r.Active())

	got, _ := r.Get(alert.ID)
	assert.Equal(t, StatusResolved, got.Status)
	assert.NotNil(t, got.ResolvedAt)

	// Resolved is terminal
	assert.False(t, r.Resolve(alert.ID))
	assert.False(t, r.Acknowledge(alert.ID))
}

func TestResolveAcknowledgedAlert(t *testing.T) {
	r := NewRegistry()
	alert := r.Upsert("trigger-failures", testFinding("trigger_execution_log"))

	require.True(t, r.Acknowledge(alert.ID))
	assert.True(t, r.Resolve(alert.ID))
}

func TestRecurrenceAfterResolutionGetsNewID(t *testing.T) {
	r := NewRegistry()

	first := r.Upsert("cross-tenant-contamination", testFinding("calls→agents"))
	require.True(t, r.Resolve(first.ID))

	second := r.Upsert("cross-tenant-contamination", testFinding("calls→agents"))
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, StatusActive, second.Status)

	// The historical alert is untouched
	old, _ := r.Get(first.ID)
	assert.Equal(t, StatusResolved, old.Status)
}

func TestCountBySeverity(t *testing.T) {
	r := NewRegistry()
	r.Upsert("a", Finding{ResourceKey: "x", Severity: integrity.SeverityLow})
	r.Upsert("b", Finding{ResourceKey: "y", Severity: integrity.SeverityHigh})
	resolved := r.Upsert("c", Finding{ResourceKey: "z", Severity: integrity.SeverityHigh})
	require.True(t, r.Resolve(resolved.ID))

	counts := r.CountBySeverity()
	assert.Equal(t, 1, counts["low"])
	assert.Equal(t, 1, counts["high"])
}
