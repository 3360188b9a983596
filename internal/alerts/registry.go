package alerts

import (
	"sort"
	"sync"
	"time"
)

// Registry is the process-lifetime store of alerts, rebuilt from scratch
// on restart; the detectors are idempotent and regenerate live alerts on
// the next pass. It is the only mutable shared state in the subsystem and
// every mutation runs under the mutex, so concurrent passes cannot race
// the same (rule, resource) key into duplicates.
type Registry struct {
	mu          sync.Mutex
	alerts      map[string]*Alert // by alert id
	openByKey   map[string]string // rule/resource key -> non-resolved alert id
	generations map[string]int    // rule/resource key -> times resolved
}

func NewRegistry() *Registry {
	return &Registry{
		alerts:      make(map[string]*Alert),
		openByKey:   make(map[string]string),
		generations: make(map[string]int),
	}
}

func registryKey(ruleID, resourceKey string) string {
	return ruleID + "/" + resourceKey
}

// Upsert creates an active alert for the finding, or refreshes the
// details, severity and last-seen of the existing non-resolved alert for
// the same (rule, resource). Returns a copy of the stored alert.
func (r *Registry) Upsert(ruleID string, f Finding) Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := registryKey(ruleID, f.ResourceKey)
	now := time.Now()

	if id, ok := r.openByKey[key]; ok {
		existing := r.alerts[id]
		existing.Details = f.Details
		existing.Severity = f.Severity
		existing.LastSeenAt = now
		return *existing
	}

	alert := &Alert{
		ID:          alertID(ruleID, f.ResourceKey, r.generations[key]),
		RuleID:      ruleID,
		ResourceKey: f.ResourceKey,
		Severity:    f.Severity,
		Status:      StatusActive,
		Details:     f.Details,
		CreatedAt:   now,
		LastSeenAt:  now,
	}
	r.alerts[alert.ID] = alert
	r.openByKey[key] = alert.ID
	return *alert
}

// Acknowledge transitions active → acknowledged. False for unknown ids
// and for alerts already acknowledged or resolved; callers routinely
// probe state, so this is a boolean and not an error.
func (r *Registry) Acknowledge(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert, ok := r.alerts[id]
	if !ok || alert.Status != StatusActive {
		return false
	}

	now := time.Now()
	alert.Status = StatusAcknowledged
	alert.AcknowledgedAt = &now
	return true
}

// Resolve transitions any non-resolved status to resolved and bumps the
// generation for the pair, so the condition reappearing later creates a
// new alert rather than reviving this one.
func (r *Registry) Resolve(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert, ok := r.alerts[id]
	if !ok || alert.Status == StatusResolved {
		return false
	}

	now := time.Now()
	alert.Status = StatusResolved
	alert.ResolvedAt = &now

	key := registryKey(alert.RuleID, alert.ResourceKey)
	if r.openByKey[key] == id {
		delete(r.openByKey, key)
		r.generations[key]++
	}
	return true
}

// Get returns a copy of the alert with the given id.
func (r *Registry) Get(id string) (Alert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	alert, ok := r.alerts[id]
	if !ok {
		return Alert{}, false
	}
	return *alert, true
}

// Active returns all alerts not yet resolved, in stable order.
func (r *Registry) Active() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	active := []Alert{}
	for _, alert := range r.alerts {
		if alert.Status != StatusResolved {
			active = append(active, *alert)
		}
	}

	sort.Slice(active, func(i, j int) bool {
		if active[i].CreatedAt.Equal(active[j].CreatedAt) {
			return active[i].ID < active[j].ID
		}
		return active[i].CreatedAt.Before(active[j].CreatedAt)
	})
	return active
}

// CountBySeverity reports the number of non-resolved alerts per severity,
// for the metrics collector.
func (r *Registry) CountBySeverity() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for _, alert := range r.alerts {
		if alert.Status != StatusResolved {
			counts[string(alert.Severity)]++
		}
	}
	return counts
}
