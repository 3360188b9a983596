package alerts

import (
	"context"

	"go.uber.org/zap"
)

// Engine evaluates the rule table against the store and maintains the
// alert registry. Rule evaluation failures degrade that rule for the pass
// instead of aborting the others.
type Engine struct {
	rules    []Rule
	registry *Registry
	audit    AuditSink
	logger   *zap.Logger
}

func NewEngine(rules []Rule, registry *Registry, audit AuditSink, logger *zap.Logger) *Engine {
	return &Engine{
		rules:    rules,
		registry: registry,
		audit:    audit,
		logger:   logger,
	}
}

// CheckAlerts runs every rule and returns the alerts created or
// refreshed by this pass.
func (e *Engine) CheckAlerts(ctx context.Context) []Alert {
	touched := []Alert{}

	for _, rule := range e.rules {
		findings, err := rule.Evaluate(ctx)
		if err != nil {
			e.logger.Error("Rule evaluation failed",
				zap.String("rule_id", rule.ID),
				zap.Error(err),
			)
			continue
		}

		for _, finding := range findings {
			alert := e.registry.Upsert(rule.ID, finding)
			touched = append(touched, alert)

			e.logger.Info("Alert raised",
				zap.String("alert_id", alert.ID),
				zap.String("rule_id", rule.ID),
				zap.String("resource", finding.ResourceKey),
				zap.String("severity", string(alert.Severity)),
			)
		}
	}

	return touched
}

// Acknowledge transitions an alert to acknowledged. The transition is
// recorded in the audit sink best-effort.
func (e *Engine) Acknowledge(ctx context.Context, id, actor string) bool {
	if !e.registry.Acknowledge(id) {
		return false
	}
	e.recordAudit(ctx, id, "acknowledge", actor)
	return true
}

// Resolve transitions an alert to resolved.
func (e *Engine) Resolve(ctx context.Context, id, actor string) bool {
	if !e.registry.Resolve(id) {
		return false
	}
	e.recordAudit(ctx, id, "resolve", actor)
	return true
}

// ActiveAlerts returns all alerts not yet resolved.
func (e *Engine) ActiveAlerts() []Alert {
	return e.registry.Active()
}

func (e *Engine) recordAudit(ctx context.Context, id, action, actor string) {
	if e.audit == nil {
		return
	}
	alert, ok := e.registry.Get(id)
	if !ok {
		return
	}
	if err := e.audit.RecordTransition(ctx, alert, action, actor); err != nil {
		// The audit trail is non-essential; a failed write must never
		// block the operator action it describes.
		e.logger.Warn("Failed to record alert audit entry",
			zap.String("alert_id", id),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
