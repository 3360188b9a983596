package alerts

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// AuditSink records operator transitions on alerts. Implementations are
// best-effort; the engine logs and continues when a write fails.
type AuditSink interface {
	RecordTransition(ctx context.Context, alert Alert, action, actor string) error
}

// PostgresAuditSink appends transitions to integrity_alert_audit. This is
// the subsystem's only write path into the store.
type PostgresAuditSink struct {
	db *sqlx.DB
}

func NewPostgresAuditSink(db *sqlx.DB) *PostgresAuditSink {
	return &PostgresAuditSink{db: db}
}

func (s *PostgresAuditSink) RecordTransition(ctx context.Context, alert Alert, action, actor string) error {
	query := `
		INSERT INTO integrity_alert_audit (id, alert_id, rule_id, action, severity, actor)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		uuid.New().String(), alert.ID, alert.RuleID, action, string(alert.Severity), actor,
	)
	return err
}
