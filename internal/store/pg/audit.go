package pg

import (
	"context"
	"database/sql"
	"encoding/json"

	"asagus.com/internal/audit"
	"asagus.com/internal/ids"
)

type auditStore struct{ db *sql.DB }

var _ audit.Store = (*auditStore)(nil)

// AuditLog returns the append-only audit store.
func (s *Store) AuditLog() audit.Store { return &auditStore{db: s.db} }

func (s *auditStore) Append(ctx context.Context, entry *audit.Entry) error {
	if entry.ID == "" {
		entry.ID = ids.New()
	}
	meta, _ := json.Marshal(entry.Metadata)
	_, err := s.db.ExecContext(ctx, `
		insert into audit_log (id, occurred_at, actor_id, actor_email, action, success,
		                       failure_reason, resource_type, resource_id, ip, user_agent, metadata)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, entry.ID, entry.OccurredAt, nullable(entry.ActorID), nullable(entry.ActorEmail),
		entry.Action, entry.Success, nullable(entry.FailureReason),
		nullable(entry.ResourceType), nullable(entry.ResourceID),
		nullable(entry.IP), nullable(entry.UserAgent), meta)
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
