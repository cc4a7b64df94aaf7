// Package audit records security-relevant events. Entries are append-only:
// nothing in normal operation mutates or deletes them.
package audit

import (
	"context"
	"time"

	"asagus.com/internal/obs"
)

// Actions recorded by the auth subsystem.
const (
	ActionLogin            = "login"
	ActionLoginFailed      = "login_failed"
	ActionLogout           = "logout"
	ActionRegister         = "register"
	ActionTokenRefresh     = "token_refresh"
	ActionPasswordChange   = "password_change"
	ActionPasswordForgot   = "password_reset_request"
	ActionProfileUpdate    = "profile_update"
	ActionUserUpdate       = "user_update"
	ActionUserDelete       = "user_delete"
	ActionRoleAssign       = "role_assign"
	ActionRoleRemove       = "role_remove"
)

// Entry is a single audit record.
type Entry struct {
	ID            string            `json:"id"`
	OccurredAt    time.Time         `json:"occurred_at"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorEmail    string            `json:"actor_email,omitempty"`
	Action        string            `json:"action"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	ResourceType  string            `json:"resource_type,omitempty"`
	ResourceID    string            `json:"resource_id,omitempty"`
	IP            string            `json:"ip,omitempty"`
	UserAgent     string            `json:"user_agent,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Store appends immutable entries.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
}

// Recorder writes entries to durable storage and mirrors them as structured
// log lines. Recording happens on the request's critical path, before the
// response is sent, but a failed store write is logged and swallowed so the
// handler can still answer.
type Recorder struct {
	store Store
	now   func() time.Time
}

// NewRecorder constructs a Recorder. A nil store degrades to log-only, which
// keeps tests and local runs without a database working.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store, now: time.Now}
}

// Record persists the entry and mirrors it to the log.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil {
		return
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = r.now().UTC()
	}
	fields := map[string]any{
		"type":    "audit",
		"action":  entry.Action,
		"success": entry.Success,
	}
	if entry.ActorID != "" {
		fields["actor_id"] = entry.ActorID
	}
	if entry.FailureReason != "" {
		fields["failure_reason"] = entry.FailureReason
	}
	if entry.ResourceID != "" {
		fields["resource_id"] = entry.ResourceID
	}
	obs.Info("audit_event", fields)

	if r.store == nil {
		return
	}
	if err := r.store.Append(ctx, &entry); err != nil {
		obs.Error("audit_append_failed", map[string]any{
			"action": entry.Action,
			"err":    err.Error(),
		})
	}
}
