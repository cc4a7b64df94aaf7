package pg

import (
	"context"
	"database/sql"

	"asagus.com/internal/auth"
)

type refreshTokenStore struct{ db *sql.DB }

func (s *refreshTokenStore) Create(ctx context.Context, tok *auth.RefreshToken) error {
	_, err := s.db.ExecContext(ctx, `
		insert into refresh_tokens (id, user_id, expires_at, issued_ip, user_agent)
		values ($1, $2, $3, $4, $5)
	`, tok.ID, tok.UserID, tok.ExpiresAt, tok.IssuedIP, tok.UserAgent)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return auth.ErrNotFound
		}
		return err
	}
	return nil
}

// Consume deletes the token row in a single conditional statement. An expired
// or already-consumed row deletes nothing, so exactly one of two racing
// refreshes wins.
func (s *refreshTokenStore) Consume(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from refresh_tokens where id = $1 and expires_at > now()`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *refreshTokenStore) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`delete from refresh_tokens where user_id = $1`, userID)
	return err
}

type passwordResetStore struct{ db *sql.DB }

func (s *passwordResetStore) Create(ctx context.Context, tok *auth.PasswordResetToken) error {
	_, err := s.db.ExecContext(ctx, `
		insert into password_reset_tokens (id, user_id, token_hash, expires_at)
		values ($1, $2, $3, $4)
	`, tok.ID, tok.UserID, tok.TokenHash, tok.ExpiresAt)
	return err
}
