package pg

import (
	"context"
	"database/sql"
	"errors"

	"asagus.com/internal/auth"
	"asagus.com/internal/ids"
)

type userStore struct{ db *sql.DB }

const userColumns = `id, email, name, password_hash, is_active, email_verified, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*auth.User, error) {
	var u auth.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash,
		&u.IsActive, &u.EmailVerified, &u.LastLoginAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userStore) Create(ctx context.Context, u *auth.User) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into users (id, email, name, password_hash, is_active, email_verified)
		values ($1, $2, $3, $4, $5, $6)
		returning created_at, updated_at
	`, u.ID, u.Email, u.Name, u.PasswordHash, u.IsActive, u.EmailVerified)
	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return auth.ErrConflict
		}
		return err
	}
	return nil
}

func (s *userStore) Find(ctx context.Context, id string) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id = $1`, id))
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where email = $1`, email))
}

func (s *userStore) List(ctx context.Context) ([]*auth.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users order by created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*auth.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *userStore) Update(ctx context.Context, id string, upd auth.UserUpdate) (*auth.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		update users
		set email = coalesce($2, email),
		    name = coalesce($3, name),
		    is_active = coalesce($4, is_active),
		    updated_at = now()
		where id = $1
		returning `+userColumns, id, upd.Email, upd.Name, upd.IsActive))
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrUniqueViolation {
			return nil, auth.ErrConflict
		}
		return nil, err
	}
	return u, nil
}

func (s *userStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set password_hash = $2, updated_at = now() where id = $1`,
		id, passwordHash)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *userStore) TouchLastLogin(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`update users set last_login_at = now() where id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *userStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return auth.ErrNotFound
	}
	return nil
}
