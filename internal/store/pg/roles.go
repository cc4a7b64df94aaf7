package pg

import (
	"context"
	"database/sql"
	"errors"

	"asagus.com/internal/auth"
)

type roleStore struct{ db *sql.DB }

const roleColumns = `id, name, description, created_at`

func scanRole(row interface{ Scan(...any) error }) (*auth.Role, error) {
	var role auth.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, auth.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (s *roleStore) Find(ctx context.Context, id string) (*auth.Role, error) {
	return scanRole(s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where id = $1`, id))
}

func (s *roleStore) FindByName(ctx context.Context, name string) (*auth.Role, error) {
	return scanRole(s.db.QueryRowContext(ctx,
		`select `+roleColumns+` from roles where name = $1`, name))
}

func (s *roleStore) List(ctx context.Context) ([]*auth.Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+roleColumns+` from roles order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []*auth.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (s *roleStore) Assign(ctx context.Context, assignment auth.UserRole) error {
	var assignedBy any
	if assignment.AssignedBy != "" {
		assignedBy = assignment.AssignedBy
	}
	_, err := s.db.ExecContext(ctx, `
		insert into user_roles (user_id, role_id, assigned_by)
		values ($1, $2, $3)
		on conflict (user_id, role_id) do nothing
	`, assignment.UserID, assignment.RoleID, assignedBy)
	if err != nil {
		if pgErr, ok := maybePgError(err); ok && pgErr.Code == pgErrForeignKeyViolation {
			return auth.ErrNotFound
		}
		return err
	}
	return nil
}

func (s *roleStore) Remove(ctx context.Context, userID, roleID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from user_roles where user_id = $1 and role_id = $2`,
		userID, roleID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// GrantsFor returns the user's roles each paired with its permissions. A role
// without permissions still appears with an empty list so the resolver sees
// the role name.
func (s *roleStore) GrantsFor(ctx context.Context, userID string) ([]auth.RoleGrant, error) {
	rows, err := s.db.QueryContext(ctx, `
		select r.id, r.name, r.description, r.created_at, p.resource, p.action
		from user_roles ur
		join roles r on r.id = ur.role_id
		left join role_permissions rp on rp.role_id = r.id
		left join permissions p on p.id = rp.permission_id
		where ur.user_id = $1
		order by r.name, p.resource, p.action
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		grants []auth.RoleGrant
		index  = map[string]int{}
	)
	for rows.Next() {
		var (
			role             auth.Role
			resource, action sql.NullString
		)
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &resource, &action); err != nil {
			return nil, err
		}
		i, ok := index[role.ID]
		if !ok {
			i = len(grants)
			index[role.ID] = i
			grants = append(grants, auth.RoleGrant{Role: role})
		}
		if resource.Valid && action.Valid {
			grants[i].Permissions = append(grants[i].Permissions, auth.Permission{
				Resource: resource.String,
				Action:   action.String,
			})
		}
	}
	return grants, rows.Err()
}
