package auth

import "context"

// Store describes persistence operations required by the auth subsystem.
type Store interface {
	Users() UserStore
	Roles() RoleStore
	RefreshTokens() RefreshTokenStore
	PasswordResets() PasswordResetStore
}

// UserUpdate carries optional field changes; nil means leave unchanged.
type UserUpdate struct {
	Email    *string
	Name     *string
	IsActive *bool
}

// UserStore manages users.
type UserStore interface {
	Create(ctx context.Context, u *User) error
	Find(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, id string, upd UserUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// RoleStore manages roles and role assignments.
type RoleStore interface {
	Find(ctx context.Context, id string) (*Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]*Role, error)
	Assign(ctx context.Context, assignment UserRole) error
	Remove(ctx context.Context, userID, roleID string) error
	// GrantsFor loads the user's assigned roles together with each role's
	// permissions, i.e. the resolver's input.
	GrantsFor(ctx context.Context, userID string) ([]RoleGrant, error)
}

// RefreshTokenStore manages the stateful side of refresh tokens.
type RefreshTokenStore interface {
	Create(ctx context.Context, tok *RefreshToken) error
	// Consume deletes the row for the jti and reports ErrNotFound when no row
	// was deleted. The conditional delete makes rotation atomic: of two
	// concurrent refreshes only one consumes the row.
	Consume(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// PasswordResetStore persists single-use password reset tokens.
type PasswordResetStore interface {
	Create(ctx context.Context, tok *PasswordResetToken) error
}
