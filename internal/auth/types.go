package auth

import "time"

// User is an admin-panel account. PasswordHash never crosses the JSON
// boundary.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	PasswordHash  string     `json:"-"`
	IsActive      bool       `json:"is_active"`
	EmailVerified bool       `json:"email_verified"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Role groups permissions. The role set is seeded once and treated as
// immutable at runtime.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// UserRole links a user to a role, recording who assigned it.
type UserRole struct {
	UserID     string    `json:"user_id"`
	RoleID     string    `json:"role_id"`
	AssignedBy string    `json:"assigned_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RefreshToken is the persisted side of a refresh JWT, keyed by the token's
// jti claim. The row is deleted when the token is consumed, so a replayed
// token finds nothing and fails verification.
type RefreshToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	IssuedIP  string
	UserAgent string
	CreatedAt time.Time
}

// PasswordResetToken is a single-use credential for the forgot-password flow.
// Only the hash of the token is stored.
type PasswordResetToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
