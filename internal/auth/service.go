package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"asagus.com/internal/audit"
	"asagus.com/internal/ids"
	"asagus.com/internal/obs"
)

const (
	minPasswordLength = 8
	resetTokenTTL     = time.Hour
)

// Failure reasons recorded in the audit log. The HTTP response never carries
// them; clients always see the generic invalid-credentials message.
const (
	reasonUserNotFound    = "User not found"
	reasonInvalidPassword = "Invalid password"
	reasonInactiveAccount = "Account inactive"
)

// RequestMeta carries per-request client attributes into the audit trail and
// refresh-token records.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// TokenPair is an access/refresh token pair with expirations.
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Session is the outcome of a successful authentication: the user, the grant
// resolved from their role assignments at this moment, and fresh tokens.
type Session struct {
	User   *User
	Grant  Grant
	Tokens TokenPair
}

// UserDetail pairs a user with their currently assigned roles.
type UserDetail struct {
	User  *User  `json:"user"`
	Roles []Role `json:"roles"`
}

// Service implements the credential→token→verified-identity lifecycle on top
// of a Store, a TokenService, and an audit recorder.
type Service struct {
	store  Store
	tokens *TokenService
	audit  *audit.Recorder
	now    func() time.Time
}

// NewService constructs the auth service.
func NewService(store Store, tokens *TokenService, recorder *audit.Recorder) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if tokens == nil {
		return nil, errors.New("auth: token service is required")
	}
	return &Service{store: store, tokens: tokens, audit: recorder, now: time.Now}, nil
}

// Tokens exposes the token service for verification at the HTTP boundary.
func (s *Service) Tokens() *TokenService { return s.tokens }

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a user with the default role and signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (Session, error) {
	fields := map[string]string{}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !validEmail(email) {
		fields["email"] = "valid email is required"
	}
	if len(in.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("password must be at least %d characters", minPasswordLength)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		fields["name"] = "name is required"
	}
	if err := newValidationError(fields); err != nil {
		return Session{}, err
	}

	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return Session{}, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return Session{}, err
	}
	user := &User{
		ID:           ids.New(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.store.Users().Create(ctx, user); err != nil {
		return Session{}, err
	}

	if role, err := s.store.Roles().FindByName(ctx, DefaultRegistrationRole); err == nil {
		_ = s.store.Roles().Assign(ctx, UserRole{UserID: user.ID, RoleID: role.ID})
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	session, err := s.openSession(ctx, user, meta)
	if err != nil {
		return Session{}, err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:      user.ID,
		ActorEmail:   user.Email,
		Action:       audit.ActionRegister,
		Success:      true,
		ResourceType: "user",
		ResourceID:   user.ID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	})
	return session, nil
}

// Login authenticates credentials and issues a fresh token pair. Unknown
// email, wrong password, and disabled accounts are indistinguishable to the
// caller; the audit entry records the precise reason.
func (s *Service) Login(ctx context.Context, email, password string, meta RequestMeta) (Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		s.auditLoginFailure(ctx, email, "", reasonUserNotFound, meta)
		return Session{}, ErrInvalidCredentials
	}

	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.auditLoginFailure(ctx, email, "", reasonUserNotFound, meta)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !user.IsActive {
		s.auditLoginFailure(ctx, email, user.ID, reasonInactiveAccount, meta)
		return Session{}, ErrInvalidCredentials
	}
	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		s.auditLoginFailure(ctx, email, user.ID, reasonInvalidPassword, meta)
		return Session{}, ErrInvalidCredentials
	}

	if err := s.store.Users().TouchLastLogin(ctx, user.ID); err != nil {
		obs.Warn("last_login_update_failed", map[string]any{"user_id": user.ID, "err": err.Error()})
	}

	session, err := s.openSession(ctx, user, meta)
	if err != nil {
		return Session{}, err
	}
	obs.ObserveLogin("success")
	s.audit.Record(ctx, audit.Entry{
		ActorID:    user.ID,
		ActorEmail: user.Email,
		Action:     audit.ActionLogin,
		Success:    true,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return session, nil
}

func (s *Service) auditLoginFailure(ctx context.Context, email, userID, reason string, meta RequestMeta) {
	obs.ObserveLogin("failure")
	s.audit.Record(ctx, audit.Entry{
		ActorID:       userID,
		ActorEmail:    email,
		Action:        audit.ActionLoginFailed,
		Success:       false,
		FailureReason: reason,
		IP:            meta.IP,
		UserAgent:     meta.UserAgent,
	})
}

// Refresh rotates a refresh token: the old row is consumed with a conditional
// delete (the loser of a concurrent double refresh fails with ErrInvalidToken)
// and a new pair is issued with the grant re-resolved from current role
// assignments.
func (s *Service) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (Session, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		obs.ObserveRefresh("failure")
		return Session{}, ErrInvalidToken
	}
	if err := s.store.RefreshTokens().Consume(ctx, claims.ID); err != nil {
		obs.ObserveRefresh("failure")
		if errors.Is(err, ErrNotFound) {
			// Signature verified but the row is gone: the token was already
			// rotated or revoked. Replay, not staleness.
			return Session{}, ErrInvalidToken
		}
		return Session{}, err
	}
	user, err := s.store.Users().Find(ctx, claims.Subject)
	if err != nil {
		obs.ObserveRefresh("failure")
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrInvalidToken
		}
		return Session{}, err
	}
	if !user.IsActive {
		obs.ObserveRefresh("failure")
		return Session{}, ErrInvalidCredentials
	}
	session, err := s.openSession(ctx, user, meta)
	if err != nil {
		return Session{}, err
	}
	obs.ObserveRefresh("success")
	s.audit.Record(ctx, audit.Entry{
		ActorID:    user.ID,
		ActorEmail: user.Email,
		Action:     audit.ActionTokenRefresh,
		Success:    true,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return session, nil
}

// Logout revokes every outstanding refresh token for the user. Outstanding
// access tokens stay valid until natural expiry.
func (s *Service) Logout(ctx context.Context, principal Principal, meta RequestMeta) error {
	if err := s.store.RefreshTokens().DeleteByUser(ctx, principal.ID); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    principal.ID,
		ActorEmail: principal.Email,
		Action:     audit.ActionLogout,
		Success:    true,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// ForgotPassword creates a single-use reset token for an active account. The
// plaintext token is returned for the mail-delivery collaborator; callers must
// answer generically whether or not the account exists. A miss returns
// ("", nil) on purpose.
func (s *Service) ForgotPassword(ctx context.Context, email string, meta RequestMeta) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !validEmail(email) {
		return "", nil
	}
	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if !user.IsActive {
		return "", nil
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	sum := sha256.Sum256([]byte(token))
	rec := &PasswordResetToken{
		ID:        ids.New(),
		UserID:    user.ID,
		TokenHash: hex.EncodeToString(sum[:]),
		ExpiresAt: s.now().UTC().Add(resetTokenTTL),
	}
	if err := s.store.PasswordResets().Create(ctx, rec); err != nil {
		return "", err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    user.ID,
		ActorEmail: user.Email,
		Action:     audit.ActionPasswordForgot,
		Success:    true,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return token, nil
}

// GetUser returns a user with their assigned roles.
func (s *Service) GetUser(ctx context.Context, id string) (UserDetail, error) {
	user, err := s.store.Users().Find(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	grants, err := s.store.Roles().GrantsFor(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	roles := make([]Role, 0, len(grants))
	for _, g := range grants {
		roles = append(roles, g.Role)
	}
	return UserDetail{User: user, Roles: roles}, nil
}

// ProfileUpdate carries self-service profile changes.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// UpdateProfile lets a user change their own name or email.
func (s *Service) UpdateProfile(ctx context.Context, principal Principal, upd ProfileUpdate, meta RequestMeta) (*User, error) {
	fields := map[string]string{}
	storeUpd := UserUpdate{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			fields["name"] = "name is required"
		}
		storeUpd.Name = &name
	}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if !validEmail(email) {
			fields["email"] = "valid email is required"
		}
		storeUpd.Email = &email
	}
	if err := newValidationError(fields); err != nil {
		return nil, err
	}
	user, err := s.store.Users().Update(ctx, principal.ID, storeUpd)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:      principal.ID,
		ActorEmail:   principal.Email,
		Action:       audit.ActionProfileUpdate,
		Success:      true,
		ResourceType: "user",
		ResourceID:   principal.ID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	})
	return user, nil
}

// ChangePassword verifies the current password, stores the new hash, and
// revokes all outstanding refresh tokens.
func (s *Service) ChangePassword(ctx context.Context, principal Principal, current, next string, meta RequestMeta) error {
	if len(next) < minPasswordLength {
		return newValidationError(map[string]string{
			"new_password": fmt.Sprintf("password must be at least %d characters", minPasswordLength),
		})
	}
	user, err := s.store.Users().Find(ctx, principal.ID)
	if err != nil {
		return err
	}
	if err := VerifyPassword(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.store.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	if err := s.store.RefreshTokens().DeleteByUser(ctx, user.ID); err != nil {
		obs.Warn("refresh_revoke_failed", map[string]any{"user_id": user.ID, "err": err.Error()})
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:    principal.ID,
		ActorEmail: principal.Email,
		Action:     audit.ActionPasswordChange,
		Success:    true,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
	return nil
}

// ListUsers returns all users for the admin panel.
func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.store.Users().List(ctx)
}

// UpdateUser applies an admin edit to another user.
func (s *Service) UpdateUser(ctx context.Context, actor Principal, userID string, upd UserUpdate, meta RequestMeta) (*User, error) {
	fields := map[string]string{}
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if !validEmail(email) {
			fields["email"] = "valid email is required"
		}
		upd.Email = &email
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			fields["name"] = "name is required"
		}
		upd.Name = &name
	}
	if err := newValidationError(fields); err != nil {
		return nil, err
	}
	user, err := s.store.Users().Update(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:      actor.ID,
		ActorEmail:   actor.Email,
		Action:       audit.ActionUserUpdate,
		Success:      true,
		ResourceType: "user",
		ResourceID:   userID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	})
	return user, nil
}

// DeleteUser removes a user. Self-deletion is rejected before it can become an
// auditable mutation.
func (s *Service) DeleteUser(ctx context.Context, actor Principal, userID string, meta RequestMeta) error {
	if userID == actor.ID {
		return ErrSelfDelete
	}
	if _, err := s.store.Users().Find(ctx, userID); err != nil {
		return err
	}
	if err := s.store.Users().Delete(ctx, userID); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:      actor.ID,
		ActorEmail:   actor.Email,
		Action:       audit.ActionUserDelete,
		Success:      true,
		ResourceType: "user",
		ResourceID:   userID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
	})
	return nil
}

// AssignRole grants a role to a user. Already-issued access tokens keep their
// embedded permission set until the next login or refresh.
func (s *Service) AssignRole(ctx context.Context, actor Principal, userID, roleID string, meta RequestMeta) (UserRole, error) {
	if _, err := s.store.Users().Find(ctx, userID); err != nil {
		return UserRole{}, err
	}
	role, err := s.store.Roles().Find(ctx, roleID)
	if err != nil {
		return UserRole{}, err
	}
	assignment := UserRole{UserID: userID, RoleID: role.ID, AssignedBy: actor.ID}
	if err := s.store.Roles().Assign(ctx, assignment); err != nil {
		return UserRole{}, err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:      actor.ID,
		ActorEmail:   actor.Email,
		Action:       audit.ActionRoleAssign,
		Success:      true,
		ResourceType: "user",
		ResourceID:   userID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Metadata:     map[string]string{"role": role.Name},
	})
	return assignment, nil
}

// RemoveRole revokes a role assignment.
func (s *Service) RemoveRole(ctx context.Context, actor Principal, userID, roleID string, meta RequestMeta) error {
	role, err := s.store.Roles().Find(ctx, roleID)
	if err != nil {
		return err
	}
	if err := s.store.Roles().Remove(ctx, userID, roleID); err != nil {
		return err
	}
	s.audit.Record(ctx, audit.Entry{
		ActorID:      actor.ID,
		ActorEmail:   actor.Email,
		Action:       audit.ActionRoleRemove,
		Success:      true,
		ResourceType: "user",
		ResourceID:   userID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Metadata:     map[string]string{"role": role.Name},
	})
	return nil
}

// openSession resolves the grant from current assignments, mints a token pair,
// and persists the refresh token's stateful side.
func (s *Service) openSession(ctx context.Context, user *User, meta RequestMeta) (Session, error) {
	grants, err := s.store.Roles().GrantsFor(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	grant := ResolveGrant(grants)

	access, accessExp, err := s.tokens.IssueAccessToken(user, grant)
	if err != nil {
		return Session{}, err
	}
	refresh, jti, refreshExp, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.RefreshTokens().Create(ctx, &RefreshToken{
		ID:        jti,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
		IssuedIP:  meta.IP,
		UserAgent: meta.UserAgent,
	}); err != nil {
		return Session{}, err
	}
	return Session{
		User:  user,
		Grant: grant,
		Tokens: TokenPair{
			AccessToken:      access,
			RefreshToken:     refresh,
			AccessExpiresAt:  accessExp,
			RefreshExpiresAt: refreshExp,
		},
	}, nil
}

func validEmail(email string) bool {
	if email == "" || len(email) > 254 {
		return false
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	return !strings.ContainsAny(email, " \t")
}
