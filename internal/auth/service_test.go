package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"asagus.com/internal/audit"
)

// memStore is an in-memory Store used to exercise the service without a
// database.
type memStore struct {
	mu       sync.Mutex
	users    map[string]*User
	roles    map[string]*Role
	perms    map[string][]Permission // roleID -> permissions
	assigned map[string][]UserRole   // userID -> assignments
	refresh  map[string]*RefreshToken
	resets   []*PasswordResetToken
}

func newMemStore() *memStore {
	return &memStore{
		users:    make(map[string]*User),
		roles:    make(map[string]*Role),
		perms:    make(map[string][]Permission),
		assigned: make(map[string][]UserRole),
		refresh:  make(map[string]*RefreshToken),
	}
}

func (m *memStore) Users() UserStore                 { return (*memUsers)(m) }
func (m *memStore) Roles() RoleStore                 { return (*memRoles)(m) }
func (m *memStore) RefreshTokens() RefreshTokenStore { return (*memRefresh)(m) }
func (m *memStore) PasswordResets() PasswordResetStore {
	return (*memResets)(m)
}

func (m *memStore) addRole(id, name string, perms ...Permission) {
	m.roles[id] = &Role{ID: id, Name: name}
	m.perms[id] = perms
}

func (m *memStore) addUser(u *User) { m.users[u.ID] = u }

type memUsers memStore

func (m *memUsers) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrConflict
		}
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *memUsers) Find(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memUsers) List(_ context.Context) ([]*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id string, upd UserUpdate) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) TouchLastLogin(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type memRoles memStore

func (m *memRoles) Find(_ context.Context, id string) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRoles) FindByName(_ context.Context, name string) (*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memRoles) List(_ context.Context) ([]*Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Role, 0, len(m.roles))
	for _, r := range m.roles {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRoles) Assign(_ context.Context, assignment UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[assignment.RoleID]; !ok {
		return ErrNotFound
	}
	for _, a := range m.assigned[assignment.UserID] {
		if a.RoleID == assignment.RoleID {
			return nil
		}
	}
	m.assigned[assignment.UserID] = append(m.assigned[assignment.UserID], assignment)
	return nil
}

func (m *memRoles) Remove(_ context.Context, userID, roleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.assigned[userID]
	for i, a := range list {
		if a.RoleID == roleID {
			m.assigned[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *memRoles) GrantsFor(_ context.Context, userID string) ([]RoleGrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RoleGrant
	for _, a := range m.assigned[userID] {
		role := m.roles[a.RoleID]
		out = append(out, RoleGrant{Role: *role, Permissions: m.perms[a.RoleID]})
	}
	return out, nil
}

type memRefresh memStore

func (m *memRefresh) Create(_ context.Context, tok *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refresh[tok.ID] = tok
	return nil
}

func (m *memRefresh) Consume(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok, ok := m.refresh[id]
	if !ok || !tok.ExpiresAt.After(time.Now()) {
		return ErrNotFound
	}
	delete(m.refresh, id)
	return nil
}

func (m *memRefresh) DeleteByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, tok := range m.refresh {
		if tok.UserID == userID {
			delete(m.refresh, id)
		}
	}
	return nil
}

type memResets memStore

func (m *memResets) Create(_ context.Context, tok *PasswordResetToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, tok)
	return nil
}

// captureAudit records audit entries for assertions.
type captureAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (c *captureAudit) Append(_ context.Context, e *audit.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, *e)
	return nil
}

func (c *captureAudit) last(t *testing.T) audit.Entry {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		t.Fatal("expected at least one audit entry")
	}
	return c.entries[len(c.entries)-1]
}

func (c *captureAudit) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func testService(t *testing.T) (*Service, *memStore, *captureAudit) {
	t.Helper()
	store := newMemStore()
	sink := &captureAudit{}
	svc, err := NewService(store, testTokenService(t), audit.NewRecorder(sink))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store, sink
}

func seedUser(t *testing.T, store *memStore, id, email, password string, active bool) *User {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	u := &User{ID: id, Email: email, Name: "Test User", PasswordHash: hash, IsActive: active}
	store.addUser(u)
	return u
}

func TestLoginEmbedsResolvedPermissions(t *testing.T) {
	svc, store, _ := testService(t)
	store.addRole("role-admin", RoleAdmin, perm("users", "read"), perm("users", "update"))
	store.addRole("role-editor", RoleEditor, perm("content", "create"), perm("users", "read"))
	seedUser(t, store, "user-1", "admin@asagus.com", "correct horse", true)
	store.assigned["user-1"] = []UserRole{
		{UserID: "user-1", RoleID: "role-admin"},
		{UserID: "user-1", RoleID: "role-editor"},
	}

	session, err := svc.Login(context.Background(), "admin@asagus.com", "correct horse", RequestMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := svc.Tokens().VerifyAccessToken(session.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	got := make(map[string]struct{}, len(claims.Permissions))
	for _, k := range claims.Permissions {
		got[k] = struct{}{}
	}
	for _, want := range []string{"users:read", "users:update", "content:create"} {
		if _, ok := got[want]; !ok {
			t.Fatalf("token missing permission %s: %v", want, claims.Permissions)
		}
	}
	if len(claims.Permissions) != 3 {
		t.Fatalf("union must deduplicate, got %v", claims.Permissions)
	}
	if len(claims.Roles) != 2 {
		t.Fatalf("unexpected roles: %v", claims.Roles)
	}
}

func TestLoginFailuresAreGenericButAudited(t *testing.T) {
	cases := []struct {
		name   string
		email  string
		pass   string
		reason string
	}{
		{"unknown user", "nobody@asagus.com", "whatever1", "User not found"},
		{"wrong password", "known@asagus.com", "wrong password", "Invalid password"},
		{"inactive account", "inactive@asagus.com", "correct horse", "Account inactive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, sink := testService(t)
			seedUser(t, store, "user-1", "known@asagus.com", "correct horse", true)
			seedUser(t, store, "user-2", "inactive@asagus.com", "correct horse", false)

			_, err := svc.Login(context.Background(), tc.email, tc.pass, RequestMeta{IP: "10.0.0.1"})
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
			entry := sink.last(t)
			if entry.Action != audit.ActionLoginFailed {
				t.Fatalf("unexpected action: %s", entry.Action)
			}
			if entry.Success {
				t.Fatal("failure entry marked success")
			}
			if entry.FailureReason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, entry.FailureReason)
			}
			if entry.IP != "10.0.0.1" {
				t.Fatalf("expected client IP in entry, got %q", entry.IP)
			}
		})
	}
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	svc, store, _ := testService(t)
	store.addRole("role-viewer", RoleViewer, perm("content", "read"))
	seedUser(t, store, "user-1", "viewer@asagus.com", "correct horse", true)
	store.assigned["user-1"] = []UserRole{{UserID: "user-1", RoleID: "role-viewer"}}

	session, err := svc.Login(context.Background(), "viewer@asagus.com", "correct horse", RequestMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	first := session.Tokens.RefreshToken

	rotated, err := svc.Refresh(context.Background(), first, RequestMeta{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.Tokens.RefreshToken == first {
		t.Fatal("rotation must issue a new refresh token")
	}

	if _, err := svc.Refresh(context.Background(), first, RequestMeta{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replayed refresh token must fail with ErrInvalidToken, got %v", err)
	}

	if _, err := svc.Refresh(context.Background(), rotated.Tokens.RefreshToken, RequestMeta{}); err != nil {
		t.Fatalf("rotated token must remain usable: %v", err)
	}
}

func TestRefreshPicksUpRoleChanges(t *testing.T) {
	svc, store, _ := testService(t)
	store.addRole("role-viewer", RoleViewer, perm("content", "read"))
	store.addRole("role-editor", RoleEditor, perm("content", "create"))
	seedUser(t, store, "user-1", "viewer@asagus.com", "correct horse", true)
	store.assigned["user-1"] = []UserRole{{UserID: "user-1", RoleID: "role-viewer"}}

	session, err := svc.Login(context.Background(), "viewer@asagus.com", "correct horse", RequestMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.Grant.Has("content:create") {
		t.Fatal("viewer must not hold content:create yet")
	}

	store.mu.Lock()
	store.assigned["user-1"] = append(store.assigned["user-1"], UserRole{UserID: "user-1", RoleID: "role-editor"})
	store.mu.Unlock()

	rotated, err := svc.Refresh(context.Background(), session.Tokens.RefreshToken, RequestMeta{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !rotated.Grant.Has("content:create") {
		t.Fatal("refresh must re-resolve the grant from current assignments")
	}
}

func TestRefreshRejectsInactiveUser(t *testing.T) {
	svc, store, _ := testService(t)
	user := seedUser(t, store, "user-1", "soon-gone@asagus.com", "correct horse", true)

	session, err := svc.Login(context.Background(), user.Email, "correct horse", RequestMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	store.mu.Lock()
	store.users["user-1"].IsActive = false
	store.mu.Unlock()

	if _, err := svc.Refresh(context.Background(), session.Tokens.RefreshToken, RequestMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for deactivated account, got %v", err)
	}
}

func TestLogoutRevokesRefreshTokens(t *testing.T) {
	svc, store, sink := testService(t)
	user := seedUser(t, store, "user-1", "user@asagus.com", "correct horse", true)

	session, err := svc.Login(context.Background(), user.Email, "correct horse", RequestMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	principal := Principal{ID: user.ID, Email: user.Email}
	if err := svc.Logout(context.Background(), principal, RequestMeta{}); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), session.Tokens.RefreshToken, RequestMeta{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh after logout must fail, got %v", err)
	}
	if entry := sink.last(t); entry.Action != audit.ActionLogout {
		t.Fatalf("expected logout audit entry, got %s", entry.Action)
	}
}

func TestRegisterAssignsDefaultRole(t *testing.T) {
	svc, store, sink := testService(t)
	store.addRole("role-viewer", RoleViewer, perm("content", "read"))

	session, err := svc.Register(context.Background(), RegisterInput{
		Email:    "New.User@Asagus.com",
		Password: "long enough",
		Name:     "New User",
	}, RequestMeta{})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if session.User.Email != "new.user@asagus.com" {
		t.Fatalf("email must be normalized, got %s", session.User.Email)
	}
	if len(session.Grant.Roles) != 1 || session.Grant.Roles[0] != RoleViewer {
		t.Fatalf("expected default viewer role, got %v", session.Grant.Roles)
	}
	if entry := sink.last(t); entry.Action != audit.ActionRegister {
		t.Fatalf("expected register audit entry, got %s", entry.Action)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := testService(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "not-an-email",
		Password: "short",
		Name:     " ",
	}, RequestMeta{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"email", "password", "name"} {
		if _, ok := verr.Fields[field]; !ok {
			t.Fatalf("expected field error for %s: %v", field, verr.Fields)
		}
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("ValidationError must match ErrInvalidInput")
	}
}

func TestRegisterConflict(t *testing.T) {
	svc, store, _ := testService(t)
	seedUser(t, store, "user-1", "taken@asagus.com", "correct horse", true)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "taken@asagus.com",
		Password: "long enough",
		Name:     "Copycat",
	}, RequestMeta{})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDeleteUserRejectsSelf(t *testing.T) {
	svc, store, sink := testService(t)
	seedUser(t, store, "admin-1", "admin@asagus.com", "correct horse", true)
	actor := Principal{ID: "admin-1", Email: "admin@asagus.com"}

	err := svc.DeleteUser(context.Background(), actor, "admin-1", RequestMeta{})
	if !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	if _, ok := store.users["admin-1"]; !ok {
		t.Fatal("self-delete must not remove the user")
	}
	if sink.count() != 0 {
		t.Fatalf("self-delete must not be audited, got %d entries", sink.count())
	}
}

func TestDeleteUser(t *testing.T) {
	svc, store, sink := testService(t)
	seedUser(t, store, "admin-1", "admin@asagus.com", "correct horse", true)
	seedUser(t, store, "user-2", "bye@asagus.com", "correct horse", true)
	actor := Principal{ID: "admin-1", Email: "admin@asagus.com"}

	if err := svc.DeleteUser(context.Background(), actor, "user-2", RequestMeta{}); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, ok := store.users["user-2"]; ok {
		t.Fatal("user should be gone")
	}
	entry := sink.last(t)
	if entry.Action != audit.ActionUserDelete || entry.ResourceID != "user-2" {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}

	if err := svc.DeleteUser(context.Background(), actor, "user-2", RequestMeta{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestAssignRoleRecordsActor(t *testing.T) {
	svc, store, sink := testService(t)
	store.addRole("role-editor", RoleEditor, perm("content", "create"))
	seedUser(t, store, "user-2", "writer@asagus.com", "correct horse", true)
	actor := Principal{ID: "admin-1", Email: "admin@asagus.com"}

	assignment, err := svc.AssignRole(context.Background(), actor, "user-2", "role-editor", RequestMeta{})
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if assignment.AssignedBy != "admin-1" {
		t.Fatalf("expected AssignedBy admin-1, got %s", assignment.AssignedBy)
	}
	entry := sink.last(t)
	if entry.Action != audit.ActionRoleAssign || entry.Metadata["role"] != RoleEditor {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}

	if _, err := svc.AssignRole(context.Background(), actor, "user-2", "role-missing", RequestMeta{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown role, got %v", err)
	}
}

func TestRemoveRole(t *testing.T) {
	svc, store, sink := testService(t)
	store.addRole("role-editor", RoleEditor)
	seedUser(t, store, "user-2", "writer@asagus.com", "correct horse", true)
	store.assigned["user-2"] = []UserRole{{UserID: "user-2", RoleID: "role-editor"}}
	actor := Principal{ID: "admin-1", Email: "admin@asagus.com"}

	if err := svc.RemoveRole(context.Background(), actor, "user-2", "role-editor", RequestMeta{}); err != nil {
		t.Fatalf("RemoveRole: %v", err)
	}
	if len(store.assigned["user-2"]) != 0 {
		t.Fatal("assignment should be gone")
	}
	if entry := sink.last(t); entry.Action != audit.ActionRoleRemove {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	svc, store, _ := testService(t)
	user := seedUser(t, store, "user-1", "user@asagus.com", "old password", true)

	session, err := svc.Login(context.Background(), user.Email, "old password", RequestMeta{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	principal := Principal{ID: user.ID, Email: user.Email}

	if err := svc.ChangePassword(context.Background(), principal, "not the old one", "new password", RequestMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong current password, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), principal, "old password", "new password", RequestMeta{}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.Login(context.Background(), user.Email, "old password", RequestMeta{}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("old password must stop working")
	}
	if _, err := svc.Login(context.Background(), user.Email, "new password", RequestMeta{}); err != nil {
		t.Fatalf("new password must work: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), session.Tokens.RefreshToken, RequestMeta{}); !errors.Is(err, ErrInvalidToken) {
		t.Fatal("refresh tokens issued before the change must be revoked")
	}
}

func TestForgotPassword(t *testing.T) {
	svc, store, sink := testService(t)
	seedUser(t, store, "user-1", "user@asagus.com", "correct horse", true)
	seedUser(t, store, "user-2", "inactive@asagus.com", "correct horse", false)

	token, err := svc.ForgotPassword(context.Background(), "user@asagus.com", RequestMeta{})
	if err != nil {
		t.Fatalf("ForgotPassword: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token for an active account")
	}
	if len(store.resets) != 1 {
		t.Fatalf("expected one stored reset record, got %d", len(store.resets))
	}
	if store.resets[0].TokenHash == token {
		t.Fatal("stored record must hold a hash, not the plaintext token")
	}
	if entry := sink.last(t); entry.Action != audit.ActionPasswordForgot {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}

	for _, email := range []string{"nobody@asagus.com", "inactive@asagus.com", "not-an-email"} {
		token, err := svc.ForgotPassword(context.Background(), email, RequestMeta{})
		if err != nil || token != "" {
			t.Fatalf("miss for %s must be silent, got token=%q err=%v", email, token, err)
		}
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, store, _ := testService(t)
	seedUser(t, store, "user-1", "user@asagus.com", "correct horse", true)
	principal := Principal{ID: "user-1", Email: "user@asagus.com"}

	name := "Renamed"
	updated, err := svc.UpdateProfile(context.Background(), principal, ProfileUpdate{Name: &name}, RequestMeta{})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != "Renamed" {
		t.Fatalf("unexpected name: %s", updated.Name)
	}
	if updated.Email != "user@asagus.com" {
		t.Fatalf("email must be untouched, got %s", updated.Email)
	}

	bad := "not-an-email"
	if _, err := svc.UpdateProfile(context.Background(), principal, ProfileUpdate{Email: &bad}, RequestMeta{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetUserIncludesRoles(t *testing.T) {
	svc, store, _ := testService(t)
	store.addRole("role-editor", RoleEditor)
	seedUser(t, store, "user-1", "user@asagus.com", "correct horse", true)
	store.assigned["user-1"] = []UserRole{{UserID: "user-1", RoleID: "role-editor"}}

	detail, err := svc.GetUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if len(detail.Roles) != 1 || detail.Roles[0].Name != RoleEditor {
		t.Fatalf("unexpected roles: %+v", detail.Roles)
	}

	if _, err := svc.GetUser(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
