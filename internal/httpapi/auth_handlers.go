package httpapi

import (
	"net/http"
	"sort"

	"asagus.com/internal/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type profileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type sessionResponse struct {
	User        *auth.User     `json:"user"`
	Roles       []string       `json:"roles"`
	Permissions []string       `json:"permissions"`
	Tokens      auth.TokenPair `json:"tokens"`
}

func sessionPayload(s auth.Session) sessionResponse {
	return sessionResponse{
		User:        s.User,
		Roles:       s.Grant.Roles,
		Permissions: s.Grant.PermissionKeys(),
		Tokens:      s.Tokens,
	}
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.svc.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	}, requestMeta(r))
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, sessionPayload(session))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.svc.Login(r.Context(), req.Email, req.Password, requestMeta(r))
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sessionPayload(session))
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	session, err := a.svc.Refresh(r.Context(), req.RefreshToken, requestMeta(r))
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, sessionPayload(session))
}

func (a *API) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req forgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// The reset token goes to mail delivery, never to the response; the
	// answer is identical whether or not the account exists.
	if _, err := a.svc.ForgotPassword(r.Context(), req.Email, requestMeta(r)); err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"message": "If the account exists, a reset link has been sent",
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.ensurePermissions(w, r)
	if !ok {
		return
	}
	if err := a.svc.Logout(r.Context(), principal, requestMeta(r)); err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"message": "Logged out"})
}

// handleMe answers from the token-embedded grant on purpose: role changes made
// after issuance do not show up here until the client logs in or refreshes.
func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	principal, ok := a.ensurePermissions(w, r)
	if !ok {
		return
	}
	detail, err := a.svc.GetUser(r.Context(), principal.ID)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	perms := make([]string, 0, len(principal.Permissions))
	for key := range principal.Permissions {
		perms = append(perms, key)
	}
	sort.Strings(perms)
	writeData(w, http.StatusOK, map[string]any{
		"user":        detail.User,
		"roles":       principal.Roles,
		"permissions": perms,
	})
}

func (a *API) handleProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	principal, ok := a.ensurePermissions(w, r)
	if !ok {
		return
	}
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.svc.UpdateProfile(r.Context(), principal, auth.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
	}, requestMeta(r))
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"user": user})
}

func (a *API) handlePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	principal, ok := a.ensurePermissions(w, r)
	if !ok {
		return
	}
	var req passwordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.svc.ChangePassword(r.Context(), principal, req.CurrentPassword, req.NewPassword, requestMeta(r)); err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"message": "Password updated"})
}
