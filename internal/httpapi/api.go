// Package httpapi exposes the admin backend over HTTP/JSON. Every response
// uses the envelope {success, data?, error?, details?}.
package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"asagus.com/internal/auth"
	"asagus.com/internal/obs"
)

// ReadyProbe reports backend readiness (currently a DB ping).
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options tunes the API beyond its collaborators.
type Options struct {
	Version string
	// EphemeralSecrets surfaces the warn-and-continue signing-secret fallback
	// on the health endpoint.
	EphemeralSecrets bool
	RateBurst        int
	RatePerSecond    int
}

// API is the HTTP layer.
type API struct {
	mux        *http.ServeMux
	svc        *auth.Service
	readyProbe ReadyProbe
	opts       Options
}

// New wires routes onto a fresh mux.
func New(svc *auth.Service, rp ReadyProbe, opts Options) *API {
	a := &API{
		mux:        http.NewServeMux(),
		svc:        svc,
		readyProbe: rp,
		opts:       opts,
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/v1/auth/register", a.handleRegister)
	a.mux.HandleFunc("/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/v1/auth/refresh-token", a.handleRefresh)
	a.mux.HandleFunc("/v1/auth/forgot-password", a.handleForgotPassword)
	a.mux.HandleFunc("/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/v1/auth/me", a.handleMe)
	a.mux.HandleFunc("/v1/auth/profile", a.handleProfile)
	a.mux.HandleFunc("/v1/auth/password", a.handlePassword)

	a.mux.HandleFunc("/v1/users", a.handleUsersCollection)
	a.mux.HandleFunc("/v1/users/", a.handleUserResource)

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the fully wrapped handler for the server.
func (a *API) Handler() http.Handler {
	h := a.withAuth(a.mux)
	h = MaxBodyBytes(h, 1<<20)
	if a.opts.RateBurst > 0 && a.opts.RatePerSecond > 0 {
		h = RateLimit(h, a.opts.RateBurst, a.opts.RatePerSecond)
	}
	h = CORS(h)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"service":           "asagus-admin-api",
		"version":           a.opts.Version,
		"ephemeral_secrets": a.opts.EphemeralSecrets,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "not ready")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"status": "ready"})
}

// --- envelope helpers ---

type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, envelope{Success: false, Error: msg})
}

func writeValidationError(w http.ResponseWriter, details map[string]string) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Success: false,
		Error:   "Validation failed",
		Details: details,
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAuthError maps service errors onto the envelope without leaking
// anything the client should not learn.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *auth.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeValidationError(w, vErr.Fields)
	case errors.Is(err, auth.ErrSelfDelete):
		writeError(w, r, http.StatusBadRequest, "Cannot delete yourself")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnauthenticated):
		writeError(w, r, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "Insufficient permissions")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "resource already exists")
	default:
		obs.Error("request_failed", map[string]any{
			"path":       r.URL.Path,
			"request_id": RequestIDFromContext(r.Context()),
			"err":        err.Error(),
		})
		writeError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

func requestMeta(r *http.Request) auth.RequestMeta {
	return auth.RequestMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}
