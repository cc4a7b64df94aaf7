package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"asagus.com/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/register",
	"/v1/auth/login",
	"/v1/auth/refresh-token",
	"/v1/auth/forgot-password",
	"/metrics",
	"/healthz",
	"/readyz",
	"/",
}

// withAuth verifies the bearer token on every protected route and attaches the
// resulting principal to the request context. The client only ever learns
// "Authentication required"; the specific verification failure stays inside.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		claims, err := a.svc.Tokens().VerifyAccessToken(token)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "Authentication required")
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), auth.PrincipalFromClaims(claims))
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensurePermissions is the per-route guard: 401 without a principal, full
// bypass for super admins, otherwise every listed permission is required.
func (a *API) ensurePermissions(w http.ResponseWriter, r *http.Request, perms ...string) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Authentication required")
		return auth.Principal{}, false
	}
	if !principal.HasAll(perms...) {
		writeError(w, r, http.StatusForbidden, "Insufficient permissions")
		return auth.Principal{}, false
	}
	return principal, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
