package httpapi

import (
	"net/http"
	"strings"

	"asagus.com/internal/auth"
)

type updateUserRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

type assignRoleRequest struct {
	RoleID string `json:"role_id"`
}

func (a *API) handleUsersCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if _, ok := a.ensurePermissions(w, r, auth.PermUsersRead); !ok {
		return
	}
	users, err := a.svc.ListUsers(r.Context())
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"users": users})
}

func (a *API) handleUserResource(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	switch {
	case len(parts) == 1:
		a.handleUser(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "roles":
		a.handleUserRoles(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "roles":
		a.handleUserRole(w, r, parts[0], parts[2])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleUser(w http.ResponseWriter, r *http.Request, userID string) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := a.ensurePermissions(w, r, auth.PermUsersRead); !ok {
			return
		}
		detail, err := a.svc.GetUser(r.Context(), userID)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, detail)

	case http.MethodPut:
		principal, ok := a.ensurePermissions(w, r, auth.PermUsersUpdate)
		if !ok {
			return
		}
		var req updateUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		user, err := a.svc.UpdateUser(r.Context(), principal, userID, auth.UserUpdate{
			Email:    req.Email,
			Name:     req.Name,
			IsActive: req.IsActive,
		}, requestMeta(r))
		if err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"user": user})

	case http.MethodDelete:
		principal, ok := a.ensurePermissions(w, r, auth.PermUsersDelete)
		if !ok {
			return
		}
		if err := a.svc.DeleteUser(r.Context(), principal, userID, requestMeta(r)); err != nil {
			handleAuthError(w, r, err)
			return
		}
		writeData(w, http.StatusOK, map[string]any{"message": "User deleted"})

	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleUserRoles(w http.ResponseWriter, r *http.Request, userID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	principal, ok := a.ensurePermissions(w, r, auth.PermUsersAssignRoles)
	if !ok {
		return
	}
	var req assignRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	req.RoleID = strings.TrimSpace(req.RoleID)
	if req.RoleID == "" {
		writeError(w, r, http.StatusBadRequest, "role_id is required")
		return
	}
	assignment, err := a.svc.AssignRole(r.Context(), principal, userID, req.RoleID, requestMeta(r))
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, assignment)
}

func (a *API) handleUserRole(w http.ResponseWriter, r *http.Request, userID, roleID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	principal, ok := a.ensurePermissions(w, r, auth.PermUsersAssignRoles)
	if !ok {
		return
	}
	if err := a.svc.RemoveRole(r.Context(), principal, userID, roleID, requestMeta(r)); err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"message": "Role removed"})
}
