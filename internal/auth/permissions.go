package auth

import (
	"fmt"
	"strings"
)

// Well-known role names. The seed data creates exactly these four.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleEditor     = "editor"
	RoleViewer     = "viewer"
)

// DefaultRegistrationRole is granted to self-registered accounts.
const DefaultRegistrationRole = RoleViewer

// Basic CRUD actions plus the special actions a few resources carry.
const (
	ActionCreate      = "create"
	ActionRead        = "read"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionPublish     = "publish"
	ActionAssignRoles = "assign_roles"
	ActionExport      = "export"
	ActionSystem      = "system"
)

// Permission is a (resource, action) capability. Always compare and transport
// permissions through Key so a typo cannot create a silently-unmatched string.
type Permission struct {
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// Key returns the canonical "resource:action" form.
func (p Permission) Key() string {
	return p.Resource + ":" + p.Action
}

// Perm builds the canonical key for a resource/action pair.
func Perm(resource, action string) string {
	return Permission{Resource: resource, Action: action}.Key()
}

// ParsePermissionKey splits a canonical key back into its parts.
func ParsePermissionKey(key string) (Permission, error) {
	resource, action, ok := strings.Cut(key, ":")
	if !ok || strings.TrimSpace(resource) == "" || strings.TrimSpace(action) == "" {
		return Permission{}, fmt.Errorf("%w: malformed permission key %q", ErrInvalidInput, key)
	}
	return Permission{Resource: resource, Action: action}, nil
}

// Guard keys used by the HTTP layer.
const (
	PermUsersRead        = "users:read"
	PermUsersUpdate      = "users:update"
	PermUsersDelete      = "users:delete"
	PermUsersAssignRoles = "users:assign_roles"
)

// BuiltinPermissions is the seeded catalog. The resolver works off whatever
// the store returns, so additions here require only a re-seed.
var BuiltinPermissions = []Permission{
	{Resource: "users", Action: ActionCreate, Description: "Create admin users"},
	{Resource: "users", Action: ActionRead, Description: "View admin users"},
	{Resource: "users", Action: ActionUpdate, Description: "Update admin users"},
	{Resource: "users", Action: ActionDelete, Description: "Delete admin users"},
	{Resource: "users", Action: ActionAssignRoles, Description: "Assign and remove roles"},
	{Resource: "projects", Action: ActionCreate, Description: "Create projects"},
	{Resource: "projects", Action: ActionRead, Description: "View projects"},
	{Resource: "projects", Action: ActionUpdate, Description: "Update projects"},
	{Resource: "projects", Action: ActionDelete, Description: "Delete projects"},
	{Resource: "projects", Action: ActionPublish, Description: "Publish projects to the site"},
	{Resource: "services", Action: ActionCreate, Description: "Create service pages"},
	{Resource: "services", Action: ActionRead, Description: "View service pages"},
	{Resource: "services", Action: ActionUpdate, Description: "Update service pages"},
	{Resource: "services", Action: ActionDelete, Description: "Delete service pages"},
	{Resource: "services", Action: ActionPublish, Description: "Publish service pages"},
	{Resource: "content", Action: ActionCreate, Description: "Create site content"},
	{Resource: "content", Action: ActionRead, Description: "View site content"},
	{Resource: "content", Action: ActionUpdate, Description: "Update site content"},
	{Resource: "content", Action: ActionDelete, Description: "Delete site content"},
	{Resource: "content", Action: ActionPublish, Description: "Publish site content"},
	{Resource: "contacts", Action: ActionRead, Description: "View contact submissions"},
	{Resource: "contacts", Action: ActionUpdate, Description: "Update contact submissions"},
	{Resource: "contacts", Action: ActionDelete, Description: "Delete contact submissions"},
	{Resource: "contacts", Action: ActionExport, Description: "Export contact submissions"},
	{Resource: "settings", Action: ActionRead, Description: "View site settings"},
	{Resource: "settings", Action: ActionUpdate, Description: "Update site settings"},
	{Resource: "settings", Action: ActionSystem, Description: "System-level maintenance"},
}
