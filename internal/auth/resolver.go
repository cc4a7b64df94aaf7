package auth

import "sort"

// RoleGrant pairs an assigned role with the permissions it carries, as loaded
// from storage at token-issuance time.
type RoleGrant struct {
	Role        Role
	Permissions []Permission
}

// Grant is the flattened outcome of permission resolution: the role names, the
// deduplicated permission-key set they grant, and the super-admin capability
// resolved once here rather than re-checked as a string at call sites.
type Grant struct {
	Roles        []string
	Permissions  map[string]struct{}
	IsSuperAdmin bool
}

// ResolveGrant computes the union of permissions across all assigned roles.
// Resolution is purely additive: no role ever subtracts a permission granted
// by another, and no precedence rules apply.
func ResolveGrant(assigned []RoleGrant) Grant {
	grant := Grant{
		Roles:       make([]string, 0, len(assigned)),
		Permissions: make(map[string]struct{}),
	}
	seenRoles := make(map[string]struct{}, len(assigned))
	for _, rg := range assigned {
		name := rg.Role.Name
		if name == "" {
			continue
		}
		if _, ok := seenRoles[name]; !ok {
			seenRoles[name] = struct{}{}
			grant.Roles = append(grant.Roles, name)
		}
		if name == RoleSuperAdmin {
			grant.IsSuperAdmin = true
		}
		for _, p := range rg.Permissions {
			grant.Permissions[p.Key()] = struct{}{}
		}
	}
	return grant
}

// Has reports whether the grant includes the permission key.
func (g Grant) Has(key string) bool {
	_, ok := g.Permissions[key]
	return ok
}

// PermissionKeys returns the permission set as a sorted slice, ready for
// embedding into a token payload.
func (g Grant) PermissionKeys() []string {
	out := make([]string, 0, len(g.Permissions))
	for k := range g.Permissions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
