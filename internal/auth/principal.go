package auth

// Principal is the verified identity attached to a request after the access
// token checks out. Permissions are the set embedded in the token, not a live
// view of the database.
type Principal struct {
	ID           string
	Email        string
	Roles        []string
	Permissions  map[string]struct{}
	IsSuperAdmin bool
}

// PrincipalFromClaims builds a Principal from verified access-token claims.
func PrincipalFromClaims(claims *AccessClaims) Principal {
	p := Principal{
		ID:          claims.Subject,
		Email:       claims.Email,
		Roles:       claims.Roles,
		Permissions: make(map[string]struct{}, len(claims.Permissions)),
	}
	for _, key := range claims.Permissions {
		p.Permissions[key] = struct{}{}
	}
	for _, role := range claims.Roles {
		if role == RoleSuperAdmin {
			p.IsSuperAdmin = true
			break
		}
	}
	return p
}

// HasPermission reports whether the principal holds the permission key.
// Super admins hold everything.
func (p Principal) HasPermission(key string) bool {
	if p.IsSuperAdmin {
		return true
	}
	_, ok := p.Permissions[key]
	return ok
}

// HasAll reports whether the principal holds every listed permission key
// (logical AND). Super admins bypass the check entirely.
func (p Principal) HasAll(keys ...string) bool {
	if p.IsSuperAdmin {
		return true
	}
	for _, key := range keys {
		if _, ok := p.Permissions[key]; !ok {
			return false
		}
	}
	return true
}
