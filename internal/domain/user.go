package domain

// User is an actor. Permissions records explicit per-domain grants only;
// inherited and role-derived access is computed by the RBAC engine.
type User struct {
	ID          string                   `json:"id" cbor:"id"`
	Name        string                   `json:"name" cbor:"name"`
	Role        Role                     `json:"role" cbor:"role"`
	Permissions map[string]PermissionSet `json:"permissions" cbor:"permissions"`
	Metadata    map[string]string        `json:"metadata,omitempty" cbor:"metadata,omitempty"`
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Permissions = make(map[string]PermissionSet, len(u.Permissions))
	for domainID, set := range u.Permissions {
		out.Permissions[domainID] = set.Clone()
	}
	out.Metadata = cloneMetadata(u.Metadata)
	return &out
}

// HasExplicit reports whether the user holds p (or All) explicitly on domainID.
func (u *User) HasExplicit(domainID string, p Permission) bool {
	set, ok := u.Permissions[domainID]
	if !ok {
		return false
	}
	return set.Has(p)
}

// IsAdmin is an identity match on the Admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
