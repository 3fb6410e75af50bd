package rbac

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"officeflow-api/internal/domain"
)

// DefaultRoleCacheSize covers every built-in role at every domain type
// with room for custom roles.
const DefaultRoleCacheSize = 128

type roleKey struct {
	role       string
	domainType domain.DomainType
}

// RoleTable memoizes domain.RolePermissions. Sets returned by Lookup are
// shared and must be treated as read-only; use Fresh for a mutable copy.
type RoleTable struct {
	cache *lru.Cache[roleKey, domain.PermissionSet]
}

// NewRoleTable creates a table holding at most size entries.
func NewRoleTable(size int) (*RoleTable, error) {
	if size <= 0 {
		size = DefaultRoleCacheSize
	}
	cache, err := lru.New[roleKey, domain.PermissionSet](size)
	if err != nil {
		return nil, err
	}
	return &RoleTable{cache: cache}, nil
}

// Lookup returns the role's permission set for a domain type.
func (t *RoleTable) Lookup(role domain.Role, domainType domain.DomainType) domain.PermissionSet {
	key := roleKey{role: role.String(), domainType: domainType}
	if set, ok := t.cache.Get(key); ok {
		return set
	}
	set := domain.RolePermissions(role, domainType)
	t.cache.Add(key, set)
	return set
}

// Fresh returns a copy callers may mutate, e.g. to store on a user.
func (t *RoleTable) Fresh(role domain.Role, domainType domain.DomainType) domain.PermissionSet {
	return t.Lookup(role, domainType).Clone()
}

// Len reports the number of cached entries.
func (t *RoleTable) Len() int {
	return t.cache.Len()
}
