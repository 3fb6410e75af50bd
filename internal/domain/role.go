package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// =====================================================
// Role
// =====================================================

// RoleKind identifies the variant of a Role.
type RoleKind string

const (
	RoleKindAdmin  RoleKind = "admin"
	RoleKindOwner  RoleKind = "owner"
	RoleKindMember RoleKind = "member"
	RoleKindGuest  RoleKind = "guest"
	RoleKindBanned RoleKind = "banned"
	RoleKindCustom RoleKind = "custom"
)

// Reserved ranks. Custom roles may not use any of these.
const (
	RankAdmin  uint8 = 255
	RankOwner  uint8 = 20
	RankMember uint8 = 10
	RankGuest  uint8 = 5
	RankBanned uint8 = 0
)

// Role is a user's system role. Built-in roles carry only a Kind;
// custom roles also carry a name and a rank.
type Role struct {
	Kind RoleKind
	Name string
	rank uint8
}

var (
	RoleAdmin  = Role{Kind: RoleKindAdmin}
	RoleOwner  = Role{Kind: RoleKindOwner}
	RoleMember = Role{Kind: RoleKindMember}
	RoleGuest  = Role{Kind: RoleKindGuest}
	RoleBanned = Role{Kind: RoleKindBanned}
)

// NewCustomRole builds a custom role. The rank must not collide with a
// built-in rank.
func NewCustomRole(name string, rank uint8) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, fmt.Errorf("custom role name is required")
	}
	if strings.Contains(name, ":") {
		return Role{}, fmt.Errorf("custom role name %q must not contain ':'", name)
	}
	if isReservedRank(rank) {
		return Role{}, fmt.Errorf("rank %d is reserved for a built-in role", rank)
	}
	return Role{Kind: RoleKindCustom, Name: name, rank: rank}, nil
}

func isReservedRank(rank uint8) bool {
	switch rank {
	case RankAdmin, RankOwner, RankMember, RankGuest, RankBanned:
		return true
	default:
		return false
	}
}

// Rank returns the ordering weight of the role.
func (r Role) Rank() uint8 {
	switch r.Kind {
	case RoleKindAdmin:
		return RankAdmin
	case RoleKindOwner:
		return RankOwner
	case RoleKindMember:
		return RankMember
	case RoleKindGuest:
		return RankGuest
	case RoleKindBanned:
		return RankBanned
	case RoleKindCustom:
		return r.rank
	default:
		return RankBanned
	}
}

// AtLeast reports whether r ranks at or above other. This is the
// threshold comparison; identity checks use == on the role value.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// IsValid checks the role is a known variant.
func (r Role) IsValid() bool {
	switch r.Kind {
	case RoleKindAdmin, RoleKindOwner, RoleKindMember, RoleKindGuest, RoleKindBanned:
		return r.Name == "" && r.rank == 0
	case RoleKindCustom:
		return r.Name != "" && !isReservedRank(r.rank)
	default:
		return false
	}
}

// String renders built-in roles by kind and custom roles as
// "custom:<name>:<rank>".
func (r Role) String() string {
	if r.Kind == RoleKindCustom {
		return fmt.Sprintf("custom:%s:%d", r.Name, r.rank)
	}
	return string(r.Kind)
}

// ParseRole is the inverse of String.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	switch RoleKind(strings.ToLower(s)) {
	case RoleKindAdmin:
		return RoleAdmin, nil
	case RoleKindOwner:
		return RoleOwner, nil
	case RoleKindMember:
		return RoleMember, nil
	case RoleKindGuest:
		return RoleGuest, nil
	case RoleKindBanned:
		return RoleBanned, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 3 || RoleKind(strings.ToLower(parts[0])) != RoleKindCustom {
		return Role{}, fmt.Errorf("unknown role %q", s)
	}
	rank, err := strconv.ParseUint(parts[2], 10, 8)
	if err != nil {
		return Role{}, fmt.Errorf("invalid rank in role %q: %w", s, err)
	}
	return NewCustomRole(parts[1], uint8(rank))
}

// MarshalText encodes the role in its String form.
func (r Role) MarshalText() ([]byte, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("cannot encode invalid role %+v", r)
	}
	return []byte(r.String()), nil
}

// UnmarshalText decodes a role produced by MarshalText.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
