// Package rbac decides whether an actor may exercise a permission on a
// workspace, office or room.
package rbac

import (
	"officeflow-api/internal/domain"
	"officeflow-api/internal/store"
)

// Reason names the rule that settled a decision.
type Reason string

const (
	ReasonAdmin            Reason = "admin_bypass"
	ReasonExplicitGrant    Reason = "explicit_grant"
	ReasonOwner            Reason = "owner"
	ReasonMemberRole       Reason = "member_role"
	ReasonMemberRoleDenied Reason = "member_role_denied"
	ReasonInheritedGrant   Reason = "inherited_grant"
	ReasonInheritedView    Reason = "inherited_view"
	ReasonNoInheritance    Reason = "no_inheritance"
	ReasonDenied           Reason = "denied"
)

// Decision is the outcome of a check and the rule that produced it.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason"`
	// Via is the ancestor that granted access for inherited decisions.
	Via string `json:"via,omitempty"`
}

func allow(r Reason) Decision { return Decision{Allowed: true, Reason: r} }
func deny(r Reason) Decision  { return Decision{Allowed: false, Reason: r} }

// Permissions a room inherits from explicit grants on its office.
var roomFromOffice = domain.NewPermissionSet(
	domain.PermissionViewContent,
	domain.PermissionReadMessages,
	domain.PermissionSendMessages,
	domain.PermissionCreateRoom,
)

// Permissions a room inherits from explicit grants on its workspace.
var roomFromWorkspace = domain.NewPermissionSet(
	domain.PermissionViewContent,
	domain.PermissionReadMessages,
	domain.PermissionSendMessages,
)

// Engine evaluates permission checks against a transaction. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	roles *RoleTable
}

// NewEngine creates an engine backed by roles.
func NewEngine(roles *RoleTable) *Engine {
	return &Engine{roles: roles}
}

// Roles exposes the role table so callers provision grants from the same
// source the engine checks against.
func (e *Engine) Roles() *RoleTable {
	return e.roles
}

// CheckEntityPermission reports whether actorID holds p on entityID.
func (e *Engine) CheckEntityPermission(tx store.Reader, actorID, entityID string, p domain.Permission) (bool, error) {
	d, err := e.Explain(tx, actorID, entityID, p)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// Require is CheckEntityPermission that turns a denial into a
// PermissionDenied error.
func (e *Engine) Require(tx store.Reader, actorID, entityID string, p domain.Permission) error {
	ok, err := e.CheckEntityPermission(tx, actorID, entityID, p)
	if err != nil {
		return err
	}
	if !ok {
		return domain.PermissionDenied(actorID, entityID, p)
	}
	return nil
}

// Explain evaluates the rules in order and returns the first that
// matches:
//
//  1. admin role
//  2. explicit grant on the entity
//  3. ownership of the entity
//  4. explicit membership, decided by the role table and terminal
//  5. inheritance from ancestors, for non-members only
func (e *Engine) Explain(tx store.Reader, actorID, entityID string, p domain.Permission) (Decision, error) {
	actor, err := tx.GetUser(actorID)
	if err != nil {
		return Decision{}, err
	}

	if actor.IsAdmin() {
		return allow(ReasonAdmin), nil
	}

	if actor.HasExplicit(entityID, p) {
		return allow(ReasonExplicitGrant), nil
	}

	target, err := tx.GetDomain(entityID)
	if err != nil {
		return Decision{}, err
	}

	if target.OwnerID() == actorID {
		return allow(ReasonOwner), nil
	}

	if target.HasMember(actorID) {
		if e.roles.Lookup(actor.Role, target.Type).Has(p) {
			return allow(ReasonMemberRole), nil
		}
		return deny(ReasonMemberRoleDenied), nil
	}

	switch target.Type {
	case domain.DomainTypeOffice:
		return e.inheritOffice(tx, actor, target, p)
	case domain.DomainTypeRoom:
		return e.inheritRoom(tx, actor, target, p)
	default:
		return deny(ReasonNoInheritance), nil
	}
}

func (e *Engine) inheritOffice(tx store.Reader, actor *domain.User, office domain.Domain, p domain.Permission) (Decision, error) {
	ws, err := tx.GetDomain(office.ParentID())
	if err != nil {
		return Decision{}, err
	}
	if d, ok := fromAncestor(actor, ws, p, nil); ok {
		return d, nil
	}
	return deny(ReasonDenied), nil
}

func (e *Engine) inheritRoom(tx store.Reader, actor *domain.User, room domain.Domain, p domain.Permission) (Decision, error) {
	office, err := tx.GetDomain(room.ParentID())
	if err != nil {
		return Decision{}, err
	}
	ws, err := tx.GetDomain(office.ParentID())
	if err != nil {
		return Decision{}, err
	}

	if d, ok := fromAncestor(actor, office, p, roomFromOffice); ok {
		return d, nil
	}
	if d, ok := fromAncestor(actor, ws, p, roomFromWorkspace); ok {
		return d, nil
	}
	return deny(ReasonDenied), nil
}

// fromAncestor applies the two inheritance rules against one ancestor: an
// explicit grant of p (restricted to inheritable when non-nil), then plain
// membership for ViewContent.
func fromAncestor(actor *domain.User, ancestor domain.Domain, p domain.Permission, inheritable domain.PermissionSet) (Decision, bool) {
	if actor.HasExplicit(ancestor.ID(), p) && (inheritable == nil || inheritable.Has(p)) {
		return Decision{Allowed: true, Reason: ReasonInheritedGrant, Via: ancestor.ID()}, true
	}
	if p == domain.PermissionViewContent && ancestor.HasMember(actor.ID) {
		return Decision{Allowed: true, Reason: ReasonInheritedView, Via: ancestor.ID()}, true
	}
	return Decision{}, false
}

// FilterAccessible keeps the domains on which actorID holds p. Lookup
// errors on individual domains drop them rather than failing the list.
func (e *Engine) FilterAccessible(tx store.Reader, actorID string, domains []domain.Domain, p domain.Permission) []domain.Domain {
	out := make([]domain.Domain, 0, len(domains))
	for _, d := range domains {
		ok, err := e.CheckEntityPermission(tx, actorID, d.ID(), p)
		if err == nil && ok {
			out = append(out, d)
		}
	}
	return out
}
