package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/store"
)

// MembershipService manages domain members and their explicit grants.
type MembershipService struct {
	base
}

func NewMembershipService(d Deps) *MembershipService {
	return &MembershipService{base: newBase("membership", d)}
}

// AddUserToDomain requires AddUsers. It adds the target as a member, sets
// the target's role and replaces the target's grants on the domain with
// the role table entry for the domain type. Only admins may hand out the
// Admin role or change an admin's role, and nobody else may hand out a role
// ranked above their own.
func (s *MembershipService) AddUserToDomain(ctx context.Context, actorID, targetID, domainID string, role domain.Role) (domain.PermissionSet, error) {
	if !role.IsValid() {
		return nil, domain.InvalidInput(fmt.Errorf("invalid role %q", role.String()))
	}

	perms, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (domain.PermissionSet, error) {
		d, err := tx.GetDomain(domainID)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(ctx, tx, actorID, domainID, domain.PermissionAddUsers); err != nil {
			return nil, err
		}
		target, err := tx.GetUser(targetID)
		if err != nil {
			return nil, err
		}
		actor, err := tx.GetUser(actorID)
		if err != nil {
			return nil, err
		}
		if !actor.IsAdmin() {
			if role == domain.RoleAdmin || target.IsAdmin() || !actor.Role.AtLeast(role) {
				return nil, domain.PermissionDenied(actorID, domainID, domain.PermissionManageRoles)
			}
		}

		if _, err := tx.AddMember(domainID, targetID); err != nil {
			return nil, err
		}
		if err := tx.AssignRole(targetID, role); err != nil {
			return nil, err
		}
		perms := s.engine.Roles().Fresh(role, d.Type)
		if err := tx.SetUserPermissions(targetID, domainID, perms); err != nil {
			return nil, err
		}
		return perms, nil
	})
	s.record(ctx, "add_member", "domain", domainID, actorID, err,
		map[string]any{"target_id": targetID, "role": role.String()})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "member added",
		logger.Module("membership"),
		logger.Action("add_member"),
		zap.String("domain_id", domainID),
		zap.String("target_id", targetID),
		zap.String("role", role.String()),
	)
	return perms, nil
}

// RemoveUserFromDomain requires RemoveUsers. The target's grants on the
// domain are erased even when the target was not a member.
func (s *MembershipService) RemoveUserFromDomain(ctx context.Context, actorID, targetID, domainID string) error {
	err := s.store.Update(ctx, func(tx *store.WriteTx) error {
		if _, err := tx.GetDomain(domainID); err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, actorID, domainID, domain.PermissionRemoveUsers); err != nil {
			return err
		}
		if _, err := tx.GetUser(targetID); err != nil {
			return err
		}
		if _, err := tx.RemoveMember(domainID, targetID); err != nil {
			return err
		}
		return tx.ClearUserPermissions(targetID, domainID)
	})
	s.record(ctx, "remove_member", "domain", domainID, actorID, err, map[string]any{"target_id": targetID})
	return err
}

// UpdateMemberPermissions edits the target's explicit grants on a domain.
// The actor needs ManageDomains on the domain, and non-admins may only add
// permissions they hold there themselves.
func (s *MembershipService) UpdateMemberPermissions(ctx context.Context, actorID, targetID, domainID string, perms domain.PermissionSet, op domain.PermissionOp) (domain.PermissionSet, error) {
	if !op.IsValid() {
		return nil, domain.InvalidInput(fmt.Errorf("unknown permission op %q", op))
	}
	for p := range perms {
		if !p.IsValid() {
			return nil, domain.InvalidInput(fmt.Errorf("unknown permission %q", p))
		}
	}

	result, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (domain.PermissionSet, error) {
		if _, err := tx.GetDomain(domainID); err != nil {
			return nil, err
		}
		if err := s.authorize(ctx, tx, actorID, domainID, domain.PermissionManageDomains); err != nil {
			return nil, err
		}
		if op != domain.PermissionOpRemove {
			for _, p := range perms.Sorted() {
				if err := s.authorize(ctx, tx, actorID, domainID, p); err != nil {
					return nil, err
				}
			}
		}

		target, err := tx.GetUser(targetID)
		if err != nil {
			return nil, err
		}
		next := op.Apply(target.Permissions[domainID], perms)
		if err := tx.SetUserPermissions(targetID, domainID, next); err != nil {
			return nil, err
		}
		return next, nil
	})
	s.record(ctx, "update_member_permissions", "domain", domainID, actorID, err,
		map[string]any{"target_id": targetID, "op": string(op)})
	return result, err
}

// ListMembers requires ViewMembers or ViewContent on the domain.
func (s *MembershipService) ListMembers(ctx context.Context, actorID, domainID string) ([]domain.Member, error) {
	return store.WithRead(ctx, s.store, func(tx *store.ReadTx) ([]domain.Member, error) {
		d, err := tx.GetDomain(domainID)
		if err != nil {
			return nil, err
		}
		ok, err := s.engine.CheckEntityPermission(tx, actorID, domainID, domain.PermissionViewMembers)
		if err != nil {
			return nil, err
		}
		if !ok {
			if err := s.authorize(ctx, tx, actorID, domainID, domain.PermissionViewContent); err != nil {
				return nil, err
			}
		}

		members := make([]domain.Member, 0, len(d.Members()))
		for _, id := range d.Members() {
			u, err := tx.GetUser(id)
			if err != nil {
				// Members may outlive deleted users.
				continue
			}
			members = append(members, domain.Member{
				ID:          u.ID,
				Name:        u.Name,
				Role:        u.Role,
				Permissions: u.Permissions[domainID].Clone(),
			})
		}
		return members, nil
	})
}

// BanUser requires BanUser. It removes the target from the domain, clears
// the target's grants there and sets the target's role to Banned. Admins
// can only be banned by admins.
func (s *MembershipService) BanUser(ctx context.Context, actorID, targetID, domainID string) error {
	err := s.store.Update(ctx, func(tx *store.WriteTx) error {
		if _, err := tx.GetDomain(domainID); err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, actorID, domainID, domain.PermissionBanUser); err != nil {
			return err
		}
		target, err := tx.GetUser(targetID)
		if err != nil {
			return err
		}
		if target.IsAdmin() {
			actor, err := tx.GetUser(actorID)
			if err != nil {
				return err
			}
			if !actor.IsAdmin() {
				return domain.PermissionDenied(actorID, domainID, domain.PermissionBanUser)
			}
		}

		if _, err := tx.RemoveMember(domainID, targetID); err != nil {
			return err
		}
		if err := tx.ClearUserPermissions(targetID, domainID); err != nil {
			return err
		}
		return tx.AssignRole(targetID, domain.RoleBanned)
	})
	s.record(ctx, "ban_user", "domain", domainID, actorID, err, map[string]any{"target_id": targetID})
	if err != nil {
		return err
	}

	s.log.Warn(ctx, "user banned",
		logger.Module("membership"),
		logger.Action("ban_user"),
		zap.String("domain_id", domainID),
		zap.String("target_id", targetID),
	)
	return nil
}
