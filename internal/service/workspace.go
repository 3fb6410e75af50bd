package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/store"
)

// WorkspaceService manages the single root workspace.
type WorkspaceService struct {
	base
}

func NewWorkspaceService(d Deps) *WorkspaceService {
	return &WorkspaceService{base: newBase("workspace", d)}
}

// CreateWorkspace creates the root workspace with actorID as owner and
// sole member. Only one workspace may ever exist.
func (s *WorkspaceService) CreateWorkspace(ctx context.Context, actorID string, req *domain.CreateWorkspaceRequest) (*domain.Workspace, error) {
	if err := validated(req); err != nil {
		return nil, err
	}
	if req.MasterPassword == "" {
		return nil, domain.InvariantViolation("master password must not be empty")
	}

	hash, err := s.hasher.Hash(req.MasterPassword)
	if err != nil {
		return nil, domain.InvalidInput(err)
	}

	ws, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (*domain.Workspace, error) {
		if _, err := tx.GetUser(actorID); err != nil {
			return nil, err
		}
		if tx.WorkspaceCount() > 0 {
			return nil, domain.InvariantViolation("a workspace already exists")
		}

		ws := &domain.Workspace{
			ID:          domain.RootWorkspaceID,
			Name:        req.Name,
			Description: req.Description,
			OwnerID:     actorID,
			Members:     []string{actorID},
			Offices:     []string{},
			Metadata:    req.Metadata,
		}
		if err := tx.InsertDomain(domain.WorkspaceDomain(ws)); err != nil {
			return nil, err
		}
		if err := tx.SetPasswordHash(ws.ID, hash); err != nil {
			return nil, err
		}
		owner := s.engine.Roles().Fresh(domain.RoleOwner, domain.DomainTypeWorkspace)
		if err := tx.SetUserPermissions(actorID, ws.ID, owner); err != nil {
			return nil, err
		}
		return ws, nil
	})
	s.record(ctx, "create", "workspace", domain.RootWorkspaceID, actorID, err, nil)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "workspace created",
		logger.Module("workspace"),
		logger.Action("create"),
		zap.String("workspace_id", ws.ID),
		zap.String("actor_id", actorID),
	)
	return ws, nil
}

// GetWorkspace requires ViewContent.
func (s *WorkspaceService) GetWorkspace(ctx context.Context, actorID, workspaceID string) (*domain.Workspace, error) {
	return store.WithRead(ctx, s.store, func(tx *store.ReadTx) (*domain.Workspace, error) {
		ws, err := tx.GetWorkspace(workspaceID)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(ctx, tx, actorID, workspaceID, domain.PermissionViewContent); err != nil {
			return nil, err
		}
		return ws, nil
	})
}

// UpdateWorkspace requires UpdateWorkspace (plus EditWorkspaceConfig for
// metadata) and the master password. The password is verified outside
// the write lock; the write re-checks that the hash did not change.
func (s *WorkspaceService) UpdateWorkspace(ctx context.Context, actorID, workspaceID string, req *domain.UpdateWorkspaceRequest) (*domain.Workspace, error) {
	if err := validated(req); err != nil {
		return nil, err
	}

	required := []domain.Permission{domain.PermissionUpdateWorkspace}
	if req.Metadata != nil {
		required = append(required, domain.PermissionEditWorkspaceConfig)
	}

	hash, err := s.verifyMasterPassword(ctx, actorID, workspaceID, req.MasterPassword, required...)
	if err != nil {
		s.record(ctx, "update", "workspace", workspaceID, actorID, err, nil)
		return nil, err
	}

	ws, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (*domain.Workspace, error) {
		ws, err := s.recheck(ctx, tx, actorID, workspaceID, hash, required...)
		if err != nil {
			return nil, err
		}

		if req.Name != nil {
			ws.Name = *req.Name
		}
		if req.Description != nil {
			ws.Description = *req.Description
		}
		if req.Metadata != nil {
			ws.Metadata = req.Metadata
		}
		if err := tx.UpdateDomain(domain.WorkspaceDomain(ws)); err != nil {
			return nil, err
		}
		return ws, nil
	})
	s.record(ctx, "update", "workspace", workspaceID, actorID, err, nil)
	return ws, err
}

// DeleteWorkspace requires DeleteWorkspace and the master password. The
// root workspace can never be deleted.
func (s *WorkspaceService) DeleteWorkspace(ctx context.Context, actorID, workspaceID, masterPassword string) error {
	if workspaceID == domain.RootWorkspaceID {
		return domain.InvariantViolation("the root workspace cannot be deleted")
	}

	hash, err := s.verifyMasterPassword(ctx, actorID, workspaceID, masterPassword, domain.PermissionDeleteWorkspace)
	if err != nil {
		s.record(ctx, "delete", "workspace", workspaceID, actorID, err, nil)
		return err
	}

	err = s.store.Update(ctx, func(tx *store.WriteTx) error {
		if _, err := s.recheck(ctx, tx, actorID, workspaceID, hash, domain.PermissionDeleteWorkspace); err != nil {
			return err
		}
		return deleteWorkspaceTx(tx, workspaceID)
	})
	s.record(ctx, "delete", "workspace", workspaceID, actorID, err, nil)
	return err
}

// verifyMasterPassword authorizes the actor under a read lock, then runs
// the slow hash comparison with no lock held. It returns the hash that
// was verified.
func (s *WorkspaceService) verifyMasterPassword(ctx context.Context, actorID, workspaceID, password string, perms ...domain.Permission) (string, error) {
	hash, err := store.WithRead(ctx, s.store, func(tx *store.ReadTx) (string, error) {
		if _, err := tx.GetWorkspace(workspaceID); err != nil {
			return "", err
		}
		for _, p := range perms {
			if err := s.authorize(ctx, tx, actorID, workspaceID, p); err != nil {
				return "", err
			}
		}
		hash, ok := tx.PasswordHash(workspaceID)
		if !ok {
			return "", domain.AuthenticationFailure(workspaceID)
		}
		return hash, nil
	})
	if err != nil {
		return "", err
	}

	if !s.hasher.Verify(hash, password) {
		s.log.Warn(ctx, "master password verification failed",
			logger.Module("workspace"),
			logger.Action("verify_master_password"),
			zap.String("actor_id", actorID),
			zap.String("workspace_id", workspaceID),
		)
		return "", domain.AuthenticationFailure(workspaceID)
	}
	return hash, nil
}

// recheck repeats authorization inside the write transaction and makes
// sure the verified hash is still current.
func (s *WorkspaceService) recheck(ctx context.Context, tx *store.WriteTx, actorID, workspaceID, hash string, perms ...domain.Permission) (*domain.Workspace, error) {
	ws, err := tx.GetWorkspace(workspaceID)
	if err != nil {
		return nil, err
	}
	for _, p := range perms {
		if err := s.authorize(ctx, tx, actorID, workspaceID, p); err != nil {
			return nil, err
		}
	}
	if current, ok := tx.PasswordHash(workspaceID); !ok || current != hash {
		return nil, domain.AuthenticationFailure(workspaceID)
	}
	return ws, nil
}

// ChangeMasterPassword replaces the master password after verifying the
// current one. Requires EditWorkspaceConfig.
func (s *WorkspaceService) ChangeMasterPassword(ctx context.Context, actorID, workspaceID, current, next string) error {
	if next == "" {
		return domain.InvariantViolation("master password must not be empty")
	}

	hash, err := s.verifyMasterPassword(ctx, actorID, workspaceID, current, domain.PermissionEditWorkspaceConfig)
	if err != nil {
		s.record(ctx, "change_master_password", "workspace", workspaceID, actorID, err, nil)
		return err
	}

	nextHash, err := s.hasher.Hash(next)
	if err != nil {
		return domain.InvalidInput(fmt.Errorf("new master password: %w", err))
	}

	err = s.store.Update(ctx, func(tx *store.WriteTx) error {
		if _, err := s.recheck(ctx, tx, actorID, workspaceID, hash, domain.PermissionEditWorkspaceConfig); err != nil {
			return err
		}
		return tx.SetPasswordHash(workspaceID, nextHash)
	})
	s.record(ctx, "change_master_password", "workspace", workspaceID, actorID, err, nil)
	return err
}
