package service

import (
	"context"

	"go.uber.org/zap"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/store"
)

// OfficeService manages offices inside the workspace.
type OfficeService struct {
	base
}

func NewOfficeService(d Deps) *OfficeService {
	return &OfficeService{base: newBase("office", d)}
}

// CreateOffice requires CreateOffice on the workspace. The creator becomes
// owner and first member and receives the Owner grants for the office.
func (s *OfficeService) CreateOffice(ctx context.Context, actorID string, req *domain.CreateOfficeRequest) (*domain.Office, error) {
	if err := validated(req); err != nil {
		return nil, err
	}

	office, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (*domain.Office, error) {
		ws, err := tx.GetWorkspace(req.WorkspaceID)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(ctx, tx, actorID, ws.ID, domain.PermissionCreateOffice); err != nil {
			return nil, err
		}

		office := &domain.Office{
			ID:                 s.newID(),
			OwnerID:            actorID,
			WorkspaceID:        ws.ID,
			Name:               req.Name,
			Description:        req.Description,
			Members:            []string{actorID},
			Rooms:              []string{},
			DefaultPermissions: s.engine.Roles().Fresh(domain.RoleMember, domain.DomainTypeOffice),
			IsDefault:          len(ws.Offices) == 0,
		}
		if req.MdxContent != nil {
			office.MdxContent = *req.MdxContent
		}
		if err := tx.InsertDomain(domain.OfficeDomain(office)); err != nil {
			return nil, err
		}

		ws.AddOffice(office.ID)
		if err := tx.UpdateDomain(domain.WorkspaceDomain(ws)); err != nil {
			return nil, err
		}

		owner := s.engine.Roles().Fresh(domain.RoleOwner, domain.DomainTypeOffice)
		if err := tx.SetUserPermissions(actorID, office.ID, owner); err != nil {
			return nil, err
		}
		return office, nil
	})

	id := ""
	if office != nil {
		id = office.ID
	}
	s.record(ctx, "create", "office", id, actorID, err, map[string]any{"workspace_id": req.WorkspaceID})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "office created",
		logger.Module("office"),
		logger.Action("create"),
		zap.String("office_id", office.ID),
		zap.String("actor_id", actorID),
	)
	return office, nil
}

// GetOffice requires ViewContent.
func (s *OfficeService) GetOffice(ctx context.Context, actorID, officeID string) (*domain.Office, error) {
	return store.WithRead(ctx, s.store, func(tx *store.ReadTx) (*domain.Office, error) {
		office, err := tx.GetOffice(officeID)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(ctx, tx, actorID, officeID, domain.PermissionViewContent); err != nil {
			return nil, err
		}
		return office, nil
	})
}

// UpdateOffice requires the permission of every field group it changes.
func (s *OfficeService) UpdateOffice(ctx context.Context, actorID, officeID string, req *domain.UpdateSpaceRequest) (*domain.Office, error) {
	if err := validated(req); err != nil {
		return nil, err
	}

	office, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (*domain.Office, error) {
		office, err := tx.GetOffice(officeID)
		if err != nil {
			return nil, err
		}
		for _, p := range requiredForUpdate(req, domain.DomainTypeOffice) {
			if err := s.authorize(ctx, tx, actorID, officeID, p); err != nil {
				return nil, err
			}
		}

		applySpaceUpdate(req, &office.Name, &office.Description, &office.MdxContent,
			&office.Rules, &office.ChatEnabled, &office.ChatChannelID, &office.DefaultPermissions)
		if err := tx.UpdateDomain(domain.OfficeDomain(office)); err != nil {
			return nil, err
		}
		return office, nil
	})
	s.record(ctx, "update", "office", officeID, actorID, err, nil)
	return office, err
}

// DeleteOffice requires DeleteOffice and cascades to every room.
func (s *OfficeService) DeleteOffice(ctx context.Context, actorID, officeID string) error {
	var rooms int
	err := s.store.Update(ctx, func(tx *store.WriteTx) error {
		if _, err := tx.GetOffice(officeID); err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, actorID, officeID, domain.PermissionDeleteOffice); err != nil {
			return err
		}
		n, err := deleteOfficeTx(tx, officeID)
		rooms = n
		return err
	})
	s.record(ctx, "delete", "office", officeID, actorID, err, map[string]any{"rooms_removed": rooms})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "office deleted",
		logger.Module("office"),
		logger.Action("delete"),
		zap.String("office_id", officeID),
		zap.Int("rooms_removed", rooms),
	)
	return nil
}

// ListOffices lists the offices of a workspace visible to the actor.
func (s *OfficeService) ListOffices(ctx context.Context, actorID, workspaceID string) ([]*domain.Office, error) {
	domains, err := listDomainEntities(ctx, &s.base, actorID, domain.DomainTypeOffice, &workspaceID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Office, 0, len(domains))
	for _, d := range domains {
		out = append(out, d.Office)
	}
	return out, nil
}

// =====================================================
// Shared office/room update helpers
// =====================================================

// requiredForUpdate maps the changed field groups to permissions. An
// update that changes nothing still needs Update{Office,Room}.
func requiredForUpdate(req *domain.UpdateSpaceRequest, t domain.DomainType) []domain.Permission {
	update, config := domain.PermissionUpdateOffice, domain.PermissionEditOfficeConfig
	if t == domain.DomainTypeRoom {
		update, config = domain.PermissionUpdateRoom, domain.PermissionEditRoomConfig
	}

	var perms []domain.Permission
	if req.TouchesDetails() {
		perms = append(perms, update)
	}
	if req.MdxContent != nil {
		perms = append(perms, domain.PermissionEditMdx)
	}
	if req.TouchesConfig() {
		perms = append(perms, config)
	}
	if len(perms) == 0 {
		perms = append(perms, update)
	}
	return perms
}

func applySpaceUpdate(req *domain.UpdateSpaceRequest, name, description, mdx *string, rules **string, chatEnabled *bool, channel **string, defaults *domain.PermissionSet) {
	if req.Name != nil {
		*name = *req.Name
	}
	if req.Description != nil {
		*description = *req.Description
	}
	if req.MdxContent != nil {
		*mdx = *req.MdxContent
	}
	if req.Rules != nil {
		v := *req.Rules
		*rules = &v
	}
	if req.ChatEnabled != nil {
		*chatEnabled = *req.ChatEnabled
	}
	if req.ChatChannelID != nil {
		v := *req.ChatChannelID
		*channel = &v
	}
	if req.DefaultPermissions != nil {
		*defaults = req.DefaultPermissions.Clone()
	}
}
