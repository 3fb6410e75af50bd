package service

import (
	"context"

	"go.uber.org/zap"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/store"
)

// RoomService manages rooms inside offices.
type RoomService struct {
	base
}

func NewRoomService(d Deps) *RoomService {
	return &RoomService{base: newBase("room", d)}
}

// CreateRoom requires CreateRoom on the office.
func (s *RoomService) CreateRoom(ctx context.Context, actorID string, req *domain.CreateRoomRequest) (*domain.Room, error) {
	if err := validated(req); err != nil {
		return nil, err
	}

	room, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (*domain.Room, error) {
		office, err := tx.GetOffice(req.OfficeID)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(ctx, tx, actorID, office.ID, domain.PermissionCreateRoom); err != nil {
			return nil, err
		}

		room := &domain.Room{
			ID:                 s.newID(),
			OwnerID:            actorID,
			OfficeID:           office.ID,
			Name:               req.Name,
			Description:        req.Description,
			Members:            []string{actorID},
			DefaultPermissions: s.engine.Roles().Fresh(domain.RoleMember, domain.DomainTypeRoom),
		}
		if req.MdxContent != nil {
			room.MdxContent = *req.MdxContent
		}
		if err := tx.InsertDomain(domain.RoomDomain(room)); err != nil {
			return nil, err
		}

		office.AddRoom(room.ID)
		if err := tx.UpdateDomain(domain.OfficeDomain(office)); err != nil {
			return nil, err
		}

		owner := s.engine.Roles().Fresh(domain.RoleOwner, domain.DomainTypeRoom)
		if err := tx.SetUserPermissions(actorID, room.ID, owner); err != nil {
			return nil, err
		}
		return room, nil
	})

	id := ""
	if room != nil {
		id = room.ID
	}
	s.record(ctx, "create", "room", id, actorID, err, map[string]any{"office_id": req.OfficeID})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "room created",
		logger.Module("room"),
		logger.Action("create"),
		zap.String("room_id", room.ID),
		zap.String("office_id", room.OfficeID),
	)
	return room, nil
}

// GetRoom requires ViewContent.
func (s *RoomService) GetRoom(ctx context.Context, actorID, roomID string) (*domain.Room, error) {
	return store.WithRead(ctx, s.store, func(tx *store.ReadTx) (*domain.Room, error) {
		room, err := tx.GetRoom(roomID)
		if err != nil {
			return nil, err
		}
		if err := s.authorize(ctx, tx, actorID, roomID, domain.PermissionViewContent); err != nil {
			return nil, err
		}
		return room, nil
	})
}

// UpdateRoom requires the permission of every field group it changes.
func (s *RoomService) UpdateRoom(ctx context.Context, actorID, roomID string, req *domain.UpdateSpaceRequest) (*domain.Room, error) {
	if err := validated(req); err != nil {
		return nil, err
	}

	room, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (*domain.Room, error) {
		room, err := tx.GetRoom(roomID)
		if err != nil {
			return nil, err
		}
		for _, p := range requiredForUpdate(req, domain.DomainTypeRoom) {
			if err := s.authorize(ctx, tx, actorID, roomID, p); err != nil {
				return nil, err
			}
		}

		applySpaceUpdate(req, &room.Name, &room.Description, &room.MdxContent,
			&room.Rules, &room.ChatEnabled, &room.ChatChannelID, &room.DefaultPermissions)
		if err := tx.UpdateDomain(domain.RoomDomain(room)); err != nil {
			return nil, err
		}
		return room, nil
	})
	s.record(ctx, "update", "room", roomID, actorID, err, nil)
	return room, err
}

// DeleteRoom requires DeleteRoom.
func (s *RoomService) DeleteRoom(ctx context.Context, actorID, roomID string) error {
	err := s.store.Update(ctx, func(tx *store.WriteTx) error {
		if _, err := tx.GetRoom(roomID); err != nil {
			return err
		}
		if err := s.authorize(ctx, tx, actorID, roomID, domain.PermissionDeleteRoom); err != nil {
			return err
		}
		return deleteRoomTx(tx, roomID)
	})
	s.record(ctx, "delete", "room", roomID, actorID, err, nil)
	return err
}

// ListRooms lists the rooms of an office visible to the actor.
func (s *RoomService) ListRooms(ctx context.Context, actorID, officeID string) ([]*domain.Room, error) {
	domains, err := listDomainEntities(ctx, &s.base, actorID, domain.DomainTypeRoom, &officeID)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Room, 0, len(domains))
	for _, d := range domains {
		out = append(out, d.Room)
	}
	return out, nil
}
