package service

import (
	"errors"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/store"
)

// childIDs returns the ids a parent lists plus any stored children that
// point at it, so a stale parent list cannot orphan entities on delete.
func childIDs(tx store.Reader, parentID string, listed []string, childType domain.DomainType) []string {
	seen := make(map[string]struct{}, len(listed))
	out := make([]string, 0, len(listed))
	for _, id := range listed {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, d := range tx.AllDomains() {
		if d.Type != childType || d.ParentID() != parentID {
			continue
		}
		if _, ok := seen[d.ID()]; !ok {
			seen[d.ID()] = struct{}{}
			out = append(out, d.ID())
		}
	}
	return out
}

// deleteRoomTx removes a room and its reference on the parent office.
func deleteRoomTx(tx *store.WriteTx, roomID string) error {
	room, err := tx.GetRoom(roomID)
	if err != nil {
		return err
	}

	office, err := tx.GetOffice(room.OfficeID)
	switch {
	case err == nil:
		office.RemoveRoom(roomID)
		if err := tx.UpdateDomain(domain.OfficeDomain(office)); err != nil {
			return err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return err
	}

	if err := tx.RemoveDomain(roomID); err != nil {
		return err
	}
	return purgeGrants(tx, roomID)
}

// deleteOfficeTx removes every room of an office, then the office's
// reference on its workspace, then the office. It returns the number of
// rooms removed.
func deleteOfficeTx(tx *store.WriteTx, officeID string) (int, error) {
	office, err := tx.GetOffice(officeID)
	if err != nil {
		return 0, err
	}

	rooms := childIDs(tx, officeID, office.Rooms, domain.DomainTypeRoom)
	removed := 0
	for _, roomID := range rooms {
		err := deleteRoomTx(tx, roomID)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		removed++
	}

	ws, err := tx.GetWorkspace(office.WorkspaceID)
	switch {
	case err == nil:
		ws.RemoveOffice(officeID)
		if err := tx.UpdateDomain(domain.WorkspaceDomain(ws)); err != nil {
			return removed, err
		}
	case !errors.Is(err, domain.ErrNotFound):
		return removed, err
	}

	if err := tx.RemoveDomain(officeID); err != nil {
		return removed, err
	}
	return removed, purgeGrants(tx, officeID)
}

// deleteWorkspaceTx cascades through every office of a workspace.
func deleteWorkspaceTx(tx *store.WriteTx, workspaceID string) error {
	ws, err := tx.GetWorkspace(workspaceID)
	if err != nil {
		return err
	}

	for _, officeID := range childIDs(tx, workspaceID, ws.Offices, domain.DomainTypeOffice) {
		if _, err := deleteOfficeTx(tx, officeID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
	}

	if err := tx.RemoveDomain(workspaceID); err != nil {
		return err
	}
	if err := tx.RemovePasswordHash(workspaceID); err != nil {
		return err
	}
	return purgeGrants(tx, workspaceID)
}
