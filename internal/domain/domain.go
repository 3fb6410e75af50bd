package domain

import "fmt"

// DomainType tags the variant held by a Domain.
type DomainType string

const (
	DomainTypeWorkspace DomainType = "workspace"
	DomainTypeOffice    DomainType = "office"
	DomainTypeRoom      DomainType = "room"
)

// IsValid checks the type is one of the three variants.
func (t DomainType) IsValid() bool {
	switch t {
	case DomainTypeWorkspace, DomainTypeOffice, DomainTypeRoom:
		return true
	default:
		return false
	}
}

func (t DomainType) String() string {
	return string(t)
}

// ParseDomainType validates a domain type name.
func ParseDomainType(s string) (DomainType, error) {
	t := DomainType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("unknown domain type %q", s)
	}
	return t, nil
}

// =====================================================
// Domain (tagged union)
// =====================================================

// Domain wraps exactly one of Workspace, Office or Room. Type selects the
// populated field; every accessor switches on it.
type Domain struct {
	Type      DomainType `json:"type" cbor:"type"`
	Workspace *Workspace `json:"workspace,omitempty" cbor:"workspace,omitempty"`
	Office    *Office    `json:"office,omitempty" cbor:"office,omitempty"`
	Room      *Room      `json:"room,omitempty" cbor:"room,omitempty"`
}

// WorkspaceDomain wraps a workspace.
func WorkspaceDomain(w *Workspace) Domain {
	return Domain{Type: DomainTypeWorkspace, Workspace: w}
}

// OfficeDomain wraps an office.
func OfficeDomain(o *Office) Domain {
	return Domain{Type: DomainTypeOffice, Office: o}
}

// RoomDomain wraps a room.
func RoomDomain(r *Room) Domain {
	return Domain{Type: DomainTypeRoom, Room: r}
}

// Validate checks the tag matches the populated variant.
func (d Domain) Validate() error {
	switch d.Type {
	case DomainTypeWorkspace:
		if d.Workspace == nil || d.Office != nil || d.Room != nil {
			return fmt.Errorf("workspace domain must hold only a workspace")
		}
	case DomainTypeOffice:
		if d.Office == nil || d.Workspace != nil || d.Room != nil {
			return fmt.Errorf("office domain must hold only an office")
		}
	case DomainTypeRoom:
		if d.Room == nil || d.Workspace != nil || d.Office != nil {
			return fmt.Errorf("room domain must hold only a room")
		}
	default:
		return fmt.Errorf("unknown domain type %q", d.Type)
	}
	return nil
}

func (d Domain) ID() string {
	switch d.Type {
	case DomainTypeWorkspace:
		return d.Workspace.ID
	case DomainTypeOffice:
		return d.Office.ID
	case DomainTypeRoom:
		return d.Room.ID
	default:
		return ""
	}
}

func (d Domain) Name() string {
	switch d.Type {
	case DomainTypeWorkspace:
		return d.Workspace.Name
	case DomainTypeOffice:
		return d.Office.Name
	case DomainTypeRoom:
		return d.Room.Name
	default:
		return ""
	}
}

func (d Domain) Description() string {
	switch d.Type {
	case DomainTypeWorkspace:
		return d.Workspace.Description
	case DomainTypeOffice:
		return d.Office.Description
	case DomainTypeRoom:
		return d.Room.Description
	default:
		return ""
	}
}

func (d Domain) OwnerID() string {
	switch d.Type {
	case DomainTypeWorkspace:
		return d.Workspace.OwnerID
	case DomainTypeOffice:
		return d.Office.OwnerID
	case DomainTypeRoom:
		return d.Room.OwnerID
	default:
		return ""
	}
}

// Members returns the explicit member list.
func (d Domain) Members() []string {
	switch d.Type {
	case DomainTypeWorkspace:
		return d.Workspace.Members
	case DomainTypeOffice:
		return d.Office.Members
	case DomainTypeRoom:
		return d.Room.Members
	default:
		return nil
	}
}

// HasMember reports explicit membership.
func (d Domain) HasMember(userID string) bool {
	return containsString(d.Members(), userID)
}

// ParentID is empty for a workspace, the workspace id for an office and
// the office id for a room.
func (d Domain) ParentID() string {
	switch d.Type {
	case DomainTypeWorkspace:
		return ""
	case DomainTypeOffice:
		return d.Office.WorkspaceID
	case DomainTypeRoom:
		return d.Room.OfficeID
	default:
		return ""
	}
}

func (d Domain) UpdateName(name string) {
	switch d.Type {
	case DomainTypeWorkspace:
		d.Workspace.Name = name
	case DomainTypeOffice:
		d.Office.Name = name
	case DomainTypeRoom:
		d.Room.Name = name
	}
}

func (d Domain) UpdateDescription(description string) {
	switch d.Type {
	case DomainTypeWorkspace:
		d.Workspace.Description = description
	case DomainTypeOffice:
		d.Office.Description = description
	case DomainTypeRoom:
		d.Room.Description = description
	}
}

// SetMembers replaces the member list.
func (d Domain) SetMembers(members []string) {
	switch d.Type {
	case DomainTypeWorkspace:
		d.Workspace.Members = members
	case DomainTypeOffice:
		d.Office.Members = members
	case DomainTypeRoom:
		d.Room.Members = members
	}
}

// AddMember appends a member if absent and reports whether it was added.
func (d Domain) AddMember(userID string) bool {
	if d.HasMember(userID) {
		return false
	}
	d.SetMembers(append(cloneStrings(d.Members()), userID))
	return true
}

// RemoveMember drops a member and reports whether it was present.
func (d Domain) RemoveMember(userID string) bool {
	if !d.HasMember(userID) {
		return false
	}
	d.SetMembers(removeString(d.Members(), userID))
	return true
}

// Clone deep-copies the wrapped entity.
func (d Domain) Clone() Domain {
	switch d.Type {
	case DomainTypeWorkspace:
		return WorkspaceDomain(d.Workspace.Clone())
	case DomainTypeOffice:
		return OfficeDomain(d.Office.Clone())
	case DomainTypeRoom:
		return RoomDomain(d.Room.Clone())
	default:
		return d
	}
}
