package domain

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// Permission is a fine-grained right on a domain.
type Permission string

const (
	PermissionAll Permission = "all"

	PermissionViewContent Permission = "view_content"
	PermissionEditContent Permission = "edit_content"
	PermissionEditMdx     Permission = "edit_mdx"

	PermissionSendMessages   Permission = "send_messages"
	PermissionReadMessages   Permission = "read_messages"
	PermissionDeleteMessages Permission = "delete_messages"
	PermissionPinMessages    Permission = "pin_messages"
	PermissionManageChat     Permission = "manage_chat"

	PermissionUploadFiles   Permission = "upload_files"
	PermissionDownloadFiles Permission = "download_files"

	PermissionCreateWorkspace Permission = "create_workspace"
	PermissionCreateOffice    Permission = "create_office"
	PermissionCreateRoom      Permission = "create_room"

	PermissionUpdateWorkspace Permission = "update_workspace"
	PermissionUpdateOffice    Permission = "update_office"
	PermissionUpdateRoom      Permission = "update_room"

	PermissionDeleteWorkspace Permission = "delete_workspace"
	PermissionDeleteOffice    Permission = "delete_office"
	PermissionDeleteRoom      Permission = "delete_room"

	PermissionEditWorkspaceConfig Permission = "edit_workspace_config"
	PermissionEditOfficeConfig    Permission = "edit_office_config"
	PermissionEditRoomConfig      Permission = "edit_room_config"

	PermissionAddUsers    Permission = "add_users"
	PermissionRemoveUsers Permission = "remove_users"
	PermissionInviteUsers Permission = "invite_users"
	PermissionBanUser     Permission = "ban_user"
	PermissionViewMembers Permission = "view_members"
	PermissionManageRoles Permission = "manage_roles"

	PermissionManageDomains   Permission = "manage_domains"
	PermissionConfigureSystem Permission = "configure_system"
)

// AllPermissions lists every concrete permission (excluding the wildcard).
var AllPermissions = []Permission{
	PermissionViewContent, PermissionEditContent, PermissionEditMdx,
	PermissionSendMessages, PermissionReadMessages, PermissionDeleteMessages,
	PermissionPinMessages, PermissionManageChat,
	PermissionUploadFiles, PermissionDownloadFiles,
	PermissionCreateWorkspace, PermissionCreateOffice, PermissionCreateRoom,
	PermissionUpdateWorkspace, PermissionUpdateOffice, PermissionUpdateRoom,
	PermissionDeleteWorkspace, PermissionDeleteOffice, PermissionDeleteRoom,
	PermissionEditWorkspaceConfig, PermissionEditOfficeConfig, PermissionEditRoomConfig,
	PermissionAddUsers, PermissionRemoveUsers, PermissionInviteUsers,
	PermissionBanUser, PermissionViewMembers, PermissionManageRoles,
	PermissionManageDomains, PermissionConfigureSystem,
}

var knownPermissions = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(AllPermissions)+1)
	m[PermissionAll] = struct{}{}
	for _, p := range AllPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// IsValid checks the permission is a known variant or the wildcard.
func (p Permission) IsValid() bool {
	_, ok := knownPermissions[p]
	return ok
}

func (p Permission) String() string {
	return string(p)
}

// ParsePermission validates a permission name.
func ParsePermission(s string) (Permission, error) {
	p := Permission(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown permission %q", s)
	}
	return p, nil
}

// =====================================================
// PermissionSet
// =====================================================

// PermissionSet is an unordered set of permissions. It encodes as a
// sorted list so serialized output is stable.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set, dropping duplicates.
func NewPermissionSet(perms ...Permission) PermissionSet {
	s := make(PermissionSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has reports whether the set contains p or the wildcard.
func (s PermissionSet) Has(p Permission) bool {
	if _, ok := s[PermissionAll]; ok {
		return true
	}
	_, ok := s[p]
	return ok
}

// Add inserts permissions into the set.
func (s PermissionSet) Add(perms ...Permission) {
	for _, p := range perms {
		s[p] = struct{}{}
	}
}

// Union returns a new set containing the members of both sets.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	out := s.Clone()
	for p := range other {
		out[p] = struct{}{}
	}
	return out
}

// Subtract returns a new set without the members of other.
func (s PermissionSet) Subtract(other PermissionSet) PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		if _, drop := other[p]; !drop {
			out[p] = struct{}{}
		}
	}
	return out
}

// Clone copies the set. A nil set clones to an empty one.
func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for p := range s {
		out[p] = struct{}{}
	}
	return out
}

// Equal reports set equality.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for p := range s {
		if _, ok := other[p]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the members in lexical order.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var perms []Permission
	if err := json.Unmarshal(data, &perms); err != nil {
		return err
	}
	return s.fromList(perms)
}

func (s PermissionSet) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(s.Sorted())
}

func (s *PermissionSet) UnmarshalCBOR(data []byte) error {
	var perms []Permission
	if err := cbor.Unmarshal(data, &perms); err != nil {
		return err
	}
	return s.fromList(perms)
}

func (s *PermissionSet) fromList(perms []Permission) error {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		if !p.IsValid() {
			return fmt.Errorf("unknown permission %q", p)
		}
		set[p] = struct{}{}
	}
	*s = set
	return nil
}
