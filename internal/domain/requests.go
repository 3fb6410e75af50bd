package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateWorkspaceRequest carries the inputs of create_workspace.
type CreateWorkspaceRequest struct {
	Name           string            `json:"name" validate:"required,min=1,max=255"`
	Description    string            `json:"description" validate:"max=4096"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	MasterPassword string            `json:"masterPassword" validate:"max=72"`
}

// Validate trims and validates the request. The master password is checked
// by the service so an empty one surfaces as an invariant violation.
func (r *CreateWorkspaceRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validate.Struct(r)
}

// UpdateWorkspaceRequest is a partial update; nil fields are left untouched.
type UpdateWorkspaceRequest struct {
	Name           *string           `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description    *string           `json:"description,omitempty" validate:"omitempty,max=4096"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	MasterPassword string            `json:"masterPassword" validate:"max=72"`
}

func (r *UpdateWorkspaceRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	return validate.Struct(r)
}

// CreateOfficeRequest carries the inputs of create_office.
type CreateOfficeRequest struct {
	WorkspaceID string  `json:"workspaceId" validate:"required"`
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description string  `json:"description" validate:"max=4096"`
	MdxContent  *string `json:"mdxContent,omitempty"`
}

func (r *CreateOfficeRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validate.Struct(r)
}

// CreateRoomRequest carries the inputs of create_room.
type CreateRoomRequest struct {
	OfficeID    string  `json:"officeId" validate:"required"`
	Name        string  `json:"name" validate:"required,min=1,max=255"`
	Description string  `json:"description" validate:"max=4096"`
	MdxContent  *string `json:"mdxContent,omitempty"`
}

func (r *CreateRoomRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	return validate.Struct(r)
}

// UpdateSpaceRequest is the partial update shared by offices and rooms.
//
// Field groups map to permissions:
//   - Name, Description: Update{Office,Room}
//   - MdxContent: EditMdx
//   - Rules, ChatEnabled, ChatChannelID, DefaultPermissions: Edit{Office,Room}Config
type UpdateSpaceRequest struct {
	Name               *string        `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description        *string        `json:"description,omitempty" validate:"omitempty,max=4096"`
	MdxContent         *string        `json:"mdxContent,omitempty"`
	Rules              *string        `json:"rules,omitempty"`
	ChatEnabled        *bool          `json:"chatEnabled,omitempty"`
	ChatChannelID      *string        `json:"chatChannelId,omitempty"`
	DefaultPermissions *PermissionSet `json:"defaultPermissions,omitempty"`
}

func (r *UpdateSpaceRequest) Validate() error {
	if r.Name != nil {
		trimmed := strings.TrimSpace(*r.Name)
		r.Name = &trimmed
	}
	return validate.Struct(r)
}

// TouchesDetails reports whether name or description change.
func (r *UpdateSpaceRequest) TouchesDetails() bool {
	return r.Name != nil || r.Description != nil
}

// TouchesConfig reports whether any configuration field changes.
func (r *UpdateSpaceRequest) TouchesConfig() bool {
	return r.Rules != nil || r.ChatEnabled != nil || r.ChatChannelID != nil || r.DefaultPermissions != nil
}

// CreateUserRequest carries the inputs of create_user.
type CreateUserRequest struct {
	// ID is optional; a UUID is generated when empty.
	ID       string            `json:"id,omitempty" validate:"omitempty,max=128,excludesall=:"`
	Name     string            `json:"name" validate:"required,min=1,max=255"`
	Role     Role              `json:"role"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (r *CreateUserRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.Name = strings.TrimSpace(r.Name)
	return validate.Struct(r)
}

// PermissionOp selects how update_member_permissions combines sets.
type PermissionOp string

const (
	PermissionOpAdd    PermissionOp = "add"
	PermissionOpRemove PermissionOp = "remove"
	PermissionOpSet    PermissionOp = "set"
)

// IsValid checks the op is one of Add, Remove, Set.
func (op PermissionOp) IsValid() bool {
	switch op {
	case PermissionOpAdd, PermissionOpRemove, PermissionOpSet:
		return true
	default:
		return false
	}
}

// Apply combines current with perms according to op.
func (op PermissionOp) Apply(current, perms PermissionSet) PermissionSet {
	switch op {
	case PermissionOpAdd:
		return current.Union(perms)
	case PermissionOpRemove:
		return current.Subtract(perms)
	case PermissionOpSet:
		return perms.Clone()
	default:
		return current.Clone()
	}
}
