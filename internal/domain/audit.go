package domain

import "time"

// AuditEntry is one record of a mutating operation.
type AuditEntry struct {
	WorkspaceID  string `json:"workspaceId"`
	ActorID      string `json:"actorId"`
	Action       string `json:"action"`
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId,omitempty"`
	// Outcome is "success" or the error kind of a failed attempt.
	Outcome  string         `json:"outcome"`
	Metadata map[string]any `json:"metadata,omitempty"`
	// Set when read back from the audit log.
	RequestID string    `json:"requestId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Member is a domain member as returned by list_members.
type Member struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Role        Role          `json:"role"`
	Permissions PermissionSet `json:"permissions"`
}
