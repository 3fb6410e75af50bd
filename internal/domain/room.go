package domain

// Room belongs to exactly one office.
type Room struct {
	ID                 string            `json:"id" cbor:"id"`
	OwnerID            string            `json:"ownerId" cbor:"owner_id"`
	OfficeID           string            `json:"officeId" cbor:"office_id"`
	Name               string            `json:"name" cbor:"name"`
	Description        string            `json:"description" cbor:"description"`
	Members            []string          `json:"members" cbor:"members"`
	MdxContent         string            `json:"mdxContent" cbor:"mdx_content"`
	Rules              *string           `json:"rules,omitempty" cbor:"rules,omitempty"`
	ChatEnabled        bool              `json:"chatEnabled" cbor:"chat_enabled"`
	ChatChannelID      *string           `json:"chatChannelId,omitempty" cbor:"chat_channel_id,omitempty"`
	DefaultPermissions PermissionSet     `json:"defaultPermissions" cbor:"default_permissions"`
	Metadata           map[string]string `json:"metadata,omitempty" cbor:"metadata,omitempty"`
}

// Clone returns a deep copy.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Members = cloneStrings(r.Members)
	out.Rules = cloneStringPtr(r.Rules)
	out.ChatChannelID = cloneStringPtr(r.ChatChannelID)
	out.DefaultPermissions = r.DefaultPermissions.Clone()
	out.Metadata = cloneMetadata(r.Metadata)
	return &out
}
