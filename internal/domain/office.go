package domain

// Office belongs to exactly one workspace and contains rooms.
type Office struct {
	ID                 string            `json:"id" cbor:"id"`
	OwnerID            string            `json:"ownerId" cbor:"owner_id"`
	WorkspaceID        string            `json:"workspaceId" cbor:"workspace_id"`
	Name               string            `json:"name" cbor:"name"`
	Description        string            `json:"description" cbor:"description"`
	Members            []string          `json:"members" cbor:"members"`
	Rooms              []string          `json:"rooms" cbor:"rooms"`
	MdxContent         string            `json:"mdxContent" cbor:"mdx_content"`
	Rules              *string           `json:"rules,omitempty" cbor:"rules,omitempty"`
	ChatEnabled        bool              `json:"chatEnabled" cbor:"chat_enabled"`
	ChatChannelID      *string           `json:"chatChannelId,omitempty" cbor:"chat_channel_id,omitempty"`
	DefaultPermissions PermissionSet     `json:"defaultPermissions" cbor:"default_permissions"`
	IsDefault          bool              `json:"isDefault" cbor:"is_default"`
	Metadata           map[string]string `json:"metadata,omitempty" cbor:"metadata,omitempty"`
}

// Clone returns a deep copy.
func (o *Office) Clone() *Office {
	if o == nil {
		return nil
	}
	out := *o
	out.Members = cloneStrings(o.Members)
	out.Rooms = cloneStrings(o.Rooms)
	out.Rules = cloneStringPtr(o.Rules)
	out.ChatChannelID = cloneStringPtr(o.ChatChannelID)
	out.DefaultPermissions = o.DefaultPermissions.Clone()
	out.Metadata = cloneMetadata(o.Metadata)
	return &out
}

// AddRoom appends a room id if absent.
func (o *Office) AddRoom(roomID string) {
	o.Rooms = appendUnique(o.Rooms, roomID)
}

// RemoveRoom drops a room id. Absent ids are ignored.
func (o *Office) RemoveRoom(roomID string) {
	o.Rooms = removeString(o.Rooms, roomID)
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
