package domain

// RootWorkspaceID is the id of the single workspace a deployment may hold.
// It is used both as a storage key and as a sentinel in invariant checks.
const RootWorkspaceID = "root"

// =====================================================
// Workspace Entity
// =====================================================

// Workspace is the top of the hierarchy. Exactly one exists per deployment.
type Workspace struct {
	ID          string            `json:"id" cbor:"id"`
	Name        string            `json:"name" cbor:"name"`
	Description string            `json:"description" cbor:"description"`
	OwnerID     string            `json:"ownerId" cbor:"owner_id"`
	Members     []string          `json:"members" cbor:"members"`
	Offices     []string          `json:"offices" cbor:"offices"`
	Metadata    map[string]string `json:"metadata,omitempty" cbor:"metadata,omitempty"`
}

// Clone returns a deep copy.
func (w *Workspace) Clone() *Workspace {
	if w == nil {
		return nil
	}
	out := *w
	out.Members = cloneStrings(w.Members)
	out.Offices = cloneStrings(w.Offices)
	out.Metadata = cloneMetadata(w.Metadata)
	return &out
}

// AddOffice appends an office id if absent.
func (w *Workspace) AddOffice(officeID string) {
	w.Offices = appendUnique(w.Offices, officeID)
}

// RemoveOffice drops an office id. Absent ids are ignored.
func (w *Workspace) RemoveOffice(officeID string) {
	w.Offices = removeString(w.Offices, officeID)
}

// =====================================================
// Helpers shared by all entities
// =====================================================

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func appendUnique(list []string, id string) []string {
	for _, existing := range list {
		if existing == id {
			return list
		}
	}
	return append(list, id)
}

func removeString(list []string, id string) []string {
	out := list[:0:0]
	for _, existing := range list {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

func containsString(list []string, id string) bool {
	for _, existing := range list {
		if existing == id {
			return true
		}
	}
	return false
}
