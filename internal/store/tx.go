package store

import (
	"sort"

	"officeflow-api/internal/domain"
)

// Reader is the lookup surface shared by read and write transactions.
// Every returned entity is a copy; mutating it does not touch the store.
type Reader interface {
	GetDomain(id string) (domain.Domain, error)
	GetWorkspace(id string) (*domain.Workspace, error)
	GetOffice(id string) (*domain.Office, error)
	GetRoom(id string) (*domain.Room, error)
	GetUser(id string) (*domain.User, error)
	PasswordHash(workspaceID string) (string, bool)
	AllDomains() []domain.Domain
	AllWorkspaces() []*domain.Workspace
	AllUsers() []*domain.User
	UserCount() int
	WorkspaceCount() int
}

// =====================================================
// ReadTx
// =====================================================

// ReadTx is a shared-lock transaction with lookups only.
type ReadTx struct {
	st   *state
	done bool
}

var _ Reader = (*ReadTx)(nil)

func (tx *ReadTx) finish() {
	tx.done = true
	tx.st = newState()
}

// GetDomain resolves id against workspaces first, then offices and rooms.
func (tx *ReadTx) GetDomain(id string) (domain.Domain, error) {
	if ws, ok := tx.st.workspaces[id]; ok {
		return domain.WorkspaceDomain(ws.Clone()), nil
	}
	if d, ok := tx.st.domains[id]; ok {
		return d.Clone(), nil
	}
	return domain.Domain{}, domain.NotFound("domain", id)
}

// GetWorkspace returns TypeMismatch when id names an office or room.
func (tx *ReadTx) GetWorkspace(id string) (*domain.Workspace, error) {
	if ws, ok := tx.st.workspaces[id]; ok {
		return ws.Clone(), nil
	}
	if d, ok := tx.st.domains[id]; ok {
		return nil, domain.TypeMismatch(id, domain.DomainTypeWorkspace, d.Type)
	}
	return nil, domain.NotFound("workspace", id)
}

func (tx *ReadTx) GetOffice(id string) (*domain.Office, error) {
	d, err := tx.typed(id, domain.DomainTypeOffice)
	if err != nil {
		return nil, err
	}
	return d.Office, nil
}

func (tx *ReadTx) GetRoom(id string) (*domain.Room, error) {
	d, err := tx.typed(id, domain.DomainTypeRoom)
	if err != nil {
		return nil, err
	}
	return d.Room, nil
}

func (tx *ReadTx) typed(id string, want domain.DomainType) (domain.Domain, error) {
	d, err := tx.GetDomain(id)
	if err != nil {
		return domain.Domain{}, domain.NotFound(string(want), id)
	}
	if d.Type != want {
		return domain.Domain{}, domain.TypeMismatch(id, want, d.Type)
	}
	return d, nil
}

func (tx *ReadTx) GetUser(id string) (*domain.User, error) {
	u, ok := tx.st.users[id]
	if !ok {
		return nil, domain.NotFound("user", id)
	}
	return u.Clone(), nil
}

// PasswordHash returns the stored master password hash of a workspace.
func (tx *ReadTx) PasswordHash(workspaceID string) (string, bool) {
	h, ok := tx.st.passwords[workspaceID]
	return h, ok
}

// AllDomains lists workspaces, offices and rooms ordered by id.
func (tx *ReadTx) AllDomains() []domain.Domain {
	out := make([]domain.Domain, 0, len(tx.st.workspaces)+len(tx.st.domains))
	for _, ws := range tx.st.workspaces {
		out = append(out, domain.WorkspaceDomain(ws.Clone()))
	}
	for _, d := range tx.st.domains {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (tx *ReadTx) AllWorkspaces() []*domain.Workspace {
	out := make([]*domain.Workspace, 0, len(tx.st.workspaces))
	for _, ws := range tx.st.workspaces {
		out = append(out, ws.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (tx *ReadTx) AllUsers() []*domain.User {
	out := make([]*domain.User, 0, len(tx.st.users))
	for _, u := range tx.st.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (tx *ReadTx) UserCount() int {
	return len(tx.st.users)
}

func (tx *ReadTx) WorkspaceCount() int {
	return len(tx.st.workspaces)
}

// =====================================================
// WriteTx
// =====================================================

// WriteTx is an exclusive transaction. Mutations land in the shared maps
// immediately and are journaled so the scope can undo them.
type WriteTx struct {
	ReadTx
	journal []change
}

// Changes returns the number of journaled mutations so far.
func (tx *WriteTx) Changes() int {
	return len(tx.journal)
}

// InsertDomain adds a new workspace, office or room. The id must be free
// across all variants.
func (tx *WriteTx) InsertDomain(d domain.Domain) error {
	if tx.done {
		return ErrTxDone
	}
	if err := d.Validate(); err != nil {
		return domain.InvariantViolation("insert domain: %v", err)
	}
	id := d.ID()
	if id == "" {
		return domain.InvariantViolation("insert domain: id is required")
	}
	if tx.exists(id) {
		return domain.InvariantViolation("domain %q already exists", id)
	}
	tx.putDomain(d.Clone())
	return nil
}

// UpdateDomain replaces an existing domain. The variant may not change.
func (tx *WriteTx) UpdateDomain(d domain.Domain) error {
	if tx.done {
		return ErrTxDone
	}
	if err := d.Validate(); err != nil {
		return domain.InvariantViolation("update domain: %v", err)
	}
	current, err := tx.GetDomain(d.ID())
	if err != nil {
		return err
	}
	if current.Type != d.Type {
		return domain.TypeMismatch(d.ID(), d.Type, current.Type)
	}
	tx.putDomain(d.Clone())
	return nil
}

// RemoveDomain deletes a domain. Children and parent references are the
// caller's concern.
func (tx *WriteTx) RemoveDomain(id string) error {
	if tx.done {
		return ErrTxDone
	}
	if _, ok := tx.st.workspaces[id]; ok {
		tx.record(collWorkspaces, id)
		delete(tx.st.workspaces, id)
		return nil
	}
	if _, ok := tx.st.domains[id]; ok {
		tx.record(collDomains, id)
		delete(tx.st.domains, id)
		return nil
	}
	return domain.NotFound("domain", id)
}

func (tx *WriteTx) exists(id string) bool {
	_, ws := tx.st.workspaces[id]
	_, d := tx.st.domains[id]
	return ws || d
}

func (tx *WriteTx) putDomain(d domain.Domain) {
	if d.Type == domain.DomainTypeWorkspace {
		tx.record(collWorkspaces, d.ID())
		tx.st.workspaces[d.ID()] = d.Workspace
		return
	}
	tx.record(collDomains, d.ID())
	tx.st.domains[d.ID()] = d
}

// InsertUser adds a new user.
func (tx *WriteTx) InsertUser(u *domain.User) error {
	if tx.done {
		return ErrTxDone
	}
	if u == nil || u.ID == "" {
		return domain.InvariantViolation("insert user: id is required")
	}
	if !u.Role.IsValid() {
		return domain.InvariantViolation("insert user %q: invalid role", u.ID)
	}
	if _, ok := tx.st.users[u.ID]; ok {
		return domain.InvariantViolation("user %q already exists", u.ID)
	}
	tx.record(collUsers, u.ID)
	tx.st.users[u.ID] = u.Clone()
	return nil
}

// UpdateUser replaces an existing user.
func (tx *WriteTx) UpdateUser(u *domain.User) error {
	if tx.done {
		return ErrTxDone
	}
	if u == nil {
		return domain.InvariantViolation("update user: user is required")
	}
	if _, ok := tx.st.users[u.ID]; !ok {
		return domain.NotFound("user", u.ID)
	}
	if !u.Role.IsValid() {
		return domain.InvariantViolation("update user %q: invalid role", u.ID)
	}
	tx.record(collUsers, u.ID)
	tx.st.users[u.ID] = u.Clone()
	return nil
}

func (tx *WriteTx) RemoveUser(id string) error {
	if tx.done {
		return ErrTxDone
	}
	if _, ok := tx.st.users[id]; !ok {
		return domain.NotFound("user", id)
	}
	tx.record(collUsers, id)
	delete(tx.st.users, id)
	return nil
}

// SetPasswordHash stores the master password hash of a workspace.
func (tx *WriteTx) SetPasswordHash(workspaceID, hash string) error {
	if tx.done {
		return ErrTxDone
	}
	if hash == "" {
		return domain.InvariantViolation("master password hash must not be empty")
	}
	tx.record(collPasswords, workspaceID)
	tx.st.passwords[workspaceID] = hash
	return nil
}

// RemovePasswordHash drops a workspace's hash. Absent hashes are ignored.
func (tx *WriteTx) RemovePasswordHash(workspaceID string) error {
	if tx.done {
		return ErrTxDone
	}
	if _, ok := tx.st.passwords[workspaceID]; !ok {
		return nil
	}
	tx.record(collPasswords, workspaceID)
	delete(tx.st.passwords, workspaceID)
	return nil
}

// AddMember appends userID to a domain's member list. It reports whether
// the list changed.
func (tx *WriteTx) AddMember(domainID, userID string) (bool, error) {
	if tx.done {
		return false, ErrTxDone
	}
	d, err := tx.GetDomain(domainID)
	if err != nil {
		return false, err
	}
	if !d.AddMember(userID) {
		return false, nil
	}
	tx.putDomain(d)
	return true, nil
}

// RemoveMember drops userID from a domain's member list. Absence is not
// an error.
func (tx *WriteTx) RemoveMember(domainID, userID string) (bool, error) {
	if tx.done {
		return false, ErrTxDone
	}
	d, err := tx.GetDomain(domainID)
	if err != nil {
		return false, err
	}
	if !d.RemoveMember(userID) {
		return false, nil
	}
	tx.putDomain(d)
	return true, nil
}

// AssignRole sets a user's system role.
func (tx *WriteTx) AssignRole(userID string, role domain.Role) error {
	if tx.done {
		return ErrTxDone
	}
	if !role.IsValid() {
		return domain.InvariantViolation("invalid role %q", role.String())
	}
	u, err := tx.GetUser(userID)
	if err != nil {
		return err
	}
	u.Role = role
	tx.record(collUsers, userID)
	tx.st.users[userID] = u
	return nil
}

// SetUserPermissions replaces a user's explicit grants on one domain.
func (tx *WriteTx) SetUserPermissions(userID, domainID string, perms domain.PermissionSet) error {
	if tx.done {
		return ErrTxDone
	}
	u, err := tx.GetUser(userID)
	if err != nil {
		return err
	}
	if u.Permissions == nil {
		u.Permissions = make(map[string]domain.PermissionSet)
	}
	u.Permissions[domainID] = perms.Clone()
	tx.record(collUsers, userID)
	tx.st.users[userID] = u
	return nil
}

// ClearUserPermissions erases a user's explicit grants on one domain.
func (tx *WriteTx) ClearUserPermissions(userID, domainID string) error {
	if tx.done {
		return ErrTxDone
	}
	u, err := tx.GetUser(userID)
	if err != nil {
		return err
	}
	if _, ok := u.Permissions[domainID]; !ok {
		return nil
	}
	delete(u.Permissions, domainID)
	tx.record(collUsers, userID)
	tx.st.users[userID] = u
	return nil
}
