package store

import "officeflow-api/internal/domain"

type collection string

const (
	collDomains    collection = "domains"
	collWorkspaces collection = "workspaces"
	collUsers      collection = "users"
	collPasswords  collection = "workspace_passwords"
)

// change is one journal entry: the value a key held before a mutation.
// existed=false means the key was absent and rollback deletes it.
type change struct {
	coll    collection
	key     string
	existed bool
	prior   any
}

// record snapshots the current value under key before it is overwritten
// or deleted. Stored values are never mutated in place, so the current
// pointer is a stable snapshot.
func (tx *WriteTx) record(coll collection, key string) {
	c := change{coll: coll, key: key}
	switch coll {
	case collDomains:
		c.prior, c.existed = tx.st.domains[key]
	case collWorkspaces:
		c.prior, c.existed = tx.st.workspaces[key]
	case collUsers:
		c.prior, c.existed = tx.st.users[key]
	case collPasswords:
		c.prior, c.existed = tx.st.passwords[key]
	}
	tx.journal = append(tx.journal, c)
}

// rollback undoes the journal newest first and returns how many entries
// were undone.
func (tx *WriteTx) rollback() int {
	n := len(tx.journal)
	for i := n - 1; i >= 0; i-- {
		tx.undo(tx.journal[i])
	}
	tx.journal = nil
	return n
}

func (tx *WriteTx) undo(c change) {
	switch c.coll {
	case collDomains:
		if !c.existed {
			delete(tx.st.domains, c.key)
			return
		}
		tx.st.domains[c.key] = c.prior.(domain.Domain)
	case collWorkspaces:
		if !c.existed {
			delete(tx.st.workspaces, c.key)
			return
		}
		tx.st.workspaces[c.key] = c.prior.(*domain.Workspace)
	case collUsers:
		if !c.existed {
			delete(tx.st.users, c.key)
			return
		}
		tx.st.users[c.key] = c.prior.(*domain.User)
	case collPasswords:
		if !c.existed {
			delete(tx.st.passwords, c.key)
			return
		}
		tx.st.passwords[c.key] = c.prior.(string)
	}
}
