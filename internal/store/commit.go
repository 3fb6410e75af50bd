package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"officeflow-api/internal/codec"
	"officeflow-api/internal/domain"
	"officeflow-api/internal/kv"
	"officeflow-api/internal/observability/logger"
)

// KeyScheme selects how commits lay out keys in the backend.
type KeyScheme string

const (
	// KeySchemeCollection writes one key per collection.
	KeySchemeCollection KeyScheme = "collection"
	// KeySchemeEntity writes one "<kind>::<id>" key per entity plus a
	// "<kind>_index" key listing live ids.
	KeySchemeEntity KeyScheme = "entity"
)

// IsValid checks the scheme is known.
func (k KeyScheme) IsValid() bool {
	return k == KeySchemeCollection || k == KeySchemeEntity
}

// Entity kinds used by KeySchemeEntity, one per collection.
var entityKinds = map[collection]string{
	collDomains:    "domain",
	collWorkspaces: "workspace",
	collUsers:      "user",
	collPasswords:  "workspace_password",
}

var allCollections = []collection{collDomains, collWorkspaces, collUsers, collPasswords}

type keyspace struct {
	scheme KeyScheme
	prefix string
}

func (k keyspace) collectionKey(c collection) string {
	return k.prefix + string(c)
}

func (k keyspace) entityKey(c collection, id string) string {
	return k.prefix + entityKinds[c] + "::" + id
}

func (k keyspace) indexKey(c collection) string {
	return k.prefix + entityKinds[c] + "_index"
}

// ManifestKeys lists the keys Load starts from: one per collection, or
// the per-kind index keys under KeySchemeEntity.
func (s *Store) ManifestKeys() []string {
	keys := make([]string, 0, len(allCollections))
	for _, c := range allCollections {
		if s.keys.scheme == KeySchemeEntity {
			keys = append(keys, s.keys.indexKey(c))
		} else {
			keys = append(keys, s.keys.collectionKey(c))
		}
	}
	return keys
}

// =====================================================
// Commit
// =====================================================

// commit serializes the current maps and writes them to the backend.
// It does not look at the journal.
func (s *Store) commit(ctx context.Context) error {
	var (
		entries   []kv.Entry
		persisted map[string]map[string]struct{}
		err       error
	)
	switch s.keys.scheme {
	case KeySchemeEntity:
		entries, persisted, err = s.entityEntries()
	default:
		entries, err = s.collectionEntries()
	}
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	if err := kv.WriteAll(ctx, s.backend, entries); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if persisted != nil {
		s.persisted = persisted
	}
	return nil
}

func (s *Store) collectionEntries() ([]kv.Entry, error) {
	entries := make([]kv.Entry, 0, len(allCollections))
	for _, c := range allCollections {
		data, err := codec.Marshal(s.collectionValue(c))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		entries = append(entries, kv.Entry{Key: s.keys.collectionKey(c), Value: data})
	}
	return entries, nil
}

func (s *Store) collectionValue(c collection) any {
	switch c {
	case collDomains:
		return s.st.domains
	case collWorkspaces:
		return s.st.workspaces
	case collUsers:
		return s.st.users
	default:
		return s.st.passwords
	}
}

func (s *Store) entityEntries() ([]kv.Entry, map[string]map[string]struct{}, error) {
	var entries []kv.Entry
	persisted := make(map[string]map[string]struct{}, len(allCollections))

	for _, c := range allCollections {
		kind := entityKinds[c]
		live := make(map[string]struct{})

		encodeOne := func(id string, v any) error {
			data, err := codec.Marshal(v)
			if err != nil {
				return fmt.Errorf("%s %s: %w", kind, id, err)
			}
			entries = append(entries, kv.Entry{Key: s.keys.entityKey(c, id), Value: data})
			live[id] = struct{}{}
			return nil
		}

		var err error
		switch c {
		case collDomains:
			for id, d := range s.st.domains {
				if err = encodeOne(id, d); err != nil {
					break
				}
			}
		case collWorkspaces:
			for id, ws := range s.st.workspaces {
				if err = encodeOne(id, ws); err != nil {
					break
				}
			}
		case collUsers:
			for id, u := range s.st.users {
				if err = encodeOne(id, u); err != nil {
					break
				}
			}
		case collPasswords:
			for id, h := range s.st.passwords {
				if err = encodeOne(id, h); err != nil {
					break
				}
			}
		}
		if err != nil {
			return nil, nil, err
		}

		ids := sortedIDs(live)
		index, err := codec.Marshal(ids)
		if err != nil {
			return nil, nil, fmt.Errorf("%s index: %w", kind, err)
		}
		entries = append(entries, kv.Entry{Key: s.keys.indexKey(c), Value: index})

		for id := range s.persisted[kind] {
			if _, ok := live[id]; !ok {
				entries = append(entries, kv.Entry{Key: s.keys.entityKey(c, id)})
			}
		}
		persisted[kind] = live
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, persisted, nil
}

func sortedIDs(set map[string]struct{}) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// =====================================================
// Load
// =====================================================

// Load replaces the in-memory state with what the backend holds. Missing
// keys load as empty collections. It takes the write lock.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := newState()
	var persisted map[string]map[string]struct{}
	var err error

	switch s.keys.scheme {
	case KeySchemeEntity:
		persisted, err = s.loadEntities(ctx, next)
	default:
		err = s.loadCollections(ctx, next)
	}
	if err != nil {
		return domain.StorageFailure("load", err)
	}

	for id, d := range next.domains {
		if err := d.Validate(); err != nil {
			return domain.StorageFailure("load", fmt.Errorf("domain %s: %w", id, err))
		}
		if d.Type == domain.DomainTypeWorkspace {
			return domain.StorageFailure("load", fmt.Errorf("domain %s: workspace stored outside workspaces", id))
		}
	}

	s.st = next
	if persisted != nil {
		s.persisted = persisted
	}

	s.log.Info(ctx, "store loaded",
		logger.Module("store"),
		logger.Action("load"),
		zap.String("key_scheme", string(s.keys.scheme)),
		zap.Int("domains", len(next.domains)),
		zap.Int("workspaces", len(next.workspaces)),
		zap.Int("users", len(next.users)),
	)
	return nil
}

func (s *Store) loadCollections(ctx context.Context, next *state) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range allCollections {
		g.Go(func() error {
			data, found, err := s.backend.Get(gctx, s.keys.collectionKey(c))
			if err != nil {
				return fmt.Errorf("read %s: %w", c, err)
			}
			if !found {
				return nil
			}
			// Each goroutine decodes into its own map, so no locking.
			switch c {
			case collDomains:
				err = codec.Unmarshal(data, &next.domains)
			case collWorkspaces:
				err = codec.Unmarshal(data, &next.workspaces)
			case collUsers:
				err = codec.Unmarshal(data, &next.users)
			case collPasswords:
				err = codec.Unmarshal(data, &next.passwords)
			}
			if err != nil {
				return fmt.Errorf("decode %s: %w", c, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	normalize(next)
	return nil
}

const loadConcurrency = 8

func (s *Store) loadEntities(ctx context.Context, next *state) (map[string]map[string]struct{}, error) {
	persisted := make(map[string]map[string]struct{}, len(allCollections))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	// abort drains reads already started for earlier collections.
	abort := func(err error) (map[string]map[string]struct{}, error) {
		_ = g.Wait()
		return nil, err
	}

	for _, c := range allCollections {
		kind := entityKinds[c]
		data, found, err := s.backend.Get(ctx, s.keys.indexKey(c))
		if err != nil {
			return abort(fmt.Errorf("read %s index: %w", kind, err))
		}
		live := make(map[string]struct{})
		persisted[kind] = live
		if !found {
			continue
		}
		var ids []string
		if err := codec.Unmarshal(data, &ids); err != nil {
			return abort(fmt.Errorf("decode %s index: %w", kind, err))
		}

		for _, id := range ids {
			live[id] = struct{}{}
			g.Go(func() error {
				raw, found, err := s.backend.Get(gctx, s.keys.entityKey(c, id))
				if err != nil {
					return fmt.Errorf("read %s %s: %w", kind, id, err)
				}
				if !found {
					return fmt.Errorf("%s %s listed in index but missing", kind, id)
				}

				mu.Lock()
				defer mu.Unlock()
				switch c {
				case collDomains:
					var d domain.Domain
					err = codec.Unmarshal(raw, &d)
					next.domains[id] = d
				case collWorkspaces:
					var ws domain.Workspace
					err = codec.Unmarshal(raw, &ws)
					next.workspaces[id] = &ws
				case collUsers:
					var u domain.User
					err = codec.Unmarshal(raw, &u)
					next.users[id] = &u
				case collPasswords:
					var h string
					err = codec.Unmarshal(raw, &h)
					next.passwords[id] = h
				}
				if err != nil {
					return fmt.Errorf("decode %s %s: %w", kind, id, err)
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	normalize(next)
	return persisted, nil
}

// normalize replaces nil maps left by decoding empty collections.
func normalize(st *state) {
	if st.domains == nil {
		st.domains = make(map[string]domain.Domain)
	}
	if st.workspaces == nil {
		st.workspaces = make(map[string]*domain.Workspace)
	}
	if st.users == nil {
		st.users = make(map[string]*domain.User)
	}
	if st.passwords == nil {
		st.passwords = make(map[string]string)
	}
	for _, u := range st.users {
		if u.Permissions == nil {
			u.Permissions = make(map[string]domain.PermissionSet)
		}
	}
}
