package service

import (
	"context"
	"fmt"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/rbac"
	"officeflow-api/internal/store"
)

// DomainService holds the operations that work on any domain variant.
type DomainService struct {
	base
}

func NewDomainService(d Deps) *DomainService {
	return &DomainService{base: newBase("domain", d)}
}

// GetDomain returns any workspace, office or room the actor can view.
func (s *DomainService) GetDomain(ctx context.Context, actorID, domainID string) (domain.Domain, error) {
	return store.WithRead(ctx, s.store, func(tx *store.ReadTx) (domain.Domain, error) {
		d, err := tx.GetDomain(domainID)
		if err != nil {
			return domain.Domain{}, err
		}
		if err := s.authorize(ctx, tx, actorID, domainID, domain.PermissionViewContent); err != nil {
			return domain.Domain{}, err
		}
		return d, nil
	})
}

// ListDomainEntities lists entities of one variant, optionally restricted
// to a parent, keeping those the actor can view.
func (s *DomainService) ListDomainEntities(ctx context.Context, actorID string, kind domain.DomainType, parentID *string) ([]domain.Domain, error) {
	return listDomainEntities(ctx, &s.base, actorID, kind, parentID)
}

// CheckPermission evaluates a permission and reports the deciding rule.
// The actor must exist; checking on behalf of others is not supported.
func (s *DomainService) CheckPermission(ctx context.Context, actorID, entityID string, p domain.Permission) (rbac.Decision, error) {
	if !p.IsValid() {
		return rbac.Decision{}, domain.InvalidInput(fmt.Errorf("unknown permission %q", p))
	}
	return store.WithRead(ctx, s.store, func(tx *store.ReadTx) (rbac.Decision, error) {
		return s.engine.Explain(tx, actorID, entityID, p)
	})
}

func listDomainEntities(ctx context.Context, b *base, actorID string, kind domain.DomainType, parentID *string) ([]domain.Domain, error) {
	if !kind.IsValid() {
		return nil, domain.InvalidInput(fmt.Errorf("unknown domain type %q", kind))
	}

	return store.WithRead(ctx, b.store, func(tx *store.ReadTx) ([]domain.Domain, error) {
		if _, err := tx.GetUser(actorID); err != nil {
			return nil, err
		}
		if parentID != nil {
			if _, err := tx.GetDomain(*parentID); err != nil {
				return nil, err
			}
			if err := b.authorize(ctx, tx, actorID, *parentID, domain.PermissionViewContent); err != nil {
				return nil, err
			}
		}

		var candidates []domain.Domain
		for _, d := range tx.AllDomains() {
			if d.Type != kind {
				continue
			}
			if parentID != nil && d.ParentID() != *parentID {
				continue
			}
			candidates = append(candidates, d)
		}
		return b.engine.FilterAccessible(tx, actorID, candidates, domain.PermissionViewContent), nil
	})
}
