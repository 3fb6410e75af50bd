package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/store"
)

// UserService manages the user registry.
type UserService struct {
	base
}

func NewUserService(d Deps) *UserService {
	return &UserService{base: newBase("user", d)}
}

// BootstrapAdmin creates the first user with the Admin role. It fails once
// any user exists.
func (s *UserService) BootstrapAdmin(ctx context.Context, id, name string) (*domain.User, error) {
	req := &domain.CreateUserRequest{ID: id, Name: name, Role: domain.RoleAdmin}
	if err := validated(req); err != nil {
		return nil, err
	}
	if req.ID == "" {
		req.ID = s.newID()
	}

	u, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (*domain.User, error) {
		if tx.UserCount() > 0 {
			return nil, domain.InvariantViolation("users already exist; bootstrap refused")
		}
		u := &domain.User{
			ID:          req.ID,
			Name:        req.Name,
			Role:        domain.RoleAdmin,
			Permissions: map[string]domain.PermissionSet{},
		}
		if err := tx.InsertUser(u); err != nil {
			return nil, err
		}
		return u, nil
	})
	s.record(ctx, "bootstrap_admin", "user", req.ID, req.ID, err, nil)
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "admin bootstrapped",
		logger.Module("user"),
		logger.Action("bootstrap_admin"),
		zap.String("user_id", u.ID),
	)
	return u, nil
}

// CreateUser registers a user. Only admins may create users.
func (s *UserService) CreateUser(ctx context.Context, actorID string, req *domain.CreateUserRequest) (*domain.User, error) {
	if err := validated(req); err != nil {
		return nil, err
	}
	if req.Role == (domain.Role{}) {
		req.Role = domain.RoleMember
	}
	if !req.Role.IsValid() {
		return nil, domain.InvalidInput(fmt.Errorf("invalid role %q", req.Role.String()))
	}
	if req.ID == "" {
		req.ID = s.newID()
	}

	u, err := store.WithWrite(ctx, s.store, func(tx *store.WriteTx) (*domain.User, error) {
		if err := requireAdmin(tx, actorID, req.ID); err != nil {
			return nil, err
		}
		u := &domain.User{
			ID:          req.ID,
			Name:        req.Name,
			Role:        req.Role,
			Permissions: map[string]domain.PermissionSet{},
			Metadata:    req.Metadata,
		}
		if err := tx.InsertUser(u); err != nil {
			return nil, err
		}
		return u, nil
	})
	s.record(ctx, "create", "user", req.ID, actorID, err, map[string]any{"role": req.Role.String()})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user created",
		logger.Module("user"),
		logger.Action("create"),
		zap.String("user_id", u.ID),
		zap.String("role", u.Role.String()),
	)
	return u, nil
}

// GetUser lets users read themselves; admins may read anyone.
func (s *UserService) GetUser(ctx context.Context, actorID, userID string) (*domain.User, error) {
	return store.WithRead(ctx, s.store, func(tx *store.ReadTx) (*domain.User, error) {
		if actorID != userID {
			if err := requireAdmin(tx, actorID, userID); err != nil {
				return nil, err
			}
		}
		return tx.GetUser(userID)
	})
}

// ListUsers returns every user sorted by id. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actorID string) ([]*domain.User, error) {
	return store.WithRead(ctx, s.store, func(tx *store.ReadTx) ([]*domain.User, error) {
		if err := requireAdmin(tx, actorID, "users"); err != nil {
			return nil, err
		}
		users := tx.AllUsers()
		sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
		return users, nil
	})
}
