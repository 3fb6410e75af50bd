package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/rbac"
	"officeflow-api/internal/store"
	"officeflow-api/internal/telemetry"
)

// Auditor records mutating operations. Failures are logged and never fail
// the operation.
type Auditor interface {
	LogAction(ctx context.Context, entry domain.AuditEntry) error
}

// PasswordHasher hashes and verifies workspace master passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// Deps is what every service is built from.
type Deps struct {
	Store  *store.Store
	Engine *rbac.Engine
	Hasher PasswordHasher
	Audit  Auditor
	Log    *logger.Logger
	// Metrics is optional; when set, permission denials are counted.
	Metrics *telemetry.Metrics
	// NewID generates entity ids. Defaults to random UUIDs.
	NewID func() string
}

// base carries the shared dependencies and the authorization helper.
type base struct {
	store   *store.Store
	engine  *rbac.Engine
	hasher  PasswordHasher
	audit   Auditor
	log     *logger.Logger
	metrics *telemetry.Metrics
	newID   func() string
	module  string
}

func newBase(module string, d Deps) base {
	b := base{
		store:   d.Store,
		engine:  d.Engine,
		hasher:  d.Hasher,
		audit:   d.Audit,
		log:     d.Log,
		metrics: d.Metrics,
		newID:   d.NewID,
		module:  module,
	}
	if b.log == nil {
		b.log = logger.NewNop()
	}
	if b.audit == nil {
		b.audit = NewLogAuditor(b.log)
	}
	if b.newID == nil {
		b.newID = uuid.NewString
	}
	return b
}

// authorize runs the RBAC check and logs the outcome. A denial becomes a
// PermissionDenied error.
func (b *base) authorize(ctx context.Context, tx store.Reader, actorID, entityID string, p domain.Permission) error {
	d, err := b.engine.Explain(tx, actorID, entityID, p)
	if err != nil {
		b.log.Warn(ctx, "authorization lookup failed",
			logger.Module(b.module),
			logger.Action("authorization"),
			zap.String("actor_id", actorID),
			zap.String("entity_id", entityID),
			zap.String("permission", string(p)),
			zap.Error(err),
		)
		return err
	}
	if !d.Allowed {
		b.log.Warn(ctx, "permission denied",
			logger.Module(b.module),
			logger.Action("authorization"),
			zap.String("actor_id", actorID),
			zap.String("entity_id", entityID),
			zap.String("permission", string(p)),
			zap.String("reason", string(d.Reason)),
		)
		if b.metrics != nil {
			b.metrics.PermissionDenials.Add(ctx, 1, metric.WithAttributes(
				attribute.String("module", b.module),
				attribute.String("permission", string(p)),
			))
		}
		return domain.PermissionDenied(actorID, entityID, p)
	}

	b.log.Debug(ctx, "access granted",
		logger.Module(b.module),
		logger.Action("authorization"),
		zap.String("actor_id", actorID),
		zap.String("entity_id", entityID),
		zap.String("permission", string(p)),
		zap.String("reason", string(d.Reason)),
		zap.String("via", d.Via),
	)
	return nil
}

// record writes an audit entry for a finished mutation.
func (b *base) record(ctx context.Context, action, resourceType, resourceID, actorID string, opErr error, metadata map[string]any) {
	outcome := "success"
	if opErr != nil {
		outcome = string(domain.KindOf(opErr))
		if outcome == "" {
			outcome = "error"
		}
	}

	entry := domain.AuditEntry{
		WorkspaceID:  domain.RootWorkspaceID,
		ActorID:      actorID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Outcome:      outcome,
		Metadata:     metadata,
	}
	if err := b.audit.LogAction(ctx, entry); err != nil {
		b.log.Error(ctx, "failed to write audit entry",
			logger.Module(b.module),
			logger.Action(action),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
	}
}

// validated runs a request's Validate and maps failures to InvalidInput.
func validated(v interface{ Validate() error }) error {
	if err := v.Validate(); err != nil {
		return domain.InvalidInput(err)
	}
	return nil
}

// purgeGrants erases every user's explicit grants on a removed domain.
func purgeGrants(tx *store.WriteTx, domainID string) error {
	for _, u := range tx.AllUsers() {
		if _, ok := u.Permissions[domainID]; !ok {
			continue
		}
		if err := tx.ClearUserPermissions(u.ID, domainID); err != nil {
			return err
		}
	}
	return nil
}

// requireAdmin is an identity match on the actor's Admin role.
func requireAdmin(tx store.Reader, actorID, target string) error {
	actor, err := tx.GetUser(actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return domain.PermissionDenied(actorID, target, domain.PermissionManageRoles)
	}
	return nil
}
