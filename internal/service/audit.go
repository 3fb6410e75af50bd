package service

import (
	"context"

	"go.uber.org/zap"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/store"
)

// LogAuditor writes audit entries as structured log lines. It is used when
// no database is configured.
type LogAuditor struct {
	log *logger.Logger
}

// NewLogAuditor creates a log-backed auditor.
func NewLogAuditor(log *logger.Logger) *LogAuditor {
	return &LogAuditor{log: log}
}

func (a *LogAuditor) LogAction(ctx context.Context, entry domain.AuditEntry) error {
	a.log.Info(ctx, "audit",
		logger.Module("audit"),
		logger.Action(entry.Action),
		zap.String("actor_id", entry.ActorID),
		zap.String("resource_type", entry.ResourceType),
		zap.String("resource_id", entry.ResourceID),
		zap.String("outcome", entry.Outcome),
		zap.Any("metadata", entry.Metadata),
	)
	return nil
}

// AuditReader reads back recorded entries.
type AuditReader interface {
	ListForResource(ctx context.Context, resourceID string, limit int) ([]domain.AuditEntry, error)
}

// AuditService exposes audit history to admins.
type AuditService struct {
	base
	reader AuditReader
}

// NewAuditService creates the service. A nil reader yields empty history.
func NewAuditService(d Deps, reader AuditReader) *AuditService {
	return &AuditService{base: newBase("audit", d), reader: reader}
}

// History returns recent entries for a resource. Admin only.
func (s *AuditService) History(ctx context.Context, actorID, resourceID string, limit int) ([]domain.AuditEntry, error) {
	err := s.store.View(ctx, func(tx *store.ReadTx) error {
		return requireAdmin(tx, actorID, resourceID)
	})
	if err != nil {
		return nil, err
	}
	if s.reader == nil {
		return []domain.AuditEntry{}, nil
	}

	entries, err := s.reader.ListForResource(ctx, resourceID, limit)
	if err != nil {
		return nil, domain.StorageFailure("read audit log", err)
	}
	return entries, nil
}
