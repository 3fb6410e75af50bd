package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/requestid"
)

// AuditRepo handles audit log storage
type AuditRepo struct {
	pool *pgxpool.Pool
}

// NewAuditRepo creates a new AuditRepo
func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

// LogAction logs an action to the audit log
func (r *AuditRepo) LogAction(ctx context.Context, entry domain.AuditEntry) error {
	var metadataJSON []byte
	var err error

	if entry.Metadata != nil {
		metadataJSON, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_log (
			workspace_id, actor_id, action, resource_type, resource_id,
			outcome, metadata, request_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = r.pool.Exec(ctx, query,
		entry.WorkspaceID, entry.ActorID, entry.Action, entry.ResourceType,
		nullIfEmpty(entry.ResourceID), entry.Outcome, metadataJSON,
		nullIfEmpty(requestid.GetRequestID(ctx)),
	)
	if err != nil {
		return fmt.Errorf("failed to log action: %w", err)
	}

	return nil
}

// ListForResource returns the most recent entries for a resource, newest
// first. Limits above 500 are capped.
func (r *AuditRepo) ListForResource(ctx context.Context, resourceID string, limit int) ([]domain.AuditEntry, error) {
	limit = clampLimit(limit)

	query := `
		SELECT workspace_id, actor_id, action, resource_type, resource_id,
		       outcome, metadata, request_id, created_at
		FROM audit_log
		WHERE resource_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e         domain.AuditEntry
			resource  pgtype.Text
			metadata  []byte
			requestID pgtype.Text
		)
		if err := rows.Scan(&e.WorkspaceID, &e.ActorID, &e.Action, &e.ResourceType,
			&resource, &e.Outcome, &metadata, &requestID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.ResourceID = getString(resource)
		e.RequestID = getString(requestID)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode audit metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit log: %w", err)
	}

	return entries, nil
}
