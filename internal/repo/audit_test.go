package repo_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"officeflow-api/internal/database"
	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/requestid"
	"officeflow-api/internal/repo"
)

// TestAuditRepo_Integration writes and reads back audit entries.
//
// Prerequisites:
//   - DATABASE_URL environment variable must be set
//
// Run with: go test -v ./internal/repo -run TestAuditRepo_Integration
func TestAuditRepo_Integration(t *testing.T) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := requestid.SetRequestID(context.Background(), "req_test")
	require.NoError(t, database.RunMigrations(databaseURL))

	pool, err := database.NewPool(ctx, databaseURL)
	require.NoError(t, err, "failed to connect to database")
	defer pool.Close()

	auditRepo := repo.NewAuditRepo(pool)
	resourceID := "office-" + uuid.NewString()

	cleanup := func() {
		_, _ = pool.Exec(ctx, `DELETE FROM audit_log WHERE resource_id = $1`, resourceID)
	}
	cleanup()
	defer cleanup()

	entries := []domain.AuditEntry{
		{WorkspaceID: domain.RootWorkspaceID, ActorID: "admin", Action: "create", ResourceType: "office", ResourceID: resourceID, Outcome: "success"},
		{WorkspaceID: domain.RootWorkspaceID, ActorID: "bob", Action: "delete", ResourceType: "office", ResourceID: resourceID, Outcome: "permission_denied",
			Metadata: map[string]any{"rooms_removed": 0}},
	}
	for _, e := range entries {
		require.NoError(t, auditRepo.LogAction(ctx, e))
	}

	got, err := auditRepo.ListForResource(ctx, resourceID, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "delete", got[0].Action)
	assert.Equal(t, "permission_denied", got[0].Outcome)
	assert.Equal(t, float64(0), got[0].Metadata["rooms_removed"])
	assert.Equal(t, "create", got[1].Action)
	assert.Nil(t, got[1].Metadata)

	assert.Equal(t, "req_test", got[0].RequestID)
	assert.False(t, got[0].CreatedAt.IsZero())
}
