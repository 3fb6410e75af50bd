package middleware

import (
	"net/http"

	"officeflow-api/internal/observability/logger"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WorkspaceScope tags logs and spans of workspace-scoped routes with the
// workspace id from the path. Access itself is decided by the RBAC engine.
func WorkspaceScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workspaceID := chi.URLParam(r, "workspaceId")
		if workspaceID == "" {
			next.ServeHTTP(w, r)
			return
		}

		span := trace.SpanFromContext(r.Context())
		span.SetAttributes(attribute.String("workspace_id", workspaceID))

		ctx := logger.SetWorkspaceIDInContext(r.Context(), workspaceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
