package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"officeflow-api/internal/auth"
	"officeflow-api/internal/domain"
	"officeflow-api/internal/http/httperr"
	"officeflow-api/internal/observability/logger"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// actorFromRequest returns the authenticated actor or writes a 401.
func actorFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	actorID, ok := auth.ActorFromContext(r.Context())
	if !ok {
		httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeInvalidToken, "authentication claims not found")
		return "", false
	}
	return actorID, true
}

// decodeJSON reads the request body into dst or writes a 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	ctx := r.Context()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		logger.GetLogger(ctx).Warn(ctx, "failed to decode request body",
			logger.Module("http"),
			logger.Action("decode"),
			zap.Error(err),
		)
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidFormat, "request body must be valid JSON")
		return false
	}
	return true
}

// parseLimit reads the limit query parameter, falling back to def.
func parseLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > max {
		return 0, fmt.Errorf("limit must be between 1 and %d", max)
	}
	return limit, nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// handleServiceError maps core errors to HTTP responses
func handleServiceError(w http.ResponseWriter, ctx context.Context, log *logger.Logger, err error) {
	var derr *domain.Error
	if errors.As(err, &derr) && derr.Kind != domain.KindStorageFailure {
		log.Info(ctx, "request rejected",
			logger.Module("http"),
			logger.Action("service_error"),
			zap.String("kind", string(derr.Kind)),
			zap.String("error", derr.Error()),
		)
	} else {
		log.Error(ctx, "unexpected service error",
			logger.Module("http"),
			logger.Action("service_error"),
			zap.Error(err),
		)
	}
	httperr.WriteDomainError(w, ctx, err)
}
