package handler

import (
	"net/http"

	"officeflow-api/internal/http/httperr"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/service"

	"github.com/go-chi/chi/v5"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// History handles GET /v1/audit/{resourceId}?limit=50
func (h *AuditHandler) History(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	limit, err := parseLimit(r, 50, 500)
	if err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidLimit, err.Error())
		return
	}

	entries, err := h.service.History(ctx, actorID, chi.URLParam(r, "resourceId"), limit)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": entries})
}
