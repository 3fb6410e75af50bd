package handler

import (
	"net/http"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OfficeHandler struct {
	service *service.OfficeService
}

func NewOfficeHandler(service *service.OfficeService) *OfficeHandler {
	return &OfficeHandler{service: service}
}

// ListOffices handles GET /v1/workspaces/{workspaceId}/offices
func (h *OfficeHandler) ListOffices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	offices, err := h.service.ListOffices(ctx, actorID, chi.URLParam(r, "workspaceId"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": offices})
}

// CreateOffice handles POST /v1/workspaces/{workspaceId}/offices
func (h *OfficeHandler) CreateOffice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.CreateOfficeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.WorkspaceID = chi.URLParam(r, "workspaceId")

	log.Info(ctx, "creating office",
		zap.String("workspaceId", req.WorkspaceID),
		zap.String("actorId", actorID),
		zap.String("name", req.Name),
	)

	office, err := h.service.CreateOffice(ctx, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "office created successfully",
		zap.String("officeId", office.ID),
	)

	writeJSON(w, http.StatusCreated, office)
}

// GetOffice handles GET /v1/offices/{officeId}
func (h *OfficeHandler) GetOffice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	office, err := h.service.GetOffice(ctx, actorID, chi.URLParam(r, "officeId"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, office)
}

// UpdateOffice handles PATCH /v1/offices/{officeId}
func (h *OfficeHandler) UpdateOffice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.UpdateSpaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	officeID := chi.URLParam(r, "officeId")
	log.Info(ctx, "updating office",
		zap.String("officeId", officeID),
		zap.String("actorId", actorID),
	)

	office, err := h.service.UpdateOffice(ctx, actorID, officeID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, office)
}

// DeleteOffice handles DELETE /v1/offices/{officeId}
func (h *OfficeHandler) DeleteOffice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	officeID := chi.URLParam(r, "officeId")
	log.Info(ctx, "deleting office",
		zap.String("officeId", officeID),
		zap.String("actorId", actorID),
	)

	if err := h.service.DeleteOffice(ctx, actorID, officeID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
