package handler

import (
	"net/http"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type WorkspaceHandler struct {
	service *service.WorkspaceService
}

func NewWorkspaceHandler(service *service.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{service: service}
}

// deleteWorkspaceRequest carries the master password for DELETE.
type deleteWorkspaceRequest struct {
	MasterPassword string `json:"masterPassword"`
}

// changeMasterPasswordRequest is the body of PUT .../master-password.
type changeMasterPasswordRequest struct {
	Current string `json:"current"`
	Next    string `json:"next"`
}

// CreateWorkspace handles POST /v1/workspaces
func (h *WorkspaceHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.CreateWorkspaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	log.Info(ctx, "creating workspace",
		zap.String("actorId", actorID),
		zap.String("name", req.Name),
	)

	ws, err := h.service.CreateWorkspace(ctx, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, ws)
}

// GetWorkspace handles GET /v1/workspaces/{workspaceId}
func (h *WorkspaceHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	ws, err := h.service.GetWorkspace(ctx, actorID, chi.URLParam(r, "workspaceId"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, ws)
}

// UpdateWorkspace handles PATCH /v1/workspaces/{workspaceId}
func (h *WorkspaceHandler) UpdateWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.UpdateWorkspaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	workspaceID := chi.URLParam(r, "workspaceId")
	log.Info(ctx, "updating workspace",
		zap.String("workspaceId", workspaceID),
		zap.String("actorId", actorID),
	)

	ws, err := h.service.UpdateWorkspace(ctx, actorID, workspaceID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, ws)
}

// DeleteWorkspace handles DELETE /v1/workspaces/{workspaceId}
func (h *WorkspaceHandler) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req deleteWorkspaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	workspaceID := chi.URLParam(r, "workspaceId")
	log.Info(ctx, "deleting workspace",
		zap.String("workspaceId", workspaceID),
		zap.String("actorId", actorID),
	)

	if err := h.service.DeleteWorkspace(ctx, actorID, workspaceID, req.MasterPassword); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangeMasterPassword handles PUT /v1/workspaces/{workspaceId}/master-password
func (h *WorkspaceHandler) ChangeMasterPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req changeMasterPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	workspaceID := chi.URLParam(r, "workspaceId")
	if err := h.service.ChangeMasterPassword(ctx, actorID, workspaceID, req.Current, req.Next); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "master password changed",
		zap.String("workspaceId", workspaceID),
		zap.String("actorId", actorID),
	)

	w.WriteHeader(http.StatusNoContent)
}
