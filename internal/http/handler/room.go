package handler

import (
	"net/http"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RoomHandler struct {
	service *service.RoomService
}

func NewRoomHandler(service *service.RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

// ListRooms handles GET /v1/offices/{officeId}/rooms
func (h *RoomHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	rooms, err := h.service.ListRooms(ctx, actorID, chi.URLParam(r, "officeId"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": rooms})
}

// CreateRoom handles POST /v1/offices/{officeId}/rooms
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.CreateRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.OfficeID = chi.URLParam(r, "officeId")

	log.Info(ctx, "creating room",
		zap.String("officeId", req.OfficeID),
		zap.String("actorId", actorID),
		zap.String("name", req.Name),
	)

	room, err := h.service.CreateRoom(ctx, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "room created successfully",
		zap.String("roomId", room.ID),
	)

	writeJSON(w, http.StatusCreated, room)
}

// GetRoom handles GET /v1/rooms/{roomId}
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	room, err := h.service.GetRoom(ctx, actorID, chi.URLParam(r, "roomId"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// UpdateRoom handles PATCH /v1/rooms/{roomId}
func (h *RoomHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
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

	roomID := chi.URLParam(r, "roomId")
	log.Info(ctx, "updating room",
		zap.String("roomId", roomID),
		zap.String("actorId", actorID),
	)

	room, err := h.service.UpdateRoom(ctx, actorID, roomID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// DeleteRoom handles DELETE /v1/rooms/{roomId}
func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	roomID := chi.URLParam(r, "roomId")
	log.Info(ctx, "deleting room",
		zap.String("roomId", roomID),
		zap.String("actorId", actorID),
	)

	if err := h.service.DeleteRoom(ctx, actorID, roomID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
