package handler

import (
	"net/http"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(service *service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// CreateUser handles POST /v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.service.CreateUser(ctx, actorID, &req)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "user created successfully",
		zap.String("userId", user.ID),
		zap.String("role", user.Role.String()),
	)

	writeJSON(w, http.StatusCreated, user)
}

// ListUsers handles GET /v1/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	users, err := h.service.ListUsers(ctx, actorID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": users})
}

// GetUser handles GET /v1/users/{userId}; "me" resolves to the caller.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	userID := chi.URLParam(r, "userId")
	if userID == "me" {
		userID = actorID
	}

	user, err := h.service.GetUser(ctx, actorID, userID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
