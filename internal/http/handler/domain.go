package handler

import (
	"net/http"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/http/httperr"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DomainHandler serves kind-agnostic routes: lookups, listing,
// membership and permission checks.
type DomainHandler struct {
	domains *service.DomainService
	members *service.MembershipService
}

func NewDomainHandler(domains *service.DomainService, members *service.MembershipService) *DomainHandler {
	return &DomainHandler{domains: domains, members: members}
}

type addMemberRequest struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

type updatePermissionsRequest struct {
	Op          domain.PermissionOp  `json:"op"`
	Permissions domain.PermissionSet `json:"permissions"`
}

type banRequest struct {
	UserID string `json:"userId"`
}

// ListDomains handles GET /v1/domains?kind=office&parentId=root
func (h *DomainHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	kind, err := domain.ParseDomainType(r.URL.Query().Get("kind"))
	if err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, "kind must be one of workspace, office, room")
		return
	}

	var parentID *string
	if p := r.URL.Query().Get("parentId"); p != "" {
		parentID = &p
	}

	domains, err := h.domains.ListDomainEntities(ctx, actorID, kind, parentID)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": domains})
}

// GetDomain handles GET /v1/domains/{domainId}
func (h *DomainHandler) GetDomain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	d, err := h.domains.GetDomain(ctx, actorID, chi.URLParam(r, "domainId"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// CheckPermission handles GET /v1/domains/{domainId}/check?permission=delete_office
func (h *DomainHandler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	p, err := domain.ParsePermission(r.URL.Query().Get("permission"))
	if err != nil {
		httperr.BadRequest400(w, ctx, httperr.ErrCodeInvalidParameter, err.Error())
		return
	}

	decision, err := h.domains.CheckPermission(ctx, actorID, chi.URLParam(r, "domainId"), p)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, decision)
}

// ListMembers handles GET /v1/domains/{domainId}/members
func (h *DomainHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	members, err := h.members.ListMembers(ctx, actorID, chi.URLParam(r, "domainId"))
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": members})
}

// AddMember handles POST /v1/domains/{domainId}/members
func (h *DomainHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	req := addMemberRequest{Role: domain.RoleMember}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		httperr.BadRequest400WithFields(w, ctx, httperr.ErrCodeValidationError, "validation failed",
			map[string]string{"userId": "required"})
		return
	}

	domainID := chi.URLParam(r, "domainId")
	log.Info(ctx, "adding member",
		zap.String("domainId", domainID),
		zap.String("actorId", actorID),
		zap.String("userId", req.UserID),
		zap.String("role", req.Role.String()),
	)

	perms, err := h.members.AddUserToDomain(ctx, actorID, req.UserID, domainID, req.Role)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"userId":      req.UserID,
		"domainId":    domainID,
		"permissions": perms,
	})
}

// RemoveMember handles DELETE /v1/domains/{domainId}/members/{userId}
func (h *DomainHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	domainID := chi.URLParam(r, "domainId")
	userID := chi.URLParam(r, "userId")
	log.Info(ctx, "removing member",
		zap.String("domainId", domainID),
		zap.String("actorId", actorID),
		zap.String("userId", userID),
	)

	if err := h.members.RemoveUserFromDomain(ctx, actorID, userID, domainID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateMemberPermissions handles PATCH /v1/domains/{domainId}/members/{userId}/permissions
func (h *DomainHandler) UpdateMemberPermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req updatePermissionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	domainID := chi.URLParam(r, "domainId")
	userID := chi.URLParam(r, "userId")

	perms, err := h.members.UpdateMemberPermissions(ctx, actorID, userID, domainID, req.Permissions, req.Op)
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	log.Info(ctx, "member permissions updated",
		zap.String("domainId", domainID),
		zap.String("userId", userID),
		zap.String("op", string(req.Op)),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":      userID,
		"domainId":    domainID,
		"permissions": perms,
	})
}

// BanUser handles POST /v1/domains/{domainId}/bans
func (h *DomainHandler) BanUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	actorID, ok := actorFromRequest(w, r)
	if !ok {
		return
	}

	var req banRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	domainID := chi.URLParam(r, "domainId")
	log.Warn(ctx, "banning user",
		zap.String("domainId", domainID),
		zap.String("actorId", actorID),
		zap.String("userId", req.UserID),
	)

	if err := h.members.BanUser(ctx, actorID, req.UserID, domainID); err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
