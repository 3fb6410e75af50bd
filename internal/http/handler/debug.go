package handler

import (
	"context"
	"net/http"
	"time"

	"officeflow-api/internal/auth"
	"officeflow-api/internal/http/httperr"
	"officeflow-api/internal/kv"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DebugHandler provides debug endpoints for development
type DebugHandler struct {
	dev     bool
	store   *store.Store
	backend kv.Backend
}

// NewDebugHandler creates a new debug handler. Every endpoint answers 404
// unless dev is set.
func NewDebugHandler(dev bool, st *store.Store, backend kv.Backend) *DebugHandler {
	return &DebugHandler{dev: dev, store: st, backend: backend}
}

// DebugAuthResponse represents the authentication debug response
type DebugAuthResponse struct {
	OK   bool           `json:"ok"`
	Data *DebugAuthData `json:"data"`
}

// DebugAuthData contains authentication information for debugging
type DebugAuthData struct {
	ActorID             string     `json:"actorId"`
	Subject             string     `json:"subject,omitempty"`
	TokenIssuer         string     `json:"tokenIssuer,omitempty"`
	Audience            []string   `json:"audience,omitempty"`
	ExpiresAt           *time.Time `json:"expiresAt,omitempty"`
	WorkspaceIDFromPath *string    `json:"workspaceIdFromPath,omitempty"`
}

// DebugStoreResponse is the payload of GET /debug/store.
type DebugStoreResponse struct {
	OK   bool            `json:"ok"`
	Data *DebugStoreData `json:"data"`
}

// DebugStoreData summarizes the live snapshot and the durable keys behind it.
type DebugStoreData struct {
	Workspaces int                 `json:"workspaces"`
	Domains    int                 `json:"domains"`
	Users      int                 `json:"users"`
	Keys       []DebugStoreKeyInfo `json:"keys"`
}

// DebugStoreKeyInfo reports one manifest key of the backend.
type DebugStoreKeyInfo struct {
	Key     string `json:"key"`
	Present bool   `json:"present"`
	Bytes   int    `json:"bytes"`
}

func (h *DebugHandler) allowed(w http.ResponseWriter, r *http.Request) bool {
	if h.dev {
		return true
	}
	ctx := r.Context()
	logger.GetLogger(ctx).Warn(ctx, "debug endpoint accessed in non-dev environment",
		zap.String("remote_addr", r.RemoteAddr),
	)
	http.NotFound(w, r)
	return false
}

// GetAuthDebug returns the validated token claims.
// GET /debug/auth
// GET /debug/auth/workspaces/{workspaceId}
func (h *DebugHandler) GetAuthDebug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	if !h.allowed(w, r) {
		return
	}

	claims, ok := auth.GetClaims(ctx)
	if !ok {
		httperr.Unauthorized401(w, ctx, httperr.ErrCodeInvalidToken, "authentication required")
		return
	}

	log.Info(ctx, "debug auth endpoint accessed", zap.String("actor_id", claims.Actor()))

	data := &DebugAuthData{
		ActorID:     claims.Actor(),
		Subject:     claims.Subject,
		TokenIssuer: claims.Issuer,
		Audience:    claims.Audience,
	}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time
		data.ExpiresAt = &exp
	}
	if ws := chi.URLParam(r, "workspaceId"); ws != "" {
		data.WorkspaceIDFromPath = &ws
	}

	writeJSON(w, http.StatusOK, DebugAuthResponse{OK: true, Data: data})
}

// GetStoreDebug reports snapshot counts and which manifest keys the
// backend holds.
// GET /debug/store
func (h *DebugHandler) GetStoreDebug(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.GetLogger(ctx)

	if !h.allowed(w, r) {
		return
	}

	data := &DebugStoreData{}
	err := h.store.View(ctx, func(tx *store.ReadTx) error {
		data.Workspaces = tx.WorkspaceCount()
		data.Domains = len(tx.AllDomains())
		data.Users = tx.UserCount()
		return nil
	})
	if err != nil {
		handleServiceError(w, ctx, log, err)
		return
	}

	readCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	for _, key := range h.store.ManifestKeys() {
		raw, found, err := h.backend.Get(readCtx, key)
		if err != nil {
			log.Error(ctx, "debug_store_read_failed", zap.String("key", key), zap.Error(err))
			httperr.WriteError(w, ctx, http.StatusServiceUnavailable, httperr.ErrCodeStorageUnavailable, "storage temporarily unavailable")
			return
		}
		data.Keys = append(data.Keys, DebugStoreKeyInfo{Key: key, Present: found, Bytes: len(raw)})
	}

	writeJSON(w, http.StatusOK, DebugStoreResponse{OK: true, Data: data})
}
