package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"officeflow-api/internal/auth"
	"officeflow-api/internal/observability/logger"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugRequest(ctx context.Context, path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	return req.WithContext(logger.SetLoggerInContext(ctx, logger.NewNop()))
}

func TestDebugHandler_GetAuthDebug_ProductionBlocked(t *testing.T) {
	h := NewDebugHandler(false, nil, nil)

	req := debugRequest(auth.WithActor(context.Background(), "user-456"), "/debug/auth")
	rec := httptest.NewRecorder()
	h.GetAuthDebug(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code, "should return 404 outside dev")
}

func TestDebugHandler_GetAuthDebug_NoAuth(t *testing.T) {
	h := NewDebugHandler(true, nil, nil)

	rec := httptest.NewRecorder()
	h.GetAuthDebug(rec, debugRequest(context.Background(), "/debug/auth"))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
}

func TestDebugHandler_GetAuthDebug_Claims(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	token, err := auth.IssueHS256(secret, auth.TokenRequest{
		Issuer:   "officeflow-web",
		Audience: "officeflow-api",
		ActorID:  "user-456",
		TTL:      time.Hour,
	}, time.Now())
	require.NoError(t, err)

	ks := auth.NewKeyStore()
	ks.LoadHS256Key("officeflow-web", auth.DefaultKID, secret)
	resolver := auth.NewKeyResolver([]string{"officeflow-web"}, []string{"officeflow-api"})
	resolver.RegisterValidator("officeflow-web", auth.NewHS256Validator(ks, "officeflow-web", time.Minute))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(logger.SetLoggerInContext(r.Context(), logger.NewNop())))
		})
	})
	r.Use(auth.Middleware(resolver))
	h := NewDebugHandler(true, nil, nil)
	r.Get("/debug/auth", h.GetAuthDebug)
	r.Get("/debug/auth/workspaces/{workspaceId}", h.GetAuthDebug)

	t.Run("claims", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/auth", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decodeBody[DebugAuthResponse](t, rec)
		assert.True(t, resp.OK)
		require.NotNil(t, resp.Data)
		assert.Equal(t, "user-456", resp.Data.ActorID)
		assert.Equal(t, "officeflow-web", resp.Data.TokenIssuer)
		assert.Equal(t, []string{"officeflow-api"}, resp.Data.Audience)
		assert.NotNil(t, resp.Data.ExpiresAt)
		assert.Nil(t, resp.Data.WorkspaceIDFromPath)
	})

	t.Run("workspace from path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/debug/auth/workspaces/root", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[DebugAuthResponse](t, rec)
		require.NotNil(t, resp.Data.WorkspaceIDFromPath)
		assert.Equal(t, "root", *resp.Data.WorkspaceIDFromPath)
	})
}

func TestDebugHandler_ClaimsWithoutExpiry(t *testing.T) {
	h := NewDebugHandler(true, nil, nil)

	ctx := auth.WithActor(context.Background(), "user-1")
	rec := httptest.NewRecorder()
	h.GetAuthDebug(rec, debugRequest(ctx, "/debug/auth"))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[DebugAuthResponse](t, rec)
	assert.Equal(t, "user-1", resp.Data.ActorID)
	assert.Nil(t, resp.Data.ExpiresAt)
}

func TestDebugHandler_GetStoreDebug(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(t, "admin", http.MethodGet, "/debug/store", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeBody[DebugStoreResponse](t, rec)
	require.NotNil(t, resp.Data)
	assert.Equal(t, 1, resp.Data.Workspaces)
	assert.Equal(t, 2, resp.Data.Domains)
	assert.Equal(t, 2, resp.Data.Users)

	require.NotEmpty(t, resp.Data.Keys)
	for _, k := range resp.Data.Keys {
		assert.True(t, k.Present, "key %s should be committed", k.Key)
		assert.Positive(t, k.Bytes)
	}
}

func TestDebugHandler_GetStoreDebug_ProductionBlocked(t *testing.T) {
	s := newTestServer(t)
	h := NewDebugHandler(false, s.store, s.backend)

	rec := httptest.NewRecorder()
	h.GetStoreDebug(rec, debugRequest(context.Background(), "/debug/store"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
