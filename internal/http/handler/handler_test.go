package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"officeflow-api/internal/auth"
	"officeflow-api/internal/domain"
	"officeflow-api/internal/kv"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/rbac"
	"officeflow-api/internal/service"
	"officeflow-api/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testActorHeader = "X-Test-Actor"

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }
func (plainHasher) Verify(hash, password string) bool    { return hash == "plain:"+password }

type testServer struct {
	router  chi.Router
	store   *store.Store
	backend *kv.Memory
}

// newTestServer wires the handlers against an in-memory store with
// "admin" bootstrapped. The acting user comes from X-Test-Actor.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	backend := kv.NewMemory()
	st, err := store.New(backend, store.Options{})
	require.NoError(t, err)
	roles, err := rbac.NewRoleTable(0)
	require.NoError(t, err)

	d := service.Deps{
		Store:  st,
		Engine: rbac.NewEngine(roles),
		Hasher: plainHasher{},
		Log:    logger.NewNop(),
	}
	users := service.NewUserService(d)
	_, err = users.BootstrapAdmin(context.Background(), "admin", "Admin")
	require.NoError(t, err)

	workspaces := NewWorkspaceHandler(service.NewWorkspaceService(d))
	offices := NewOfficeHandler(service.NewOfficeService(d))
	rooms := NewRoomHandler(service.NewRoomService(d))
	domains := NewDomainHandler(service.NewDomainService(d), service.NewMembershipService(d))
	userHandler := NewUserHandler(users)
	audit := NewAuditHandler(service.NewAuditService(d, nil))
	debug := NewDebugHandler(true, st, backend)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := logger.SetLoggerInContext(r.Context(), logger.NewNop())
			if actor := r.Header.Get(testActorHeader); actor != "" {
				ctx = auth.WithActor(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})

	r.Get("/debug/store", debug.GetStoreDebug)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/workspaces", workspaces.CreateWorkspace)
		r.Route("/workspaces/{workspaceId}", func(r chi.Router) {
			r.Get("/", workspaces.GetWorkspace)
			r.Patch("/", workspaces.UpdateWorkspace)
			r.Delete("/", workspaces.DeleteWorkspace)
			r.Put("/master-password", workspaces.ChangeMasterPassword)
			r.Get("/offices", offices.ListOffices)
			r.Post("/offices", offices.CreateOffice)
		})
		r.Route("/offices/{officeId}", func(r chi.Router) {
			r.Get("/", offices.GetOffice)
			r.Patch("/", offices.UpdateOffice)
			r.Delete("/", offices.DeleteOffice)
			r.Get("/rooms", rooms.ListRooms)
			r.Post("/rooms", rooms.CreateRoom)
		})
		r.Route("/rooms/{roomId}", func(r chi.Router) {
			r.Get("/", rooms.GetRoom)
			r.Patch("/", rooms.UpdateRoom)
			r.Delete("/", rooms.DeleteRoom)
		})
		r.Get("/domains", domains.ListDomains)
		r.Route("/domains/{domainId}", func(r chi.Router) {
			r.Get("/", domains.GetDomain)
			r.Get("/check", domains.CheckPermission)
			r.Get("/members", domains.ListMembers)
			r.Post("/members", domains.AddMember)
			r.Delete("/members/{userId}", domains.RemoveMember)
			r.Patch("/members/{userId}/permissions", domains.UpdateMemberPermissions)
			r.Post("/bans", domains.BanUser)
		})
		r.Post("/users", userHandler.CreateUser)
		r.Get("/users", userHandler.ListUsers)
		r.Get("/users/{userId}", userHandler.GetUser)
		r.Get("/audit/{resourceId}", audit.History)
	})

	return &testServer{router: r, store: st, backend: backend}
}

func (s *testServer) do(t *testing.T, actor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(testActorHeader, actor)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody[map[string]any](t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	return errObj["code"].(string)
}

// seed creates the workspace, one office and a member user "bob".
func (s *testServer) seed(t *testing.T) (officeID string) {
	t.Helper()

	rec := s.do(t, "admin", http.MethodPost, "/v1/workspaces", map[string]any{
		"name":           "HQ",
		"masterPassword": "hunter2",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, "admin", http.MethodPost, "/v1/workspaces/"+domain.RootWorkspaceID+"/offices", map[string]any{
		"name": "Engineering",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	office := decodeBody[domain.Office](t, rec)

	rec = s.do(t, "admin", http.MethodPost, "/v1/users", map[string]any{"id": "bob", "name": "Bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return office.ID
}

func TestHandlers_RequireActor(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "", http.MethodGet, "/v1/users", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", errorCode(t, rec))
}

func TestWorkspaceHandler(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	t.Run("second workspace conflicts", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodPost, "/v1/workspaces", map[string]any{
			"name":           "Other",
			"masterPassword": "x",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CONFLICT", errorCode(t, rec))
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodPost, "/v1/workspaces", `{"name":"x","color":"red"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_FORMAT", errorCode(t, rec))
	})

	t.Run("get", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodGet, "/v1/workspaces/"+domain.RootWorkspaceID, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		ws := decodeBody[domain.Workspace](t, rec)
		assert.Equal(t, "HQ", ws.Name)
		assert.Equal(t, "admin", ws.OwnerID)
	})

	t.Run("update with wrong password", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodPatch, "/v1/workspaces/"+domain.RootWorkspaceID, map[string]any{
			"name":           "Renamed",
			"masterPassword": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTHENTICATION_FAILED", errorCode(t, rec))
	})

	t.Run("update with password", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodPatch, "/v1/workspaces/"+domain.RootWorkspaceID, map[string]any{
			"name":           "Renamed",
			"masterPassword": "hunter2",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Renamed", decodeBody[domain.Workspace](t, rec).Name)
	})

	t.Run("change master password", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodPut, "/v1/workspaces/"+domain.RootWorkspaceID+"/master-password", map[string]any{
			"current": "hunter2",
			"next":    "correct horse",
		})
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = s.do(t, "admin", http.MethodPatch, "/v1/workspaces/"+domain.RootWorkspaceID, map[string]any{
			"name":           "Stale",
			"masterPassword": "hunter2",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "AUTHENTICATION_FAILED", errorCode(t, rec))

		rec = s.do(t, "admin", http.MethodPatch, "/v1/workspaces/"+domain.RootWorkspaceID, map[string]any{
			"name":           "Rotated",
			"masterPassword": "correct horse",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Rotated", decodeBody[domain.Workspace](t, rec).Name)
	})

	t.Run("root workspace cannot be deleted", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodDelete, "/v1/workspaces/"+domain.RootWorkspaceID, map[string]any{
			"masterPassword": "correct horse",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CONFLICT", errorCode(t, rec))
	})
}

func TestOfficeAndRoomHandlers(t *testing.T) {
	s := newTestServer(t)
	officeID := s.seed(t)

	rec := s.do(t, "admin", http.MethodPost, "/v1/offices/"+officeID+"/rooms", map[string]any{"name": "Standup"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	room := decodeBody[domain.Room](t, rec)
	assert.Equal(t, officeID, room.OfficeID)

	t.Run("list rooms", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodGet, "/v1/offices/"+officeID+"/rooms", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[struct {
			Data []domain.Room `json:"data"`
		}](t, rec)
		require.Len(t, body.Data, 1)
		assert.Equal(t, room.ID, body.Data[0].ID)
	})

	t.Run("office id on room route is a type mismatch", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodGet, "/v1/rooms/"+officeID, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "TYPE_MISMATCH", errorCode(t, rec))
	})

	t.Run("unknown office", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodGet, "/v1/offices/nope", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("non member is denied", func(t *testing.T) {
		rec := s.do(t, "bob", http.MethodGet, "/v1/offices/"+officeID, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "PERMISSION_DENIED", errorCode(t, rec))
	})

	t.Run("update office", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodPatch, "/v1/offices/"+officeID, map[string]any{"description": "builders"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "builders", decodeBody[domain.Office](t, rec).Description)
	})

	t.Run("delete office cascades", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodDelete, "/v1/offices/"+officeID, nil)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = s.do(t, "admin", http.MethodGet, "/v1/rooms/"+room.ID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDomainHandler_Membership(t *testing.T) {
	s := newTestServer(t)
	officeID := s.seed(t)
	base := "/v1/domains/" + officeID

	t.Run("missing user id", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodPost, base+"/members", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", errorCode(t, rec))
	})

	rec := s.do(t, "admin", http.MethodPost, base+"/members", map[string]any{"userId": "bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	t.Run("member can view", func(t *testing.T) {
		rec := s.do(t, "bob", http.MethodGet, "/v1/offices/"+officeID, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("check permission", func(t *testing.T) {
		rec := s.do(t, "bob", http.MethodGet, base+"/check?permission=delete_office", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decodeBody[rbac.Decision](t, rec).Allowed)

		rec = s.do(t, "bob", http.MethodGet, base+"/check?permission=view_content", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodeBody[rbac.Decision](t, rec).Allowed)

		rec = s.do(t, "bob", http.MethodGet, base+"/check?permission=fly", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("grant extra permission", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodPatch, base+"/members/bob/permissions", map[string]any{
			"op":          "add",
			"permissions": []string{"delete_office"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = s.do(t, "bob", http.MethodGet, base+"/check?permission=delete_office", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodeBody[rbac.Decision](t, rec).Allowed)
	})

	t.Run("list members", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodGet, base+"/members", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[struct {
			Data []json.RawMessage `json:"data"`
		}](t, rec)
		assert.Len(t, body.Data, 2)
	})

	t.Run("remove member", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodDelete, base+"/members/bob", nil)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = s.do(t, "bob", http.MethodGet, "/v1/offices/"+officeID, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestDomainHandler_ListDomains(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(t, "admin", http.MethodGet, "/v1/domains?kind=office", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[struct {
		Data []domain.Domain `json:"data"`
	}](t, rec)
	require.Len(t, body.Data, 1)
	assert.Equal(t, domain.DomainTypeOffice, body.Data[0].Type)

	rec = s.do(t, "admin", http.MethodGet, "/v1/domains?kind=lobby", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", errorCode(t, rec))
}

func TestUserHandler(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	t.Run("me resolves to actor", func(t *testing.T) {
		rec := s.do(t, "bob", http.MethodGet, "/v1/users/me", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "bob", decodeBody[domain.User](t, rec).ID)
	})

	t.Run("members cannot read others", func(t *testing.T) {
		rec := s.do(t, "bob", http.MethodGet, "/v1/users/admin", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("members cannot create users", func(t *testing.T) {
		rec := s.do(t, "bob", http.MethodPost, "/v1/users", map[string]any{"name": "Eve"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin lists users", func(t *testing.T) {
		rec := s.do(t, "admin", http.MethodGet, "/v1/users", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[struct {
			Data []domain.User `json:"data"`
		}](t, rec)
		require.Len(t, body.Data, 2)
		assert.Equal(t, "admin", body.Data[0].ID)
		assert.Equal(t, "bob", body.Data[1].ID)
	})
}

func TestAuditHandler(t *testing.T) {
	s := newTestServer(t)
	s.seed(t)

	rec := s.do(t, "admin", http.MethodGet, "/v1/audit/"+domain.RootWorkspaceID+"?limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_LIMIT", errorCode(t, rec))

	rec = s.do(t, "admin", http.MethodGet, "/v1/audit/"+domain.RootWorkspaceID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "bob", http.MethodGet, "/v1/audit/"+domain.RootWorkspaceID, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
