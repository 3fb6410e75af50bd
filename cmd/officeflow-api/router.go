package main

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"officeflow-api/internal/auth"
	"officeflow-api/internal/config"
	"officeflow-api/internal/http/docs"
	"officeflow-api/internal/http/handler"
	"officeflow-api/internal/http/httperr"
	"officeflow-api/internal/http/middleware"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/ratelimit"
	"officeflow-api/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// readyCheck is one dependency probed by /ready.
type readyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// RouterDeps holds what buildRouter needs.
type RouterDeps struct {
	Cfg         *config.Config
	Log         *logger.Logger
	Resolver    *auth.KeyResolver
	RateLimiter *ratelimit.RedisRateLimiter
	Metrics     *telemetry.Metrics
	// Registry is served at /metrics; the default gatherer is used when nil.
	Registry    *prometheus.Registry
	ReadyChecks []readyCheck

	// Handlers
	WorkspaceHandler *handler.WorkspaceHandler
	OfficeHandler    *handler.OfficeHandler
	RoomHandler      *handler.RoomHandler
	DomainHandler    *handler.DomainHandler
	UserHandler      *handler.UserHandler
	AuditHandler     *handler.AuditHandler
	DebugHandler     *handler.DebugHandler
}

func (d RouterDeps) hasAPI() bool {
	return d.WorkspaceHandler != nil || d.OfficeHandler != nil || d.RoomHandler != nil ||
		d.DomainHandler != nil || d.UserHandler != nil || d.AuditHandler != nil
}

// buildRouter builds the chi.Router with all middlewares and routes.
func buildRouter(deps RouterDeps) chi.Router {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.RequestLoggingMiddleware(deps.Log))
	r.Use(middleware.RecoveryMiddleware(deps.Log))
	r.Use(telemetry.OTelMiddleware(deps.Cfg.OTELServiceName))
	if deps.Metrics != nil {
		r.Use(telemetry.MetricsMiddleware(deps.Metrics))
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/ready", readyHandler(deps.Log, deps.ReadyChecks))

	r.Get("/openapi.yaml", docs.OpenAPIHandler().ServeHTTP)
	r.Get("/docs", docs.ScalarDocsHandler("/openapi.yaml").ServeHTTP)

	var metricsHandler http.Handler = promhttp.Handler()
	if deps.Registry != nil {
		metricsHandler = promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})
	}
	r.With(metricsAuth(deps.Cfg.MetricsToken)).Get("/metrics", metricsHandler.ServeHTTP)

	// Debug routes (dev-only)
	if deps.Cfg.IsDev() && deps.DebugHandler != nil {
		r.Route("/debug", func(r chi.Router) {
			r.With(auth.Middleware(deps.Resolver)).Get("/auth", deps.DebugHandler.GetAuthDebug)
			r.With(auth.Middleware(deps.Resolver), middleware.WorkspaceScope).Get("/auth/workspaces/{workspaceId}", deps.DebugHandler.GetAuthDebug)
			r.Get("/store", deps.DebugHandler.GetStoreDebug)
		})
	}

	if !deps.hasAPI() {
		return r
	}

	// Protected routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.Middleware(deps.Resolver))
		if deps.RateLimiter != nil {
			r.Use(middleware.RateLimitMiddleware(deps.RateLimiter, deps.Cfg.RateLimitPerActorPerMin))
		}

		// Workspaces
		if h := deps.WorkspaceHandler; h != nil {
			r.Post("/workspaces", h.CreateWorkspace)
			r.Route("/workspaces/{workspaceId}", func(r chi.Router) {
				r.Use(middleware.WorkspaceScope)
				r.Get("/", h.GetWorkspace)
				r.Patch("/", h.UpdateWorkspace)
				r.Delete("/", h.DeleteWorkspace)
				r.Put("/master-password", h.ChangeMasterPassword)

				if oh := deps.OfficeHandler; oh != nil {
					r.Get("/offices", oh.ListOffices)
					r.Post("/offices", oh.CreateOffice)
				}
			})
		}

		// Offices
		if h := deps.OfficeHandler; h != nil {
			r.Route("/offices/{officeId}", func(r chi.Router) {
				r.Get("/", h.GetOffice)
				r.Patch("/", h.UpdateOffice)
				r.Delete("/", h.DeleteOffice)

				if rh := deps.RoomHandler; rh != nil {
					r.Get("/rooms", rh.ListRooms)
					r.Post("/rooms", rh.CreateRoom)
				}
			})
		}

		// Rooms
		if h := deps.RoomHandler; h != nil {
			r.Route("/rooms/{roomId}", func(r chi.Router) {
				r.Get("/", h.GetRoom)
				r.Patch("/", h.UpdateRoom)
				r.Delete("/", h.DeleteRoom)
			})
		}

		// Domains and membership
		if h := deps.DomainHandler; h != nil {
			r.Get("/domains", h.ListDomains)
			r.Route("/domains/{domainId}", func(r chi.Router) {
				r.Get("/", h.GetDomain)
				r.Get("/check", h.CheckPermission)
				r.Route("/members", func(r chi.Router) {
					r.Get("/", h.ListMembers)
					r.Post("/", h.AddMember)
					r.Delete("/{userId}", h.RemoveMember)
					r.Patch("/{userId}/permissions", h.UpdateMemberPermissions)
				})
				r.Post("/bans", h.BanUser)
			})
		}

		// Users
		if h := deps.UserHandler; h != nil {
			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/{userId}", h.GetUser)
			})
		}

		// Audit
		if h := deps.AuditHandler; h != nil {
			r.Get("/audit/{resourceId}", h.History)
		}
	})

	return r
}

// readyHandler pings every check and answers 503 naming the first that fails.
func readyHandler(log *logger.Logger, checks []readyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		for _, c := range checks {
			if err := c.Ping(ctx); err != nil {
				log.Error(ctx, "readiness check failed", zap.String("dependency", c.Name), zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"error","message":"` + c.Name + ` unavailable"}`))
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	}
}

// metricsAuth guards /metrics with METRICS_TOKEN, sent either as
// X-Metrics-Token or as a bearer token. An empty token leaves it open.
func metricsAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get("X-Metrics-Token")
			if got == "" {
				if scheme, value, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
					got = strings.TrimSpace(value)
				}
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				httperr.Unauthorized401(w, r.Context(), httperr.ErrCodeInvalidToken, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
