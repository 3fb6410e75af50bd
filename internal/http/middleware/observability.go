package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"officeflow-api/internal/domain"
	"officeflow-api/internal/http/httperr"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/observability/requestid"
	"officeflow-api/internal/telemetry"

	"go.uber.org/zap"
)

// RequestIDMiddleware puts a request id in the context and echoes it in
// the response. Inbound ids that fail requestid.Valid are replaced so that
// clients cannot inject arbitrary text into logs and error bodies.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := requestid.FromHeader(r.Header.Get(requestid.Header))
		ctx := requestid.SetRequestID(r.Context(), reqID)
		w.Header().Set(requestid.Header, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLoggingMiddleware writes one "http request completed" entry per
// request once the handler returns. Besides status and latency it records
// the matched route and the domain the route addresses; the actor comes
// from the request container filled in by the auth middleware. Bodies and
// headers are never logged.
func RequestLoggingMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := logger.SetLoggerInContext(r.Context(), log)
			ctx = logger.InitRootErrorContext(ctx)
			r = r.WithContext(ctx)

			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				logger.Module("http"),
				logger.Action("request"),
				zap.String("method", r.Method),
				zap.String("route", telemetry.RoutePattern(r)),
				zap.String("path", r.URL.Path),
				zap.String("query", sanitizeQuery(r.URL.RawQuery)),
				zap.Int("status", wrapped.statusCode),
				zap.Float64("latency_ms", float64(time.Since(start).Milliseconds())),
				zap.String("remote_addr", sanitizeRemoteAddr(r.RemoteAddr)),
				zap.String("user_agent", sanitizeUserAgent(r.UserAgent())),
			}
			target, hasTarget := telemetry.TargetOf(r)
			if hasTarget {
				fields = append(fields,
					zap.String("domain_kind", target.Kind),
					zap.String("domain_id", target.ID),
				)
			}
			log.Info(ctx, "http request completed", fields...)

			if wrapped.statusCode < 500 {
				return
			}
			rootErr := logger.GetRootError(ctx)
			errFields := []zap.Field{
				logger.Module("http"),
				logger.Action("http_error"),
				zap.Int("status", wrapped.statusCode),
				zap.String("method", r.Method),
				zap.String("route", telemetry.RoutePattern(r)),
				zap.String("kind", classifyError(rootErr)),
			}
			if hasTarget {
				errFields = append(errFields, zap.String("domain_id", target.ID))
			}
			if rootErr != nil {
				errFields = append(errFields, zap.String("err", rootErr.Error()))
				var pgErr *pgconn.PgError
				if errors.As(rootErr, &pgErr) {
					errFields = append(errFields, zap.String("pgcode", pgErr.Code))
				}
			} else {
				errFields = append(errFields, zap.String("err", "internal server error (unspecified cause)"))
			}
			log.Error(ctx, "http_error", errFields...)
		})
	}
}

// RecoveryMiddleware recovers from panics and logs with stack trace
// Prevents service crash while preserving error context
func RecoveryMiddleware(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					// Get stack trace
					stack := string(debug.Stack())
					ctx := r.Context()
					reqID := logger.GetRequestIDFromContext(ctx)

					// Capture panic as root error for logging
					recoveredErr := fmt.Errorf("panic: %v", err)
					logger.SetRootError(ctx, recoveredErr)

					// Log panic_recovered event as required
					log.Error(
						ctx,
						"panic_recovered",
						logger.Module("http"),
						logger.Action("panic_recovery"),
						zap.Any("panic", err),
						zap.String("stack", stack),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("route", telemetry.RoutePattern(r)),
						zap.String("request_id", reqID),
					)

					// Return standardized error via httperr
					httperr.InternalError(w, ctx)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// sanitizeQuery removes sensitive query parameters
// SECURITY: prevent logging tokens, passwords in query strings
func sanitizeQuery(query string) string {
	if query == "" {
		return ""
	}

	// For production: parse and filter sensitive keys (token, password, etc.)
	// For now: truncate long queries to prevent log bloat
	const maxLen = 200
	if len(query) > maxLen {
		return query[:maxLen] + "..."
	}
	return query
}

// sanitizeRemoteAddr removes port from remote address for privacy
// Example: 192.168.1.100:54321 -> 192.168.1.100
func sanitizeRemoteAddr(addr string) string {
	// Simple implementation: could use net.SplitHostPort for production
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			return addr[:i]
		}
	}
	return addr
}

// sanitizeUserAgent truncates user agent to prevent log bloat
func sanitizeUserAgent(ua string) string {
	const maxLen = 100
	if len(ua) > maxLen {
		return ua[:maxLen] + "..."
	}
	return ua
}

// classifyError names the category of a 5xx root cause for the http_error log
func classifyError(err error) string {
	if err == nil {
		return "unknown"
	}

	if strings.HasPrefix(strings.ToLower(err.Error()), "panic") {
		return "panic"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return "db"
	}

	if domain.KindOf(err) == domain.KindStorageFailure {
		return "storage"
	}

	return "unknown"
}
