package auth

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"officeflow-api/internal/http/httperr"
	"officeflow-api/internal/observability/logger"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// Middleware validates the bearer token and injects its claims. The
// actor id is also attached to the logging context.
func Middleware(resolver *KeyResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)

			tokenString, err := bearerToken(r.Header.Get("Authorization"))
			var claims *Claims
			if err == nil {
				claims, err = resolver.Resolve(tokenString)
			}
			if err != nil {
				reason := reasonOf(err)
				log.Warn(ctx, "authentication failed",
					logger.Module("auth"),
					logger.Action("authenticate"),
					zap.String("reason", string(reason)),
					zap.String("token", maskToken(tokenString)),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				httperr.Unauthorized401(w, ctx, reason.Code(), reason.ClientMessage())
				return
			}

			actorID := claims.Actor()
			ctx = context.WithValue(ctx, claimsContextKey, claims)
			ctx = logger.SetUserIDInContext(ctx, actorID)
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("actor_id", actorID))

			log.Debug(ctx, "authenticated request",
				logger.Module("auth"),
				logger.Action("authenticate"),
				zap.String("issuer", claims.Issuer),
			)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims retrieves claims from context
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// ActorFromContext returns the authenticated actor id.
func ActorFromContext(ctx context.Context) (string, bool) {
	claims, ok := GetClaims(ctx)
	if !ok || claims.Actor() == "" {
		return "", false
	}
	return claims.Actor(), true
}

// WithActor attaches an actor to ctx as if a token had been validated.
// Handler tests use it to skip token minting.
func WithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, claimsContextKey, &Claims{ActorID: actorID})
}
