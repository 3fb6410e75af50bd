package middleware

import (
	"fmt"
	"net/http"
	"time"

	"officeflow-api/internal/auth"
	"officeflow-api/internal/http/httperr"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/ratelimit"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const rateLimitWindowSeconds = 60

// RateLimitMiddleware enforces rate limiting per authenticated actor. It
// must run after the auth middleware; anonymous requests fall back to the
// client address.
func RateLimitMiddleware(limiter *ratelimit.RedisRateLimiter, limitPerMin int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)

			subject, ok := auth.ActorFromContext(ctx)
			if !ok {
				subject = "addr:" + sanitizeRemoteAddr(r.RemoteAddr)
			}

			allowed, remaining, err := limiter.AllowRequest(ctx, subject, limitPerMin, rateLimitWindowSeconds)
			if err != nil {
				// Fail open on limiter errors.
				log.Error(ctx, "rate limit check failed",
					logger.Module("http"),
					logger.Action("rate_limit"),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", limitPerMin))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
			w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(rateLimitWindowSeconds*time.Second).Unix()))

			if !allowed {
				trace.SpanFromContext(ctx).AddEvent("rate_limit_exceeded")

				log.Warn(ctx, "rate limit exceeded",
					logger.Module("http"),
					logger.Action("rate_limit"),
					zap.String("subject", subject),
					zap.Int("limit", limitPerMin),
				)

				w.Header().Set("Retry-After", fmt.Sprintf("%d", rateLimitWindowSeconds))
				httperr.TooManyRequests429(w, ctx, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
