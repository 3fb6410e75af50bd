package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"officeflow-api/internal/domain"
)

// Span attribute keys for the domain a request addresses.
const (
	AttrDomainKind = attribute.Key("officeflow.domain.kind")
	AttrDomainID   = attribute.Key("officeflow.domain.id")
)

// KindAnyDomain marks routes that accept an id of any domain type.
const KindAnyDomain = "domain"

// Route params naming a domain, most specific first.
var domainParams = []struct {
	param string
	kind  string
}{
	{"roomId", string(domain.DomainTypeRoom)},
	{"officeId", string(domain.DomainTypeOffice)},
	{"workspaceId", string(domain.DomainTypeWorkspace)},
	{"domainId", KindAnyDomain},
}

// RouteTarget is the domain addressed by a matched route.
type RouteTarget struct {
	Kind string
	ID   string
}

// TargetOf returns the domain addressed by r's matched route. It only
// finds one after chi has finished routing.
func TargetOf(r *http.Request) (RouteTarget, bool) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return RouteTarget{}, false
	}
	for _, p := range domainParams {
		if id := rctx.URLParam(p.param); id != "" {
			return RouteTarget{Kind: p.kind, ID: id}, true
		}
	}
	return RouteTarget{}, false
}

// RoutePattern returns the chi pattern that matched r, or the raw path.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// OTelMiddleware opens an otelhttp span per request. The route is unknown
// when the span starts, so once the handler returns the span is renamed to
// the matched pattern and tagged with the addressed domain.
func OTelMiddleware(serviceName string, opts ...otelhttp.Option) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		tagged := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			span := trace.SpanFromContext(r.Context())
			span.SetName(r.Method + " " + RoutePattern(r))
			if t, ok := TargetOf(r); ok {
				span.SetAttributes(AttrDomainKind.String(t.Kind), AttrDomainID.String(t.ID))
			}
		})
		return otelhttp.NewHandler(tagged, serviceName, opts...)
	}
}

// MetricsMiddleware records request count and duration by method, route,
// status and the kind of domain addressed. Domain ids are left out to keep
// cardinality bounded.
func MetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(ww, r)

			kind := "none"
			if t, ok := TargetOf(r); ok {
				kind = t.Kind
			}
			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", RoutePattern(r)),
				attribute.Int("status", ww.statusCode),
				attribute.String("domain_kind", kind),
			)
			metrics.RequestsTotal.Add(r.Context(), 1, attrs)
			metrics.RequestDuration.Record(r.Context(), time.Since(start).Seconds(), attrs)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
