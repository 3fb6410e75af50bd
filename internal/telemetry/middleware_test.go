package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func spanAttrs(s sdktrace.ReadOnlySpan) map[attribute.Key]string {
	out := map[attribute.Key]string{}
	for _, kv := range s.Attributes() {
		out[kv.Key] = kv.Value.Emit()
	}
	return out
}

func TestOTelMiddleware_TagsDomain(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	r := chi.NewRouter()
	r.Use(OTelMiddleware("officeflow-test", otelhttp.WithTracerProvider(tp)))
	noContent := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	r.Route("/v1/offices/{officeId}", func(r chi.Router) {
		r.Get("/", noContent)
		r.Get("/rooms", noContent)
	})
	r.Get("/v1/rooms/{roomId}", noContent)
	r.Get("/v1/domains/{domainId}/check", noContent)
	r.Get("/health", noContent)

	tests := []struct {
		path string
		name string
		kind string
		id   string
	}{
		{"/v1/offices/o-1/rooms", "GET /v1/offices/{officeId}/rooms", "office", "o-1"},
		{"/v1/rooms/r-9", "GET /v1/rooms/{roomId}", "room", "r-9"},
		{"/v1/domains/root/check", "GET /v1/domains/{domainId}/check", KindAnyDomain, "root"},
		{"/health", "GET /health", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			recorder.Reset()
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, http.StatusNoContent, rec.Code)

			spans := recorder.Ended()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.name, spans[0].Name())

			attrs := spanAttrs(spans[0])
			if tt.kind == "" {
				assert.NotContains(t, attrs, AttrDomainKind)
				return
			}
			assert.Equal(t, tt.kind, attrs[AttrDomainKind])
			assert.Equal(t, tt.id, attrs[AttrDomainID])
		})
	}
}

func TestTargetOf_PrefersMostSpecific(t *testing.T) {
	var got RouteTarget
	r := chi.NewRouter()
	r.Get("/v1/workspaces/{workspaceId}/offices/{officeId}", func(w http.ResponseWriter, r *http.Request) {
		got, _ = TargetOf(r)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/workspaces/root/offices/o-2", nil))
	assert.Equal(t, RouteTarget{Kind: "office", ID: "o-2"}, got)

	_, ok := TargetOf(httptest.NewRequest(http.MethodGet, "/v1/rooms/x", nil))
	assert.False(t, ok, "no chi context before routing")
}
