package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func newTracedRouter() *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), Tracing(), SpanErrorMarker())
	router.Use(func(c *gin.Context) {
		c.Set(JWTOwnerIDKey, "owner-1")
		c.Next()
	}, TracingAttributeInjector())
	router.GET("/api/v1/estimates/:id", func(c *gin.Context) {
		if c.Param("id") == "gone" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func TestTracing_EnrichesServerSpan(t *testing.T) {
	recorder := withRecorder(t)
	router := newTracedRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/estimates/e1", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /api/v1/estimates/:id", spans[0].Name())
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "req-42", attrs["request_id"].AsString())
	assert.Equal(t, "owner-1", attrs["owner_id"].AsString())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_MarksErrorResponses(t *testing.T) {
	recorder := withRecorder(t)
	router := newTracedRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/estimates/gone", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "Not Found", spans[0].Status().Description)
}

func TestTracing_SkipsHealthChecks(t *testing.T) {
	recorder := withRecorder(t)
	router := newTracedRouter()

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Empty(t, recorder.Ended())
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	recorder := withRecorder(t)
	router := gin.New()
	router.Use(TracingWithConfig(TracingConfig{Enabled: false}))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, recorder.Ended())
}

func TestStatusDescription(t *testing.T) {
	tests := map[int]string{
		http.StatusBadRequest:          "Client Error",
		http.StatusUnauthorized:        "Unauthorized",
		http.StatusNotFound:            "Not Found",
		http.StatusConflict:            "Conflict",
		http.StatusInternalServerError: "Internal Server Error",
	}
	for status, want := range tests {
		assert.Equal(t, want, statusDescription(status), status)
	}
}
