package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_AttachesRouteLabels(t *testing.T) {
	var route, method string
	var routeOK bool

	router := gin.New()
	router.Use(Profiling())
	router.POST("/api/v1/estimates/:id/convert", func(c *gin.Context) {
		route, routeOK = pprof.Label(c.Request.Context(), "route")
		method, _ = pprof.Label(c.Request.Context(), "method")
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/estimates/e1/convert", nil))

	assert.True(t, routeOK)
	assert.Equal(t, "/api/v1/estimates/:id/convert", route)
	assert.Equal(t, http.MethodPost, method)
}

func TestProfiling_SkipsHealth(t *testing.T) {
	var labelled bool
	router := gin.New()
	router.Use(Profiling())
	router.GET("/health", func(c *gin.Context) {
		_, labelled = pprof.Label(c.Request.Context(), "route")
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.False(t, labelled)
}

func TestSkipProfiling(t *testing.T) {
	cfg := ProfilingConfig{SkipPaths: []string{"/ready"}, SkipPathPrefixes: []string{"/debug/"}}
	assert.True(t, skipProfiling("/ready", cfg))
	assert.True(t, skipProfiling("/debug/pprof", cfg))
	assert.False(t, skipProfiling("/api/v1/invoices", cfg))
}
