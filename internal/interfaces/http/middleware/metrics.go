package middleware

import (
	"context"
	"time"

	"github.com/fieldbook/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
	Logger        *zap.Logger
}

// httpMetrics holds the HTTP server instruments
type httpMetrics struct {
	requests       metric.Int64Counter
	duration       metric.Float64Histogram
	responseSize   metric.Float64Histogram
	activeRequests metric.Int64UpDownCounter
}

// responseSizeBuckets tops out above typical spreadsheet exports
var responseSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 5000000}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	b := telemetry.NewInstruments(meter)
	m := &httpMetrics{
		requests:       b.Counter("http_server_request_total", "Total number of HTTP requests", "{request}"),
		duration:       b.Histogram("http_server_request_duration_seconds", "HTTP request latency in seconds", "s", telemetry.HTTPDurationBuckets...),
		responseSize:   b.Histogram("http_server_response_size_bytes", "HTTP response body size in bytes", "By", responseSizeBuckets...),
		activeRequests: b.UpDownCounter("http_server_active_requests", "HTTP requests in flight", "{request}"),
	}
	return m, b.Err()
}

// HTTPMetrics records request count, latency, response size and in-flight
// requests, labelled by route pattern rather than raw path
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.MeterProvider == nil || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"), cfg.Logger)
}

// HTTPMetricsWithMeter builds the middleware on an existing meter
func HTTPMetricsWithMeter(meter metric.Meter, log *zap.Logger) gin.HandlerFunc {
	m, err := newHTTPMetrics(meter)
	if err != nil {
		if log != nil {
			log.Warn("HTTP metrics disabled", zap.Error(err))
		}
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.activeRequests.Add(ctx, 1)

		c.Next()

		m.activeRequests.Add(ctx, -1)
		m.record(ctx, c.Request.Method, routePattern(c), c.Writer.Status(), time.Since(start), c.Writer.Size())
	}
}

func (m *httpMetrics) record(ctx context.Context, method, route string, status int, elapsed time.Duration, size int) {
	methodAttr := telemetry.AttrHTTPMethod.String(method)
	routeAttr := telemetry.AttrHTTPRoute.String(route)
	m.requests.Add(ctx, 1, telemetry.Attrs(methodAttr, routeAttr, telemetry.AttrHTTPStatusCode.Int(status)))
	m.duration.Record(ctx, elapsed.Seconds(), telemetry.Attrs(methodAttr, routeAttr))
	if size > 0 {
		m.responseSize.Record(ctx, float64(size), telemetry.Attrs(methodAttr, routeAttr))
	}
}

// routePattern returns the matched route, keeping label cardinality bounded
func routePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}

func passThrough(c *gin.Context) {
	c.Next()
}
