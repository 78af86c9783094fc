package router

import (
	"net/http"

	"github.com/fieldbook/backend/internal/infrastructure/auth"
	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/fieldbook/backend/internal/infrastructure/telemetry"
	"github.com/fieldbook/backend/internal/interfaces/http/handler"
	"github.com/fieldbook/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers served by the API
type Handlers struct {
	System      *handler.SystemHandler
	Auth        *handler.AuthHandler
	Client      *handler.ClientHandler
	Project     *handler.ProjectHandler
	Estimate    *handler.EstimateHandler
	Invoice     *handler.InvoiceHandler
	ChangeOrder *handler.ChangeOrderHandler
	Attachment  *handler.AttachmentHandler
	Dashboard   *handler.DashboardHandler
}

// Options configures the engine built by New
type Options struct {
	HTTP           config.HTTPConfig
	Telemetry      config.TelemetryConfig
	Logger         *zap.Logger
	JWTService     *auth.JWTService
	TokenBlacklist auth.TokenBlacklist
	MeterProvider  *telemetry.MeterProvider
	// RateLimiter is nil when rate limiting is disabled
	RateLimiter *middleware.RateLimiter
	// Swagger serves the API description at /swagger/
	Swagger bool
}

// New builds the gin engine with the full middleware chain and every route
func New(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Invalid trusted proxies, trusting none", zap.Error(err))
			_ = engine.SetTrustedProxies(nil)
		}
	} else {
		_ = engine.SetTrustedProxies(nil)
	}

	tracing := middleware.DefaultTracingConfig()
	if opts.Telemetry.ServiceName != "" {
		tracing.ServiceName = opts.Telemetry.ServiceName
	}
	tracing.Enabled = opts.Telemetry.Enabled

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = opts.HTTP.CORSAllowOrigins
	if len(opts.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = opts.HTTP.CORSAllowMethods
	}
	if len(opts.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = opts.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		middleware.TracingWithConfig(tracing),
		middleware.SpanErrorMarker(),
		logger.GinMiddleware(log),
		middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			MeterProvider: opts.MeterProvider,
			Enabled:       opts.Telemetry.MetricsEnabled,
			Logger:        log,
		}),
		middleware.Secure(),
		middleware.CORSWithConfig(cors),
	)
	if opts.HTTP.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)
	if opts.Swagger {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	jwt := middleware.DefaultJWTConfig(opts.JWTService)
	jwt.TokenBlacklist = opts.TokenBlacklist
	jwt.SkipPaths = append(jwt.SkipPaths, "/api/v1/system/info")
	jwt.Logger = log

	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = opts.Telemetry.ProfilingEnabled

	api := NewAPI("v1").Use(
		middleware.JWTAuthMiddlewareWithConfig(jwt),
		middleware.TracingAttributeInjector(),
		middleware.ProfilingWithConfig(profiling),
	)
	if opts.RateLimiter != nil {
		api.Use(middleware.RateLimit(opts.RateLimiter))
	}
	api.Add(resources(h)...).Mount(engine)
	return engine
}

// resources lays out the API. Public routes rely on the JWT middleware
// skipping the /public/ prefix.
func resources(h Handlers) []Resource {
	return []Resource{
		{Name: "system", Routes: []Route{
			{http.MethodGet, "/health", h.System.Health},
			{http.MethodGet, "/system/info", h.System.GetSystemInfo},
		}},
		{Name: "auth", Prefix: "/auth", Routes: []Route{
			{http.MethodPost, "/logout", h.Auth.Logout},
			{http.MethodPost, "/logout-all", h.Auth.LogoutAll},
		}},
		{Name: "clients", Prefix: "/clients", Routes: crud(h.Client.Create, h.Client.List, h.Client.GetByID, h.Client.Update, h.Client.Delete)},
		{Name: "profile", Prefix: "/profile", Routes: []Route{
			{http.MethodGet, "", h.Client.GetProfile},
			{http.MethodPut, "", h.Client.UpsertProfile},
		}},
		{Name: "projects", Prefix: "/projects", Routes: append(
			crud(h.Project.Create, h.Project.List, h.Project.GetByID, h.Project.Update, h.Project.Delete),
			Route{http.MethodPatch, "/:id/status", h.Project.ChangeStatus},
		)},
		{Name: "estimates", Prefix: "/estimates", Routes: append(
			crud(h.Estimate.Create, h.Estimate.List, h.Estimate.GetByID, h.Estimate.Update, h.Estimate.Delete),
			Route{http.MethodPost, "/:id/send", h.Estimate.Send},
			Route{http.MethodPost, "/:id/approve", h.Estimate.Approve},
			Route{http.MethodPost, "/:id/reject", h.Estimate.Reject},
			Route{http.MethodPost, "/:id/revert", h.Estimate.RevertToDraft},
			Route{http.MethodPost, "/:id/convert", h.Estimate.Convert},
			Route{http.MethodGet, "/:id/export.xlsx", h.Estimate.Export},
		)},
		{Name: "invoices", Prefix: "/invoices", Routes: append(
			crud(h.Invoice.Create, h.Invoice.List, h.Invoice.GetByID, h.Invoice.Update, h.Invoice.Delete),
			Route{http.MethodPost, "/:id/send", h.Invoice.Send},
			Route{http.MethodPost, "/:id/cancel", h.Invoice.Cancel},
			Route{http.MethodPost, "/:id/payments", h.Invoice.RecordPayment},
			Route{http.MethodGet, "/:id/payments", h.Invoice.ListPayments},
			Route{http.MethodGet, "/:id/export.xlsx", h.Invoice.Export},
		)},
		{Name: "change-orders", Prefix: "/change-orders", Routes: append(
			crud(h.ChangeOrder.Create, h.ChangeOrder.List, h.ChangeOrder.GetByID, h.ChangeOrder.Update, h.ChangeOrder.Delete),
			Route{http.MethodPost, "/:id/resend", h.ChangeOrder.ResendLink},
			Route{http.MethodPost, "/:id/invoice", h.ChangeOrder.CreateInvoice},
		)},
		{Name: "attachments", Prefix: "/attachments", Routes: []Route{
			{http.MethodPost, "", h.Attachment.Upload},
			{http.MethodGet, "", h.Attachment.ListByDocument},
			{http.MethodGet, "/:id/download-url", h.Attachment.DownloadURL},
			{http.MethodDelete, "/:id", h.Attachment.Delete},
		}},
		{Name: "dashboard", Prefix: "/dashboard", Routes: []Route{
			{http.MethodGet, "/summary", h.Dashboard.Summary},
		}},
		{Name: "public", Prefix: "/public", Routes: []Route{
			{http.MethodGet, "/change-orders/:token", h.ChangeOrder.GetPublic},
			{http.MethodPost, "/change-orders/:token/respond", h.ChangeOrder.RespondPublic},
		}},
	}
}

// crud is the create/list/get/update/delete set every document resource has
func crud(create, list, get, update, del gin.HandlerFunc) []Route {
	return []Route{
		{http.MethodPost, "", create},
		{http.MethodGet, "", list},
		{http.MethodGet, "/:id", get},
		{http.MethodPut, "/:id", update},
		{http.MethodDelete, "/:id", del},
	}
}
