package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/fieldbook/backend/docs"
	attachmentapp "github.com/fieldbook/backend/internal/application/attachment"
	documentapp "github.com/fieldbook/backend/internal/application/document"
	partnerapp "github.com/fieldbook/backend/internal/application/partner"
	projectapp "github.com/fieldbook/backend/internal/application/project"
	"github.com/fieldbook/backend/internal/infrastructure/auth"
	"github.com/fieldbook/backend/internal/infrastructure/cache"
	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/fieldbook/backend/internal/infrastructure/event"
	"github.com/fieldbook/backend/internal/infrastructure/export"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/fieldbook/backend/internal/infrastructure/notification"
	"github.com/fieldbook/backend/internal/infrastructure/persistence"
	"github.com/fieldbook/backend/internal/infrastructure/storage"
	"github.com/fieldbook/backend/internal/infrastructure/telemetry"
	"github.com/fieldbook/backend/internal/interfaces/http/handler"
	"github.com/fieldbook/backend/internal/interfaces/http/middleware"
	"github.com/fieldbook/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Fieldbook API
//	@version		1.0
//	@description	Estimates, invoices and change orders for contractors

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var (
	_ documentapp.Metrics   = (*telemetry.DocumentMetrics)(nil)
	_ event.OutcomeRecorder = (*telemetry.DocumentMetrics)(nil)
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.App.Name,
		Version: version,
		Env:     cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(baseLog)
	}()

	ctx := context.Background()

	// Telemetry providers are no-ops when disabled
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log := loggerProvider.Bridge(baseLog, zapcore.InfoLevel)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	log.Info("Starting Fieldbook API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.Connect(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	var documentMetrics *telemetry.DocumentMetrics
	if meterProvider.IsEnabled() {
		dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("fieldbook/db"), telemetry.DBMetricsConfig{
			SlowQueryThreshold: dbTracing.SlowQueryThresh,
		}, log)
		if err != nil {
			log.Fatal("Failed to create database metrics", zap.Error(err))
		}
		if err := dbMetrics.Register(db.DB); err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
		if sqlDB, err := db.DB.DB(); err == nil {
			dbMetrics.StartPoolStats(ctx, sqlDB)
		}
		defer dbMetrics.Stop()

		documentMetrics, err = telemetry.NewDocumentMetrics(meterProvider.Meter("fieldbook/documents"), log)
		if err != nil {
			log.Fatal("Failed to create document metrics", zap.Error(err))
		}
		defer documentMetrics.Stop()
	}
	log.Info("Database connected successfully")

	backends, err := cache.NewBackendFactory(cfg.Redis, cache.WithLogger(log)).Create(ctx)
	if err != nil {
		log.Fatal("Failed to initialize coordination backends", zap.Error(err))
	}
	defer func() {
		if err := backends.Close(); err != nil {
			log.Error("Error closing coordination backends", zap.Error(err))
		}
	}()

	var tokenBlacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if backends.Distributed() {
		tokenBlacklist = auth.NewRedisTokenBlacklist(backends.Client)
	}

	var objects attachmentapp.ObjectStorage
	if cfg.Storage.Enabled() {
		s3Store, err := storage.NewS3Store(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		bucketCtx, cancelBucket := context.WithTimeout(ctx, 10*time.Second)
		err = s3Store.EnsureBucket(bucketCtx)
		cancelBucket()
		if err != nil {
			log.Fatal("Attachment bucket unavailable", zap.String("bucket", s3Store.Bucket()), zap.Error(err))
		}
		objects = s3Store
	} else {
		log.Warn("Object storage not configured, attachments are kept in memory")
		objects = storage.NewMemoryObjectStorage()
	}

	clientRepo := persistence.NewGormClientRepository(db.DB)
	profileRepo := persistence.NewGormContractorProfileRepository(db.DB)
	projectRepo := persistence.NewGormProjectRepository(db.DB)
	estimateRepo := persistence.NewGormEstimateRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	changeOrderRepo := persistence.NewGormChangeOrderRepository(db.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(db.DB)

	settings := billingSettings(cfg.Billing)
	docOpts := []documentapp.Option{documentapp.WithLogger(log)}
	if documentMetrics != nil {
		docOpts = append(docOpts, documentapp.WithMetrics(documentMetrics))
	}

	clientService := partnerapp.NewClientService(clientRepo)
	profileService := partnerapp.NewContractorProfileService(profileRepo)
	projectService := projectapp.NewProjectService(projectRepo, clientRepo)
	estimateService := documentapp.NewEstimateService(estimateRepo, invoiceRepo, projectRepo, clientRepo, profileRepo, settings, docOpts...)
	estimateService.SetConversionGuards(backends.Locker, backends.Idempotency)
	invoiceService := documentapp.NewInvoiceService(invoiceRepo, projectRepo, clientRepo, profileRepo, settings, docOpts...)
	invoiceService.SetIdempotencyStore(backends.Idempotency)
	changeOrderService := documentapp.NewChangeOrderService(changeOrderRepo, invoiceRepo, projectRepo, clientRepo, profileRepo, settings, docOpts...)
	dashboardService := documentapp.NewDashboardService(estimateRepo, invoiceRepo, changeOrderRepo, docOpts...)
	attachmentService := attachmentapp.NewService(attachmentRepo, estimateRepo, invoiceRepo, changeOrderRepo, objects, log)
	attachmentConfig := attachmentapp.DefaultConfig()
	if cfg.Storage.PresignExpiration > 0 {
		attachmentConfig.DownloadURLExpiry = cfg.Storage.PresignExpiration
	}
	attachmentService.SetConfig(attachmentConfig)

	var notifier documentapp.ApprovalNotifier = documentapp.NewLoggingApprovalNotifier(log)
	if cfg.Notification.WebhookURL != "" {
		webhook, err := notification.NewWebhookNotifier(notification.WebhookConfig{
			URL:     cfg.Notification.WebhookURL,
			Secret:  cfg.Notification.WebhookSecret,
			Timeout: cfg.Notification.Timeout,
		})
		if err != nil {
			log.Fatal("Failed to initialize webhook notifier", zap.Error(err))
		}
		notifier = webhook
	}

	// Approval links go out after the request returns; a failed send leaves
	// the change order pending for a resend.
	eventBus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	var handlerOpts []event.IdempotentHandlerOption
	if documentMetrics != nil {
		handlerOpts = append(handlerOpts, event.WithOutcomeRecorder(documentMetrics))
	}
	eventBus.Subscribe(event.NewIdempotentHandler(
		"change_order_approval",
		documentapp.NewChangeOrderApprovalHandler(changeOrderRepo, notifier, settings, log),
		backends.Idempotency,
		log,
		handlerOpts...,
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	clientService.SetEventPublisher(eventBus)
	profileService.SetEventPublisher(eventBus)
	projectService.SetEventPublisher(eventBus)
	estimateService.SetEventPublisher(eventBus)
	invoiceService.SetEventPublisher(eventBus)
	changeOrderService.SetEventPublisher(eventBus)

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	if documentMetrics != nil {
		documentMetrics.StartOverdueCollection(bgCtx, dashboardService, cfg.Telemetry.MetricsCollectInterval)
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		rateLimiter.StartCleanup(bgCtx)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	exporter := export.NewXLSXExporter()
	checks := map[string]handler.HealthChecker{"database": db}
	if backends.Distributed() {
		checks["redis"] = handler.HealthCheckFunc(func(ctx context.Context) error {
			return backends.Client.Ping(ctx).Err()
		})
	}

	engine := router.New(router.Options{
		HTTP:           cfg.HTTP,
		Telemetry:      cfg.Telemetry,
		Logger:         log,
		JWTService:     auth.NewJWTService(cfg.JWT),
		TokenBlacklist: tokenBlacklist,
		MeterProvider:  meterProvider,
		RateLimiter:    rateLimiter,
		Swagger:        cfg.App.Env != "production",
	}, router.Handlers{
		System:      handler.NewSystemHandler(version, checks),
		Auth:        handler.NewAuthHandler(tokenBlacklist, cfg.JWT.AccessTokenExpiration),
		Client:      handler.NewClientHandler(clientService, profileService),
		Project:     handler.NewProjectHandler(projectService),
		Estimate:    handler.NewEstimateHandler(estimateService, exporter),
		Invoice:     handler.NewInvoiceHandler(invoiceService, exporter),
		ChangeOrder: handler.NewChangeOrderHandler(changeOrderService),
		Attachment:  handler.NewAttachmentHandler(attachmentService, cfg.Storage.MaxUploadSize),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopBackground()

	if err := profiler.Stop(); err != nil {
		log.Warn("Error stopping profiler", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing traces", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Error flushing metrics", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		baseLog.Warn("Error flushing logs", zap.Error(err))
	}
}

// billingSettings maps the billing section of the config onto the document
// services' settings, keeping defaults for anything left unset
func billingSettings(cfg config.BillingConfig) documentapp.Settings {
	settings := documentapp.DefaultSettings()
	rate := cfg.DefaultTaxRate
	settings.DefaultTaxRate = &rate
	if cfg.EstimateValidityDays > 0 {
		settings.EstimateValidityDays = cfg.EstimateValidityDays
	}
	if cfg.InvoiceDueDays > 0 {
		settings.InvoiceDueDays = cfg.InvoiceDueDays
	}
	if cfg.ChangeOrderTTL > 0 {
		settings.ChangeOrderTTL = cfg.ChangeOrderTTL
	}
	if cfg.ConversionIdempotencyTTL > 0 {
		settings.ConversionIdempotencyTTL = cfg.ConversionIdempotencyTTL
	}
	if cfg.ConversionLockTTL > 0 {
		settings.ConversionLockTTL = cfg.ConversionLockTTL
	}
	if cfg.PublicBaseURL != "" {
		settings.PublicBaseURL = cfg.PublicBaseURL
	}
	return settings
}
