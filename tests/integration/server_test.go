//go:build integration

package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	attachmentapp "github.com/fieldbook/backend/internal/application/attachment"
	documentapp "github.com/fieldbook/backend/internal/application/document"
	partnerapp "github.com/fieldbook/backend/internal/application/partner"
	projectapp "github.com/fieldbook/backend/internal/application/project"
	"github.com/fieldbook/backend/internal/infrastructure/auth"
	"github.com/fieldbook/backend/internal/infrastructure/cache"
	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/fieldbook/backend/internal/infrastructure/event"
	"github.com/fieldbook/backend/internal/infrastructure/export"
	"github.com/fieldbook/backend/internal/infrastructure/persistence"
	"github.com/fieldbook/backend/internal/infrastructure/storage"
	"github.com/fieldbook/backend/internal/interfaces/http/handler"
	"github.com/fieldbook/backend/internal/interfaces/http/middleware"
	"github.com/fieldbook/backend/internal/interfaces/http/router"
	"github.com/fieldbook/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const publicBaseURL = "https://app.example.com"

// recordingNotifier captures approval requests instead of sending them
type recordingNotifier struct {
	mu   sync.Mutex
	sent []documentapp.ApprovalNotification
}

func (n *recordingNotifier) SendApprovalRequest(_ context.Context, notification documentapp.ApprovalNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) Sent() []documentapp.ApprovalNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]documentapp.ApprovalNotification, len(n.sent))
	copy(out, n.sent)
	return out
}

// apiServer is the full HTTP stack over a real database
type apiServer struct {
	DB        *TestDB
	Engine    *gin.Engine
	JWT       *auth.JWTService
	Notifier  *recordingNotifier
	Events    *testutil.RecordingEventHandler
	Estimates *documentapp.EstimateService
	Storage   *storage.MemoryObjectStorage
}

func newAPIServer(t *testing.T, backends *cache.Backends) *apiServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	testDB := NewTestDB(t)
	log := zap.NewNop()
	if backends == nil {
		backends = cache.NewBackendFactory(config.RedisConfig{}).CreateInMemory()
	}

	clientRepo := persistence.NewGormClientRepository(testDB.DB)
	profileRepo := persistence.NewGormContractorProfileRepository(testDB.DB)
	projectRepo := persistence.NewGormProjectRepository(testDB.DB)
	estimateRepo := persistence.NewGormEstimateRepository(testDB.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(testDB.DB)
	changeOrderRepo := persistence.NewGormChangeOrderRepository(testDB.DB)
	attachmentRepo := persistence.NewGormAttachmentRepository(testDB.DB)

	settings := documentapp.DefaultSettings()
	settings.PublicBaseURL = publicBaseURL
	opts := []documentapp.Option{documentapp.WithLogger(log)}

	clientService := partnerapp.NewClientService(clientRepo)
	profileService := partnerapp.NewContractorProfileService(profileRepo)
	projectService := projectapp.NewProjectService(projectRepo, clientRepo)
	estimateService := documentapp.NewEstimateService(estimateRepo, invoiceRepo, projectRepo, clientRepo, profileRepo, settings, opts...)
	estimateService.SetConversionGuards(backends.Locker, backends.Idempotency)
	invoiceService := documentapp.NewInvoiceService(invoiceRepo, projectRepo, clientRepo, profileRepo, settings, opts...)
	invoiceService.SetIdempotencyStore(backends.Idempotency)
	changeOrderService := documentapp.NewChangeOrderService(changeOrderRepo, invoiceRepo, projectRepo, clientRepo, profileRepo, settings, opts...)
	dashboardService := documentapp.NewDashboardService(estimateRepo, invoiceRepo, changeOrderRepo, opts...)
	objects := storage.NewMemoryObjectStorage()
	attachmentService := attachmentapp.NewService(attachmentRepo, estimateRepo, invoiceRepo, changeOrderRepo, objects, log)

	notifier := &recordingNotifier{}
	recorder := testutil.NewRecordingEventHandler()
	bus := event.NewInMemoryEventBus(log, event.WithAsyncDispatch())
	bus.Subscribe(recorder)
	bus.Subscribe(event.NewIdempotentHandler(
		"change_order_approval",
		documentapp.NewChangeOrderApprovalHandler(changeOrderRepo, notifier, settings, log),
		backends.Idempotency,
		log,
	))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = bus.Stop(ctx)
	})

	clientService.SetEventPublisher(bus)
	profileService.SetEventPublisher(bus)
	projectService.SetEventPublisher(bus)
	estimateService.SetEventPublisher(bus)
	invoiceService.SetEventPublisher(bus)
	changeOrderService.SetEventPublisher(bus)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "integration-secret-integration-secret",
		AccessTokenExpiration: time.Hour,
		Issuer:                "fieldbook-integration",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	exporter := export.NewXLSXExporter()

	engine := router.New(router.Options{
		HTTP:           config.HTTPConfig{MaxBodySize: 10 << 20},
		Logger:         log,
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
	}, router.Handlers{
		System:      handler.NewSystemHandler("integration", map[string]handler.HealthChecker{"database": handler.HealthCheckFunc(testDB.SqlDB.PingContext)}),
		Auth:        handler.NewAuthHandler(blacklist, time.Hour),
		Client:      handler.NewClientHandler(clientService, profileService),
		Project:     handler.NewProjectHandler(projectService),
		Estimate:    handler.NewEstimateHandler(estimateService, exporter),
		Invoice:     handler.NewInvoiceHandler(invoiceService, exporter),
		ChangeOrder: handler.NewChangeOrderHandler(changeOrderService),
		Attachment:  handler.NewAttachmentHandler(attachmentService, 1<<20),
		Dashboard:   handler.NewDashboardHandler(dashboardService),
	})

	return &apiServer{
		DB:        testDB,
		Engine:    engine,
		JWT:       jwtService,
		Notifier:  notifier,
		Events:    recorder,
		Estimates: estimateService,
		Storage:   objects,
	}
}

// clientFor returns an API client authenticated as ownerID
func (s *apiServer) clientFor(t *testing.T, ownerID uuid.UUID) *testutil.APIClient {
	t.Helper()
	token, _, err := s.JWT.GenerateAccessToken(ownerID, "owner@example.com")
	require.NoError(t, err)
	return &testutil.APIClient{Handler: s.Engine, Token: token}
}

// anonymous returns a client without credentials, as a homeowner would be
func (s *apiServer) anonymous() *testutil.APIClient {
	return &testutil.APIClient{Handler: s.Engine}
}
