package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	attachmentapp "github.com/fieldbook/backend/internal/application/attachment"
	documentapp "github.com/fieldbook/backend/internal/application/document"
	partnerapp "github.com/fieldbook/backend/internal/application/partner"
	projectapp "github.com/fieldbook/backend/internal/application/project"
	"github.com/fieldbook/backend/internal/infrastructure/export"
	"github.com/fieldbook/backend/internal/infrastructure/persistence"
	"github.com/fieldbook/backend/internal/infrastructure/persistence/models"
	"github.com/fieldbook/backend/internal/infrastructure/storage"
	"github.com/fieldbook/backend/internal/interfaces/http/dto"
	"github.com/fieldbook/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ownerHeader lets tests pick the authenticated owner without minting tokens
const ownerHeader = "X-Test-Owner"

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type testServer struct {
	engine  *gin.Engine
	owner   uuid.UUID
	storage *storage.MemoryObjectStorage
}

// envelope mirrors dto.Response with a typed payload
type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ClientModel{},
		&models.ContractorProfileModel{},
		&models.ProjectModel{},
		&models.EstimateModel{},
		&models.InvoiceModel{},
		&models.ChangeOrderModel{},
		&models.AttachmentModel{},
	))

	clientRepo := persistence.NewGormClientRepository(db)
	profileRepo := persistence.NewGormContractorProfileRepository(db)
	projectRepo := persistence.NewGormProjectRepository(db)
	estimateRepo := persistence.NewGormEstimateRepository(db)
	invoiceRepo := persistence.NewGormInvoiceRepository(db)
	changeOrderRepo := persistence.NewGormChangeOrderRepository(db)
	attachmentRepo := persistence.NewGormAttachmentRepository(db)

	settings := documentapp.DefaultSettings()
	settings.PublicBaseURL = "https://app.example.com"
	exporter := export.NewXLSXExporter()
	objects := storage.NewMemoryObjectStorage()

	estimates := documentapp.NewEstimateService(estimateRepo, invoiceRepo, projectRepo, clientRepo, profileRepo, settings)
	invoices := documentapp.NewInvoiceService(invoiceRepo, projectRepo, clientRepo, profileRepo, settings)
	changeOrders := documentapp.NewChangeOrderService(changeOrderRepo, invoiceRepo, projectRepo, clientRepo, profileRepo, settings)
	dashboard := documentapp.NewDashboardService(estimateRepo, invoiceRepo, changeOrderRepo)
	attachments := attachmentapp.NewService(attachmentRepo, estimateRepo, invoiceRepo, changeOrderRepo, objects, nil)

	clientHandler := NewClientHandler(partnerapp.NewClientService(clientRepo), partnerapp.NewContractorProfileService(profileRepo))
	projectHandler := NewProjectHandler(projectapp.NewProjectService(projectRepo, clientRepo))
	estimateHandler := NewEstimateHandler(estimates, exporter)
	invoiceHandler := NewInvoiceHandler(invoices, exporter)
	changeOrderHandler := NewChangeOrderHandler(changeOrders)
	attachmentHandler := NewAttachmentHandler(attachments, 1024)
	dashboardHandler := NewDashboardHandler(dashboard)

	engine := gin.New()
	engine.Use(middleware.RequestID(), func(c *gin.Context) {
		if owner := c.GetHeader(ownerHeader); owner != "" {
			c.Set(middleware.JWTOwnerIDKey, owner)
		}
		c.Next()
	})

	api := engine.Group("/api/v1")
	api.POST("/clients", clientHandler.Create)
	api.GET("/clients", clientHandler.List)
	api.GET("/clients/:id", clientHandler.GetByID)
	api.PUT("/profile", clientHandler.UpsertProfile)
	api.GET("/profile", clientHandler.GetProfile)
	api.POST("/projects", projectHandler.Create)

	api.POST("/estimates", estimateHandler.Create)
	api.GET("/estimates", estimateHandler.List)
	api.GET("/estimates/:id", estimateHandler.GetByID)
	api.POST("/estimates/:id/send", estimateHandler.Send)
	api.POST("/estimates/:id/approve", estimateHandler.Approve)
	api.POST("/estimates/:id/convert", estimateHandler.Convert)
	api.GET("/estimates/:id/export.xlsx", estimateHandler.Export)

	api.POST("/invoices", invoiceHandler.Create)
	api.GET("/invoices/:id", invoiceHandler.GetByID)
	api.POST("/invoices/:id/send", invoiceHandler.Send)
	api.POST("/invoices/:id/cancel", invoiceHandler.Cancel)
	api.POST("/invoices/:id/payments", invoiceHandler.RecordPayment)
	api.GET("/invoices/:id/payments", invoiceHandler.ListPayments)

	api.POST("/change-orders", changeOrderHandler.Create)
	api.POST("/change-orders/:id/invoice", changeOrderHandler.CreateInvoice)
	api.GET("/public/change-orders/:token", changeOrderHandler.GetPublic)
	api.POST("/public/change-orders/:token/respond", changeOrderHandler.RespondPublic)

	api.POST("/attachments", attachmentHandler.Upload)
	api.GET("/attachments", attachmentHandler.ListByDocument)
	api.GET("/attachments/:id/download-url", attachmentHandler.DownloadURL)
	api.DELETE("/attachments/:id", attachmentHandler.Delete)

	api.GET("/dashboard/summary", dashboardHandler.Summary)

	return &testServer{engine: engine, owner: uuid.New(), storage: objects}
}

// do sends a JSON request as the server's owner; a nil owner sends none
func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return s.doAs(t, &s.owner, method, path, body)
}

func (s *testServer) doAs(t *testing.T, owner *uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != nil {
		req.Header.Set(ownerHeader, owner.String())
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder, status int) envelope[T] {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	var resp envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder, status int) *dto.ErrorInfo {
	t.Helper()
	resp := decode[json.RawMessage](t, w, status)
	require.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	return resp.Error
}

func (s *testServer) createClient(t *testing.T, name string) partnerapp.ClientResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/clients", partnerapp.CreateClientRequest{
		Name:  name,
		Email: "client@example.com",
	})
	return decode[partnerapp.ClientResponse](t, w, http.StatusCreated).Data
}

func (s *testServer) createProject(t *testing.T, clientID uuid.UUID) projectapp.ProjectResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/projects", projectapp.CreateProjectRequest{
		Name:     "Kitchen remodel",
		ClientID: &clientID,
	})
	return decode[projectapp.ProjectResponse](t, w, http.StatusCreated).Data
}
