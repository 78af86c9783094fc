package document

import (
	"context"
	"sync"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/project"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockEstimateRepository is a mock implementation of EstimateRepository
type MockEstimateRepository struct {
	mock.Mock
}

func (m *MockEstimateRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*document.Estimate, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Estimate), args.Error(1)
}

func (m *MockEstimateRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]document.Estimate, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Estimate), args.Error(1)
}

func (m *MockEstimateRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEstimateRepository) Save(ctx context.Context, estimate *document.Estimate) error {
	args := m.Called(ctx, estimate)
	return args.Error(0)
}

func (m *MockEstimateRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockEstimateRepository) ExistsByNumber(ctx context.Context, ownerID uuid.UUID, number string) (bool, error) {
	args := m.Called(ctx, ownerID, number)
	return args.Bool(0), args.Error(1)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*document.Invoice, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]document.Invoice, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInvoiceRepository) FindByEstimate(ctx context.Context, ownerID, estimateID uuid.UUID) ([]document.Invoice, error) {
	args := m.Called(ctx, ownerID, estimateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByConversionKey(ctx context.Context, ownerID uuid.UUID, key string) (*document.Invoice, error) {
	args := m.Called(ctx, ownerID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindOpenForOwner(ctx context.Context, ownerID uuid.UUID) ([]document.Invoice, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *document.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ExistsByNumber(ctx context.Context, ownerID uuid.UUID, number string) (bool, error) {
	args := m.Called(ctx, ownerID, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) ListOwnerIDsWithOpenInvoices(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockChangeOrderRepository is a mock implementation of ChangeOrderRepository
type MockChangeOrderRepository struct {
	mock.Mock
}

func (m *MockChangeOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.ChangeOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.ChangeOrder), args.Error(1)
}

func (m *MockChangeOrderRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*document.ChangeOrder, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.ChangeOrder), args.Error(1)
}

func (m *MockChangeOrderRepository) FindByToken(ctx context.Context, token string) (*document.ChangeOrder, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.ChangeOrder), args.Error(1)
}

func (m *MockChangeOrderRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]document.ChangeOrder, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.ChangeOrder), args.Error(1)
}

func (m *MockChangeOrderRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockChangeOrderRepository) FindByProject(ctx context.Context, ownerID, projectID uuid.UUID) ([]document.ChangeOrder, error) {
	args := m.Called(ctx, ownerID, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]document.ChangeOrder), args.Error(1)
}

func (m *MockChangeOrderRepository) Save(ctx context.Context, changeOrder *document.ChangeOrder) error {
	args := m.Called(ctx, changeOrder)
	return args.Error(0)
}

func (m *MockChangeOrderRepository) MarkLinkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockChangeOrderRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockChangeOrderRepository) ExistsByNumber(ctx context.Context, ownerID uuid.UUID, number string) (bool, error) {
	args := m.Called(ctx, ownerID, number)
	return args.Bool(0), args.Error(1)
}

// MockProjectRepository is a mock implementation of project.Repository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*project.Project, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*project.Project), args.Error(1)
}

func (m *MockProjectRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]project.Project, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]project.Project), args.Error(1)
}

func (m *MockProjectRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProjectRepository) Save(ctx context.Context, p *project.Project) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProjectRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockClientRepository is a mock implementation of partner.ClientRepository
type MockClientRepository struct {
	mock.Mock
}

func (m *MockClientRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*partner.Client, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Client), args.Error(1)
}

func (m *MockClientRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]partner.Client, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Client), args.Error(1)
}

func (m *MockClientRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, ownerID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockClientRepository) Save(ctx context.Context, client *partner.Client) error {
	args := m.Called(ctx, client)
	return args.Error(0)
}

func (m *MockClientRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockContractorProfileRepository is a mock implementation of partner.ContractorProfileRepository
type MockContractorProfileRepository struct {
	mock.Mock
}

func (m *MockContractorProfileRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*partner.ContractorProfile, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.ContractorProfile), args.Error(1)
}

func (m *MockContractorProfileRepository) Save(ctx context.Context, profile *partner.ContractorProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// =============================================================================
// Mock collaborators
// =============================================================================

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockLocker is a mock implementation of shared.Locker
type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	args := m.Called(ctx, key, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(shared.Lock), args.Error(1)
}

// MockLock is a mock implementation of shared.Lock
type MockLock struct {
	mock.Mock
}

func (m *MockLock) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockApprovalNotifier is a mock implementation of ApprovalNotifier
type MockApprovalNotifier struct {
	mock.Mock
}

func (m *MockApprovalNotifier) SendApprovalRequest(ctx context.Context, n ApprovalNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// recordingMetrics counts calls instead of exporting them
type recordingMetrics struct {
	mu              sync.Mutex
	created         map[string]int
	converted       int
	replayed        int
	payments        []decimal.Decimal
	inconsistencies map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		created:         make(map[string]int),
		inconsistencies: make(map[string]int),
	}
}

func (r *recordingMetrics) DocumentCreated(_ context.Context, docType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created[docType]++
}

func (r *recordingMetrics) EstimateConverted(_ context.Context, _ string, replayed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if replayed {
		r.replayed++
		return
	}
	r.converted++
}

func (r *recordingMetrics) PaymentRecorded(_ context.Context, amount decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, amount)
}

func (r *recordingMetrics) InconsistencyDetected(_ context.Context, docType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inconsistencies[docType]++
}
