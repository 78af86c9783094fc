package document

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/project"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceService handles invoice business operations
type InvoiceService struct {
	invoiceRepo    document.InvoiceRepository
	parties        parties
	settings       Settings
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	opts           options
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo document.InvoiceRepository,
	projectRepo project.Repository,
	clientRepo partner.ClientRepository,
	profileRepo partner.ContractorProfileRepository,
	settings Settings,
	opts ...Option,
) *InvoiceService {
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		parties: parties{
			projectRepo: projectRepo,
			clientRepo:  clientRepo,
			profileRepo: profileRepo,
		},
		settings: settings,
		opts:     buildOptions(opts),
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdempotencyStore lets deletes free the conversion key of a converted invoice
func (s *InvoiceService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// Create creates a draft invoice from raw items or from sections
func (s *InvoiceService) Create(ctx context.Context, ownerID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	now := s.opts.clock()

	refs, err := s.parties.resolve(ctx, ownerID, req.ProjectID, req.ClientID)
	if err != nil {
		return nil, err
	}

	items, err := toLineItems(req.Items)
	if err != nil {
		return nil, err
	}
	if len(req.Sections) > 0 {
		sections, err := toSections(req.Sections)
		if err != nil {
			return nil, err
		}
		items = append(items, document.FlattenSections(sections)...)
	}

	invoiceType := document.InvoiceTypeFinal
	if req.Type != "" {
		invoiceType = document.InvoiceType(req.Type)
	}
	issueDate := now
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	inv, err := document.NewInvoice(ownerID, invoiceType, req.Title, items, s.settings.taxRate(req.TaxRate), issueDate)
	if err != nil {
		return nil, err
	}
	inv.Notes = req.Notes
	inv.SetParties(refs.client, refs.contractor)
	if refs.projectID != nil {
		inv.SetProject(*refs.projectID)
	}
	dueDate := s.settings.dueDate(inv.IssueDate)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	if err := inv.SetDueDate(dueDate); err != nil {
		return nil, err
	}

	if err := s.save(ctx, inv, now); err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv, now)
	return &response, nil
}

// save numbers, stores and announces a new invoice
func (s *InvoiceService) save(ctx context.Context, inv *document.Invoice, now time.Time) error {
	number, err := allocateNumber(ctx, inv.OwnerID, document.PrefixInvoice, now, s.invoiceRepo.ExistsByNumber)
	if err != nil {
		return err
	}
	if err := inv.AssignNumber(number); err != nil {
		return err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return err
	}
	publish(ctx, s.eventPublisher, s.opts, inv)
	s.opts.metrics.DocumentCreated(ctx, "invoice")
	return nil
}

// GetByID retrieves an invoice, correcting any stored totals that drifted
func (s *InvoiceService) GetByID(ctx context.Context, ownerID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	inv, err := s.Load(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv, s.opts.clock())
	return &response, nil
}

// Load returns the consistency-checked domain invoice for read-only renderers
func (s *InvoiceService) Load(ctx context.Context, ownerID, invoiceID uuid.UUID) (*document.Invoice, error) {
	inv, err := s.invoiceRepo.FindByIDForOwner(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	reportMismatches(ctx, s.opts, "invoice", inv.ID, inv.Number, inv.Recalculate())
	return inv, nil
}

// List retrieves a list of invoices with filtering and pagination.
// Overdue is evaluated against a single instant for the whole page.
func (s *InvoiceService) List(ctx context.Context, ownerID uuid.UUID, filter InvoiceListFilter) ([]InvoiceListItemResponse, int64, error) {
	now := s.opts.clock()
	domainFilter := listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	domainFilter.Filters[shared.FilterKeyAsOf] = now
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.Type != "" {
		domainFilter.Filters["type"] = filter.Type
	}
	if filter.ProjectID != nil {
		domainFilter.Filters["project_id"] = *filter.ProjectID
	}
	if filter.ClientID != nil {
		domainFilter.Filters["client_id"] = *filter.ClientID
	}
	if filter.EstimateID != nil {
		domainFilter.Filters["estimate_id"] = *filter.EstimateID
	}

	invoices, err := s.invoiceRepo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.CountForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]InvoiceListItemResponse, len(invoices))
	for i := range invoices {
		items[i] = ToInvoiceListItemResponse(&invoices[i], now)
	}
	return items, total, nil
}

// Update replaces the items of a draft invoice
func (s *InvoiceService) Update(ctx context.Context, ownerID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	now := s.opts.clock()
	inv, err := s.Load(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	items, err := toLineItems(req.Items)
	if err != nil {
		return nil, err
	}
	taxRate := req.TaxRate
	if taxRate == nil {
		rate := inv.TaxRate
		taxRate = &rate
	}
	if err := inv.UpdateItems(req.Title, req.Notes, items, taxRate, now); err != nil {
		return nil, err
	}
	if req.DueDate != nil {
		if err := inv.SetDueDate(*req.DueDate); err != nil {
			return nil, err
		}
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(inv, now)
	return &response, nil
}

// Delete removes a draft invoice. A converted invoice frees its conversion
// key so the estimate can be billed again with the same parameters.
func (s *InvoiceService) Delete(ctx context.Context, ownerID, invoiceID uuid.UUID) error {
	inv, err := s.invoiceRepo.FindByIDForOwner(ctx, ownerID, invoiceID)
	if err != nil {
		return err
	}
	if inv.Status != document.InvoiceStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot delete invoice in %s status", inv.Status))
	}
	if err := s.invoiceRepo.DeleteForOwner(ctx, ownerID, invoiceID); err != nil {
		return err
	}
	if inv.ConversionKey != "" && s.idempotency != nil {
		if err := s.idempotency.Release(ctx, conversionStoreKey(ownerID, inv.ConversionKey)); err != nil {
			logger.WithLogger(ctx, s.opts.logger).Warn("failed to release conversion key",
				zap.String("invoice_id", invoiceID.String()), zap.Error(err))
		}
	}
	return nil
}

// Send marks a draft invoice as sent
func (s *InvoiceService) Send(ctx context.Context, ownerID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, ownerID, invoiceID, func(inv *document.Invoice, now time.Time) error {
		return inv.Send(now)
	})
}

// Cancel retires a draft or sent invoice
func (s *InvoiceService) Cancel(ctx context.Context, ownerID, invoiceID uuid.UUID, req CancelInvoiceRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, ownerID, invoiceID, func(inv *document.Invoice, now time.Time) error {
		return inv.Cancel(req.Reason, now)
	})
}

// RecordPayment records money received against a sent invoice
func (s *InvoiceService) RecordPayment(ctx context.Context, ownerID, invoiceID uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	response, err := s.mutate(ctx, ownerID, invoiceID, func(inv *document.Invoice, now time.Time) error {
		date := now
		if req.Date != nil {
			date = *req.Date
		}
		payment, err := document.NewPayment(req.Amount, date, document.PaymentMethod(req.Method), req.Reference, req.Notes)
		if err != nil {
			return err
		}
		return inv.RecordPayment(payment, now)
	})
	if err != nil {
		return nil, err
	}
	s.opts.metrics.PaymentRecorded(ctx, req.Amount)
	return response, nil
}

// ListPayments returns the payments recorded against an invoice
func (s *InvoiceService) ListPayments(ctx context.Context, ownerID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	inv, err := s.Load(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(inv.Payments), nil
}

// mutate loads an invoice with recomputed totals, applies fn, then stores
// and publishes the result. A failing fn leaves the stored invoice untouched.
func (s *InvoiceService) mutate(ctx context.Context, ownerID, invoiceID uuid.UUID, fn func(*document.Invoice, time.Time) error) (*InvoiceResponse, error) {
	now := s.opts.clock()
	inv, err := s.Load(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := fn(inv, now); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.opts, inv)

	response := ToInvoiceResponse(inv, now)
	return &response, nil
}
