package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/project"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/fieldbook/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EstimateService handles estimate business operations, including
// conversion of estimates into invoices
type EstimateService struct {
	estimateRepo   document.EstimateRepository
	invoiceRepo    document.InvoiceRepository
	parties        parties
	settings       Settings
	locker         shared.Locker
	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	opts           options
}

// NewEstimateService creates a new EstimateService
func NewEstimateService(
	estimateRepo document.EstimateRepository,
	invoiceRepo document.InvoiceRepository,
	projectRepo project.Repository,
	clientRepo partner.ClientRepository,
	profileRepo partner.ContractorProfileRepository,
	settings Settings,
	opts ...Option,
) *EstimateService {
	return &EstimateService{
		estimateRepo: estimateRepo,
		invoiceRepo:  invoiceRepo,
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
func (s *EstimateService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetConversionGuards sets the lock and idempotency store that serialize
// conversions of the same estimate across instances
func (s *EstimateService) SetConversionGuards(locker shared.Locker, store shared.IdempotencyStore) {
	s.locker = locker
	s.idempotency = store
}

// Create creates a new draft estimate
func (s *EstimateService) Create(ctx context.Context, ownerID uuid.UUID, req CreateEstimateRequest) (*EstimateResponse, error) {
	now := s.opts.clock()

	refs, err := s.parties.resolve(ctx, ownerID, req.ProjectID, req.ClientID)
	if err != nil {
		return nil, err
	}
	sections, err := toSections(req.Sections)
	if err != nil {
		return nil, err
	}

	est, err := document.NewEstimate(ownerID, req.Title, sections, s.settings.taxRate(req.TaxRate), refs.client, refs.contractor)
	if err != nil {
		return nil, err
	}
	est.Notes = req.Notes
	if refs.projectID != nil {
		est.SetProject(*refs.projectID)
	}

	validUntil := now.AddDate(0, 0, s.settings.EstimateValidityDays)
	if req.ValidUntil != nil {
		validUntil = *req.ValidUntil
	}
	if s.settings.EstimateValidityDays > 0 || req.ValidUntil != nil {
		if err := est.SetValidUntil(validUntil); err != nil {
			return nil, err
		}
	}

	number, err := allocateNumber(ctx, ownerID, document.PrefixEstimate, now, s.estimateRepo.ExistsByNumber)
	if err != nil {
		return nil, err
	}
	if err := est.AssignNumber(number); err != nil {
		return nil, err
	}

	if err := s.estimateRepo.Save(ctx, est); err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.opts, est)
	s.opts.metrics.DocumentCreated(ctx, "estimate")

	response := ToEstimateResponse(est, now)
	return &response, nil
}

// GetByID retrieves an estimate, correcting any stored totals that drifted
func (s *EstimateService) GetByID(ctx context.Context, ownerID, estimateID uuid.UUID) (*EstimateResponse, error) {
	est, err := s.load(ctx, ownerID, estimateID)
	if err != nil {
		return nil, err
	}
	response := ToEstimateResponse(est, s.opts.clock())
	return &response, nil
}

// Load returns the consistency-checked domain estimate for read-only renderers
func (s *EstimateService) Load(ctx context.Context, ownerID, estimateID uuid.UUID) (*document.Estimate, error) {
	return s.load(ctx, ownerID, estimateID)
}

func (s *EstimateService) load(ctx context.Context, ownerID, estimateID uuid.UUID) (*document.Estimate, error) {
	est, err := s.estimateRepo.FindByIDForOwner(ctx, ownerID, estimateID)
	if err != nil {
		return nil, err
	}
	reportMismatches(ctx, s.opts, "estimate", est.ID, est.Number, est.Recalculate())
	return est, nil
}

// List retrieves a list of estimates with filtering and pagination
func (s *EstimateService) List(ctx context.Context, ownerID uuid.UUID, filter EstimateListFilter) ([]EstimateListItemResponse, int64, error) {
	domainFilter := listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.ProjectID != nil {
		domainFilter.Filters["project_id"] = *filter.ProjectID
	}
	if filter.ClientID != nil {
		domainFilter.Filters["client_id"] = *filter.ClientID
	}

	estimates, err := s.estimateRepo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.estimateRepo.CountForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]EstimateListItemResponse, len(estimates))
	for i := range estimates {
		items[i] = ToEstimateListItemResponse(&estimates[i])
	}
	return items, total, nil
}

// Update replaces the content of an estimate; its status is unchanged
func (s *EstimateService) Update(ctx context.Context, ownerID, estimateID uuid.UUID, req UpdateEstimateRequest) (*EstimateResponse, error) {
	now := s.opts.clock()
	est, err := s.estimateRepo.FindByIDForOwner(ctx, ownerID, estimateID)
	if err != nil {
		return nil, err
	}
	sections, err := toSections(req.Sections)
	if err != nil {
		return nil, err
	}
	taxRate := req.TaxRate
	if taxRate == nil {
		rate := est.TaxRate
		taxRate = &rate
	}
	if err := est.UpdateContent(req.Title, req.Notes, sections, taxRate, now); err != nil {
		return nil, err
	}
	if req.ValidUntil != nil {
		if err := est.SetValidUntil(*req.ValidUntil); err != nil {
			return nil, err
		}
	}

	if err := s.estimateRepo.Save(ctx, est); err != nil {
		return nil, err
	}
	response := ToEstimateResponse(est, now)
	return &response, nil
}

// Delete removes an estimate that has not been billed
func (s *EstimateService) Delete(ctx context.Context, ownerID, estimateID uuid.UUID) error {
	est, err := s.estimateRepo.FindByIDForOwner(ctx, ownerID, estimateID)
	if err != nil {
		return err
	}
	if len(est.InvoiceIDs) > 0 {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot delete an estimate that has invoices")
	}
	return s.estimateRepo.DeleteForOwner(ctx, ownerID, estimateID)
}

// Send marks a draft estimate as sent to the client
func (s *EstimateService) Send(ctx context.Context, ownerID, estimateID uuid.UUID) (*EstimateResponse, error) {
	return s.transition(ctx, ownerID, estimateID, document.EstimateStatusSent)
}

// Approve records the client's approval
func (s *EstimateService) Approve(ctx context.Context, ownerID, estimateID uuid.UUID) (*EstimateResponse, error) {
	return s.transition(ctx, ownerID, estimateID, document.EstimateStatusApproved)
}

// Reject records the client's rejection
func (s *EstimateService) Reject(ctx context.Context, ownerID, estimateID uuid.UUID) (*EstimateResponse, error) {
	return s.transition(ctx, ownerID, estimateID, document.EstimateStatusRejected)
}

// RevertToDraft moves a sent estimate back to draft
func (s *EstimateService) RevertToDraft(ctx context.Context, ownerID, estimateID uuid.UUID) (*EstimateResponse, error) {
	return s.transition(ctx, ownerID, estimateID, document.EstimateStatusDraft)
}

func (s *EstimateService) transition(ctx context.Context, ownerID, estimateID uuid.UUID, target document.EstimateStatus) (*EstimateResponse, error) {
	now := s.opts.clock()
	est, err := s.estimateRepo.FindByIDForOwner(ctx, ownerID, estimateID)
	if err != nil {
		return nil, err
	}
	if err := est.ChangeStatus(target, now); err != nil {
		return nil, err
	}
	if err := s.estimateRepo.Save(ctx, est); err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.opts, est)

	response := ToEstimateResponse(est, now)
	return &response, nil
}

// Convert creates an invoice from an approved estimate.
//
// Retrying the same request (same estimate, billing type, percentage and
// phase) returns the invoice created the first time instead of a duplicate.
// Concurrent conversions of one estimate are serialized by a lock.
func (s *EstimateService) Convert(ctx context.Context, ownerID, estimateID uuid.UUID, req ConvertEstimateRequest) (*ConversionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "estimate", "convert",
		telemetry.SpanAttrOwnerID, ownerID,
		telemetry.SpanAttrDocumentID, estimateID,
		telemetry.SpanAttrBillingType, req.BillingType,
	)
	defer span.End()

	var (
		response *ConversionResponse
		err      error
	)
	telemetry.WithProfilingLabels(ctx, telemetry.DocumentOperationLabels("convert", "estimate"), func(ctx context.Context) {
		response, err = s.convert(ctx, ownerID, estimateID, req)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span,
		telemetry.SpanAttrNumber, response.Invoice.Number,
		telemetry.SpanAttrAmount, response.Invoice.Total.String(),
		"replayed", response.Replayed,
	)
	return response, nil
}

func (s *EstimateService) convert(ctx context.Context, ownerID, estimateID uuid.UUID, req ConvertEstimateRequest) (*ConversionResponse, error) {
	now := s.opts.clock()
	convReq := document.ConversionRequest{
		BillingType: document.BillingType(req.BillingType),
		Percentage:  req.Percentage,
		Phase:       req.Phase,
		IssueDate:   now,
		DueDate:     req.DueDate,
	}
	if req.IssueDate != nil {
		convReq.IssueDate = *req.IssueDate
	}
	if err := convReq.Validate(); err != nil {
		return nil, err
	}
	key := convReq.Key(estimateID)

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, "estimate:"+estimateID.String(), s.settings.ConversionLockTTL)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.WithLogger(ctx, s.opts.logger).Warn("failed to release conversion lock",
					zap.String("estimate_id", estimateID.String()), zap.Error(err))
			}
		}()
	}

	est, err := s.load(ctx, ownerID, estimateID)
	if err != nil {
		return nil, err
	}

	existing, err := s.invoiceRepo.FindByConversionKey(ctx, ownerID, key)
	switch {
	case err == nil:
		return s.replayConversion(ctx, est, existing, convReq, now)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	if est.Status != document.EstimateStatusApproved {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Only approved estimates can be converted, estimate is %s", est.Status))
	}

	storeKey := conversionStoreKey(ownerID, key)
	if s.idempotency != nil {
		marked, err := s.idempotency.MarkProcessed(ctx, storeKey, s.settings.ConversionIdempotencyTTL)
		if err != nil {
			return nil, err
		}
		if !marked {
			return nil, shared.NewDomainError(shared.CodeConflict, "This conversion is already in progress, retry shortly")
		}
	}

	inv, err := s.createFromEstimate(ctx, est, convReq, now)
	if err != nil {
		if s.idempotency != nil {
			if releaseErr := s.idempotency.Release(context.WithoutCancel(ctx), storeKey); releaseErr != nil {
				logger.WithLogger(ctx, s.opts.logger).Warn("failed to release conversion key",
					zap.String("key", key), zap.Error(releaseErr))
			}
		}
		return nil, err
	}

	s.opts.metrics.EstimateConverted(ctx, req.BillingType, false)
	return &ConversionResponse{Invoice: ToInvoiceResponse(inv, now)}, nil
}

// createFromEstimate runs the conversion engine, numbers and stores the
// invoice, then links it back on the estimate
func (s *EstimateService) createFromEstimate(ctx context.Context, est *document.Estimate, req document.ConversionRequest, now time.Time) (*document.Invoice, error) {
	inv, err := document.ConvertEstimateToInvoice(est, req)
	if err != nil {
		return nil, err
	}
	if inv.DueDate == nil {
		if err := inv.SetDueDate(s.settings.dueDate(inv.IssueDate)); err != nil {
			return nil, err
		}
	}

	number, err := allocateNumber(ctx, est.OwnerID, document.PrefixInvoice, now, s.invoiceRepo.ExistsByNumber)
	if err != nil {
		return nil, err
	}
	if err := inv.AssignNumber(number); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}

	est.LinkInvoice(inv, now)
	if err := s.estimateRepo.Save(ctx, est); err != nil {
		// The invoice carries the conversion key, so a retry re-links it.
		return nil, err
	}

	publish(ctx, s.eventPublisher, s.opts, inv)
	publish(ctx, s.eventPublisher, s.opts, est)
	s.opts.metrics.DocumentCreated(ctx, "invoice")
	return inv, nil
}

// replayConversion returns the invoice from an identical earlier conversion,
// repairing the estimate link if the first attempt stopped short of it
func (s *EstimateService) replayConversion(ctx context.Context, est *document.Estimate, inv *document.Invoice, req document.ConversionRequest, now time.Time) (*ConversionResponse, error) {
	linked := false
	for _, id := range est.InvoiceIDs {
		if id == inv.ID {
			linked = true
			break
		}
	}
	if !linked {
		est.LinkInvoice(inv, now)
		if err := s.estimateRepo.Save(ctx, est); err != nil {
			return nil, err
		}
		publish(ctx, s.eventPublisher, s.opts, est)
	}

	logger.WithLogger(ctx, s.opts.logger).Info("returning invoice from earlier conversion",
		zap.String("estimate_id", est.ID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("billing_type", string(req.BillingType)),
	)
	s.opts.metrics.EstimateConverted(ctx, string(req.BillingType), true)
	reportMismatches(ctx, s.opts, "invoice", inv.ID, inv.Number, inv.Recalculate())
	return &ConversionResponse{Invoice: ToInvoiceResponse(inv, now), Replayed: true}, nil
}

// conversionStoreKey namespaces a conversion key in the idempotency store
func conversionStoreKey(ownerID uuid.UUID, key string) string {
	return "conversion:" + ownerID.String() + ":" + key
}
