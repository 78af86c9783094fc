package document

import (
	"context"
	"errors"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/project"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ChangeOrderService handles change order business operations, including
// the token-gated client response
type ChangeOrderService struct {
	changeOrderRepo document.ChangeOrderRepository
	invoiceRepo     document.InvoiceRepository
	parties         parties
	settings        Settings
	eventPublisher  shared.EventPublisher
	opts            options
}

// NewChangeOrderService creates a new ChangeOrderService
func NewChangeOrderService(
	changeOrderRepo document.ChangeOrderRepository,
	invoiceRepo document.InvoiceRepository,
	projectRepo project.Repository,
	clientRepo partner.ClientRepository,
	profileRepo partner.ContractorProfileRepository,
	settings Settings,
	opts ...Option,
) *ChangeOrderService {
	return &ChangeOrderService{
		changeOrderRepo: changeOrderRepo,
		invoiceRepo:     invoiceRepo,
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
func (s *ChangeOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a pending change order. The approval link is sent by the
// notification handler listening for ChangeOrderCreated.
func (s *ChangeOrderService) Create(ctx context.Context, ownerID uuid.UUID, req CreateChangeOrderRequest) (*ChangeOrderResponse, error) {
	now := s.opts.clock()

	projectID := req.ProjectID
	refs, err := s.parties.resolve(ctx, ownerID, &projectID, req.ClientID)
	if err != nil {
		return nil, err
	}
	items, err := toLineItems(req.Items)
	if err != nil {
		return nil, err
	}

	co, err := document.NewChangeOrder(ownerID, document.ChangeOrderSpec{
		ProjectID:      projectID,
		Client:         refs.client,
		Title:          req.Title,
		Description:    req.Description,
		Items:          items,
		OriginalAmount: req.OriginalAmount,
		ChangeAmount:   req.ChangeAmount,
	}, s.settings.ChangeOrderTTL, now)
	if err != nil {
		return nil, err
	}

	number, err := allocateNumber(ctx, ownerID, document.PrefixChangeOrder, now, s.changeOrderRepo.ExistsByNumber)
	if err != nil {
		return nil, err
	}
	if err := co.AssignNumber(number); err != nil {
		return nil, err
	}

	if err := s.changeOrderRepo.Save(ctx, co); err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.opts, co)
	s.opts.metrics.DocumentCreated(ctx, "change_order")

	response := ToChangeOrderResponse(co, s.settings.ApprovalURL(co.ApprovalToken), now)
	return &response, nil
}

// GetByID retrieves a change order for its owner
func (s *ChangeOrderService) GetByID(ctx context.Context, ownerID, changeOrderID uuid.UUID) (*ChangeOrderResponse, error) {
	co, err := s.changeOrderRepo.FindByIDForOwner(ctx, ownerID, changeOrderID)
	if err != nil {
		return nil, err
	}
	response := ToChangeOrderResponse(co, s.settings.ApprovalURL(co.ApprovalToken), s.opts.clock())
	return &response, nil
}

// List retrieves change orders with filtering and pagination.
// Expiry is evaluated against a single instant for the whole page.
func (s *ChangeOrderService) List(ctx context.Context, ownerID uuid.UUID, filter ChangeOrderListFilter) ([]ChangeOrderResponse, int64, error) {
	now := s.opts.clock()
	domainFilter := listFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir, filter.Search)
	domainFilter.Filters[shared.FilterKeyAsOf] = now
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.ProjectID != nil {
		domainFilter.Filters["project_id"] = *filter.ProjectID
	}
	if filter.ClientID != nil {
		domainFilter.Filters["client_id"] = *filter.ClientID
	}

	changeOrders, err := s.changeOrderRepo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.changeOrderRepo.CountForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	items := make([]ChangeOrderResponse, len(changeOrders))
	for i := range changeOrders {
		co := &changeOrders[i]
		items[i] = ToChangeOrderResponse(co, s.settings.ApprovalURL(co.ApprovalToken), now)
	}
	return items, total, nil
}

// Update edits a change order while it still awaits an answer
func (s *ChangeOrderService) Update(ctx context.Context, ownerID, changeOrderID uuid.UUID, req UpdateChangeOrderRequest) (*ChangeOrderResponse, error) {
	now := s.opts.clock()
	co, err := s.changeOrderRepo.FindByIDForOwner(ctx, ownerID, changeOrderID)
	if err != nil {
		return nil, err
	}
	if err := co.UpdateDetails(req.Title, req.Description, req.OriginalAmount, req.ChangeAmount, now); err != nil {
		return nil, err
	}
	if err := s.changeOrderRepo.Save(ctx, co); err != nil {
		return nil, err
	}
	response := ToChangeOrderResponse(co, s.settings.ApprovalURL(co.ApprovalToken), now)
	return &response, nil
}

// Delete removes a change order that has not been invoiced
func (s *ChangeOrderService) Delete(ctx context.Context, ownerID, changeOrderID uuid.UUID) error {
	co, err := s.changeOrderRepo.FindByIDForOwner(ctx, ownerID, changeOrderID)
	if err != nil {
		return err
	}
	if co.InvoiceID != nil {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot delete a change order that has been invoiced")
	}
	return s.changeOrderRepo.DeleteForOwner(ctx, ownerID, changeOrderID)
}

// ResendLink asks for the approval link to be sent to the client again
func (s *ChangeOrderService) ResendLink(ctx context.Context, ownerID, changeOrderID uuid.UUID) (*ChangeOrderResponse, error) {
	now := s.opts.clock()
	co, err := s.changeOrderRepo.FindByIDForOwner(ctx, ownerID, changeOrderID)
	if err != nil {
		return nil, err
	}
	if err := co.RequestApproval(now); err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.opts, co)

	response := ToChangeOrderResponse(co, s.settings.ApprovalURL(co.ApprovalToken), now)
	return &response, nil
}

// GetByToken returns the client-facing view behind an approval link
func (s *ChangeOrderService) GetByToken(ctx context.Context, token string) (*PublicChangeOrderResponse, error) {
	co, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	response := ToPublicChangeOrderResponse(co, s.opts.clock())
	return &response, nil
}

// Respond records the client's approve or decline decision
func (s *ChangeOrderService) Respond(ctx context.Context, token string, req RespondChangeOrderRequest) (*PublicChangeOrderResponse, error) {
	now := s.opts.clock()
	co, err := s.findByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := co.Respond(token, document.ClientDecision(req.Decision), req.SignerName, req.Comment, now); err != nil {
		return nil, err
	}
	if err := s.changeOrderRepo.Save(ctx, co); err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.opts, co)

	response := ToPublicChangeOrderResponse(co, now)
	return &response, nil
}

// findByToken hides whether a token never existed behind INVALID_TOKEN
func (s *ChangeOrderService) findByToken(ctx context.Context, token string) (*document.ChangeOrder, error) {
	if token == "" {
		return nil, shared.ErrInvalidToken
	}
	co, err := s.changeOrderRepo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidToken
		}
		return nil, err
	}
	return co, nil
}

// CreateInvoice bills the added cost of an approved change order
func (s *ChangeOrderService) CreateInvoice(ctx context.Context, ownerID, changeOrderID uuid.UUID, req InvoiceChangeOrderRequest) (*InvoiceResponse, error) {
	now := s.opts.clock()
	co, err := s.changeOrderRepo.FindByIDForOwner(ctx, ownerID, changeOrderID)
	if err != nil {
		return nil, err
	}
	if co.InvoiceID != nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Change order has already been invoiced")
	}

	issueDate := now
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	inv, err := document.InvoiceFromChangeOrder(co, s.settings.taxRate(req.TaxRate), issueDate)
	if err != nil {
		return nil, err
	}
	contractor, err := s.parties.contractor(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	inv.SetParties(co.Client, contractor)
	dueDate := s.settings.dueDate(inv.IssueDate)
	if req.DueDate != nil {
		dueDate = *req.DueDate
	}
	if err := inv.SetDueDate(dueDate); err != nil {
		return nil, err
	}

	number, err := allocateNumber(ctx, ownerID, document.PrefixInvoice, now, s.invoiceRepo.ExistsByNumber)
	if err != nil {
		return nil, err
	}
	if err := inv.AssignNumber(number); err != nil {
		return nil, err
	}
	if err := co.LinkInvoice(inv.ID, now); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.Save(ctx, inv); err != nil {
		return nil, err
	}
	if err := s.changeOrderRepo.Save(ctx, co); err != nil {
		return nil, err
	}
	publish(ctx, s.eventPublisher, s.opts, inv)
	s.opts.metrics.DocumentCreated(ctx, "invoice")

	response := ToInvoiceResponse(inv, now)
	return &response, nil
}
