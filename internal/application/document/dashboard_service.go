package document

import (
	"context"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardSummaryResponse is an owner's money-at-a-glance view
type DashboardSummaryResponse struct {
	AsOf                time.Time       `json:"as_of"`
	OutstandingBalance  decimal.Decimal `json:"outstanding_balance"`
	OpenInvoices        int             `json:"open_invoices"`
	OverdueInvoices     int             `json:"overdue_invoices"`
	OverdueBalance      decimal.Decimal `json:"overdue_balance"`
	PendingChangeOrders int64           `json:"pending_change_orders"`
	EstimatesAwaiting   int64           `json:"estimates_awaiting_response"`
	DraftEstimates      int64           `json:"draft_estimates"`
}

// DashboardService computes summaries across an owner's documents.
// Every derived status in one summary is evaluated at the same instant.
type DashboardService struct {
	estimateRepo    document.EstimateRepository
	invoiceRepo     document.InvoiceRepository
	changeOrderRepo document.ChangeOrderRepository
	opts            options
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(
	estimateRepo document.EstimateRepository,
	invoiceRepo document.InvoiceRepository,
	changeOrderRepo document.ChangeOrderRepository,
	opts ...Option,
) *DashboardService {
	return &DashboardService{
		estimateRepo:    estimateRepo,
		invoiceRepo:     invoiceRepo,
		changeOrderRepo: changeOrderRepo,
		opts:            buildOptions(opts),
	}
}

// Summary returns outstanding and overdue balances plus pending work
func (s *DashboardService) Summary(ctx context.Context, ownerID uuid.UUID) (*DashboardSummaryResponse, error) {
	now := s.opts.clock()
	summary := &DashboardSummaryResponse{
		AsOf:               now,
		OutstandingBalance: decimal.Zero,
		OverdueBalance:     decimal.Zero,
	}

	open, err := s.invoiceRepo.FindOpenForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range open {
		inv := &open[i]
		if !inv.Balance.IsPositive() {
			continue
		}
		summary.OpenInvoices++
		summary.OutstandingBalance = summary.OutstandingBalance.Add(inv.Balance)
		if inv.IsOverdue(now) {
			summary.OverdueInvoices++
			summary.OverdueBalance = summary.OverdueBalance.Add(inv.Balance)
		}
	}

	pendingFilter := shared.Filter{Filters: map[string]interface{}{
		"status":             string(document.ChangeOrderStatusPending),
		shared.FilterKeyAsOf: now,
	}}
	if summary.PendingChangeOrders, err = s.changeOrderRepo.CountForOwner(ctx, ownerID, pendingFilter); err != nil {
		return nil, err
	}

	sentFilter := shared.Filter{Filters: map[string]interface{}{"status": string(document.EstimateStatusSent)}}
	if summary.EstimatesAwaiting, err = s.estimateRepo.CountForOwner(ctx, ownerID, sentFilter); err != nil {
		return nil, err
	}
	draftFilter := shared.Filter{Filters: map[string]interface{}{"status": string(document.EstimateStatusDraft)}}
	if summary.DraftEstimates, err = s.estimateRepo.CountForOwner(ctx, ownerID, draftFilter); err != nil {
		return nil, err
	}

	return summary, nil
}

// CountOverdueInvoices counts overdue invoices across every owner.
// It feeds the overdue gauge and is not exposed over HTTP.
func (s *DashboardService) CountOverdueInvoices(ctx context.Context) (int64, error) {
	now := s.opts.clock()
	owners, err := s.invoiceRepo.ListOwnerIDsWithOpenInvoices(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, ownerID := range owners {
		open, err := s.invoiceRepo.FindOpenForOwner(ctx, ownerID)
		if err != nil {
			return 0, err
		}
		for i := range open {
			if open[i].IsOverdue(now) {
				count++
			}
		}
	}
	return count, nil
}
