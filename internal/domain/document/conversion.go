package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingType selects how much of an estimate an invoice bills
type BillingType string

const (
	BillingTypeFinal    BillingType = "final"
	BillingTypeProgress BillingType = "progress"
)

// ConversionRequest describes an estimate to invoice conversion
type ConversionRequest struct {
	BillingType BillingType
	// Percentage is required for progress billing and must be in (0, 100]
	Percentage *decimal.Decimal
	Phase      string
	IssueDate  time.Time
	DueDate    *time.Time
}

// Validate checks the billing parameters without touching any estimate
func (r ConversionRequest) Validate() error {
	switch r.BillingType {
	case BillingTypeFinal:
		return nil
	case BillingTypeProgress:
		if r.Percentage == nil {
			return shared.NewValidationError("Progress billing requires a percentage")
		}
		if _, err := valueobject.NewBillingPercentage(*r.Percentage); err != nil {
			return shared.NewValidationError("Invalid progress percentage: %s", err.Error())
		}
		return nil
	}
	return shared.NewValidationError("Billing type must be final or progress, got %q", r.BillingType)
}

// Key identifies the conversion so that retries of the same request map to
// the same invoice: estimate id + billing type + normalized percentage.
func (r ConversionRequest) Key(estimateID uuid.UUID) string {
	if r.BillingType == BillingTypeProgress && r.Percentage != nil {
		return fmt.Sprintf("%s:%s:%s:%s", estimateID, r.BillingType, r.Percentage.String(), strings.ToLower(strings.TrimSpace(r.Phase)))
	}
	return fmt.Sprintf("%s:%s", estimateID, r.BillingType)
}

// ConvertEstimateToInvoice builds a draft invoice from an estimate.
// It is a pure computation; numbering and persistence are left to callers.
//
// The billed base is the estimate subtotal for final billing, or
// subtotal x percentage / 100 for progress billing. Tax and total are always
// recomputed from that base with the estimate's tax rate.
func ConvertEstimateToInvoice(est *Estimate, req ConversionRequest) (*Invoice, error) {
	if est == nil {
		return nil, shared.NewNotFoundError("Estimate")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	issueDate := req.IssueDate
	if issueDate.IsZero() {
		return nil, shared.NewValidationError("Issue date is required")
	}

	invoiceType := InvoiceTypeFinal
	if req.BillingType == BillingTypeProgress {
		invoiceType = InvoiceTypeProgress
	}

	inv, err := newDraftInvoice(est.OwnerID, invoiceType, est.Title, issueDate)
	if err != nil {
		return nil, err
	}

	inv.Items = copyItems(FlattenSections(est.Sections))
	inv.ProjectID = est.ProjectID
	inv.ClientID = est.ClientID
	inv.Client = est.Client
	inv.Contractor = est.Contractor
	inv.Notes = est.Notes
	estimateID := est.ID
	inv.EstimateID = &estimateID
	inv.ConversionKey = req.Key(est.ID)

	rate := est.TaxRatePercentage()
	switch req.BillingType {
	case BillingTypeFinal:
		inv.applyInvoiceTotals(ComputeTotalsForAmount(est.Subtotal, rate))
	case BillingTypeProgress:
		pct, _ := valueobject.NewBillingPercentage(*req.Percentage)
		base := valueobject.Dollars(est.Subtotal).Percent(pct).RoundCents().Amount()
		inv.ProgressBilling = &ProgressBilling{
			Phase:      strings.TrimSpace(req.Phase),
			Percentage: pct.Decimal(),
			Amount:     base,
		}
		inv.applyInvoiceTotals(ComputeTotalsForAmount(base, rate))
	}

	if req.DueDate != nil {
		if err := inv.SetDueDate(*req.DueDate); err != nil {
			return nil, err
		}
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// copyItems gives the invoice its own item identities
func copyItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, item := range items {
		item.ID = uuid.New()
		out[i] = item
	}
	return out
}

// InvoiceFromChangeOrder bills the positive change of an approved change order
func InvoiceFromChangeOrder(co *ChangeOrder, taxRate *decimal.Decimal, issueDate time.Time) (*Invoice, error) {
	if co.Status != ChangeOrderStatusApproved {
		return nil, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot invoice change order in %s status", co.Status))
	}
	if !co.ChangeAmount.IsPositive() {
		return nil, shared.NewValidationError("Only change orders that add cost can be invoiced")
	}
	total := co.ChangeAmount
	item, err := NewLineItem(LineItemSpec{
		Description: co.Title,
		Quantity:    decimal.NewFromInt(1),
		Unit:        "lot",
		UnitPrice:   total,
		Category:    CategoryOther,
		Total:       &total,
	})
	if err != nil {
		return nil, err
	}

	inv, err := NewInvoice(co.OwnerID, InvoiceTypeChangeOrder, co.Title, []LineItem{item}, taxRate, issueDate)
	if err != nil {
		return nil, err
	}
	projectID := co.ProjectID
	inv.ProjectID = &projectID
	inv.ClientID = co.ClientID
	inv.Client = co.Client
	coID := co.ID
	inv.ChangeOrderID = &coID
	return inv, nil
}
