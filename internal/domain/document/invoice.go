package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice.
// Overdue is never stored; it is derived on read by EffectiveStatus.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if a stored status can move to target.
// Overdue is not a target: it is computed, never set.
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusSent || target == InvoiceStatusCancelled
	case InvoiceStatusSent:
		return target == InvoiceStatusPaid || target == InvoiceStatusCancelled
	case InvoiceStatusPaid, InvoiceStatusCancelled, InvoiceStatusOverdue:
		return false
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// InvoiceType describes what an invoice bills for
type InvoiceType string

const (
	InvoiceTypeProgress    InvoiceType = "progress"
	InvoiceTypeFinal       InvoiceType = "final"
	InvoiceTypeChangeOrder InvoiceType = "change_order"
	InvoiceTypeRetainer    InvoiceType = "retainer"
)

// IsValid checks if the type is known
func (t InvoiceType) IsValid() bool {
	switch t {
	case InvoiceTypeProgress, InvoiceTypeFinal, InvoiceTypeChangeOrder, InvoiceTypeRetainer:
		return true
	}
	return false
}

// ProgressBilling records the partial amount a progress invoice bills
type ProgressBilling struct {
	Phase      string          `json:"phase"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// Invoice is a bill sent to a client; payments are recorded against it
type Invoice struct {
	FinancialDocument
	Type            InvoiceType
	Status          InvoiceStatus
	Items           []LineItem
	EstimateID      *uuid.UUID
	ChangeOrderID   *uuid.UUID
	ProgressBilling *ProgressBilling
	Payments        []Payment
	AmountPaid      decimal.Decimal
	Balance         decimal.Decimal
	IssueDate       time.Time
	DueDate         *time.Time
	Client          ClientSnapshot
	Contractor      ContractorSnapshot
	// ConversionKey identifies the estimate + billing parameters this invoice was created from
	ConversionKey string
	SentAt        *time.Time
	PaidAt        *time.Time
	CancelledAt   *time.Time
	CancelReason  string
}

// NewInvoice creates a draft invoice billing the given items.
// A nil taxRate falls back to DefaultTaxRate.
func NewInvoice(ownerID uuid.UUID, invoiceType InvoiceType, title string, items []LineItem, taxRate *decimal.Decimal, issueDate time.Time) (*Invoice, error) {
	if !invoiceType.IsValid() {
		return nil, shared.NewValidationError("Invalid invoice type: %s", invoiceType)
	}
	if invoiceType == InvoiceTypeProgress {
		return nil, shared.NewValidationError("Progress invoices are created by converting an estimate")
	}
	rate, err := ResolveTaxRate(taxRate)
	if err != nil {
		return nil, err
	}
	inv, err := newDraftInvoice(ownerID, invoiceType, title, issueDate)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	inv.applyInvoiceTotals(ComputeTotals(Inputs(items), rate))
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

func newDraftInvoice(ownerID uuid.UUID, invoiceType InvoiceType, title string, issueDate time.Time) (*Invoice, error) {
	doc, err := newFinancialDocument(ownerID, title)
	if err != nil {
		return nil, err
	}
	if issueDate.IsZero() {
		issueDate = doc.CreatedAt
	}
	return &Invoice{
		FinancialDocument: doc,
		Type:              invoiceType,
		Status:            InvoiceStatusDraft,
		Items:             make([]LineItem, 0),
		Payments:          make([]Payment, 0),
		AmountPaid:        decimal.Zero,
		IssueDate:         issueDate,
	}, nil
}

// applyInvoiceTotals sets document totals and resets balance against payments
func (i *Invoice) applyInvoiceTotals(t Totals) {
	i.applyTotals(t)
	i.Balance = i.Total.Sub(i.AmountPaid)
}

// SetDueDate sets the payment due date; it cannot precede the issue date
func (i *Invoice) SetDueDate(due time.Time) error {
	if due.Before(i.IssueDate.Truncate(24 * time.Hour)) {
		return shared.NewValidationError("Due date cannot be before the issue date")
	}
	i.DueDate = &due
	return nil
}

// SetProject links the invoice to a project
func (i *Invoice) SetProject(projectID uuid.UUID) {
	i.ProjectID = &projectID
}

// SetParties records client and contractor snapshots
func (i *Invoice) SetParties(client ClientSnapshot, contractor ContractorSnapshot) {
	i.Client = client
	i.Contractor = contractor
	if client.ClientID != uuid.Nil {
		id := client.ClientID
		i.ClientID = &id
	}
}

// UpdateItems replaces the billed items; allowed only while draft and not
// on progress invoices, whose base comes from the estimate.
func (i *Invoice) UpdateItems(title, notes string, items []LineItem, taxRate *decimal.Decimal, now time.Time) error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot edit invoice in %s status", i.Status))
	}
	if i.ProgressBilling != nil {
		return shared.NewDomainError(shared.CodeInvalidState, "Cannot edit items of a progress invoice")
	}
	title = strings.TrimSpace(title)
	if len(title) > 200 {
		return shared.NewValidationError("Title cannot exceed 200 characters")
	}
	rate, err := ResolveTaxRate(taxRate)
	if err != nil {
		return err
	}
	i.Items = items
	i.Title = title
	i.Notes = notes
	i.applyInvoiceTotals(ComputeTotals(Inputs(items), rate))
	i.Touch(now)
	return nil
}

// computeTotals returns what the stored totals should be. Progress invoices
// bill a fixed base, every other invoice bills its items.
func (i *Invoice) computeTotals() Totals {
	if i.ProgressBilling != nil {
		return ComputeTotalsForAmount(i.ProgressBilling.Amount, i.TaxRatePercentage())
	}
	return ComputeTotals(Inputs(i.Items), i.TaxRatePercentage())
}

// Recalculate recomputes totals, amount paid and balance. Any stored figure
// that disagreed is reported; the recomputed values always win.
func (i *Invoice) Recalculate() []Mismatch {
	if i.ProgressBilling == nil {
		for idx := range i.Items {
			i.Items[idx].Normalize()
		}
	}
	computed := i.computeTotals()
	diff := computed.Diff(i.Subtotal, i.Tax, i.Total)

	paid := SumPayments(i.Payments)
	if !paid.Equal(i.AmountPaid) {
		diff = append(diff, Mismatch{Field: "amount_paid", Stored: i.AmountPaid, Computed: paid})
	}
	i.AmountPaid = paid
	storedBalance := i.Balance
	i.applyInvoiceTotals(computed)
	if !storedBalance.Equal(i.Balance) {
		diff = append(diff, Mismatch{Field: "balance", Stored: storedBalance, Computed: i.Balance})
	}
	return diff
}

// EffectiveStatus returns the status a reader should see at now.
// A sent invoice past its due date with money still owed is overdue.
func (i *Invoice) EffectiveStatus(now time.Time) InvoiceStatus {
	if i.IsOverdue(now) {
		return InvoiceStatusOverdue
	}
	return i.Status
}

// IsOverdue reports dueDate < now && balance > 0 on a sent invoice
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status == InvoiceStatusSent &&
		i.DueDate != nil &&
		i.DueDate.Before(now) &&
		i.Balance.IsPositive()
}

func (i *Invoice) transition(target InvoiceStatus, now time.Time) error {
	if !i.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError("invoice", i.Status.String(), target.String())
	}
	i.Status = target
	i.Touch(now)
	return nil
}

// Send moves a draft invoice to sent
func (i *Invoice) Send(now time.Time) error {
	if err := i.transition(InvoiceStatusSent, now); err != nil {
		return err
	}
	i.SentAt = &now
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, EventTypeInvoiceSent))
	return nil
}

// Cancel retires a draft or sent invoice
func (i *Invoice) Cancel(reason string, now time.Time) error {
	if err := i.transition(InvoiceStatusCancelled, now); err != nil {
		return err
	}
	i.CancelledAt = &now
	i.CancelReason = reason
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, EventTypeInvoiceCancelled))
	return nil
}

// MarkPaid is the explicit owner action; it requires a settled balance
func (i *Invoice) MarkPaid(now time.Time) error {
	if i.Balance.IsPositive() {
		return shared.NewInvalidTransitionError("invoice", i.Status.String(), InvoiceStatusPaid.String())
	}
	if err := i.transition(InvoiceStatusPaid, now); err != nil {
		return err
	}
	i.PaidAt = &now
	i.AddDomainEvent(NewInvoiceStatusChangedEvent(i, EventTypeInvoicePaid))
	return nil
}

// RecordPayment appends a payment and reduces the balance by exactly its
// amount. Overpayment is accepted; the invoice flips to paid as soon as the
// balance reaches zero or below.
func (i *Invoice) RecordPayment(p Payment, now time.Time) error {
	if i.Status != InvoiceStatusSent {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot record a payment on an invoice in %s status", i.Status))
	}
	for _, existing := range i.Payments {
		if existing.ID == p.ID {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Payment already recorded")
		}
	}

	p.RecordedAt = now
	i.Payments = append(i.Payments, p)
	i.AmountPaid = SumPayments(i.Payments)
	i.Balance = i.Total.Sub(i.AmountPaid)
	i.Touch(now)
	i.AddDomainEvent(NewPaymentRecordedEvent(i, p))

	if !i.Balance.IsPositive() {
		return i.MarkPaid(now)
	}
	return nil
}

// ChangeStatus dispatches a requested status to the matching action
func (i *Invoice) ChangeStatus(target InvoiceStatus, now time.Time) error {
	switch target {
	case InvoiceStatusSent:
		return i.Send(now)
	case InvoiceStatusCancelled:
		return i.Cancel("", now)
	case InvoiceStatusPaid:
		return i.MarkPaid(now)
	}
	return shared.NewInvalidTransitionError("invoice", i.Status.String(), string(target))
}
