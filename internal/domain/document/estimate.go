package document

import (
	"fmt"
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstimateStatus represents the status of an estimate
type EstimateStatus string

const (
	EstimateStatusDraft    EstimateStatus = "draft"
	EstimateStatusSent     EstimateStatus = "sent"
	EstimateStatusApproved EstimateStatus = "approved"
	EstimateStatusRejected EstimateStatus = "rejected"
)

// IsValid checks if the status is a valid EstimateStatus
func (s EstimateStatus) IsValid() bool {
	switch s {
	case EstimateStatusDraft, EstimateStatusSent, EstimateStatusApproved, EstimateStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of EstimateStatus
func (s EstimateStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// sent -> draft is the explicit owner "revert to edit" action.
func (s EstimateStatus) CanTransitionTo(target EstimateStatus) bool {
	switch s {
	case EstimateStatusDraft:
		return target == EstimateStatusSent
	case EstimateStatusSent:
		return target == EstimateStatusApproved || target == EstimateStatusRejected || target == EstimateStatusDraft
	case EstimateStatusApproved, EstimateStatusRejected:
		return false
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s EstimateStatus) IsTerminal() bool {
	return s == EstimateStatusApproved || s == EstimateStatusRejected
}

// Estimate is a priced proposal sent to a client before work starts
type Estimate struct {
	FinancialDocument
	Sections   []Section
	Status     EstimateStatus
	ValidUntil *time.Time
	Client     ClientSnapshot
	Contractor ContractorSnapshot
	SentAt     *time.Time
	ApprovedAt *time.Time
	RejectedAt *time.Time
	// InvoiceIDs lists invoices created from this estimate
	InvoiceIDs []uuid.UUID
}

// NewEstimate creates a draft estimate and computes its totals.
// A nil taxRate falls back to DefaultTaxRate.
func NewEstimate(ownerID uuid.UUID, title string, sections []Section, taxRate *decimal.Decimal, client ClientSnapshot, contractor ContractorSnapshot) (*Estimate, error) {
	doc, err := newFinancialDocument(ownerID, title)
	if err != nil {
		return nil, err
	}
	if client.ClientID != uuid.Nil {
		id := client.ClientID
		doc.ClientID = &id
	}

	est := &Estimate{
		FinancialDocument: doc,
		Status:            EstimateStatusDraft,
		Client:            client,
		Contractor:        contractor,
	}
	if err := est.setContent(sections, taxRate); err != nil {
		return nil, err
	}

	est.AddDomainEvent(NewEstimateCreatedEvent(est))
	return est, nil
}

// SetProject links the estimate to a project
func (e *Estimate) SetProject(projectID uuid.UUID) {
	e.ProjectID = &projectID
}

// SetValidUntil sets the date after which the offer lapses
func (e *Estimate) SetValidUntil(t time.Time) error {
	if !t.After(e.CreatedAt) {
		return shared.NewValidationError("Valid-until date must be after the estimate date")
	}
	e.ValidUntil = &t
	return nil
}

// UpdateContent replaces sections, tax rate, title and notes. Sent and
// approved estimates keep their status; RevertToDraft is a separate action.
func (e *Estimate) UpdateContent(title, notes string, sections []Section, taxRate *decimal.Decimal, now time.Time) error {
	if e.Status == EstimateStatusRejected {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot edit estimate in %s status", e.Status))
	}
	title = strings.TrimSpace(title)
	if len(title) > 200 {
		return shared.NewValidationError("Title cannot exceed 200 characters")
	}
	if err := e.setContent(sections, taxRate); err != nil {
		return err
	}
	e.Title = title
	e.Notes = notes
	e.Touch(now)
	return nil
}

func (e *Estimate) setContent(sections []Section, taxRate *decimal.Decimal) error {
	rate, err := ResolveTaxRate(taxRate)
	if err != nil {
		return err
	}
	e.Sections = SortSections(sections)
	e.applyTotals(ComputeTotals(Inputs(FlattenSections(e.Sections)), rate))
	return nil
}

// Recalculate recomputes totals from the sections and reports any stored
// figure that disagreed. The recomputed values always win.
func (e *Estimate) Recalculate() []Mismatch {
	for si := range e.Sections {
		for ii := range e.Sections[si].Items {
			e.Sections[si].Items[ii].Normalize()
		}
	}
	computed := ComputeTotals(Inputs(FlattenSections(e.Sections)), e.TaxRatePercentage())
	diff := computed.Diff(e.Subtotal, e.Tax, e.Total)
	e.applyTotals(computed)
	return diff
}

func (e *Estimate) transition(target EstimateStatus, now time.Time) error {
	if !e.Status.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError("estimate", e.Status.String(), target.String())
	}
	e.Status = target
	e.Touch(now)
	return nil
}

// Send moves a draft estimate to sent
func (e *Estimate) Send(now time.Time) error {
	if len(FlattenSections(e.Sections)) == 0 {
		return shared.NewValidationError("Cannot send an estimate without line items")
	}
	if err := e.transition(EstimateStatusSent, now); err != nil {
		return err
	}
	e.SentAt = &now
	e.AddDomainEvent(NewEstimateStatusChangedEvent(e, EventTypeEstimateSent))
	return nil
}

// Approve records client approval of a sent estimate
func (e *Estimate) Approve(now time.Time) error {
	if err := e.transition(EstimateStatusApproved, now); err != nil {
		return err
	}
	e.ApprovedAt = &now
	e.AddDomainEvent(NewEstimateStatusChangedEvent(e, EventTypeEstimateApproved))
	return nil
}

// Reject records client rejection of a sent estimate
func (e *Estimate) Reject(now time.Time) error {
	if err := e.transition(EstimateStatusRejected, now); err != nil {
		return err
	}
	e.RejectedAt = &now
	e.AddDomainEvent(NewEstimateStatusChangedEvent(e, EventTypeEstimateRejected))
	return nil
}

// RevertToDraft moves a sent estimate back to draft
func (e *Estimate) RevertToDraft(now time.Time) error {
	if err := e.transition(EstimateStatusDraft, now); err != nil {
		return err
	}
	e.SentAt = nil
	e.AddDomainEvent(NewEstimateStatusChangedEvent(e, EventTypeEstimateReverted))
	return nil
}

// ChangeStatus dispatches a requested status to the matching action
func (e *Estimate) ChangeStatus(target EstimateStatus, now time.Time) error {
	switch target {
	case EstimateStatusSent:
		return e.Send(now)
	case EstimateStatusApproved:
		return e.Approve(now)
	case EstimateStatusRejected:
		return e.Reject(now)
	case EstimateStatusDraft:
		return e.RevertToDraft(now)
	}
	return shared.NewInvalidTransitionError("estimate", e.Status.String(), string(target))
}

// IsExpired reports whether the offer's validity date has passed
func (e *Estimate) IsExpired(now time.Time) bool {
	return e.ValidUntil != nil && now.After(*e.ValidUntil)
}

// LinkInvoice records an invoice created from this estimate
func (e *Estimate) LinkInvoice(inv *Invoice, now time.Time) {
	for _, id := range e.InvoiceIDs {
		if id == inv.ID {
			return
		}
	}
	e.InvoiceIDs = append(e.InvoiceIDs, inv.ID)
	e.Touch(now)
	e.AddDomainEvent(NewEstimateConvertedEvent(e, inv))
}

// LineItemCount returns the number of items across all sections
func (e *Estimate) LineItemCount() int {
	return len(FlattenSections(e.Sections))
}
