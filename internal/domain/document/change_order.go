package document

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// A credit may reduce the contract value, but not below zero
var errNegativeNewTotal = shared.NewValidationError("Change amount cannot reduce the total below zero")

// ChangeOrderStatus represents the status of a change order.
// Expired is derived on read from ExpiresAt; it is never stored.
type ChangeOrderStatus string

const (
	ChangeOrderStatusPending  ChangeOrderStatus = "pending"
	ChangeOrderStatusApproved ChangeOrderStatus = "approved"
	ChangeOrderStatusDeclined ChangeOrderStatus = "declined"
	ChangeOrderStatusExpired  ChangeOrderStatus = "expired"
)

// IsValid checks if the status is a valid ChangeOrderStatus
func (s ChangeOrderStatus) IsValid() bool {
	switch s {
	case ChangeOrderStatusPending, ChangeOrderStatusApproved, ChangeOrderStatusDeclined, ChangeOrderStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of ChangeOrderStatus
func (s ChangeOrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ChangeOrderStatus) CanTransitionTo(target ChangeOrderStatus) bool {
	if s != ChangeOrderStatusPending {
		return false
	}
	return target == ChangeOrderStatusApproved || target == ChangeOrderStatusDeclined
}

// IsTerminal reports whether no further transition is possible
func (s ChangeOrderStatus) IsTerminal() bool {
	return s != ChangeOrderStatusPending
}

// ClientDecision is the answer a client gives through the approval link
type ClientDecision string

const (
	DecisionApprove ClientDecision = "approve"
	DecisionDecline ClientDecision = "decline"
)

// ClientResponse is captured at most once per change order
type ClientResponse struct {
	Decision    ClientDecision `json:"decision"`
	SignerName  string         `json:"signer_name,omitempty"`
	Comment     string         `json:"comment,omitempty"`
	RespondedAt time.Time      `json:"responded_at"`
}

// ChangeOrder amends the agreed price of a project after work has started
type ChangeOrder struct {
	shared.OwnedAggregateRoot
	Number         string
	ProjectID      uuid.UUID
	ClientID       *uuid.UUID
	Title          string
	Description    string
	Items          []LineItem
	OriginalAmount decimal.Decimal
	ChangeAmount   decimal.Decimal
	NewTotalAmount decimal.Decimal
	Status         ChangeOrderStatus
	ApprovalToken  string
	ExpiresAt      time.Time
	ClientResponse *ClientResponse
	Client         ClientSnapshot
	LinkSentAt     *time.Time
	InvoiceID      *uuid.UUID
}

// ChangeOrderSpec carries the caller-supplied fields for a new change order
type ChangeOrderSpec struct {
	ProjectID      uuid.UUID
	Client         ClientSnapshot
	Title          string
	Description    string
	Items          []LineItem
	OriginalAmount decimal.Decimal
	// ChangeAmount is signed; nil derives it from Items
	ChangeAmount *decimal.Decimal
}

// NewChangeOrder creates a pending change order with a fresh approval token
func NewChangeOrder(ownerID uuid.UUID, spec ChangeOrderSpec, ttl time.Duration, now time.Time) (*ChangeOrder, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewValidationError("Owner is required")
	}
	if spec.ProjectID == uuid.Nil {
		return nil, shared.NewValidationError("Project is required for a change order")
	}
	title := strings.TrimSpace(spec.Title)
	if title == "" {
		return nil, shared.NewValidationError("Change order title cannot be empty")
	}
	if spec.OriginalAmount.IsNegative() {
		return nil, shared.NewValidationError("Original amount cannot be negative")
	}
	if ttl <= 0 {
		return nil, shared.NewValidationError("Approval link lifetime must be positive")
	}

	var change decimal.Decimal
	switch {
	case spec.ChangeAmount != nil:
		change = spec.ChangeAmount.Round(2)
	case len(spec.Items) > 0:
		change = Subtotal(Inputs(spec.Items)).Round(2)
	default:
		return nil, shared.NewValidationError("Change amount or line items are required")
	}

	original := spec.OriginalAmount.Round(2)
	if original.Add(change).IsNegative() {
		return nil, errNegativeNewTotal
	}
	co := &ChangeOrder{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		ProjectID:          spec.ProjectID,
		Title:              title,
		Description:        strings.TrimSpace(spec.Description),
		Items:              spec.Items,
		OriginalAmount:     original,
		ChangeAmount:       change,
		NewTotalAmount:     original.Add(change),
		Status:             ChangeOrderStatusPending,
		ApprovalToken:      newApprovalToken(),
		ExpiresAt:          now.Add(ttl),
		Client:             spec.Client,
	}
	if spec.Client.ClientID != uuid.Nil {
		id := spec.Client.ClientID
		co.ClientID = &id
	}

	co.AddDomainEvent(NewChangeOrderCreatedEvent(co))
	return co, nil
}

func newApprovalToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// AssignNumber sets the business number; it may only be set once
func (c *ChangeOrder) AssignNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return shared.NewValidationError("Document number cannot be empty")
	}
	if c.Number != "" && c.Number != number {
		return shared.NewValidationError("Document number is already assigned")
	}
	c.Number = number
	return nil
}

// EffectiveStatus returns the status a reader should see at now.
// A change order past ExpiresAt without a client response is expired,
// whatever its stored status says.
func (c *ChangeOrder) EffectiveStatus(now time.Time) ChangeOrderStatus {
	if c.ClientResponse == nil && now.After(c.ExpiresAt) {
		return ChangeOrderStatusExpired
	}
	return c.Status
}

// VerifyToken compares the approval token in constant time
func (c *ChangeOrder) VerifyToken(token string) bool {
	return subtle.ConstantTimeCompare([]byte(c.ApprovalToken), []byte(token)) == 1
}

// Respond records the client's decision via the token-gated link
func (c *ChangeOrder) Respond(token string, decision ClientDecision, signerName, comment string, now time.Time) error {
	if !c.VerifyToken(token) {
		return shared.ErrInvalidToken
	}

	var target ChangeOrderStatus
	switch decision {
	case DecisionApprove:
		target = ChangeOrderStatusApproved
	case DecisionDecline:
		target = ChangeOrderStatusDeclined
	default:
		return shared.NewValidationError("Decision must be approve or decline")
	}

	current := c.EffectiveStatus(now)
	if c.ClientResponse != nil || !current.CanTransitionTo(target) {
		return shared.NewInvalidTransitionError("change order", current.String(), target.String())
	}

	c.Status = target
	c.ClientResponse = &ClientResponse{
		Decision:    decision,
		SignerName:  strings.TrimSpace(signerName),
		Comment:     strings.TrimSpace(comment),
		RespondedAt: now,
	}
	c.Touch(now)
	c.AddDomainEvent(NewChangeOrderRespondedEvent(c))
	return nil
}

// RequestApproval re-raises the approval request so the link is sent again.
// Only a change order still awaiting an answer can be re-sent.
func (c *ChangeOrder) RequestApproval(now time.Time) error {
	if status := c.EffectiveStatus(now); status != ChangeOrderStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot send approval link for change order in %s status", status))
	}
	c.AddDomainEvent(NewChangeOrderApprovalRequestedEvent(c))
	return nil
}

// MarkLinkSent records when the approval notification was delivered
func (c *ChangeOrder) MarkLinkSent(now time.Time) {
	c.LinkSentAt = &now
	c.UpdatedAt = now
}

// UpdateDetails edits the change while it is still pending
func (c *ChangeOrder) UpdateDetails(title, description string, originalAmount, changeAmount decimal.Decimal, now time.Time) error {
	if status := c.EffectiveStatus(now); status != ChangeOrderStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot edit change order in %s status", status))
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewValidationError("Change order title cannot be empty")
	}
	if originalAmount.IsNegative() {
		return shared.NewValidationError("Original amount cannot be negative")
	}
	original, change := originalAmount.Round(2), changeAmount.Round(2)
	if original.Add(change).IsNegative() {
		return errNegativeNewTotal
	}
	c.Title = title
	c.Description = strings.TrimSpace(description)
	c.OriginalAmount = original
	c.ChangeAmount = change
	c.NewTotalAmount = original.Add(change)
	c.Touch(now)
	return nil
}

// LinkInvoice records the invoice that bills an approved change order
func (c *ChangeOrder) LinkInvoice(invoiceID uuid.UUID, now time.Time) error {
	if c.Status != ChangeOrderStatusApproved {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot invoice change order in %s status", c.Status))
	}
	if c.InvoiceID != nil {
		return shared.NewDomainError(shared.CodeAlreadyExists, "Change order has already been invoiced")
	}
	c.InvoiceID = &invoiceID
	c.Touch(now)
	return nil
}
