package document

import (
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceCreated   = "InvoiceCreated"
	EventTypeInvoiceSent      = "InvoiceSent"
	EventTypeInvoicePaid      = "InvoicePaid"
	EventTypeInvoiceCancelled = "InvoiceCancelled"
	EventTypePaymentRecorded  = "PaymentRecorded"
)

// InvoiceCreatedEvent is raised when a new invoice is drafted
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Type       InvoiceType     `json:"type"`
	EstimateID *uuid.UUID      `json:"estimate_id,omitempty"`
	Total      decimal.Decimal `json:"total"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(i *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, AggregateTypeInvoice, i.ID, i.OwnerID),
		InvoiceID:       i.ID,
		Type:            i.Type,
		EstimateID:      i.EstimateID,
		Total:           i.Total,
	}
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return EventTypeInvoiceCreated
}

// InvoiceStatusChangedEvent is raised on every stored invoice status transition
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Status        InvoiceStatus   `json:"status"`
	Balance       decimal.Decimal `json:"balance"`
}

// NewInvoiceStatusChangedEvent creates an event of the given type for the invoice's current status
func NewInvoiceStatusChangedEvent(i *Invoice, eventType string) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeInvoice, i.ID, i.OwnerID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.Number,
		Status:          i.Status,
		Balance:         i.Balance,
	}
}

// PaymentRecordedEvent is raised when a payment is appended to an invoice
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Balance   decimal.Decimal `json:"balance"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(i *Invoice, p Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, AggregateTypeInvoice, i.ID, i.OwnerID),
		InvoiceID:       i.ID,
		PaymentID:       p.ID,
		Amount:          p.Amount,
		Method:          p.Method,
		Balance:         i.Balance,
	}
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return EventTypePaymentRecorded
}
