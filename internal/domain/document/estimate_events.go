package document

import (
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeEstimate = "Estimate"

// Event type constants
const (
	EventTypeEstimateCreated   = "EstimateCreated"
	EventTypeEstimateSent      = "EstimateSent"
	EventTypeEstimateApproved  = "EstimateApproved"
	EventTypeEstimateRejected  = "EstimateRejected"
	EventTypeEstimateReverted  = "EstimateRevertedToDraft"
	EventTypeEstimateConverted = "EstimateConverted"
)

// EstimateCreatedEvent is raised when a new estimate is drafted
type EstimateCreatedEvent struct {
	shared.BaseDomainEvent
	EstimateID uuid.UUID       `json:"estimate_id"`
	Total      decimal.Decimal `json:"total"`
}

// NewEstimateCreatedEvent creates a new EstimateCreatedEvent
func NewEstimateCreatedEvent(e *Estimate) *EstimateCreatedEvent {
	return &EstimateCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEstimateCreated, AggregateTypeEstimate, e.ID, e.OwnerID),
		EstimateID:      e.ID,
		Total:           e.Total,
	}
}

// EventType returns the event type name
func (e *EstimateCreatedEvent) EventType() string {
	return EventTypeEstimateCreated
}

// EstimateStatusChangedEvent is raised on every estimate status transition
type EstimateStatusChangedEvent struct {
	shared.BaseDomainEvent
	EstimateID     uuid.UUID      `json:"estimate_id"`
	EstimateNumber string         `json:"estimate_number"`
	Status         EstimateStatus `json:"status"`
}

// NewEstimateStatusChangedEvent creates an event of the given type for the estimate's current status
func NewEstimateStatusChangedEvent(e *Estimate, eventType string) *EstimateStatusChangedEvent {
	return &EstimateStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeEstimate, e.ID, e.OwnerID),
		EstimateID:      e.ID,
		EstimateNumber:  e.Number,
		Status:          e.Status,
	}
}

// EstimateConvertedEvent is raised when an invoice is created from an estimate
type EstimateConvertedEvent struct {
	shared.BaseDomainEvent
	EstimateID  uuid.UUID       `json:"estimate_id"`
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	InvoiceType InvoiceType     `json:"invoice_type"`
	BilledBase  decimal.Decimal `json:"billed_base"`
}

// NewEstimateConvertedEvent creates a new EstimateConvertedEvent
func NewEstimateConvertedEvent(e *Estimate, inv *Invoice) *EstimateConvertedEvent {
	return &EstimateConvertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEstimateConverted, AggregateTypeEstimate, e.ID, e.OwnerID),
		EstimateID:      e.ID,
		InvoiceID:       inv.ID,
		InvoiceType:     inv.Type,
		BilledBase:      inv.Subtotal,
	}
}

// EventType returns the event type name
func (e *EstimateConvertedEvent) EventType() string {
	return EventTypeEstimateConverted
}
