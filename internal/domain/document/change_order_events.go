package document

import (
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeChangeOrder = "ChangeOrder"

// Event type constants
const (
	EventTypeChangeOrderCreated           = "ChangeOrderCreated"
	EventTypeChangeOrderApprovalRequested = "ChangeOrderApprovalRequested"
	EventTypeChangeOrderResponded         = "ChangeOrderResponded"
)

// ChangeOrderCreatedEvent is raised when a change order is drafted.
// It also triggers the first approval notification.
type ChangeOrderCreatedEvent struct {
	shared.BaseDomainEvent
	ChangeOrderID uuid.UUID       `json:"change_order_id"`
	ProjectID     uuid.UUID       `json:"project_id"`
	ChangeAmount  decimal.Decimal `json:"change_amount"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// NewChangeOrderCreatedEvent creates a new ChangeOrderCreatedEvent
func NewChangeOrderCreatedEvent(c *ChangeOrder) *ChangeOrderCreatedEvent {
	return &ChangeOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChangeOrderCreated, AggregateTypeChangeOrder, c.ID, c.OwnerID),
		ChangeOrderID:   c.ID,
		ProjectID:       c.ProjectID,
		ChangeAmount:    c.ChangeAmount,
		ExpiresAt:       c.ExpiresAt,
	}
}

// EventType returns the event type name
func (e *ChangeOrderCreatedEvent) EventType() string {
	return EventTypeChangeOrderCreated
}

// ChangeOrderApprovalRequestedEvent asks for the approval link to be re-sent
type ChangeOrderApprovalRequestedEvent struct {
	shared.BaseDomainEvent
	ChangeOrderID uuid.UUID `json:"change_order_id"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// NewChangeOrderApprovalRequestedEvent creates a new ChangeOrderApprovalRequestedEvent
func NewChangeOrderApprovalRequestedEvent(c *ChangeOrder) *ChangeOrderApprovalRequestedEvent {
	return &ChangeOrderApprovalRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChangeOrderApprovalRequested, AggregateTypeChangeOrder, c.ID, c.OwnerID),
		ChangeOrderID:   c.ID,
		ExpiresAt:       c.ExpiresAt,
	}
}

// EventType returns the event type name
func (e *ChangeOrderApprovalRequestedEvent) EventType() string {
	return EventTypeChangeOrderApprovalRequested
}

// ChangeOrderRespondedEvent is raised when the client approves or declines
type ChangeOrderRespondedEvent struct {
	shared.BaseDomainEvent
	ChangeOrderID  uuid.UUID         `json:"change_order_id"`
	Status         ChangeOrderStatus `json:"status"`
	NewTotalAmount decimal.Decimal   `json:"new_total_amount"`
}

// NewChangeOrderRespondedEvent creates a new ChangeOrderRespondedEvent
func NewChangeOrderRespondedEvent(c *ChangeOrder) *ChangeOrderRespondedEvent {
	return &ChangeOrderRespondedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChangeOrderResponded, AggregateTypeChangeOrder, c.ID, c.OwnerID),
		ChangeOrderID:   c.ID,
		Status:          c.Status,
		NewTotalAmount:  c.NewTotalAmount,
	}
}

// EventType returns the event type name
func (e *ChangeOrderRespondedEvent) EventType() string {
	return EventTypeChangeOrderResponded
}
