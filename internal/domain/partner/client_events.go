package partner

import (
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeClient            = "Client"
	AggregateTypeContractorProfile = "ContractorProfile"
)

// Event type constants
const (
	EventTypeClientCreated            = "ClientCreated"
	EventTypeClientUpdated            = "ClientUpdated"
	EventTypeContractorProfileUpdated = "ContractorProfileUpdated"
)

// ClientCreatedEvent is published when a new client is created
type ClientCreatedEvent struct {
	shared.BaseDomainEvent
	ClientID uuid.UUID `json:"client_id"`
	Name     string    `json:"name"`
}

// NewClientCreatedEvent creates a new ClientCreatedEvent
func NewClientCreatedEvent(c *Client) *ClientCreatedEvent {
	return &ClientCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientCreated, AggregateTypeClient, c.ID, c.OwnerID),
		ClientID:        c.ID,
		Name:            c.Name,
	}
}

// EventType returns the event type name
func (e *ClientCreatedEvent) EventType() string {
	return EventTypeClientCreated
}

// ClientUpdatedEvent is published when client details change
type ClientUpdatedEvent struct {
	shared.BaseDomainEvent
	ClientID uuid.UUID `json:"client_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
}

// NewClientUpdatedEvent creates a new ClientUpdatedEvent
func NewClientUpdatedEvent(c *Client) *ClientUpdatedEvent {
	return &ClientUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeClientUpdated, AggregateTypeClient, c.ID, c.OwnerID),
		ClientID:        c.ID,
		Name:            c.Name,
		Email:           c.Email,
		Phone:           c.Phone,
	}
}

// EventType returns the event type name
func (e *ClientUpdatedEvent) EventType() string {
	return EventTypeClientUpdated
}

// ContractorProfileUpdatedEvent is published when business details change
type ContractorProfileUpdatedEvent struct {
	shared.BaseDomainEvent
	BusinessName  string `json:"business_name"`
	LicenseNumber string `json:"license_number,omitempty"`
}

// NewContractorProfileUpdatedEvent creates a new ContractorProfileUpdatedEvent
func NewContractorProfileUpdatedEvent(p *ContractorProfile) *ContractorProfileUpdatedEvent {
	return &ContractorProfileUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractorProfileUpdated, AggregateTypeContractorProfile, p.ID, p.OwnerID),
		BusinessName:    p.BusinessName,
		LicenseNumber:   p.LicenseNumber,
	}
}

// EventType returns the event type name
func (e *ContractorProfileUpdatedEvent) EventType() string {
	return EventTypeContractorProfileUpdated
}
