package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is published after an aggregate change is stored. Handlers
// use EventID for deduplication and OwnerID to stay inside one contractor.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	OwnerID() uuid.UUID
}

// AggregateRef names the document an event is about
type AggregateRef struct {
	ID   uuid.UUID `json:"id"`
	Type string    `json:"type"`
}

// BaseDomainEvent is embedded by every concrete event
type BaseDomainEvent struct {
	ID        uuid.UUID    `json:"id"`
	Type      string       `json:"type"`
	Occurred  time.Time    `json:"occurred_at"`
	Aggregate AggregateRef `json:"aggregate"`
	Owner     uuid.UUID    `json:"owner_id"`
}

func NewBaseDomainEvent(eventType, aggregateType string, aggregateID, ownerID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Occurred:  time.Now().UTC(),
		Aggregate: AggregateRef{ID: aggregateID, Type: aggregateType},
		Owner:     ownerID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID { return e.ID }
func (e *BaseDomainEvent) EventType() string { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time { return e.Occurred }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate.ID }
func (e *BaseDomainEvent) AggregateType() string { return e.Aggregate.Type }
func (e *BaseDomainEvent) OwnerID() uuid.UUID { return e.Owner }
