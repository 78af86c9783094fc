package shared

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is what the application layer needs from any aggregate to
// publish its pending events after a save
type AggregateRoot interface {
	GetID() uuid.UUID
	GetOwnerID() uuid.UUID
	GetVersion() int
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseEntity carries identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetID returns the entity ID
func (e *BaseEntity) GetID() uuid.UUID {
	return e.ID
}

// BaseAggregateRoot adds an optimistic version and pending domain events
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

// GetVersion returns the aggregate version for optimistic locking
func (a *BaseAggregateRoot) GetVersion() int {
	return a.Version
}

// Touch records a modification at the given instant and bumps the version
func (a *BaseAggregateRoot) Touch(at time.Time) {
	a.UpdatedAt = at
	a.Version++
}

// AddDomainEvent queues an event to be published after the next save
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// OwnedAggregateRoot scopes an aggregate to the contractor who owns it.
// Every record is visible to and mutable by its owner only.
type OwnedAggregateRoot struct {
	BaseAggregateRoot
	OwnerID uuid.UUID
}

// NewOwnedAggregateRoot starts a fresh aggregate at version 1
func NewOwnedAggregateRoot(ownerID uuid.UUID) OwnedAggregateRoot {
	now := time.Now()
	return OwnedAggregateRoot{
		BaseAggregateRoot: BaseAggregateRoot{
			BaseEntity: BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			Version:    1,
		},
		OwnerID: ownerID,
	}
}

// GetOwnerID returns the owning contractor
func (o *OwnedAggregateRoot) GetOwnerID() uuid.UUID {
	return o.OwnerID
}
