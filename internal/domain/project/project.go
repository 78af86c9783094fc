package project

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Status represents the status of a project
type Status string

const (
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
)

// IsValid checks if the status is a valid project status
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusOnHold, StatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// Completed projects can be reopened.
func (s Status) CanTransitionTo(target Status) bool {
	if !target.IsValid() || s == target {
		return false
	}
	return true
}

// Aggregate and event type constants
const (
	AggregateTypeProject = "Project"

	EventTypeProjectCreated       = "ProjectCreated"
	EventTypeProjectStatusChanged = "ProjectStatusChanged"
)

// Project groups the estimates, invoices and change orders for one job site
type Project struct {
	shared.OwnedAggregateRoot
	Name        string
	Description string
	ClientID    *uuid.UUID
	Address     valueobject.Address
	Status      Status
	StartDate   *time.Time
	EndDate     *time.Time
}

// NewProject creates an active project
func NewProject(ownerID uuid.UUID, name string, clientID *uuid.UUID) (*Project, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewValidationError("Owner is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Project name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("Project name cannot exceed 200 characters")
	}

	p := &Project{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Name:               name,
		ClientID:           clientID,
		Status:             StatusActive,
	}
	p.AddDomainEvent(NewProjectCreatedEvent(p))
	return p, nil
}

// Update replaces the descriptive fields
func (p *Project) Update(name, description string, address valueobject.Address) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("Project name cannot be empty")
	}
	p.Name = name
	p.Description = description
	p.Address = address
	p.Touch(time.Now())
	return nil
}

// SetSchedule sets the planned start and end dates
func (p *Project) SetSchedule(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return shared.NewValidationError("End date cannot be before start date")
	}
	p.StartDate = start
	p.EndDate = end
	p.UpdatedAt = time.Now()
	return nil
}

// ChangeStatus moves the project to target
func (p *Project) ChangeStatus(target Status) error {
	if !target.IsValid() {
		return shared.NewValidationError("Invalid project status: %s", target)
	}
	if !p.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidTransition, fmt.Sprintf("Project is already %s", p.Status))
	}
	from := p.Status
	p.Status = target
	p.Touch(time.Now())
	p.AddDomainEvent(NewProjectStatusChangedEvent(p, from))
	return nil
}

// ProjectCreatedEvent is published when a project is created
type ProjectCreatedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
}

// NewProjectCreatedEvent creates a new ProjectCreatedEvent
func NewProjectCreatedEvent(p *Project) *ProjectCreatedEvent {
	return &ProjectCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectCreated, AggregateTypeProject, p.ID, p.OwnerID),
		ProjectID:       p.ID,
		Name:            p.Name,
	}
}

// EventType returns the event type name
func (e *ProjectCreatedEvent) EventType() string {
	return EventTypeProjectCreated
}

// ProjectStatusChangedEvent is published on every status change
type ProjectStatusChangedEvent struct {
	shared.BaseDomainEvent
	ProjectID uuid.UUID `json:"project_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
}

// NewProjectStatusChangedEvent creates a new ProjectStatusChangedEvent
func NewProjectStatusChangedEvent(p *Project, from Status) *ProjectStatusChangedEvent {
	return &ProjectStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProjectStatusChanged, AggregateTypeProject, p.ID, p.OwnerID),
		ProjectID:       p.ID,
		From:            from,
		To:              p.Status,
	}
}

// EventType returns the event type name
func (e *ProjectStatusChangedEvent) EventType() string {
	return EventTypeProjectStatusChanged
}

// Repository defines the interface for project persistence
type Repository interface {
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Project, error)
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Project, error)
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)
	Save(ctx context.Context, project *Project) error
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error
}
