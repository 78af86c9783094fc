package models

import (
	"time"

	"github.com/fieldbook/backend/internal/domain/project"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ProjectModel is the persistence model for the Project domain entity.
type ProjectModel struct {
	OwnedAggregateModel
	Name        string              `gorm:"type:varchar(200);not null"`
	Description string              `gorm:"type:text"`
	ClientID    *uuid.UUID          `gorm:"type:uuid;index"`
	Address     valueobject.Address `gorm:"type:jsonb"`
	Status      project.Status      `gorm:"type:varchar(20);not null;default:'active'"`
	StartDate   *time.Time
	EndDate     *time.Time
}

// TableName returns the table name for GORM
func (ProjectModel) TableName() string {
	return "projects"
}

// ToDomain converts the persistence model to a domain Project.
func (m *ProjectModel) ToDomain() *project.Project {
	return &project.Project{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		Name:               m.Name,
		Description:        m.Description,
		ClientID:           m.ClientID,
		Address:            m.Address,
		Status:             m.Status,
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
	}
}

// ProjectModelFromDomain creates a new persistence model from a domain Project.
func ProjectModelFromDomain(p *project.Project) *ProjectModel {
	m := &ProjectModel{
		Name:        p.Name,
		Description: p.Description,
		ClientID:    p.ClientID,
		Address:     p.Address,
		Status:      p.Status,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
	}
	m.FromDomainOwnedAggregateRoot(p.OwnedAggregateRoot)
	return m
}
