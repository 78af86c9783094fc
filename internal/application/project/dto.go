package project

import (
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/project"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AddressInput represents a job site address in requests
type AddressInput struct {
	Street     string `json:"street" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=50"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"max=50"`
}

func (a AddressInput) toAddress() (valueobject.Address, error) {
	if strings.TrimSpace(a.Street+a.City+a.State+a.PostalCode) == "" {
		return valueobject.Address{}, nil
	}
	addr, err := valueobject.NewAddress(a.Street, a.City, a.State, a.PostalCode)
	if err != nil {
		return valueobject.Address{}, shared.NewValidationError("Invalid address: %s", err.Error())
	}
	if country := strings.TrimSpace(a.Country); country != "" {
		addr.Country = country
	}
	return addr, nil
}

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Name        string       `json:"name" binding:"required,min=1,max=200"`
	Description string       `json:"description" binding:"max=2000"`
	ClientID    *uuid.UUID   `json:"client_id"`
	Address     AddressInput `json:"address"`
	StartDate   *time.Time   `json:"start_date"`
	EndDate     *time.Time   `json:"end_date"`
}

// UpdateProjectRequest represents a request to update a project
type UpdateProjectRequest struct {
	Name        string       `json:"name" binding:"required,min=1,max=200"`
	Description string       `json:"description" binding:"max=2000"`
	Address     AddressInput `json:"address"`
	StartDate   *time.Time   `json:"start_date"`
	EndDate     *time.Time   `json:"end_date"`
}

// ChangeProjectStatusRequest moves a project between active, on hold and completed
type ChangeProjectStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active on_hold completed"`
}

// ProjectListFilter represents filter options for project list
type ProjectListFilter struct {
	Search   string     `form:"search"`
	Status   string     `form:"status" binding:"omitempty,oneof=active on_hold completed"`
	ClientID *uuid.UUID `form:"client_id"`
	Page     int        `form:"page" binding:"min=0"`
	PageSize int        `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	ClientID    *uuid.UUID          `json:"client_id,omitempty"`
	Address     valueobject.Address `json:"address"`
	Status      string              `json:"status"`
	StartDate   *time.Time          `json:"start_date,omitempty"`
	EndDate     *time.Time          `json:"end_date,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Version     int                 `json:"version"`
}

// ToProjectResponse converts a domain Project to ProjectResponse
func ToProjectResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		ClientID:    p.ClientID,
		Address:     p.Address,
		Status:      p.Status.String(),
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
}
