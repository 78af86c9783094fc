package partner

import (
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AddressInput represents a postal address in requests
type AddressInput struct {
	Street     string `json:"street" binding:"max=200"`
	City       string `json:"city" binding:"max=100"`
	State      string `json:"state" binding:"max=50"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"max=50"`
}

// toAddress validates the address; an entirely blank input clears it
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

// ==================== Client DTOs ====================

// CreateClientRequest represents a request to create a client
type CreateClientRequest struct {
	Name    string       `json:"name" binding:"required,min=1,max=200"`
	Email   string       `json:"email" binding:"omitempty,email,max=100"`
	Phone   string       `json:"phone" binding:"max=50"`
	Notes   string       `json:"notes" binding:"max=2000"`
	Address AddressInput `json:"address"`
}

// UpdateClientRequest represents a request to update a client
type UpdateClientRequest struct {
	Name    string       `json:"name" binding:"required,min=1,max=200"`
	Email   string       `json:"email" binding:"omitempty,email,max=100"`
	Phone   string       `json:"phone" binding:"max=50"`
	Notes   string       `json:"notes" binding:"max=2000"`
	Address AddressInput `json:"address"`
}

// ClientListFilter represents filter options for client list
type ClientListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ClientResponse represents a client in API responses
type ClientResponse struct {
	ID        uuid.UUID           `json:"id"`
	Name      string              `json:"name"`
	Email     string              `json:"email,omitempty"`
	Phone     string              `json:"phone,omitempty"`
	Notes     string              `json:"notes,omitempty"`
	Address   valueobject.Address `json:"address"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Version   int                 `json:"version"`
}

// ToClientResponse converts a domain Client to ClientResponse
func ToClientResponse(c *partner.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Notes:     c.Notes,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Version:   c.Version,
	}
}

// ==================== Contractor Profile DTOs ====================

// UpsertContractorProfileRequest creates or replaces the owner's profile
type UpsertContractorProfileRequest struct {
	BusinessName  string       `json:"business_name" binding:"required,min=1,max=200"`
	ContactName   string       `json:"contact_name" binding:"max=100"`
	Email         string       `json:"email" binding:"omitempty,email,max=100"`
	Phone         string       `json:"phone" binding:"max=50"`
	LicenseNumber string       `json:"license_number" binding:"max=50"`
	Address       AddressInput `json:"address"`
}

// ContractorProfileResponse represents the owner's business identity
type ContractorProfileResponse struct {
	ID            uuid.UUID           `json:"id"`
	BusinessName  string              `json:"business_name"`
	ContactName   string              `json:"contact_name,omitempty"`
	Email         string              `json:"email,omitempty"`
	Phone         string              `json:"phone,omitempty"`
	LicenseNumber string              `json:"license_number,omitempty"`
	Address       valueobject.Address `json:"address"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// ToContractorProfileResponse converts a domain ContractorProfile
func ToContractorProfileResponse(p *partner.ContractorProfile) ContractorProfileResponse {
	return ContractorProfileResponse{
		ID:            p.ID,
		BusinessName:  p.BusinessName,
		ContactName:   p.ContactName,
		Email:         p.Email,
		Phone:         p.Phone,
		LicenseNumber: p.LicenseNumber,
		Address:       p.Address,
		UpdatedAt:     p.UpdatedAt,
	}
}
