package models

import (
	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
)

// ClientModel is the persistence model for the Client domain entity.
type ClientModel struct {
	OwnedAggregateModel
	Name    string              `gorm:"type:varchar(200);not null"`
	Email   string              `gorm:"type:varchar(200);index"`
	Phone   string              `gorm:"type:varchar(50)"`
	Address valueobject.Address `gorm:"type:jsonb"`
	Notes   string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client entity.
func (m *ClientModel) ToDomain() *partner.Client {
	return &partner.Client{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		Name:               m.Name,
		Email:              m.Email,
		Phone:              m.Phone,
		Address:            m.Address,
		Notes:              m.Notes,
	}
}

// FromDomain populates the persistence model from a domain Client entity.
func (m *ClientModel) FromDomain(c *partner.Client) {
	m.FromDomainOwnedAggregateRoot(c.OwnedAggregateRoot)
	m.Name = c.Name
	m.Email = c.Email
	m.Phone = c.Phone
	m.Address = c.Address
	m.Notes = c.Notes
}

// ClientModelFromDomain creates a new persistence model from a domain Client entity.
func ClientModelFromDomain(c *partner.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}

// ContractorProfileModel is the persistence model for the ContractorProfile entity.
// The migration adds a unique index on owner_id: one profile per account.
type ContractorProfileModel struct {
	OwnedAggregateModel
	BusinessName  string              `gorm:"type:varchar(200);not null"`
	ContactName   string              `gorm:"type:varchar(200)"`
	Email         string              `gorm:"type:varchar(200)"`
	Phone         string              `gorm:"type:varchar(50)"`
	LicenseNumber string              `gorm:"type:varchar(100)"`
	Address       valueobject.Address `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (ContractorProfileModel) TableName() string {
	return "contractor_profiles"
}

// ToDomain converts the persistence model to a domain ContractorProfile.
func (m *ContractorProfileModel) ToDomain() *partner.ContractorProfile {
	return &partner.ContractorProfile{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		BusinessName:       m.BusinessName,
		ContactName:        m.ContactName,
		Email:              m.Email,
		Phone:              m.Phone,
		LicenseNumber:      m.LicenseNumber,
		Address:            m.Address,
	}
}

// ContractorProfileModelFromDomain creates a new persistence model from a domain profile.
func ContractorProfileModelFromDomain(p *partner.ContractorProfile) *ContractorProfileModel {
	m := &ContractorProfileModel{
		BusinessName:  p.BusinessName,
		ContactName:   p.ContactName,
		Email:         p.Email,
		Phone:         p.Phone,
		LicenseNumber: p.LicenseNumber,
		Address:       p.Address,
	}
	m.FromDomainOwnedAggregateRoot(p.OwnedAggregateRoot)
	return m
}
