package partner

import (
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ContractorProfile holds the business identity printed on documents.
// There is at most one profile per owner.
type ContractorProfile struct {
	shared.OwnedAggregateRoot
	BusinessName  string
	ContactName   string
	Email         string
	Phone         string
	LicenseNumber string
	Address       valueobject.Address
}

// ContractorDetails carries the editable profile fields
type ContractorDetails struct {
	BusinessName  string
	ContactName   string
	Email         string
	Phone         string
	LicenseNumber string
	Address       valueobject.Address
}

// NewContractorProfile creates the owner's profile
func NewContractorProfile(ownerID uuid.UUID, details ContractorDetails) (*ContractorProfile, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewValidationError("Owner is required")
	}
	p := &ContractorProfile{OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID)}
	if err := p.apply(details); err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the profile details
func (p *ContractorProfile) Update(details ContractorDetails) error {
	if err := p.apply(details); err != nil {
		return err
	}
	p.Touch(time.Now())
	p.AddDomainEvent(NewContractorProfileUpdatedEvent(p))
	return nil
}

func (p *ContractorProfile) apply(d ContractorDetails) error {
	name := strings.TrimSpace(d.BusinessName)
	if err := validateName("Business", name); err != nil {
		return err
	}
	if err := validateContact(d.Phone, d.Email); err != nil {
		return err
	}
	if len(d.LicenseNumber) > 50 {
		return shared.NewValidationError("License number cannot exceed 50 characters")
	}
	p.BusinessName = name
	p.ContactName = strings.TrimSpace(d.ContactName)
	p.Email = strings.TrimSpace(d.Email)
	p.Phone = strings.TrimSpace(d.Phone)
	p.LicenseNumber = strings.TrimSpace(d.LicenseNumber)
	p.Address = d.Address
	return nil
}

// Snapshot freezes the business identity for a document
func (p *ContractorProfile) Snapshot() document.ContractorSnapshot {
	if p == nil {
		return document.ContractorSnapshot{}
	}
	return document.ContractorSnapshot{
		BusinessName:  p.BusinessName,
		ContactName:   p.ContactName,
		Email:         p.Email,
		Phone:         p.Phone,
		LicenseNumber: p.LicenseNumber,
		Address:       p.Address,
	}
}
