package partner

import (
	"context"
	"errors"

	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ContractorProfileService manages the single business profile of an owner
type ContractorProfileService struct {
	profileRepo    partner.ContractorProfileRepository
	eventPublisher shared.EventPublisher
}

// NewContractorProfileService creates a new ContractorProfileService
func NewContractorProfileService(profileRepo partner.ContractorProfileRepository) *ContractorProfileService {
	return &ContractorProfileService{
		profileRepo: profileRepo,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ContractorProfileService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Get returns the owner's profile
func (s *ContractorProfileService) Get(ctx context.Context, ownerID uuid.UUID) (*ContractorProfileResponse, error) {
	profile, err := s.profileRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	response := ToContractorProfileResponse(profile)
	return &response, nil
}

// Upsert creates the profile on first use and replaces it afterwards
func (s *ContractorProfileService) Upsert(ctx context.Context, ownerID uuid.UUID, req UpsertContractorProfileRequest) (*ContractorProfileResponse, error) {
	address, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}
	details := partner.ContractorDetails{
		BusinessName:  req.BusinessName,
		ContactName:   req.ContactName,
		Email:         req.Email,
		Phone:         req.Phone,
		LicenseNumber: req.LicenseNumber,
		Address:       address,
	}

	profile, err := s.profileRepo.FindByOwner(ctx, ownerID)
	switch {
	case err == nil:
		if err := profile.Update(details); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		profile, err = partner.NewContractorProfile(ownerID, details)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, err
	}
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, profile.GetDomainEvents()...)
	}
	profile.ClearDomainEvents()

	response := ToContractorProfileResponse(profile)
	return &response, nil
}
