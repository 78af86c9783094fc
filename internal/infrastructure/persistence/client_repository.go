package persistence

import (
	"context"
	"errors"

	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormClientRepository implements partner.ClientRepository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByIDForOwner finds a client by ID within an owner's book
func (r *GormClientRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*partner.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner lists an owner's clients
func (r *GormClientRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]partner.Client, error) {
	var clientModels []models.ClientModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClientModel{}).Scopes(OwnedBy(ownerID)), filter)
	query = applyPaging(query, filter, ClientSortFields)

	if err := query.Find(&clientModels).Error; err != nil {
		return nil, err
	}

	clients := make([]partner.Client, len(clientModels))
	for i, model := range clientModels {
		clients[i] = *model.ToDomain()
	}
	return clients, nil
}

// CountForOwner counts an owner's clients matching the filter
func (r *GormClientRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ClientModel{}).Scopes(OwnedBy(ownerID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a client
func (r *GormClientRepository) Save(ctx context.Context, client *partner.Client) error {
	return r.db.WithContext(ctx).Save(models.ClientModelFromDomain(client)).Error
}

// DeleteForOwner deletes a client within an owner's book
func (r *GormClientRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ClientModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormClientRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	return applySearch(query, filter.Search, "name", "email", "phone")
}

// Ensure GormClientRepository implements ClientRepository
var _ partner.ClientRepository = (*GormClientRepository)(nil)

// GormContractorProfileRepository implements partner.ContractorProfileRepository using GORM
type GormContractorProfileRepository struct {
	db *gorm.DB
}

// NewGormContractorProfileRepository creates a new GormContractorProfileRepository
func NewGormContractorProfileRepository(db *gorm.DB) *GormContractorProfileRepository {
	return &GormContractorProfileRepository{db: db}
}

// FindByOwner returns the owner's profile or shared.ErrNotFound
func (r *GormContractorProfileRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) (*partner.ContractorProfile, error) {
	var model models.ContractorProfileModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates the profile
func (r *GormContractorProfileRepository) Save(ctx context.Context, profile *partner.ContractorProfile) error {
	return r.db.WithContext(ctx).Save(models.ContractorProfileModelFromDomain(profile)).Error
}

// Ensure GormContractorProfileRepository implements ContractorProfileRepository
var _ partner.ContractorProfileRepository = (*GormContractorProfileRepository)(nil)
