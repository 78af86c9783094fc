package persistence

import (
	"context"
	"errors"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEstimateRepository implements document.EstimateRepository using GORM
type GormEstimateRepository struct {
	db *gorm.DB
}

// NewGormEstimateRepository creates a new GormEstimateRepository
func NewGormEstimateRepository(db *gorm.DB) *GormEstimateRepository {
	return &GormEstimateRepository{db: db}
}

// FindByIDForOwner finds an estimate by ID for its owner
func (r *GormEstimateRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*document.Estimate, error) {
	var model models.EstimateModel
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

// FindAllForOwner lists an owner's estimates with filtering
func (r *GormEstimateRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]document.Estimate, error) {
	var estimateModels []models.EstimateModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.EstimateModel{}).Scopes(OwnedBy(ownerID)), filter)
	query = applyPaging(query, filter, EstimateSortFields)

	if err := query.Find(&estimateModels).Error; err != nil {
		return nil, err
	}

	estimates := make([]document.Estimate, len(estimateModels))
	for i, model := range estimateModels {
		estimates[i] = *model.ToDomain()
	}
	return estimates, nil
}

// CountForOwner counts an owner's estimates with optional filters
func (r *GormEstimateRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.EstimateModel{}).Scopes(OwnedBy(ownerID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates an estimate
func (r *GormEstimateRepository) Save(ctx context.Context, estimate *document.Estimate) error {
	return saveError(r.db.WithContext(ctx).Save(models.EstimateModelFromDomain(estimate)).Error, "Estimate")
}

// DeleteForOwner soft-deletes an estimate
func (r *GormEstimateRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.EstimateModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByNumber checks the owner's numbers, deleted estimates included
func (r *GormEstimateRepository) ExistsByNumber(ctx context.Context, ownerID uuid.UUID, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().
		Model(&models.EstimateModel{}).
		Where("owner_id = ? AND number = ?", ownerID, number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormEstimateRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applySearch(query, filter.Search, "number", "title")
	return applyEqualFilters(query, filter, "status", "project_id", "client_id")
}

// Ensure GormEstimateRepository implements EstimateRepository
var _ document.EstimateRepository = (*GormEstimateRepository)(nil)
