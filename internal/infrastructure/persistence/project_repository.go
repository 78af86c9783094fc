package persistence

import (
	"context"
	"errors"

	"github.com/fieldbook/backend/internal/domain/project"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProjectRepository implements project.Repository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByIDForOwner finds a project by ID for its owner
func (r *GormProjectRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*project.Project, error) {
	var model models.ProjectModel
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

// FindAllForOwner lists projects, filterable by status and client_id
func (r *GormProjectRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]project.Project, error) {
	var projectModels []models.ProjectModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProjectModel{}).Scopes(OwnedBy(ownerID)), filter)
	query = applyPaging(query, filter, ProjectSortFields)

	if err := query.Find(&projectModels).Error; err != nil {
		return nil, err
	}

	projects := make([]project.Project, len(projectModels))
	for i, model := range projectModels {
		projects[i] = *model.ToDomain()
	}
	return projects, nil
}

// CountForOwner counts projects matching the filter
func (r *GormProjectRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ProjectModel{}).Scopes(OwnedBy(ownerID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	return r.db.WithContext(ctx).Save(models.ProjectModelFromDomain(p)).Error
}

// DeleteForOwner deletes a project
func (r *GormProjectRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ProjectModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormProjectRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applySearch(query, filter.Search, "name", "description")
	return applyEqualFilters(query, filter, "status", "client_id")
}

// Ensure GormProjectRepository implements project.Repository
var _ project.Repository = (*GormProjectRepository)(nil)
