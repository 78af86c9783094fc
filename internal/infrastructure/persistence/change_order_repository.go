package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormChangeOrderRepository implements document.ChangeOrderRepository using GORM
type GormChangeOrderRepository struct {
	db *gorm.DB
}

// NewGormChangeOrderRepository creates a new GormChangeOrderRepository
func NewGormChangeOrderRepository(db *gorm.DB) *GormChangeOrderRepository {
	return &GormChangeOrderRepository{db: db}
}

// FindByID finds a change order by ID regardless of owner
func (r *GormChangeOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*document.ChangeOrder, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByIDForOwner finds a change order by ID for its owner
func (r *GormChangeOrderRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*document.ChangeOrder, error) {
	return r.findOne(ctx, "owner_id = ? AND id = ?", ownerID, id)
}

// FindByToken finds a change order by its approval token
func (r *GormChangeOrderRepository) FindByToken(ctx context.Context, token string) (*document.ChangeOrder, error) {
	if token == "" {
		return nil, shared.ErrNotFound
	}
	return r.findOne(ctx, "approval_token = ?", token)
}

func (r *GormChangeOrderRepository) findOne(ctx context.Context, cond string, args ...any) (*document.ChangeOrder, error) {
	var model models.ChangeOrderModel
	if err := r.db.WithContext(ctx).Where(cond, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner lists an owner's change orders with filtering
func (r *GormChangeOrderRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]document.ChangeOrder, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ChangeOrderModel{}).Scopes(OwnedBy(ownerID)), filter)
	return r.find(applyPaging(query, filter, ChangeOrderSortFields))
}

// CountForOwner counts an owner's change orders with optional filters
func (r *GormChangeOrderRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.ChangeOrderModel{}).Scopes(OwnedBy(ownerID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByProject lists change orders for one project, oldest first
func (r *GormChangeOrderRepository) FindByProject(ctx context.Context, ownerID, projectID uuid.UUID) ([]document.ChangeOrder, error) {
	return r.find(r.db.WithContext(ctx).
		Where("owner_id = ? AND project_id = ?", ownerID, projectID).
		Order("created_at ASC"))
}

// Save creates or updates a change order
func (r *GormChangeOrderRepository) Save(ctx context.Context, changeOrder *document.ChangeOrder) error {
	return saveError(r.db.WithContext(ctx).Save(models.ChangeOrderModelFromDomain(changeOrder)).Error, "Change order")
}

// MarkLinkSent updates link_sent_at only, so a concurrent client response is not overwritten
func (r *GormChangeOrderRepository) MarkLinkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.ChangeOrderModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"link_sent_at": at, "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteForOwner soft-deletes a change order
func (r *GormChangeOrderRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ChangeOrderModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByNumber checks the owner's numbers, deleted change orders included
func (r *GormChangeOrderRepository) ExistsByNumber(ctx context.Context, ownerID uuid.UUID, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().
		Model(&models.ChangeOrderModel{}).
		Where("owner_id = ? AND number = ?", ownerID, number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormChangeOrderRepository) find(query *gorm.DB) ([]document.ChangeOrder, error) {
	var coModels []models.ChangeOrderModel
	if err := query.Find(&coModels).Error; err != nil {
		return nil, err
	}
	changeOrders := make([]document.ChangeOrder, len(coModels))
	for i, model := range coModels {
		changeOrders[i] = *model.ToDomain()
	}
	return changeOrders, nil
}

// applyFilter treats "expired" as an unanswered change order past expires_at
// and narrows "pending" to those still inside their approval window.
func (r *GormChangeOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applySearch(query, filter.Search, "number", "title")
	query = applyEqualFilters(query, filter, "project_id", "client_id")

	asOf := time.Now()
	if t, ok := filter.Filters[FilterAsOf].(time.Time); ok {
		asOf = t
	}
	status, _ := filter.Filters["status"].(string)
	switch document.ChangeOrderStatus(status) {
	case "":
	case document.ChangeOrderStatusExpired:
		query = query.Where("(status = ? AND expires_at < ?) OR status = ?",
			document.ChangeOrderStatusPending, asOf, document.ChangeOrderStatusExpired)
	case document.ChangeOrderStatusPending:
		query = query.Where("status = ? AND expires_at >= ?", document.ChangeOrderStatusPending, asOf)
	default:
		query = query.Where("status = ?", status)
	}
	return query
}

// Ensure GormChangeOrderRepository implements ChangeOrderRepository
var _ document.ChangeOrderRepository = (*GormChangeOrderRepository)(nil)
