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

// FilterAsOf is the filter key carrying the instant for derived statuses
const FilterAsOf = shared.FilterKeyAsOf

// GormInvoiceRepository implements document.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForOwner finds an invoice by ID for its owner
func (r *GormInvoiceRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*document.Invoice, error) {
	return r.findOne(ctx, "owner_id = ? AND id = ?", ownerID, id)
}

// FindByConversionKey finds the invoice produced by an earlier identical conversion
func (r *GormInvoiceRepository) FindByConversionKey(ctx context.Context, ownerID uuid.UUID, key string) (*document.Invoice, error) {
	return r.findOne(ctx, "owner_id = ? AND conversion_key = ?", ownerID, key)
}

func (r *GormInvoiceRepository) findOne(ctx context.Context, cond string, args ...any) (*document.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Where(cond, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForOwner lists an owner's invoices with filtering
func (r *GormInvoiceRepository) FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]document.Invoice, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Scopes(OwnedBy(ownerID)), filter)
	return r.find(applyPaging(query, filter, InvoiceSortFields))
}

// CountForOwner counts an owner's invoices with optional filters
func (r *GormInvoiceRepository) CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Scopes(OwnedBy(ownerID)), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByEstimate lists invoices created from an estimate, oldest first
func (r *GormInvoiceRepository) FindByEstimate(ctx context.Context, ownerID, estimateID uuid.UUID) ([]document.Invoice, error) {
	return r.find(r.db.WithContext(ctx).
		Where("owner_id = ? AND estimate_id = ?", ownerID, estimateID).
		Order("created_at ASC"))
}

// FindOpenForOwner lists sent invoices, the only ones that can become overdue
func (r *GormInvoiceRepository) FindOpenForOwner(ctx context.Context, ownerID uuid.UUID) ([]document.Invoice, error) {
	return r.find(r.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID, document.InvoiceStatusSent).
		Order("due_date ASC"))
}

// ListOwnerIDsWithOpenInvoices returns owners that currently have sent invoices
func (r *GormInvoiceRepository) ListOwnerIDsWithOpenInvoices(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("status = ?", document.InvoiceStatusSent).
		Distinct().
		Pluck("owner_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *document.Invoice) error {
	return saveError(r.db.WithContext(ctx).Save(models.InvoiceModelFromDomain(invoice)).Error, "Invoice")
}

// DeleteForOwner soft-deletes an invoice
func (r *GormInvoiceRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.InvoiceModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByNumber checks the owner's numbers, deleted invoices included
func (r *GormInvoiceRepository) ExistsByNumber(ctx context.Context, ownerID uuid.UUID, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().
		Model(&models.InvoiceModel{}).
		Where("owner_id = ? AND number = ?", ownerID, number).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormInvoiceRepository) find(query *gorm.DB) ([]document.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := query.Find(&invoiceModels).Error; err != nil {
		return nil, err
	}
	invoices := make([]document.Invoice, len(invoiceModels))
	for i, model := range invoiceModels {
		invoices[i] = *model.ToDomain()
	}
	return invoices, nil
}

// applyFilter treats "overdue" as sent with a due date before as_of,
// and narrows "sent" to invoices that are not yet overdue.
func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = applySearch(query, filter.Search, "number", "title")
	query = applyEqualFilters(query, filter, "type", "project_id", "client_id", "estimate_id")

	asOf := time.Now()
	if t, ok := filter.Filters[FilterAsOf].(time.Time); ok {
		asOf = t
	}
	status, _ := filter.Filters["status"].(string)
	switch document.InvoiceStatus(status) {
	case "":
	case document.InvoiceStatusOverdue:
		query = query.Where("status = ? AND balance > 0 AND due_date IS NOT NULL AND due_date < ?", document.InvoiceStatusSent, asOf)
	case document.InvoiceStatusSent:
		query = query.Where("status = ? AND NOT (balance > 0 AND due_date IS NOT NULL AND due_date < ?)", document.InvoiceStatusSent, asOf)
	default:
		query = query.Where("status = ?", status)
	}
	return query
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ document.InvoiceRepository = (*GormInvoiceRepository)(nil)
