package persistence

import (
	"context"
	"errors"

	"github.com/fieldbook/backend/internal/domain/attachment"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAttachmentRepository implements attachment.Repository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// FindByIDForOwner finds attachment metadata by ID for its owner
func (r *GormAttachmentRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*attachment.Attachment, error) {
	var model models.AttachmentModel
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

// FindByDocument lists attachments of one document, oldest first
func (r *GormAttachmentRepository) FindByDocument(ctx context.Context, ownerID uuid.UUID, docType attachment.DocumentType, docID uuid.UUID) ([]attachment.Attachment, error) {
	var attachmentModels []models.AttachmentModel
	if err := r.db.WithContext(ctx).
		Where("owner_id = ? AND document_type = ? AND document_id = ?", ownerID, docType, docID).
		Order("created_at ASC").
		Find(&attachmentModels).Error; err != nil {
		return nil, err
	}

	attachments := make([]attachment.Attachment, len(attachmentModels))
	for i, model := range attachmentModels {
		attachments[i] = *model.ToDomain()
	}
	return attachments, nil
}

// Save creates or updates attachment metadata
func (r *GormAttachmentRepository) Save(ctx context.Context, a *attachment.Attachment) error {
	return r.db.WithContext(ctx).Save(models.AttachmentModelFromDomain(a)).Error
}

// DeleteForOwner deletes attachment metadata
func (r *GormAttachmentRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AttachmentModel{}, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormAttachmentRepository implements attachment.Repository
var _ attachment.Repository = (*GormAttachmentRepository)(nil)
