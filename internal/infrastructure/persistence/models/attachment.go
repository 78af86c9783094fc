package models

import (
	"github.com/fieldbook/backend/internal/domain/attachment"
	"github.com/google/uuid"
)

// AttachmentModel is the persistence model for attachment metadata.
// The file itself lives in object storage under StorageKey.
type AttachmentModel struct {
	OwnedAggregateModel
	DocumentType attachment.DocumentType `gorm:"type:varchar(20);not null;index:idx_attachment_document,priority:1"`
	DocumentID   uuid.UUID               `gorm:"type:uuid;not null;index:idx_attachment_document,priority:2"`
	FileName     string                  `gorm:"column:file_name;type:varchar(255);not null"`
	FileSize     int64                   `gorm:"column:file_size;type:bigint;not null"`
	ContentType  string                  `gorm:"column:content_type;type:varchar(100);not null"`
	StorageKey   string                  `gorm:"column:storage_key;type:varchar(500);not null"`
}

// TableName returns the table name for GORM
func (AttachmentModel) TableName() string {
	return "attachments"
}

// ToDomain converts the persistence model to a domain Attachment.
func (m *AttachmentModel) ToDomain() *attachment.Attachment {
	return &attachment.Attachment{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		DocumentType:       m.DocumentType,
		DocumentID:         m.DocumentID,
		FileName:           m.FileName,
		FileSize:           m.FileSize,
		ContentType:        m.ContentType,
		StorageKey:         m.StorageKey,
	}
}

// AttachmentModelFromDomain creates a new persistence model from a domain Attachment.
func AttachmentModelFromDomain(a *attachment.Attachment) *AttachmentModel {
	m := &AttachmentModel{
		DocumentType: a.DocumentType,
		DocumentID:   a.DocumentID,
		FileName:     a.FileName,
		FileSize:     a.FileSize,
		ContentType:  a.ContentType,
		StorageKey:   a.StorageKey,
	}
	m.FromDomainOwnedAggregateRoot(a.OwnedAggregateRoot)
	return m
}
