package attachment

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxFileSize is the maximum allowed file size (25MB)
const MaxFileSize = 25 * 1024 * 1024

// DocumentType names the kind of document a file is attached to
type DocumentType string

const (
	DocumentTypeEstimate    DocumentType = "estimate"
	DocumentTypeInvoice     DocumentType = "invoice"
	DocumentTypeChangeOrder DocumentType = "change_order"
)

// IsValid checks if the document type is known
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeEstimate, DocumentTypeInvoice, DocumentTypeChangeOrder:
		return true
	}
	return false
}

// Attachment is a file (photo, signed PDF, receipt) linked to a document.
// The bytes live in object storage under StorageKey.
type Attachment struct {
	shared.OwnedAggregateRoot
	DocumentType DocumentType
	DocumentID   uuid.UUID
	FileName     string
	FileSize     int64
	ContentType  string
	StorageKey   string
}

// NewAttachment validates metadata and derives the storage key
// <owner>/<doc-type>/<doc-id>/<attachment-id>-<file name>
func NewAttachment(ownerID uuid.UUID, docType DocumentType, docID uuid.UUID, fileName string, fileSize int64, contentType string) (*Attachment, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewValidationError("Owner is required")
	}
	if !docType.IsValid() {
		return nil, shared.NewValidationError("Invalid document type: %s", docType)
	}
	if docID == uuid.Nil {
		return nil, shared.NewValidationError("Document ID cannot be empty")
	}
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}
	if err := validateFileSize(fileSize); err != nil {
		return nil, err
	}
	if err := validateContentType(contentType); err != nil {
		return nil, err
	}

	a := &Attachment{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		DocumentType:       docType,
		DocumentID:         docID,
		FileName:           fileName,
		FileSize:           fileSize,
		ContentType:        contentType,
	}
	a.StorageKey = path.Join(ownerID.String(), string(docType), docID.String(), fmt.Sprintf("%s-%s", a.ID, fileName))
	return a, nil
}

// Repository defines the interface for attachment metadata persistence
type Repository interface {
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Attachment, error)
	FindByDocument(ctx context.Context, ownerID uuid.UUID, docType DocumentType, docID uuid.UUID) ([]Attachment, error)
	Save(ctx context.Context, a *Attachment) error
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error
}

// validation functions

func validateFileName(name string) error {
	if name == "" {
		return shared.NewValidationError("File name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewValidationError("File name cannot exceed 255 characters")
	}
	for _, r := range name {
		if r < 32 || r == 127 {
			return shared.NewValidationError("File name contains invalid characters")
		}
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return shared.NewValidationError("File name cannot contain path separators")
	}
	return nil
}

func validateFileSize(size int64) error {
	if size <= 0 {
		return shared.NewValidationError("File size must be greater than 0")
	}
	if size > MaxFileSize {
		return shared.NewValidationError("File size cannot exceed 25MB")
	}
	return nil
}

func validateContentType(contentType string) error {
	if contentType == "" || len(contentType) > 100 {
		return shared.NewValidationError("Content type must be between 1 and 100 characters")
	}
	if !strings.Contains(contentType, "/") || strings.HasPrefix(contentType, "/") || strings.HasSuffix(contentType, "/") {
		return shared.NewValidationError("Content type must be in type/subtype format")
	}
	return nil
}
