package attachment

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/attachment"
	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllowedContentTypes is the upload whitelist. SVG is excluded because it
// can carry script.
var AllowedContentTypes = map[string]bool{
	// Site photos
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/heic": true,

	// Signed documents and receipts
	"application/pdf": true,

	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,

	"text/plain": true,
	"text/csv":   true,
}

// ObjectStorage stores attachment bytes. Implemented by the S3 and in-memory
// backends in infrastructure/storage.
type ObjectStorage interface {
	// Upload writes size bytes from body under storageKey
	Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) error

	// GenerateDownloadURL returns a time-limited URL and its expiry
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error
}

// Config holds configuration for the attachment service
type Config struct {
	DownloadURLExpiry   time.Duration
	MaxFilesPerDocument int
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		DownloadURLExpiry:   time.Hour,
		MaxFilesPerDocument: 50,
	}
}

// UploadInput describes one uploaded file
type UploadInput struct {
	DocumentType string
	DocumentID   uuid.UUID
	FileName     string
	FileSize     int64
	ContentType  string
	Body         io.Reader
}

// AttachmentResponse represents an attachment in API responses
type AttachmentResponse struct {
	ID           uuid.UUID `json:"id"`
	DocumentType string    `json:"document_type"`
	DocumentID   uuid.UUID `json:"document_id"`
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	ContentType  string    `json:"content_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// DownloadURLResponse is a presigned link to an attachment's bytes
type DownloadURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ToAttachmentResponse converts a domain Attachment to AttachmentResponse
func ToAttachmentResponse(a *attachment.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:           a.ID,
		DocumentType: string(a.DocumentType),
		DocumentID:   a.DocumentID,
		FileName:     a.FileName,
		FileSize:     a.FileSize,
		ContentType:  a.ContentType,
		CreatedAt:    a.CreatedAt,
	}
}

// Service attaches files to estimates, invoices and change orders
type Service struct {
	attachmentRepo  attachment.Repository
	estimateRepo    document.EstimateRepository
	invoiceRepo     document.InvoiceRepository
	changeOrderRepo document.ChangeOrderRepository
	storage         ObjectStorage
	config          Config
	logger          *zap.Logger
}

// NewService creates a new attachment Service
func NewService(
	attachmentRepo attachment.Repository,
	estimateRepo document.EstimateRepository,
	invoiceRepo document.InvoiceRepository,
	changeOrderRepo document.ChangeOrderRepository,
	storage ObjectStorage,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		attachmentRepo:  attachmentRepo,
		estimateRepo:    estimateRepo,
		invoiceRepo:     invoiceRepo,
		changeOrderRepo: changeOrderRepo,
		storage:         storage,
		config:          DefaultConfig(),
		logger:          log,
	}
}

// SetConfig sets the service configuration
func (s *Service) SetConfig(config Config) {
	s.config = config
}

// Upload stores the file and records its metadata against the document
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, in UploadInput) (*AttachmentResponse, error) {
	docType := attachment.DocumentType(in.DocumentType)
	if err := s.ensureDocument(ctx, ownerID, docType, in.DocumentID); err != nil {
		return nil, err
	}
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if !AllowedContentTypes[contentType] {
		return nil, shared.NewValidationError("Content type %s is not allowed", in.ContentType)
	}

	existing, err := s.attachmentRepo.FindByDocument(ctx, ownerID, docType, in.DocumentID)
	if err != nil {
		return nil, err
	}
	if s.config.MaxFilesPerDocument > 0 && len(existing) >= s.config.MaxFilesPerDocument {
		return nil, shared.NewValidationError("A document cannot have more than %d attachments", s.config.MaxFilesPerDocument)
	}

	a, err := attachment.NewAttachment(ownerID, docType, in.DocumentID, in.FileName, in.FileSize, contentType)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Upload(ctx, a.StorageKey, in.Body, a.FileSize, a.ContentType); err != nil {
		return nil, err
	}
	if err := s.attachmentRepo.Save(ctx, a); err != nil {
		// Metadata failed after upload; the object would be unreachable
		s.deleteObject(ctx, a)
		return nil, err
	}

	response := ToAttachmentResponse(a)
	return &response, nil
}

// ListByDocument lists the files attached to a document
func (s *Service) ListByDocument(ctx context.Context, ownerID uuid.UUID, docType string, docID uuid.UUID) ([]AttachmentResponse, error) {
	dt := attachment.DocumentType(docType)
	if !dt.IsValid() {
		return nil, shared.NewValidationError("Invalid document type: %s", docType)
	}
	attachments, err := s.attachmentRepo.FindByDocument(ctx, ownerID, dt, docID)
	if err != nil {
		return nil, err
	}
	responses := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		responses[i] = ToAttachmentResponse(&attachments[i])
	}
	return responses, nil
}

// DownloadURL returns a presigned URL for an attachment
func (s *Service) DownloadURL(ctx context.Context, ownerID, attachmentID uuid.UUID) (*DownloadURLResponse, error) {
	a, err := s.attachmentRepo.FindByIDForOwner(ctx, ownerID, attachmentID)
	if err != nil {
		return nil, err
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, a.StorageKey, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, err
	}
	return &DownloadURLResponse{URL: url, ExpiresAt: expiresAt}, nil
}

// Delete removes the metadata and the stored object
func (s *Service) Delete(ctx context.Context, ownerID, attachmentID uuid.UUID) error {
	a, err := s.attachmentRepo.FindByIDForOwner(ctx, ownerID, attachmentID)
	if err != nil {
		return err
	}
	if err := s.attachmentRepo.DeleteForOwner(ctx, ownerID, attachmentID); err != nil {
		return err
	}
	s.deleteObject(ctx, a)
	return nil
}

// deleteObject logs and continues: the object might already be gone
func (s *Service) deleteObject(ctx context.Context, a *attachment.Attachment) {
	if err := s.storage.DeleteObject(ctx, a.StorageKey); err != nil {
		logger.WithLogger(ctx, s.logger).Warn("Failed to delete attachment from storage",
			zap.String("attachment_id", a.ID.String()),
			zap.String("storage_key", a.StorageKey),
			zap.Error(err),
		)
	}
}

func (s *Service) ensureDocument(ctx context.Context, ownerID uuid.UUID, docType attachment.DocumentType, docID uuid.UUID) error {
	var err error
	switch docType {
	case attachment.DocumentTypeEstimate:
		_, err = s.estimateRepo.FindByIDForOwner(ctx, ownerID, docID)
	case attachment.DocumentTypeInvoice:
		_, err = s.invoiceRepo.FindByIDForOwner(ctx, ownerID, docID)
	case attachment.DocumentTypeChangeOrder:
		_, err = s.changeOrderRepo.FindByIDForOwner(ctx, ownerID, docID)
	default:
		return shared.NewValidationError("Invalid document type: %s", docType)
	}
	return err
}
