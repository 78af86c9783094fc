package attachment

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/fieldbook/backend/internal/domain/attachment"
	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAttachmentRepository is a mock implementation of attachment.Repository
type MockAttachmentRepository struct {
	mock.Mock
}

func (m *MockAttachmentRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*attachment.Attachment, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*attachment.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) FindByDocument(ctx context.Context, ownerID uuid.UUID, docType attachment.DocumentType, docID uuid.UUID) ([]attachment.Attachment, error) {
	args := m.Called(ctx, ownerID, docType, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]attachment.Attachment), args.Error(1)
}

func (m *MockAttachmentRepository) Save(ctx context.Context, a *attachment.Attachment) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAttachmentRepository) DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

// MockInvoiceRepository covers the lookups the attachment service makes.
// Only FindByIDForOwner is expected to be called.
type MockInvoiceRepository struct {
	mock.Mock
	document.InvoiceRepository
}

func (m *MockInvoiceRepository) FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*document.Invoice, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*document.Invoice), args.Error(1)
}

// MockObjectStorage is a mock implementation of ObjectStorage
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, storageKey string, body io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, storageKey, body, size, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

type attachmentFixture struct {
	repo     *MockAttachmentRepository
	invoices *MockInvoiceRepository
	storage  *MockObjectStorage
	service  *Service
}

func newAttachmentFixture() *attachmentFixture {
	f := &attachmentFixture{
		repo:     new(MockAttachmentRepository),
		invoices: new(MockInvoiceRepository),
		storage:  new(MockObjectStorage),
	}
	f.service = NewService(f.repo, nil, f.invoices, nil, f.storage, nil)
	return f
}

func TestService_Upload(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	invoiceID := uuid.New()
	body := []byte("%PDF-1.7")

	input := func() UploadInput {
		return UploadInput{
			DocumentType: "invoice",
			DocumentID:   invoiceID,
			FileName:     "signed.pdf",
			FileSize:     int64(len(body)),
			ContentType:  "application/pdf",
			Body:         bytes.NewReader(body),
		}
	}

	t.Run("stores bytes then metadata", func(t *testing.T) {
		f := newAttachmentFixture()
		f.invoices.On("FindByIDForOwner", ctx, ownerID, invoiceID).Return(&document.Invoice{}, nil)
		f.repo.On("FindByDocument", ctx, ownerID, attachment.DocumentTypeInvoice, invoiceID).Return([]attachment.Attachment{}, nil)
		f.storage.On("Upload", ctx, mock.AnythingOfType("string"), mock.Anything, int64(len(body)), "application/pdf").Return(nil)
		f.repo.On("Save", ctx, mock.AnythingOfType("*attachment.Attachment")).Return(nil)

		resp, err := f.service.Upload(ctx, ownerID, input())
		require.NoError(t, err)
		assert.Equal(t, "signed.pdf", resp.FileName)
		assert.Equal(t, "invoice", resp.DocumentType)
	})

	t.Run("document of another owner is not found", func(t *testing.T) {
		f := newAttachmentFixture()
		f.invoices.On("FindByIDForOwner", ctx, ownerID, invoiceID).Return(nil, shared.ErrNotFound)

		_, err := f.service.Upload(ctx, ownerID, input())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("svg is refused", func(t *testing.T) {
		f := newAttachmentFixture()
		f.invoices.On("FindByIDForOwner", ctx, ownerID, invoiceID).Return(&document.Invoice{}, nil)
		in := input()
		in.ContentType = "image/svg+xml"

		_, err := f.service.Upload(ctx, ownerID, in)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown document type", func(t *testing.T) {
		f := newAttachmentFixture()
		in := input()
		in.DocumentType = "receipt"

		_, err := f.service.Upload(ctx, ownerID, in)
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("metadata failure removes the uploaded object", func(t *testing.T) {
		f := newAttachmentFixture()
		f.invoices.On("FindByIDForOwner", ctx, ownerID, invoiceID).Return(&document.Invoice{}, nil)
		f.repo.On("FindByDocument", ctx, ownerID, attachment.DocumentTypeInvoice, invoiceID).Return([]attachment.Attachment{}, nil)
		f.storage.On("Upload", ctx, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.repo.On("Save", ctx, mock.Anything).Return(errors.New("db down"))
		f.storage.On("DeleteObject", ctx, mock.AnythingOfType("string")).Return(nil)

		_, err := f.service.Upload(ctx, ownerID, input())
		assert.EqualError(t, err, "db down")
		f.storage.AssertNumberOfCalls(t, "DeleteObject", 1)
	})

	t.Run("per-document limit", func(t *testing.T) {
		f := newAttachmentFixture()
		f.service.SetConfig(Config{DownloadURLExpiry: time.Minute, MaxFilesPerDocument: 1})
		f.invoices.On("FindByIDForOwner", ctx, ownerID, invoiceID).Return(&document.Invoice{}, nil)
		f.repo.On("FindByDocument", ctx, ownerID, attachment.DocumentTypeInvoice, invoiceID).Return([]attachment.Attachment{{}}, nil)

		_, err := f.service.Upload(ctx, ownerID, input())
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestService_DownloadURLAndDelete(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	a, err := attachment.NewAttachment(ownerID, attachment.DocumentTypeInvoice, uuid.New(), "photo.jpg", 1024, "image/jpeg")
	require.NoError(t, err)

	t.Run("presigns the stored key", func(t *testing.T) {
		f := newAttachmentFixture()
		expires := time.Now().Add(time.Hour)
		f.repo.On("FindByIDForOwner", ctx, ownerID, a.ID).Return(a, nil)
		f.storage.On("GenerateDownloadURL", ctx, a.StorageKey, time.Hour).Return("https://files.example.com/x", expires, nil)

		resp, err := f.service.DownloadURL(ctx, ownerID, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "https://files.example.com/x", resp.URL)
		assert.Equal(t, expires, resp.ExpiresAt)
	})

	t.Run("delete tolerates a missing object", func(t *testing.T) {
		f := newAttachmentFixture()
		f.repo.On("FindByIDForOwner", ctx, ownerID, a.ID).Return(a, nil)
		f.repo.On("DeleteForOwner", ctx, ownerID, a.ID).Return(nil)
		f.storage.On("DeleteObject", ctx, a.StorageKey).Return(errors.New("no such key"))

		require.NoError(t, f.service.Delete(ctx, ownerID, a.ID))
	})
}
