package handler

import (
	"net/http"

	attachmentapp "github.com/fieldbook/backend/internal/application/attachment"
	"github.com/fieldbook/backend/internal/interfaces/http/dto"
	"github.com/fieldbook/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AttachmentHandler handles file attachments on estimates, invoices and
// change orders
type AttachmentHandler struct {
	BaseHandler
	attachmentService *attachmentapp.Service
	maxUploadSize     int64
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(attachmentService *attachmentapp.Service, maxUploadSize int64) *AttachmentHandler {
	return &AttachmentHandler{
		attachmentService: attachmentService,
		maxUploadSize:     maxUploadSize,
	}
}

// UploadForm holds the non-file fields of a multipart upload
type UploadForm struct {
	DocumentType string `form:"document_type" binding:"required,oneof=estimate invoice change_order"`
	DocumentID   string `form:"document_id" binding:"required,uuid"`
}

// DocumentAttachmentsQuery selects the document whose attachments are listed
type DocumentAttachmentsQuery struct {
	DocumentType string `form:"document_type" binding:"required,oneof=estimate invoice change_order"`
	DocumentID   string `form:"document_id" binding:"required,uuid"`
}

// Upload godoc
// @ID           uploadAttachment
// @Summary      Attach a file to a document
// @Tags         attachments
// @Accept       multipart/form-data
// @Produce      json
// @Param        document_type formData string true "Document type" Enums(estimate, invoice, change_order)
// @Param        document_id formData string true "Document ID" format(uuid)
// @Param        file formData file true "File to attach"
// @Success      201 {object} APIResponse[attachmentapp.AttachmentResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Document not found"
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /attachments [post]
func (h *AttachmentHandler) Upload(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var form UploadForm
	if err := c.ShouldBind(&form); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A file is required")
		return
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "File exceeds maximum allowed size")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	attachment, err := h.attachmentService.Upload(c.Request.Context(), ownerID, attachmentapp.UploadInput{
		DocumentType: form.DocumentType,
		DocumentID:   uuid.MustParse(form.DocumentID),
		FileName:     header.Filename,
		FileSize:     header.Size,
		ContentType:  contentType,
		Body:         file,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, attachment)
}

// ListByDocument lists the files attached to one document
// @Router /attachments [get]
func (h *AttachmentHandler) ListByDocument(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var query DocumentAttachmentsQuery
	if !h.bindQuery(c, &query) {
		return
	}

	attachments, err := h.attachmentService.ListByDocument(c.Request.Context(), ownerID, query.DocumentType, uuid.MustParse(query.DocumentID))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, attachments)
}

// DownloadURL returns a short-lived link to the file
// @Router /attachments/{id}/download-url [get]
func (h *AttachmentHandler) DownloadURL(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	attachmentID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	link, err := h.attachmentService.DownloadURL(c.Request.Context(), ownerID, attachmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, link)
}

// Delete removes the attachment record and its stored file
// @Router /attachments/{id} [delete]
func (h *AttachmentHandler) Delete(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	attachmentID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.attachmentService.Delete(c.Request.Context(), ownerID, attachmentID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
