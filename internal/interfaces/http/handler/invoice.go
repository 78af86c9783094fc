package handler

import (
	"bytes"

	documentapp "github.com/fieldbook/backend/internal/application/document"
	"github.com/fieldbook/backend/internal/infrastructure/export"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice and payment endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService *documentapp.InvoiceService
	exporter       *export.XLSXExporter
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoiceService *documentapp.InvoiceService, exporter *export.XLSXExporter) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		exporter:       exporter,
	}
}

// Create godoc
// @ID           createInvoice
// @Summary      Create an invoice directly
// @Description  Bills raw line items or sections without going through an estimate
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body documentapp.CreateInvoiceRequest true "Invoice creation request"
// @Success      201 {object} APIResponse[documentapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var req documentapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID godoc
// @ID           getInvoiceById
// @Summary      Get invoice by ID
// @Description  The status field is the effective status; a sent invoice past its due date reads as overdue
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[documentapp.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), ownerID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List returns a page of invoices
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var filter documentapp.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, invoices, total, pageOr(filter.Page), pageSizeOr(filter.PageSize))
}

// Update replaces the billed items of a draft invoice
// @Router /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req documentapp.UpdateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Update(c.Request.Context(), ownerID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Delete removes a draft invoice
// @Router /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), ownerID, invoiceID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Send issues a draft invoice to the client
// @Router /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Send(c.Request.Context(), ownerID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Cancel voids an unpaid invoice
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req documentapp.CancelInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.Cancel(c.Request.Context(), ownerID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RecordPayment godoc
// @ID           recordInvoicePayment
// @Summary      Record a payment against an invoice
// @Description  Reduces the balance; the invoice becomes paid once the balance reaches zero.
// @Description  Overpayments are rejected.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body documentapp.RecordPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[documentapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Invoice is not open for payments"
// @Security     BearerAuth
// @Router       /invoices/{id}/payments [post]
func (h *InvoiceHandler) RecordPayment(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req documentapp.RecordPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.invoiceService.RecordPayment(c.Request.Context(), ownerID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// ListPayments returns the payments recorded on an invoice
// @Router /invoices/{id}/payments [get]
func (h *InvoiceHandler) ListPayments(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	payments, err := h.invoiceService.ListPayments(c.Request.Context(), ownerID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Export streams the invoice as an xlsx workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /invoices/{id}/export.xlsx [get]
func (h *InvoiceHandler) Export(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetByID(c.Request.Context(), ownerID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.exporter.ExportInvoice(&buf, invoice); err != nil {
		h.HandleError(c, err)
		return
	}
	sendAttachment(c, h.exporter.FileName(invoice.Number), buf.Bytes())
}
