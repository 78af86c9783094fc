package handler

import (
	"bytes"
	"context"
	"net/http"

	documentapp "github.com/fieldbook/backend/internal/application/document"
	"github.com/fieldbook/backend/internal/infrastructure/export"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// xlsxContentType is the media type of exported spreadsheets
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// EstimateHandler handles estimate endpoints, including conversion into
// invoices
type EstimateHandler struct {
	BaseHandler
	estimateService *documentapp.EstimateService
	exporter        *export.XLSXExporter
}

// NewEstimateHandler creates a new EstimateHandler
func NewEstimateHandler(estimateService *documentapp.EstimateService, exporter *export.XLSXExporter) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		exporter:        exporter,
	}
}

// Create godoc
// @ID           createEstimate
// @Summary      Create a draft estimate
// @Description  Creates an estimate from sections of line items. Totals are derived server-side.
// @Tags         estimates
// @Accept       json
// @Produce      json
// @Param        request body documentapp.CreateEstimateRequest true "Estimate creation request"
// @Success      201 {object} APIResponse[documentapp.EstimateResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Referenced project or client not found"
// @Security     BearerAuth
// @Router       /estimates [post]
func (h *EstimateHandler) Create(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var req documentapp.CreateEstimateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	estimate, err := h.estimateService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, estimate)
}

// GetByID godoc
// @ID           getEstimateById
// @Summary      Get estimate by ID
// @Tags         estimates
// @Produce      json
// @Param        id path string true "Estimate ID" format(uuid)
// @Success      200 {object} APIResponse[documentapp.EstimateResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /estimates/{id} [get]
func (h *EstimateHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	estimateID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	estimate, err := h.estimateService.GetByID(c.Request.Context(), ownerID, estimateID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, estimate)
}

// List godoc
// @ID           listEstimates
// @Summary      List estimates
// @Tags         estimates
// @Produce      json
// @Param        status query string false "Filter by status" Enums(draft, sent, approved, rejected)
// @Param        project_id query string false "Filter by project" format(uuid)
// @Param        client_id query string false "Filter by client" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]documentapp.EstimateListItemResponse]
// @Security     BearerAuth
// @Router       /estimates [get]
func (h *EstimateHandler) List(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var filter documentapp.EstimateListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	estimates, total, err := h.estimateService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, estimates, total, pageOr(filter.Page), pageSizeOr(filter.PageSize))
}

// Update replaces the content of an estimate without changing its status
// @Router /estimates/{id} [put]
func (h *EstimateHandler) Update(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	estimateID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req documentapp.UpdateEstimateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	estimate, err := h.estimateService.Update(c.Request.Context(), ownerID, estimateID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, estimate)
}

// Delete removes an estimate that was never converted
// @Router /estimates/{id} [delete]
func (h *EstimateHandler) Delete(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	estimateID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.estimateService.Delete(c.Request.Context(), ownerID, estimateID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

type estimateTransition func(ctx context.Context, ownerID, estimateID uuid.UUID) (*documentapp.EstimateResponse, error)

func (h *EstimateHandler) transition(c *gin.Context, fn estimateTransition) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	estimateID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	estimate, err := fn(c.Request.Context(), ownerID, estimateID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, estimate)
}

// Send marks a draft estimate as sent to the client
// @Router /estimates/{id}/send [post]
func (h *EstimateHandler) Send(c *gin.Context) {
	h.transition(c, h.estimateService.Send)
}

// Approve records the client's approval of a sent estimate
// @Router /estimates/{id}/approve [post]
func (h *EstimateHandler) Approve(c *gin.Context) {
	h.transition(c, h.estimateService.Approve)
}

// Reject records the client's rejection of a sent estimate
// @Router /estimates/{id}/reject [post]
func (h *EstimateHandler) Reject(c *gin.Context) {
	h.transition(c, h.estimateService.Reject)
}

// RevertToDraft moves a sent estimate back to draft
// @Router /estimates/{id}/revert [post]
func (h *EstimateHandler) RevertToDraft(c *gin.Context) {
	h.transition(c, h.estimateService.RevertToDraft)
}

// Convert godoc
// @ID           convertEstimate
// @Summary      Convert an approved estimate into an invoice
// @Description  Creates a final or progress invoice. Repeating an identical request returns the
// @Description  invoice created the first time with replayed=true and status 200.
// @Tags         estimates
// @Accept       json
// @Produce      json
// @Param        id path string true "Estimate ID" format(uuid)
// @Param        request body documentapp.ConvertEstimateRequest true "Conversion request"
// @Success      201 {object} APIResponse[documentapp.ConversionResponse]
// @Success      200 {object} APIResponse[documentapp.ConversionResponse] "Replayed conversion"
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Estimate not approved or conversion in progress"
// @Security     BearerAuth
// @Router       /estimates/{id}/convert [post]
func (h *EstimateHandler) Convert(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	estimateID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req documentapp.ConvertEstimateRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.estimateService.Convert(c.Request.Context(), ownerID, estimateID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if result.Replayed {
		h.Success(c, result)
		return
	}
	h.Created(c, result)
}

// Export streams the estimate as an xlsx workbook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /estimates/{id}/export.xlsx [get]
func (h *EstimateHandler) Export(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	estimateID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	estimate, err := h.estimateService.GetByID(c.Request.Context(), ownerID, estimateID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := h.exporter.ExportEstimate(&buf, estimate); err != nil {
		h.HandleError(c, err)
		return
	}
	sendAttachment(c, h.exporter.FileName(estimate.Number), buf.Bytes())
}

func sendAttachment(c *gin.Context, fileName string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(http.StatusOK, xlsxContentType, body)
}
