package handler

import (
	documentapp "github.com/fieldbook/backend/internal/application/document"
	"github.com/gin-gonic/gin"
)

// ChangeOrderHandler handles the owner-facing change order endpoints and the
// public, token-gated approval endpoints
type ChangeOrderHandler struct {
	BaseHandler
	changeOrderService *documentapp.ChangeOrderService
}

// NewChangeOrderHandler creates a new ChangeOrderHandler
func NewChangeOrderHandler(changeOrderService *documentapp.ChangeOrderService) *ChangeOrderHandler {
	return &ChangeOrderHandler{changeOrderService: changeOrderService}
}

// Create godoc
// @ID           createChangeOrder
// @Summary      Create a change order
// @Description  Creates a pending change order and sends the client an approval link
// @Tags         change-orders
// @Accept       json
// @Produce      json
// @Param        request body documentapp.CreateChangeOrderRequest true "Change order creation request"
// @Success      201 {object} APIResponse[documentapp.ChangeOrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Referenced project not found"
// @Security     BearerAuth
// @Router       /change-orders [post]
func (h *ChangeOrderHandler) Create(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var req documentapp.CreateChangeOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	changeOrder, err := h.changeOrderService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, changeOrder)
}

// GetByID returns a single change order
// @Router /change-orders/{id} [get]
func (h *ChangeOrderHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	changeOrderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	changeOrder, err := h.changeOrderService.GetByID(c.Request.Context(), ownerID, changeOrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, changeOrder)
}

// List returns a page of change orders
// @Router /change-orders [get]
func (h *ChangeOrderHandler) List(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var filter documentapp.ChangeOrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	changeOrders, total, err := h.changeOrderService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, changeOrders, total, pageOr(filter.Page), pageSizeOr(filter.PageSize))
}

// Update edits a pending change order
// @Router /change-orders/{id} [put]
func (h *ChangeOrderHandler) Update(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	changeOrderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req documentapp.UpdateChangeOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	changeOrder, err := h.changeOrderService.Update(c.Request.Context(), ownerID, changeOrderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, changeOrder)
}

// Delete removes a change order that has not been invoiced
// @Router /change-orders/{id} [delete]
func (h *ChangeOrderHandler) Delete(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	changeOrderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.changeOrderService.Delete(c.Request.Context(), ownerID, changeOrderID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ResendLink sends the approval link to the client again
// @Router /change-orders/{id}/resend [post]
func (h *ChangeOrderHandler) ResendLink(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	changeOrderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	changeOrder, err := h.changeOrderService.ResendLink(c.Request.Context(), ownerID, changeOrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, changeOrder)
}

// CreateInvoice bills an approved change order
// @Router /change-orders/{id}/invoice [post]
func (h *ChangeOrderHandler) CreateInvoice(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	changeOrderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req documentapp.InvoiceChangeOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	invoice, err := h.changeOrderService.CreateInvoice(c.Request.Context(), ownerID, changeOrderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetPublic godoc
// @ID           getPublicChangeOrder
// @Summary      View a change order through its approval link
// @Description  No authentication; the token is the credential. Unknown tokens return 404 INVALID_TOKEN.
// @Tags         public
// @Produce      json
// @Param        token path string true "Approval token"
// @Success      200 {object} APIResponse[documentapp.PublicChangeOrderResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /public/change-orders/{token} [get]
func (h *ChangeOrderHandler) GetPublic(c *gin.Context) {
	changeOrder, err := h.changeOrderService.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, changeOrder)
}

// RespondPublic godoc
// @ID           respondPublicChangeOrder
// @Summary      Approve or decline a change order
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        token path string true "Approval token"
// @Param        request body documentapp.RespondChangeOrderRequest true "Client decision"
// @Success      200 {object} APIResponse[documentapp.PublicChangeOrderResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse "Already answered or expired"
// @Router       /public/change-orders/{token}/respond [post]
func (h *ChangeOrderHandler) RespondPublic(c *gin.Context) {
	var req documentapp.RespondChangeOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	changeOrder, err := h.changeOrderService.Respond(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, changeOrder)
}
