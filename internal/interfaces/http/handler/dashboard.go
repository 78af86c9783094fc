package handler

import (
	documentapp "github.com/fieldbook/backend/internal/application/document"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the owner's summary view
type DashboardHandler struct {
	BaseHandler
	dashboardService *documentapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *documentapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Summary godoc
// @ID           getDashboardSummary
// @Summary      Outstanding and overdue balances plus pending work
// @Tags         dashboard
// @Produce      json
// @Success      200 {object} APIResponse[documentapp.DashboardSummaryResponse]
// @Security     BearerAuth
// @Router       /dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	summary, err := h.dashboardService.Summary(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
