package handler

import (
	projectapp "github.com/fieldbook/backend/internal/application/project"
	"github.com/gin-gonic/gin"
)

// ProjectHandler handles project endpoints
type ProjectHandler struct {
	BaseHandler
	projectService *projectapp.ProjectService
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService *projectapp.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Create godoc
// @ID           createProject
// @Summary      Create a job site project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Param        request body projectapp.CreateProjectRequest true "Project creation request"
// @Success      201 {object} APIResponse[projectapp.ProjectResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse "Referenced client not found"
// @Security     BearerAuth
// @Router       /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var req projectapp.CreateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, project)
}

// GetByID returns a single project
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), ownerID, projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// List returns a page of projects
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var filter projectapp.ProjectListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	projects, total, err := h.projectService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, projects, total, pageOr(filter.Page), pageSizeOr(filter.PageSize))
}

// Update edits a project's details
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req projectapp.UpdateProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), ownerID, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// ChangeStatus moves a project between active, on hold and completed
// @Router /projects/{id}/status [patch]
func (h *ProjectHandler) ChangeStatus(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req projectapp.ChangeProjectStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.ChangeStatus(c.Request.Context(), ownerID, projectID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, project)
}

// Delete removes a project
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), ownerID, projectID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
