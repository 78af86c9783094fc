package handler

import (
	partnerapp "github.com/fieldbook/backend/internal/application/partner"
	"github.com/gin-gonic/gin"
)

// ClientHandler handles client and contractor profile endpoints
type ClientHandler struct {
	BaseHandler
	clientService  *partnerapp.ClientService
	profileService *partnerapp.ContractorProfileService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService *partnerapp.ClientService, profileService *partnerapp.ContractorProfileService) *ClientHandler {
	return &ClientHandler{
		clientService:  clientService,
		profileService: profileService,
	}
}

// Create godoc
// @ID           createClient
// @Summary      Create a new client
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.CreateClientRequest true "Client creation request"
// @Success      201 {object} APIResponse[partnerapp.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var req partnerapp.CreateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// GetByID godoc
// @ID           getClientById
// @Summary      Get client by ID
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.ClientResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /clients/{id} [get]
func (h *ClientHandler) GetByID(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	clientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	client, err := h.clientService.GetByID(c.Request.Context(), ownerID, clientID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// List godoc
// @ID           listClients
// @Summary      List clients
// @Tags         clients
// @Produce      json
// @Param        search query string false "Search by name, email or phone"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]partnerapp.ClientResponse]
// @Security     BearerAuth
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var filter partnerapp.ClientListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	clients, total, err := h.clientService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, clients, total, pageOr(filter.Page), pageSizeOr(filter.PageSize))
}

// Update replaces a client's contact details
// @Router /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	clientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.UpdateClientRequest
	if !h.bindJSON(c, &req) {
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), ownerID, clientID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// Delete removes a client
// @Router /clients/{id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	clientID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.clientService.Delete(c.Request.Context(), ownerID, clientID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// GetProfile godoc
// @ID           getContractorProfile
// @Summary      Get the contractor's business profile
// @Tags         profile
// @Produce      json
// @Success      200 {object} APIResponse[partnerapp.ContractorProfileResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /profile [get]
func (h *ClientHandler) GetProfile(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}

	profile, err := h.profileService.Get(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UpsertProfile creates or replaces the contractor's business profile
// @Router /profile [put]
func (h *ClientHandler) UpsertProfile(c *gin.Context) {
	ownerID, ok := h.requireOwner(c)
	if !ok {
		return
	}
	var req partnerapp.UpsertContractorProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.profileService.Upsert(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}
