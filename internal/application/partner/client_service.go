package partner

import (
	"context"

	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientService handles client-related business operations
type ClientService struct {
	clientRepo     partner.ClientRepository
	eventPublisher shared.EventPublisher
}

// NewClientService creates a new ClientService
func NewClientService(clientRepo partner.ClientRepository) *ClientService {
	return &ClientService{
		clientRepo: clientRepo,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ClientService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new client
func (s *ClientService) Create(ctx context.Context, ownerID uuid.UUID, req CreateClientRequest) (*ClientResponse, error) {
	client, err := partner.NewClient(ownerID, req.Name, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}
	client.Notes = req.Notes

	address, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}
	if !address.IsEmpty() {
		client.SetAddress(address)
	}

	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	s.publish(ctx, client)

	response := ToClientResponse(client)
	return &response, nil
}

// GetByID retrieves a client by ID
func (s *ClientService) GetByID(ctx context.Context, ownerID, clientID uuid.UUID) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByIDForOwner(ctx, ownerID, clientID)
	if err != nil {
		return nil, err
	}
	response := ToClientResponse(client)
	return &response, nil
}

// List retrieves a list of clients with search and pagination
func (s *ClientService) List(ctx context.Context, ownerID uuid.UUID, filter ClientListFilter) ([]ClientResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "name"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "asc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	clients, err := s.clientRepo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.clientRepo.CountForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = ToClientResponse(&clients[i])
	}
	return responses, total, nil
}

// Update replaces a client's contact details. Documents already issued keep
// the snapshot taken when they were created.
func (s *ClientService) Update(ctx context.Context, ownerID, clientID uuid.UUID, req UpdateClientRequest) (*ClientResponse, error) {
	client, err := s.clientRepo.FindByIDForOwner(ctx, ownerID, clientID)
	if err != nil {
		return nil, err
	}
	if err := client.Update(req.Name, req.Email, req.Phone, req.Notes); err != nil {
		return nil, err
	}
	address, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}
	client.SetAddress(address)

	if err := s.clientRepo.Save(ctx, client); err != nil {
		return nil, err
	}
	s.publish(ctx, client)

	response := ToClientResponse(client)
	return &response, nil
}

// Delete deletes a client
func (s *ClientService) Delete(ctx context.Context, ownerID, clientID uuid.UUID) error {
	if _, err := s.clientRepo.FindByIDForOwner(ctx, ownerID, clientID); err != nil {
		return err
	}
	return s.clientRepo.DeleteForOwner(ctx, ownerID, clientID)
}

func (s *ClientService) publish(ctx context.Context, client *partner.Client) {
	if s.eventPublisher != nil {
		// Event delivery is best-effort; the client is already stored
		_ = s.eventPublisher.Publish(ctx, client.GetDomainEvents()...)
	}
	client.ClearDomainEvents()
}
