package project

import (
	"context"

	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/project"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProjectService handles project-related business operations
type ProjectService struct {
	projectRepo    project.Repository
	clientRepo     partner.ClientRepository
	eventPublisher shared.EventPublisher
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo project.Repository, clientRepo partner.ClientRepository) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ProjectService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create creates a new active project
func (s *ProjectService) Create(ctx context.Context, ownerID uuid.UUID, req CreateProjectRequest) (*ProjectResponse, error) {
	if req.ClientID != nil {
		// The client must belong to the same owner
		if _, err := s.clientRepo.FindByIDForOwner(ctx, ownerID, *req.ClientID); err != nil {
			return nil, err
		}
	}

	p, err := project.NewProject(ownerID, req.Name, req.ClientID)
	if err != nil {
		return nil, err
	}
	address, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}
	p.Description = req.Description
	p.Address = address
	if err := p.SetSchedule(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)

	response := ToProjectResponse(p)
	return &response, nil
}

// GetByID retrieves a project by ID
func (s *ProjectService) GetByID(ctx context.Context, ownerID, projectID uuid.UUID) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByIDForOwner(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	response := ToProjectResponse(p)
	return &response, nil
}

// List retrieves a list of projects with filtering and pagination
func (s *ProjectService) List(ctx context.Context, ownerID uuid.UUID, filter ProjectListFilter) ([]ProjectResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.ClientID != nil {
		domainFilter.Filters["client_id"] = *filter.ClientID
	}

	projects, err := s.projectRepo.FindAllForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.projectRepo.CountForOwner(ctx, ownerID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ProjectResponse, len(projects))
	for i := range projects {
		responses[i] = ToProjectResponse(&projects[i])
	}
	return responses, total, nil
}

// Update updates a project's name, description, site address and schedule
func (s *ProjectService) Update(ctx context.Context, ownerID, projectID uuid.UUID, req UpdateProjectRequest) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByIDForOwner(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	address, err := req.Address.toAddress()
	if err != nil {
		return nil, err
	}
	if err := p.Update(req.Name, req.Description, address); err != nil {
		return nil, err
	}
	if err := p.SetSchedule(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	response := ToProjectResponse(p)
	return &response, nil
}

// ChangeStatus moves a project to another status
func (s *ProjectService) ChangeStatus(ctx context.Context, ownerID, projectID uuid.UUID, req ChangeProjectStatusRequest) (*ProjectResponse, error) {
	p, err := s.projectRepo.FindByIDForOwner(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if err := p.ChangeStatus(project.Status(req.Status)); err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	s.publish(ctx, p)

	response := ToProjectResponse(p)
	return &response, nil
}

// Delete deletes a project
func (s *ProjectService) Delete(ctx context.Context, ownerID, projectID uuid.UUID) error {
	if _, err := s.projectRepo.FindByIDForOwner(ctx, ownerID, projectID); err != nil {
		return err
	}
	return s.projectRepo.DeleteForOwner(ctx, ownerID, projectID)
}

func (s *ProjectService) publish(ctx context.Context, p *project.Project) {
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, p.GetDomainEvents()...)
	}
	p.ClearDomainEvents()
}
