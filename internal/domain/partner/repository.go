package partner

import (
	"context"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ClientRepository defines the interface for client persistence
type ClientRepository interface {
	// FindByIDForOwner finds a client by ID within an owner's book
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Client, error)

	// FindAllForOwner lists clients, optionally filtered by search
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Client, error)

	// CountForOwner counts clients matching the filter
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a client
	Save(ctx context.Context, client *Client) error

	// DeleteForOwner deletes a client
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error
}

// ContractorProfileRepository defines the interface for profile persistence
type ContractorProfileRepository interface {
	// FindByOwner returns the owner's profile or shared.ErrNotFound
	FindByOwner(ctx context.Context, ownerID uuid.UUID) (*ContractorProfile, error)

	// Save creates or updates the profile
	Save(ctx context.Context, profile *ContractorProfile) error
}
