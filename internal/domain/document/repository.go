package document

import (
	"context"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EstimateRepository defines the interface for estimate persistence
type EstimateRepository interface {
	// FindByIDForOwner finds an estimate by ID for its owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Estimate, error)

	// FindAllForOwner lists an owner's estimates with filtering
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Estimate, error)

	// CountForOwner counts an owner's estimates with optional filters
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates an estimate
	Save(ctx context.Context, estimate *Estimate) error

	// DeleteForOwner removes an estimate from the owner's view
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error

	// ExistsByNumber checks if a number is already used by the owner
	ExistsByNumber(ctx context.Context, ownerID uuid.UUID, number string) (bool, error)
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForOwner finds an invoice by ID for its owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*Invoice, error)

	// FindAllForOwner lists an owner's invoices with filtering
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Invoice, error)

	// CountForOwner counts an owner's invoices with optional filters
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)

	// FindByEstimate lists invoices created from an estimate
	FindByEstimate(ctx context.Context, ownerID, estimateID uuid.UUID) ([]Invoice, error)

	// FindByConversionKey finds the invoice produced by an earlier identical conversion
	FindByConversionKey(ctx context.Context, ownerID uuid.UUID, key string) (*Invoice, error)

	// FindOpenForOwner lists sent invoices, the only ones that can become overdue
	FindOpenForOwner(ctx context.Context, ownerID uuid.UUID) ([]Invoice, error)

	// Save creates or updates an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// DeleteForOwner removes an invoice from the owner's view
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error

	// ExistsByNumber checks if a number is already used by the owner
	ExistsByNumber(ctx context.Context, ownerID uuid.UUID, number string) (bool, error)

	// ListOwnerIDsWithOpenInvoices returns owners that currently have sent invoices
	ListOwnerIDsWithOpenInvoices(ctx context.Context) ([]uuid.UUID, error)
}

// ChangeOrderRepository defines the interface for change order persistence
type ChangeOrderRepository interface {
	// FindByID finds a change order by ID regardless of owner
	FindByID(ctx context.Context, id uuid.UUID) (*ChangeOrder, error)

	// FindByIDForOwner finds a change order by ID for its owner
	FindByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (*ChangeOrder, error)

	// FindByToken finds a change order by its approval token
	FindByToken(ctx context.Context, token string) (*ChangeOrder, error)

	// FindAllForOwner lists an owner's change orders with filtering
	FindAllForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]ChangeOrder, error)

	// CountForOwner counts an owner's change orders with optional filters
	CountForOwner(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)

	// FindByProject lists change orders for one project
	FindByProject(ctx context.Context, ownerID, projectID uuid.UUID) ([]ChangeOrder, error)

	// Save creates or updates a change order
	Save(ctx context.Context, changeOrder *ChangeOrder) error

	// MarkLinkSent records delivery of the approval link without touching other columns
	MarkLinkSent(ctx context.Context, id uuid.UUID, at time.Time) error

	// DeleteForOwner removes a change order from the owner's view
	DeleteForOwner(ctx context.Context, ownerID, id uuid.UUID) error

	// ExistsByNumber checks if a number is already used by the owner
	ExistsByNumber(ctx context.Context, ownerID uuid.UUID, number string) (bool, error)
}
