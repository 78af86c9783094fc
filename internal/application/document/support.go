package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/partner"
	"github.com/fieldbook/backend/internal/domain/project"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxNumberAttempts bounds retries when a random document number collides
const maxNumberAttempts = 5

// Clock returns the current time; tests replace it to pin derived statuses
type Clock func() time.Time

// Metrics receives business counters from the document services
type Metrics interface {
	DocumentCreated(ctx context.Context, docType string)
	EstimateConverted(ctx context.Context, billingType string, replayed bool)
	PaymentRecorded(ctx context.Context, amount decimal.Decimal)
	InconsistencyDetected(ctx context.Context, docType string)
}

type noopMetrics struct{}

func (noopMetrics) DocumentCreated(context.Context, string) {}
func (noopMetrics) EstimateConverted(context.Context, string, bool) {}
func (noopMetrics) PaymentRecorded(context.Context, decimal.Decimal) {}
func (noopMetrics) InconsistencyDetected(context.Context, string) {}

// Option configures the document services
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics Metrics
	clock   Clock
}

// WithLogger sets the logger used for consistency warnings
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetrics sets the business metrics sink
func WithMetrics(m Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock overrides time.Now
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:  zap.NewNop(),
		metrics: noopMetrics{},
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// existsFunc reports whether an owner already uses a document number
type existsFunc func(ctx context.Context, ownerID uuid.UUID, number string) (bool, error)

// allocateNumber draws prefixed numbers until one is unused by the owner
func allocateNumber(ctx context.Context, ownerID uuid.UUID, prefix string, now time.Time, exists existsFunc) (string, error) {
	for range maxNumberAttempts {
		number := document.GenerateNumber(prefix, now)
		taken, err := exists(ctx, ownerID, number)
		if err != nil {
			return "", err
		}
		if !taken {
			return number, nil
		}
	}
	return "", shared.NewDomainError(shared.CodeConflict, fmt.Sprintf("Could not allocate a unique %s number, please retry", prefix))
}

// toLineItems validates request items into domain line items
func toLineItems(inputs []LineItemInput) ([]document.LineItem, error) {
	items := make([]document.LineItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := document.NewLineItem(document.LineItemSpec{
			Description:        in.Description,
			Quantity:           in.Quantity,
			Unit:               in.Unit,
			UnitPrice:          in.UnitPrice,
			Category:           document.Category(in.Category),
			MarginPercent:      in.MarginPercent,
			WasteFactorPercent: in.WasteFactorPercent,
			Total:              in.Total,
		})
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// toSections validates request sections into domain sections
func toSections(inputs []SectionInput) ([]document.Section, error) {
	sections := make([]document.Section, 0, len(inputs))
	for _, in := range inputs {
		items, err := toLineItems(in.Items)
		if err != nil {
			return nil, err
		}
		section, err := document.NewSection(in.Name, in.Order, items)
		if err != nil {
			return nil, err
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// parties resolves project, client and contractor references into snapshots
type parties struct {
	projectRepo project.Repository
	clientRepo  partner.ClientRepository
	profileRepo partner.ContractorProfileRepository
}

// resolved holds the references a new document is linked to
type resolved struct {
	projectID  *uuid.UUID
	client     document.ClientSnapshot
	contractor document.ContractorSnapshot
}

// resolve checks the project and client belong to the owner. A project's
// client is used when the caller names none.
func (p parties) resolve(ctx context.Context, ownerID uuid.UUID, projectID, clientID *uuid.UUID) (resolved, error) {
	var out resolved
	if projectID != nil {
		proj, err := p.projectRepo.FindByIDForOwner(ctx, ownerID, *projectID)
		if err != nil {
			return out, err
		}
		out.projectID = &proj.ID
		if clientID == nil {
			clientID = proj.ClientID
		}
	}
	if clientID != nil {
		client, err := p.clientRepo.FindByIDForOwner(ctx, ownerID, *clientID)
		if err != nil {
			return out, err
		}
		out.client = client.Snapshot()
	}
	contractor, err := p.contractor(ctx, ownerID)
	if err != nil {
		return out, err
	}
	out.contractor = contractor
	return out, nil
}

// contractor returns the owner's profile snapshot, empty when none is set up yet
func (p parties) contractor(ctx context.Context, ownerID uuid.UUID) (document.ContractorSnapshot, error) {
	if p.profileRepo == nil {
		return document.ContractorSnapshot{}, nil
	}
	profile, err := p.profileRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return document.ContractorSnapshot{}, nil
		}
		return document.ContractorSnapshot{}, err
	}
	return profile.Snapshot(), nil
}

// reportMismatches logs stored totals that disagreed with the recomputed ones.
// The recomputed values have already replaced them on the document.
func reportMismatches(ctx context.Context, o options, docType string, id uuid.UUID, number string, mismatches []document.Mismatch) {
	if len(mismatches) == 0 {
		return
	}
	o.metrics.InconsistencyDetected(ctx, docType)
	for _, m := range mismatches {
		logger.WithLogger(ctx, o.logger).Warn("stored total disagrees with recomputed total",
			zap.String("code", shared.CodeArithmeticInconsistency),
			zap.String("document_type", docType),
			zap.String("document_id", id.String()),
			zap.String("number", number),
			zap.String("field", m.Field),
			zap.String("stored", m.Stored.StringFixed(2)),
			zap.String("computed", m.Computed.StringFixed(2)),
		)
	}
}

// publish hands pending domain events to the publisher and clears them.
// Publishing failures are logged; the state change has already been stored.
func publish(ctx context.Context, publisher shared.EventPublisher, o options, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if publisher != nil && len(events) > 0 {
		if err := publisher.Publish(ctx, events...); err != nil {
			logger.WithLogger(ctx, o.logger).Error("failed to publish domain events",
				zap.String("aggregate_id", aggregate.GetID().String()),
				zap.String("owner_id", aggregate.GetOwnerID().String()),
				zap.Int("version", aggregate.GetVersion()),
				zap.Error(err),
			)
		}
	}
	aggregate.ClearDomainEvents()
}

// listFilter applies the standard paging defaults
func listFilter(page, pageSize int, orderBy, orderDir, search string) shared.Filter {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if orderBy == "" {
		orderBy = "created_at"
	}
	if orderDir == "" {
		orderDir = "desc"
	}
	return shared.Filter{
		Page:     page,
		PageSize: pageSize,
		OrderBy:  orderBy,
		OrderDir: orderDir,
		Search:   search,
		Filters:  make(map[string]interface{}),
	}
}
