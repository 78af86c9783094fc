package event

import (
	"context"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per domain event.
// The line carries trace and request IDs from ctx when present.
type AuditLogHandler struct {
	logger     *zap.Logger
	eventTypes []string
}

// NewAuditLogHandler creates an audit handler for the given event types.
// With no types it uses DocumentEventTypes.
func NewAuditLogHandler(log *zap.Logger, eventTypes ...string) *AuditLogHandler {
	if len(eventTypes) == 0 {
		eventTypes = DocumentEventTypes()
	}
	return &AuditLogHandler{
		logger:     log.Named("audit"),
		eventTypes: eventTypes,
	}
}

// EventTypes returns the audited event types
func (h *AuditLogHandler) EventTypes() []string {
	return h.eventTypes
}

// Handle logs the event
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	logger.WithLogger(ctx, h.logger).Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("event_owner_id", event.OwnerID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
