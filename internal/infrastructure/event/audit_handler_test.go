package event

import (
	"context"
	"testing"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewAuditLogHandler(zap.New(core))

	assert.Contains(t, h.EventTypes(), document.EventTypeChangeOrderResponded)
	assert.Len(t, h.EventTypes(), len(DocumentEventTypes()))

	event := newChangeOrderCreated()
	ctx, _ := logger.WithRequestID(context.Background(), zap.NewNop(), "req-42")
	require.NoError(t, h.Handle(ctx, event))

	entries := logs.FilterMessage("domain event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, document.EventTypeChangeOrderCreated, fields["event_type"])
	assert.Equal(t, event.AggregateID().String(), fields["aggregate_id"])
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "audit", entries[0].LoggerName)
}

func TestAuditLogHandler_CustomTypes(t *testing.T) {
	h := NewAuditLogHandler(zap.NewNop(), document.EventTypeInvoicePaid)
	assert.Equal(t, []string{document.EventTypeInvoicePaid}, h.EventTypes())
}

func TestAuditLogHandler_ViaBus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bus := NewInMemoryEventBus(zap.NewNop())
	bus.Subscribe(NewAuditLogHandler(zap.New(core)))

	require.NoError(t, bus.Publish(context.Background(), newChangeOrderCreated(), newTestEvent("Unlisted")))
	assert.Equal(t, 1, logs.Len())
}
