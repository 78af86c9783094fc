package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// testEvent implements DomainEvent for testing
type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Invoice", uuid.New(), uuid.New()),
	}
}

// testHandler records what it handles
type testHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
	err        error
	panicMsg   string
	block      chan struct{}
	mu         sync.Mutex
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if h.block != nil {
		<-h.block
	}
	if h.panicMsg != "" {
		panic(h.panicMsg)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *testHandler) getHandled() []shared.DomainEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]shared.DomainEvent(nil), h.handled...)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to matching handlers only", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		sent := newTestHandler("InvoiceSent")
		paid := newTestHandler("InvoicePaid")
		bus.Subscribe(sent)
		bus.Subscribe(paid)

		event := newTestEvent("InvoiceSent")
		require.NoError(t, bus.Publish(ctx, event, newTestEvent("InvoiceSent")))

		assert.Len(t, sent.getHandled(), 2)
		assert.Equal(t, event, sent.getHandled()[0])
		assert.Empty(t, paid.getHandled())
	})

	t.Run("explicit types override handler types", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		h := newTestHandler("Ignored")
		bus.Subscribe(h, "InvoicePaid")

		require.NoError(t, bus.Publish(ctx, newTestEvent("InvoicePaid")))
		assert.Len(t, h.getHandled(), 1)
	})

	t.Run("wildcard receives everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		all := newTestHandler()
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(ctx, newTestEvent("A"), newTestEvent("B")))
		assert.Len(t, all.getHandled(), 2)
	})

	t.Run("handler error is logged and not returned", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		bus := NewInMemoryEventBus(zap.New(core))

		failing := newTestHandler("InvoiceSent")
		failing.err = errors.New("boom")
		next := newTestHandler("InvoiceSent")
		bus.Subscribe(failing)
		bus.Subscribe(next)

		require.NoError(t, bus.Publish(ctx, newTestEvent("InvoiceSent")))
		assert.Len(t, next.getHandled(), 1)
		assert.Equal(t, 1, logs.FilterMessage("handler failed to process event").Len())
	})

	t.Run("handler panic is recovered", func(t *testing.T) {
		core, logs := observer.New(zap.ErrorLevel)
		bus := NewInMemoryEventBus(zap.New(core))

		panicking := newTestHandler("InvoiceSent")
		panicking.panicMsg = "nil map"
		next := newTestHandler("InvoiceSent")
		bus.Subscribe(panicking)
		bus.Subscribe(next)

		require.NoError(t, bus.Publish(ctx, newTestEvent("InvoiceSent")))
		assert.Len(t, next.getHandled(), 1)

		entries := logs.FilterMessage("handler failed to process event").All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].ContextMap()["error"], "nil map")
	})
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler("InvoiceSent")
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), newTestEvent("InvoiceSent"))
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), newTestEvent("InvoiceSent"))

	assert.Len(t, h.getHandled(), 1)
}

func TestInMemoryEventBus_AsyncDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	require.NoError(t, bus.Start(context.Background()))

	h := newTestHandler("ChangeOrderCreated")
	h.block = make(chan struct{})
	bus.Subscribe(h)

	// a cancelled publisher context must not cancel delivery
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, newTestEvent("ChangeOrderCreated")))
	cancel()

	assert.Empty(t, h.getHandled(), "publish returns before the handler runs")
	close(h.block)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Len(t, h.getHandled(), 1)
}

func TestInMemoryEventBus_AsyncBeforeStartIsSynchronous(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	h := newTestHandler("InvoiceSent")
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("InvoiceSent")))
	assert.Len(t, h.getHandled(), 1)
}

func TestInMemoryEventBus_StopTimesOut(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsyncDispatch())
	require.NoError(t, bus.Start(context.Background()))

	h := newTestHandler("InvoiceSent")
	h.block = make(chan struct{})
	defer close(h.block)
	bus.Subscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("InvoiceSent")))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, bus.Stop(ctx), context.DeadlineExceeded)
}
