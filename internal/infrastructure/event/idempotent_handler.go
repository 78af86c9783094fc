package event

import (
	"context"

	"github.com/fieldbook/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Delivery outcomes reported by IdempotentHandler
const (
	OutcomeHandled   = "handled"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"
)

// OutcomeRecorder is told how each delivery through an IdempotentHandler
// ended
type OutcomeRecorder interface {
	EventHandled(ctx context.Context, handler, eventType, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) EventHandled(context.Context, string, string, string) {}

// IdempotentHandler runs its inner handler at most once per event ID, so a
// re-published ChangeOrderCreated does not mail the client twice. Keys are
// scoped by handler name; two handlers sharing a store stay independent.
type IdempotentHandler struct {
	name     string
	handler  shared.EventHandler
	store    shared.IdempotencyStore
	config   shared.IdempotencyConfig
	logger   *zap.Logger
	recorder OutcomeRecorder
}

// IdempotentHandlerOption configures an IdempotentHandler
type IdempotentHandlerOption func(*IdempotentHandler)

// WithIdempotencyConfig overrides the key TTL or turns deduplication off
func WithIdempotencyConfig(config shared.IdempotencyConfig) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.config = config }
}

// WithOutcomeRecorder reports every delivery outcome to r
func WithOutcomeRecorder(r OutcomeRecorder) IdempotentHandlerOption {
	return func(h *IdempotentHandler) { h.recorder = r }
}

// NewIdempotentHandler wraps handler under name
func NewIdempotentHandler(
	name string,
	handler shared.EventHandler,
	store shared.IdempotencyStore,
	logger *zap.Logger,
	opts ...IdempotentHandlerOption,
) *IdempotentHandler {
	h := &IdempotentHandler{
		name:     name,
		handler:  handler,
		store:    store,
		config:   shared.DefaultIdempotencyConfig(),
		logger:   logger,
		recorder: noopRecorder{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// EventTypes returns the inner handler's event types
func (h *IdempotentHandler) EventTypes() []string {
	return h.handler.EventTypes()
}

func (h *IdempotentHandler) key(event shared.DomainEvent) string {
	return "event:" + h.name + ":" + event.EventID().String()
}

// Handle claims the event's key and runs the inner handler. If the store
// cannot be reached the event is handled anyway; a duplicate notice beats a
// lost one. A failed run releases the key so a retry can succeed.
func (h *IdempotentHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.config.Enabled {
		return h.handler.Handle(ctx, event)
	}

	key := h.key(event)
	log := h.logger.With(
		zap.String("handler", h.name),
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
	)

	claimed, err := h.store.MarkProcessed(ctx, key, h.config.TTL)
	switch {
	case err != nil:
		log.Warn("idempotency store unavailable, handling event anyway", zap.Error(err))
	case !claimed:
		log.Debug("duplicate event skipped")
		h.recorder.EventHandled(ctx, h.name, event.EventType(), OutcomeDuplicate)
		return nil
	}

	if err := h.handler.Handle(ctx, event); err != nil {
		log.Error("event handler failed", zap.Error(err))
		if relErr := h.store.Release(ctx, key); relErr != nil {
			log.Warn("failed to release idempotency key", zap.Error(relErr))
		}
		h.recorder.EventHandled(ctx, h.name, event.EventType(), OutcomeFailed)
		return err
	}

	h.recorder.EventHandled(ctx, h.name, event.EventType(), OutcomeHandled)
	return nil
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
