package document

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ApprovalNotifier delivers change order approval links to clients.
// Implementations can support different channels (webhook, email, SMS).
type ApprovalNotifier interface {
	// SendApprovalRequest sends the approval link for one change order
	SendApprovalRequest(ctx context.Context, n ApprovalNotification) error
}

// ApprovalNotification is the payload sent to the client
type ApprovalNotification struct {
	OwnerID       uuid.UUID       `json:"owner_id"`
	ChangeOrderID uuid.UUID       `json:"change_order_id"`
	Number        string          `json:"number"`
	Title         string          `json:"title"`
	ClientName    string          `json:"client_name"`
	ClientEmail   string          `json:"client_email,omitempty"`
	ClientPhone   string          `json:"client_phone,omitempty"`
	ChangeAmount  decimal.Decimal `json:"change_amount"`
	NewTotal      decimal.Decimal `json:"new_total"`
	ApprovalURL   string          `json:"approval_url"`
	ExpiresAt     time.Time       `json:"expires_at"`
}

// ChangeOrderApprovalHandler handles ChangeOrderCreated and
// ChangeOrderApprovalRequested events by sending the approval link.
// Delivery is fire-and-forget: a failed send is logged and the change order
// stays pending, so the owner can resend the link.
type ChangeOrderApprovalHandler struct {
	changeOrderRepo document.ChangeOrderRepository
	notifier        ApprovalNotifier
	settings        Settings
	logger          *zap.Logger
	clock           Clock
}

// NewChangeOrderApprovalHandler creates a new approval notification handler
func NewChangeOrderApprovalHandler(
	changeOrderRepo document.ChangeOrderRepository,
	notifier ApprovalNotifier,
	settings Settings,
	logger *zap.Logger,
) *ChangeOrderApprovalHandler {
	return &ChangeOrderApprovalHandler{
		changeOrderRepo: changeOrderRepo,
		notifier:        notifier,
		settings:        settings,
		logger:          logger,
		clock:           time.Now,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ChangeOrderApprovalHandler) EventTypes() []string {
	return []string{
		document.EventTypeChangeOrderCreated,
		document.EventTypeChangeOrderApprovalRequested,
	}
}

// Handle sends the approval link and records when it went out
func (h *ChangeOrderApprovalHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var changeOrderID uuid.UUID
	switch e := event.(type) {
	case *document.ChangeOrderCreatedEvent:
		changeOrderID = e.ChangeOrderID
	case *document.ChangeOrderApprovalRequestedEvent:
		changeOrderID = e.ChangeOrderID
	default:
		h.logger.Error("unexpected event type",
			zap.Strings("expected", h.EventTypes()),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	co, err := h.changeOrderRepo.FindByID(ctx, changeOrderID)
	if err != nil {
		return fmt.Errorf("load change order %s: %w", changeOrderID, err)
	}

	now := h.clock()
	if status := co.EffectiveStatus(now); status != document.ChangeOrderStatusPending {
		h.logger.Info("skipping approval link for answered change order",
			zap.String("change_order_id", co.ID.String()),
			zap.String("status", string(status)),
		)
		return nil
	}

	notification := ApprovalNotification{
		OwnerID:       co.OwnerID,
		ChangeOrderID: co.ID,
		Number:        co.Number,
		Title:         co.Title,
		ClientName:    co.Client.Name,
		ClientEmail:   co.Client.Email,
		ClientPhone:   co.Client.Phone,
		ChangeAmount:  co.ChangeAmount,
		NewTotal:      co.NewTotalAmount,
		ApprovalURL:   h.settings.ApprovalURL(co.ApprovalToken),
		ExpiresAt:     co.ExpiresAt,
	}
	if err := h.notifier.SendApprovalRequest(ctx, notification); err != nil {
		h.logger.Warn("failed to send change order approval link",
			zap.String("change_order_id", co.ID.String()),
			zap.String("number", co.Number),
			zap.Error(err),
		)
		return nil
	}

	if err := h.changeOrderRepo.MarkLinkSent(ctx, co.ID, now); err != nil {
		return fmt.Errorf("record link sent for change order %s: %w", co.ID, err)
	}

	h.logger.Info("change order approval link sent",
		zap.String("change_order_id", co.ID.String()),
		zap.String("number", co.Number),
	)
	return nil
}

// Ensure ChangeOrderApprovalHandler implements shared.EventHandler
var _ shared.EventHandler = (*ChangeOrderApprovalHandler)(nil)

// LoggingApprovalNotifier is a simple notifier that logs approval links.
// It is used when no webhook is configured.
type LoggingApprovalNotifier struct {
	logger *zap.Logger
}

// NewLoggingApprovalNotifier creates a new logging notifier
func NewLoggingApprovalNotifier(logger *zap.Logger) *LoggingApprovalNotifier {
	return &LoggingApprovalNotifier{
		logger: logger,
	}
}

// SendApprovalRequest logs the approval link
func (n *LoggingApprovalNotifier) SendApprovalRequest(ctx context.Context, notification ApprovalNotification) error {
	n.logger.Info("CHANGE ORDER APPROVAL REQUEST",
		zap.String("number", notification.Number),
		zap.String("client", notification.ClientName),
		zap.String("client_email", notification.ClientEmail),
		zap.String("change_amount", notification.ChangeAmount.StringFixed(2)),
		zap.String("approval_url", notification.ApprovalURL),
		zap.Time("expires_at", notification.ExpiresAt),
	)
	return nil
}

// Ensure LoggingApprovalNotifier implements ApprovalNotifier
var _ ApprovalNotifier = (*LoggingApprovalNotifier)(nil)
