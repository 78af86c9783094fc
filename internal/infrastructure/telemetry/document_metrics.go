package telemetry

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// OverdueCounter counts overdue invoices across all owners
type OverdueCounter interface {
	CountOverdueInvoices(ctx context.Context) (int64, error)
}

// DocumentMetrics records business counters for estimates, invoices and
// change orders, and refreshes the overdue invoice gauge periodically.
type DocumentMetrics struct {
	logger *zap.Logger

	documentsCreated metric.Int64Counter
	conversions      metric.Int64Counter
	payments         metric.Int64Counter
	paymentCents     metric.Int64Counter
	inconsistencies  metric.Int64Counter
	overdueInvoices  metric.Int64Gauge
	eventDeliveries  metric.Int64Counter

	stopCh      chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
	wg          sync.WaitGroup
}

// NewDocumentMetrics creates the document instruments on meter
func NewDocumentMetrics(meter metric.Meter, logger *zap.Logger) (*DocumentMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := NewInstruments(meter)
	m := &DocumentMetrics{
		logger:           logger,
		documentsCreated: b.Counter("fieldbook_documents_created_total", "Documents created by type", "{documents}"),
		conversions:      b.Counter("fieldbook_estimate_conversions_total", "Estimate to invoice conversions", "{conversions}"),
		payments:         b.Counter("fieldbook_payments_total", "Payments recorded against invoices", "{payments}"),
		paymentCents:     b.Counter("fieldbook_payment_amount_cents_total", "Sum of recorded payments in cents", "{cents}"),
		inconsistencies:  b.Counter("fieldbook_arithmetic_inconsistencies_total", "Stored totals that disagreed with recomputed totals", "{documents}"),
		overdueInvoices:  b.Gauge("fieldbook_overdue_invoices", "Sent invoices past their due date with a balance", "{invoices}"),
		eventDeliveries:  b.Counter("fieldbook_event_deliveries_total", "Domain event deliveries by handler and outcome", "{events}"),
		stopCh:           make(chan struct{}),
	}
	if err := b.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// DocumentCreated counts a new estimate, invoice or change order
func (m *DocumentMetrics) DocumentCreated(ctx context.Context, docType string) {
	m.documentsCreated.Add(ctx, 1, Attrs(AttrDocumentType.String(docType)))
}

// EstimateConverted counts a conversion; replayed marks an idempotent retry
func (m *DocumentMetrics) EstimateConverted(ctx context.Context, billingType string, replayed bool) {
	m.conversions.Add(ctx, 1, Attrs(
		AttrBillingType.String(billingType),
		AttrReplayed.String(strconv.FormatBool(replayed)),
	))
}

// PaymentRecorded counts a payment and adds its amount in cents
func (m *DocumentMetrics) PaymentRecorded(ctx context.Context, amount decimal.Decimal) {
	m.payments.Add(ctx, 1)
	m.paymentCents.Add(ctx, valueobject.Cents(amount))
}

// InconsistencyDetected counts a document whose stored totals were wrong
func (m *DocumentMetrics) InconsistencyDetected(ctx context.Context, docType string) {
	m.inconsistencies.Add(ctx, 1, Attrs(AttrDocumentType.String(docType)))
}

// EventHandled counts one event delivery to a deduplicated handler
func (m *DocumentMetrics) EventHandled(ctx context.Context, handler, eventType, outcome string) {
	m.eventDeliveries.Add(ctx, 1, Attrs(
		AttrEventHandler.String(handler),
		AttrEventType.String(eventType),
		AttrOutcome.String(outcome),
	))
}

// StartOverdueCollection refreshes the overdue gauge every interval
// (default 5 minutes) until Stop is called or ctx ends.
func (m *DocumentMetrics) StartOverdueCollection(ctx context.Context, counter OverdueCounter, interval time.Duration) {
	m.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			m.collectOverdue(ctx, counter)
			for {
				select {
				case <-m.stopCh:
					return
				case <-ctx.Done():
					return
				case <-ticker.C:
					m.collectOverdue(ctx, counter)
				}
			}
		}()
	})
}

func (m *DocumentMetrics) collectOverdue(ctx context.Context, counter OverdueCounter) {
	count, err := counter.CountOverdueInvoices(ctx)
	if err != nil {
		m.logger.Warn("Failed to count overdue invoices", zap.Error(err))
		return
	}
	m.overdueInvoices.Record(ctx, count)
}

// Stop ends periodic collection. It is safe to call more than once.
func (m *DocumentMetrics) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.wg.Wait()
}
