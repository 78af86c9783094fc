package telemetry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubOverdueCounter struct {
	count int64
	err   error
	calls atomic.Int32
}

func (s *stubOverdueCounter) CountOverdueInvoices(context.Context) (int64, error) {
	s.calls.Add(1)
	return s.count, s.err
}

func TestNewDocumentMetrics_NilMeter(t *testing.T) {
	m, err := NewDocumentMetrics(nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrMeterNil)
	assert.Nil(t, m)
}

func TestDocumentMetrics_Counters(t *testing.T) {
	reader, provider := newTestMeter(t)
	m, err := NewDocumentMetrics(provider.Meter("test"), nil)
	require.NoError(t, err)
	ctx := context.Background()

	m.DocumentCreated(ctx, "estimate")
	m.DocumentCreated(ctx, "invoice")
	m.EstimateConverted(ctx, "final", false)
	m.EstimateConverted(ctx, "final", true)
	m.PaymentRecorded(ctx, decimal.RequireFromString("125.50"))
	m.PaymentRecorded(ctx, decimal.RequireFromString("0.01"))
	m.InconsistencyDetected(ctx, "invoice")
	m.EventHandled(ctx, "change_order_approval", "ChangeOrderCreated", "handled")
	m.EventHandled(ctx, "change_order_approval", "ChangeOrderCreated", "duplicate")

	rm := collect(t, reader)
	assert.Equal(t, int64(2), sumTotal(t, rm, "fieldbook_documents_created_total"))
	assert.Equal(t, int64(2), sumTotal(t, rm, "fieldbook_estimate_conversions_total"))
	assert.Equal(t, int64(2), sumTotal(t, rm, "fieldbook_payments_total"))
	assert.Equal(t, int64(12551), sumTotal(t, rm, "fieldbook_payment_amount_cents_total"))
	assert.Equal(t, int64(1), sumTotal(t, rm, "fieldbook_arithmetic_inconsistencies_total"))
	assert.Equal(t, int64(2), sumTotal(t, rm, "fieldbook_event_deliveries_total"))
}

func TestDocumentMetrics_OverdueCollection(t *testing.T) {
	t.Run("records the overdue count", func(t *testing.T) {
		reader, provider := newTestMeter(t)
		m, err := NewDocumentMetrics(provider.Meter("test"), zap.NewNop())
		require.NoError(t, err)

		counter := &stubOverdueCounter{count: 4}
		m.StartOverdueCollection(context.Background(), counter, time.Hour)
		m.StartOverdueCollection(context.Background(), counter, time.Hour)
		require.Eventually(t, func() bool { return counter.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
		m.Stop()

		assert.Equal(t, int32(1), counter.calls.Load())
		assert.Equal(t, int64(4), gaugeValue(t, collect(t, reader), "fieldbook_overdue_invoices"))
	})

	t.Run("count failure leaves the gauge unset", func(t *testing.T) {
		reader, provider := newTestMeter(t)
		m, err := NewDocumentMetrics(provider.Meter("test"), zap.NewNop())
		require.NoError(t, err)

		counter := &stubOverdueCounter{err: errors.New("db down")}
		m.StartOverdueCollection(context.Background(), counter, time.Hour)
		require.Eventually(t, func() bool { return counter.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
		m.Stop()

		_, ok := findMetric(collect(t, reader), "fieldbook_overdue_invoices")
		assert.False(t, ok)
	})
}
