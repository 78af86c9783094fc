package document

import (
	"context"
	"testing"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Summary(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	now := time.Now()

	estimateRepo := new(MockEstimateRepository)
	invoiceRepo := new(MockInvoiceRepository)
	changeOrderRepo := new(MockChangeOrderRepository)
	service := NewDashboardService(estimateRepo, invoiceRepo, changeOrderRepo, WithClock(func() time.Time { return now }))

	late := newSentInvoice(t, ownerID, now.AddDate(0, 0, -20))
	current := newSentInvoice(t, ownerID, now)
	settled := newSentInvoice(t, ownerID, now.AddDate(0, 0, -20))
	payment, err := document.NewPayment(dec("1000.00"), now, document.PaymentMethodCheck, "", "")
	require.NoError(t, err)
	settled.Payments = append(settled.Payments, payment)
	settled.AmountPaid = dec("1000.00")
	settled.Balance = dec("0")

	invoiceRepo.On("FindOpenForOwner", ctx, ownerID).Return([]document.Invoice{*late, *current, *settled}, nil)
	changeOrderRepo.On("CountForOwner", ctx, ownerID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["status"] == "pending" && f.Filters[shared.FilterKeyAsOf] == now
	})).Return(int64(2), nil)
	estimateRepo.On("CountForOwner", ctx, ownerID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["status"] == "sent"
	})).Return(int64(3), nil)
	estimateRepo.On("CountForOwner", ctx, ownerID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Filters["status"] == "draft"
	})).Return(int64(1), nil)

	summary, err := service.Summary(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, now, summary.AsOf)
	assert.Equal(t, 2, summary.OpenInvoices)
	assert.True(t, summary.OutstandingBalance.Equal(dec("2000.00")))
	assert.Equal(t, 1, summary.OverdueInvoices)
	assert.True(t, summary.OverdueBalance.Equal(dec("1000.00")))
	assert.Equal(t, int64(2), summary.PendingChangeOrders)
	assert.Equal(t, int64(3), summary.EstimatesAwaiting)
	assert.Equal(t, int64(1), summary.DraftEstimates)
}

func TestDashboardService_CountOverdueInvoices(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	first, second := uuid.New(), uuid.New()

	invoiceRepo := new(MockInvoiceRepository)
	service := NewDashboardService(new(MockEstimateRepository), invoiceRepo, new(MockChangeOrderRepository),
		WithClock(func() time.Time { return now }))

	invoiceRepo.On("ListOwnerIDsWithOpenInvoices", ctx).Return([]uuid.UUID{first, second}, nil)
	invoiceRepo.On("FindOpenForOwner", ctx, first).Return([]document.Invoice{
		*newSentInvoice(t, first, now.AddDate(0, 0, -20)),
		*newSentInvoice(t, first, now),
	}, nil)
	invoiceRepo.On("FindOpenForOwner", ctx, second).Return([]document.Invoice{
		*newSentInvoice(t, second, now.AddDate(0, 0, -15)),
	}, nil)

	count, err := service.CountOverdueInvoices(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
