//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var repoNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func newDeckInvoice(t *testing.T, ownerID uuid.UUID, number string, due time.Time) *document.Invoice {
	t.Helper()
	item, err := document.NewLineItem(document.LineItemSpec{
		Description: "Composite boards",
		Quantity:    dec("40"),
		Unit:        "ea",
		UnitPrice:   dec("18.75"),
		Category:    document.CategoryMaterials,
	})
	require.NoError(t, err)
	inv, err := document.NewInvoice(ownerID, document.InvoiceTypeFinal, "Deck", []document.LineItem{item}, decPtr("0"), repoNow.AddDate(0, 0, -45))
	require.NoError(t, err)
	require.NoError(t, inv.AssignNumber(number))
	require.NoError(t, inv.SetDueDate(due))
	return inv
}

func requireConflict(t *testing.T, err error) {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeConflict, domainErr.Code)
}

func TestInvoiceRepository_Postgres(t *testing.T) {
	db := NewTestDB(t)
	repo := persistence.NewGormInvoiceRepository(db.DB)
	ctx := context.Background()
	owner := uuid.New()

	overdue := newDeckInvoice(t, owner, "INV-202506-0001", repoNow.AddDate(0, 0, -15))
	require.NoError(t, overdue.Send(repoNow.AddDate(0, 0, -45)))
	require.NoError(t, repo.Save(ctx, overdue))

	current := newDeckInvoice(t, owner, "INV-202506-0002", repoNow.AddDate(0, 0, 15))
	require.NoError(t, current.Send(repoNow))
	require.NoError(t, repo.Save(ctx, current))

	t.Run("numbers are unique per owner", func(t *testing.T) {
		dup := newDeckInvoice(t, owner, "INV-202506-0001", repoNow)
		requireConflict(t, repo.Save(ctx, dup))

		elsewhere := newDeckInvoice(t, uuid.New(), "INV-202506-0001", repoNow)
		assert.NoError(t, repo.Save(ctx, elsewhere))
	})

	t.Run("a conversion key is used once", func(t *testing.T) {
		first := newDeckInvoice(t, owner, "INV-202506-0003", repoNow)
		first.ConversionKey = "estimate-key"
		require.NoError(t, repo.Save(ctx, first))

		second := newDeckInvoice(t, owner, "INV-202506-0004", repoNow)
		second.ConversionKey = "estimate-key"
		requireConflict(t, repo.Save(ctx, second))

		found, err := repo.FindByConversionKey(ctx, owner, "estimate-key")
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
	})

	t.Run("overdue is derived at the given instant", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["status"] = string(document.InvoiceStatusOverdue)
		filter.Filters[persistence.FilterAsOf] = repoNow

		found, err := repo.FindAllForOwner(ctx, owner, filter)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, overdue.ID, found[0].ID)
		assert.Equal(t, document.InvoiceStatusOverdue, found[0].EffectiveStatus(repoNow))

		filter.Filters["status"] = string(document.InvoiceStatusSent)
		sent, err := repo.CountForOwner(ctx, owner, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), sent)

		filter.Filters[persistence.FilterAsOf] = repoNow.AddDate(0, 0, -30)
		filter.Filters["status"] = string(document.InvoiceStatusOverdue)
		earlier, err := repo.CountForOwner(ctx, owner, filter)
		require.NoError(t, err)
		assert.Zero(t, earlier)
	})

	t.Run("payments survive a round trip", func(t *testing.T) {
		payment, err := document.NewPayment(dec("250.00"), repoNow, document.PaymentMethodCheck, "2201", "")
		require.NoError(t, err)
		require.NoError(t, current.RecordPayment(payment, repoNow))
		require.NoError(t, repo.Save(ctx, current))

		found, err := repo.FindByIDForOwner(ctx, owner, current.ID)
		require.NoError(t, err)
		require.Len(t, found.Payments, 1)
		assertAmount(t, "250", found.AmountPaid, "amount paid")
		assertAmount(t, "500", found.Balance, "balance")
		assert.Empty(t, found.Recalculate(), "stored totals match recomputed totals")
	})

	t.Run("owners with open invoices", func(t *testing.T) {
		owners, err := repo.ListOwnerIDsWithOpenInvoices(ctx)
		require.NoError(t, err)
		assert.Contains(t, owners, owner)
	})
}

func TestChangeOrderRepository_Postgres(t *testing.T) {
	db := NewTestDB(t)
	repo := persistence.NewGormChangeOrderRepository(db.DB)
	ctx := context.Background()
	owner := uuid.New()

	change := dec("950")
	co, err := document.NewChangeOrder(owner, document.ChangeOrderSpec{
		ProjectID:      uuid.New(),
		Client:         document.ClientSnapshot{ClientID: uuid.New(), Name: "Riley Park"},
		Title:          "Extra outlet circuit",
		OriginalAmount: dec("18000"),
		ChangeAmount:   &change,
	}, 14*24*time.Hour, repoNow)
	require.NoError(t, err)
	require.NoError(t, co.AssignNumber("CO-202506-0001"))
	require.NoError(t, repo.Save(ctx, co))

	t.Run("found by approval token", func(t *testing.T) {
		found, err := repo.FindByToken(ctx, co.ApprovalToken)
		require.NoError(t, err)
		assert.Equal(t, co.ID, found.ID)
		assertAmount(t, "18950", found.NewTotalAmount, "new total")

		_, err = repo.FindByToken(ctx, "no-such-token")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("link sent time is written alone", func(t *testing.T) {
		sentAt := repoNow.Add(time.Minute)
		require.NoError(t, repo.MarkLinkSent(ctx, co.ID, sentAt))

		found, err := repo.FindByIDForOwner(ctx, owner, co.ID)
		require.NoError(t, err)
		require.NotNil(t, found.LinkSentAt)
		assert.True(t, sentAt.Equal(*found.LinkSentAt))
		assert.Equal(t, document.ChangeOrderStatusPending, found.Status)
	})

	t.Run("expired is derived at the given instant", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["status"] = string(document.ChangeOrderStatusExpired)
		filter.Filters[persistence.FilterAsOf] = repoNow.AddDate(0, 0, 15)
		count, err := repo.CountForOwner(ctx, owner, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		filter.Filters["status"] = string(document.ChangeOrderStatusPending)
		count, err = repo.CountForOwner(ctx, owner, filter)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
