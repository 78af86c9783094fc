package handler

import (
	"net/http"
	"testing"
	"time"

	documentapp "github.com/fieldbook/backend/internal/application/document"
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *testServer) createInvoice(t *testing.T, issued, due time.Time) documentapp.InvoiceResponse {
	t.Helper()
	client := s.createClient(t, "Lee Park")
	req := documentapp.CreateInvoiceRequest{
		ClientID:  &client.ID,
		Title:     "Deck repair",
		TaxRate:   decPtr("0"),
		IssueDate: &issued,
		DueDate:   &due,
		Items: []documentapp.LineItemInput{
			{Description: "Labor", Quantity: dec("8"), Unit: "hr", UnitPrice: dec("75"), Category: "labor"},
			{Description: "Boards", Quantity: dec("20"), Unit: "ea", UnitPrice: dec("12.50"), Category: "materials"},
		},
	}
	return decode[documentapp.InvoiceResponse](t, s.do(t, http.MethodPost, "/api/v1/invoices", req), http.StatusCreated).Data
}

func TestInvoiceHandler_Payments(t *testing.T) {
	s := newTestServer(t)
	now := time.Now().UTC()
	inv := s.createInvoice(t, now, now.AddDate(0, 0, 30))
	require.True(t, dec("850").Equal(inv.Total), inv.Total.String())
	base := "/api/v1/invoices/" + inv.ID.String()

	t.Run("draft refuses payments", func(t *testing.T) {
		w := s.do(t, http.MethodPost, base+"/payments", documentapp.RecordPaymentRequest{Amount: dec("100")})
		assert.Equal(t, shared.CodeInvalidState, decodeError(t, w, http.StatusConflict).Code)
	})

	decode[documentapp.InvoiceResponse](t, s.do(t, http.MethodPost, base+"/send", nil), http.StatusOK)

	t.Run("zero amount", func(t *testing.T) {
		w := s.do(t, http.MethodPost, base+"/payments", map[string]string{"amount": "0"})
		assert.Equal(t, shared.CodeValidation, decodeError(t, w, http.StatusBadRequest).Code)
	})

	partial := decode[documentapp.InvoiceResponse](t,
		s.do(t, http.MethodPost, base+"/payments", documentapp.RecordPaymentRequest{Amount: dec("500"), Method: "check", Reference: "1042"}),
		http.StatusCreated).Data
	assert.Equal(t, "sent", partial.Status)
	assert.True(t, dec("500").Equal(partial.AmountPaid))
	assert.True(t, dec("350").Equal(partial.Balance))

	settled := decode[documentapp.InvoiceResponse](t,
		s.do(t, http.MethodPost, base+"/payments", documentapp.RecordPaymentRequest{Amount: dec("350")}),
		http.StatusCreated).Data
	assert.Equal(t, "paid", settled.Status)
	assert.True(t, settled.Balance.IsZero())
	assert.NotNil(t, settled.PaidAt)

	payments := decode[[]documentapp.PaymentResponse](t, s.do(t, http.MethodGet, base+"/payments", nil), http.StatusOK).Data
	require.Len(t, payments, 2)
	assert.Equal(t, "1042", payments[0].Reference)

	t.Run("paid refuses payments", func(t *testing.T) {
		w := s.do(t, http.MethodPost, base+"/payments", documentapp.RecordPaymentRequest{Amount: dec("1")})
		decodeError(t, w, http.StatusConflict)
	})
}

func TestInvoiceHandler_Cancel(t *testing.T) {
	s := newTestServer(t)
	now := time.Now().UTC()

	t.Run("with reason", func(t *testing.T) {
		inv := s.createInvoice(t, now, now.AddDate(0, 0, 30))
		cancelled := decode[documentapp.InvoiceResponse](t,
			s.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/cancel", documentapp.CancelInvoiceRequest{Reason: "Duplicate"}),
			http.StatusOK).Data
		assert.Equal(t, "cancelled", cancelled.Status)
		assert.Equal(t, "Duplicate", cancelled.CancelReason)
	})

	t.Run("without body", func(t *testing.T) {
		inv := s.createInvoice(t, now, now.AddDate(0, 0, 30))
		cancelled := decode[documentapp.InvoiceResponse](t,
			s.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/cancel", nil), http.StatusOK).Data
		assert.Equal(t, "cancelled", cancelled.Status)

		w := s.do(t, http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/cancel", nil)
		decodeError(t, w, http.StatusConflict)
	})
}

func TestInvoiceHandler_OverdueAndDashboard(t *testing.T) {
	s := newTestServer(t)
	now := time.Now().UTC()

	late := s.createInvoice(t, now.AddDate(0, 0, -60), now.AddDate(0, 0, -30))
	decode[documentapp.InvoiceResponse](t, s.do(t, http.MethodPost, "/api/v1/invoices/"+late.ID.String()+"/send", nil), http.StatusOK)
	current := s.createInvoice(t, now, now.AddDate(0, 0, 30))
	decode[documentapp.InvoiceResponse](t, s.do(t, http.MethodPost, "/api/v1/invoices/"+current.ID.String()+"/send", nil), http.StatusOK)
	// drafts are not receivables
	s.createInvoice(t, now, now.AddDate(0, 0, 30))

	got := decode[documentapp.InvoiceResponse](t, s.do(t, http.MethodGet, "/api/v1/invoices/"+late.ID.String(), nil), http.StatusOK).Data
	assert.Equal(t, "overdue", got.Status)

	summary := decode[documentapp.DashboardSummaryResponse](t, s.do(t, http.MethodGet, "/api/v1/dashboard/summary", nil), http.StatusOK).Data
	assert.Equal(t, 2, summary.OpenInvoices)
	assert.Equal(t, 1, summary.OverdueInvoices)
	assert.True(t, dec("1700").Equal(summary.OutstandingBalance), summary.OutstandingBalance.String())
	assert.True(t, dec("850").Equal(summary.OverdueBalance), summary.OverdueBalance.String())
}
