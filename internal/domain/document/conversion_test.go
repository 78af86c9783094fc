package document

import (
	"testing"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var issueDate = time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

func TestConvertEstimateToInvoice_Final(t *testing.T) {
	est := workedExampleEstimate(t)
	due := issueDate.Add(30 * 24 * time.Hour)

	inv, err := ConvertEstimateToInvoice(est, ConversionRequest{
		BillingType: BillingTypeFinal,
		IssueDate:   issueDate,
		DueDate:     &due,
	})
	require.NoError(t, err)

	assert.Equal(t, InvoiceTypeFinal, inv.Type)
	assert.Equal(t, InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "750.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "49.69", inv.Tax.StringFixed(2))
	assert.Equal(t, "799.69", inv.Total.StringFixed(2))
	assert.True(t, inv.Total.Equal(est.Total))
	assert.True(t, inv.AmountPaid.IsZero())
	assert.True(t, inv.Balance.Equal(inv.Total))
	assert.Nil(t, inv.ProgressBilling)

	require.NotNil(t, inv.EstimateID)
	assert.Equal(t, est.ID, *inv.EstimateID)
	assert.Equal(t, est.OwnerID, inv.OwnerID)
	assert.Equal(t, est.Client, inv.Client)
	assert.Equal(t, est.Contractor, inv.Contractor)
	require.NotNil(t, inv.DueDate)
	assert.Equal(t, due, *inv.DueDate)

	require.Len(t, inv.Items, 2)
	assert.NotEqual(t, est.Sections[0].Items[0].ID, inv.Items[0].ID)
	assert.Equal(t, est.Sections[0].Items[0].Description, inv.Items[0].Description)

	require.Len(t, inv.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeInvoiceCreated, inv.GetDomainEvents()[0].EventType())
}

func TestConvertEstimateToInvoice_Progress(t *testing.T) {
	tests := []struct {
		name       string
		percentage string
		base       string
		tax        string
		total      string
	}{
		{"fifty percent of worked example", "50", "375.00", "24.84", "399.84"},
		{"full percentage equals final", "100", "750.00", "49.69", "799.69"},
		{"fractional percentage", "33.3333", "250.00", "16.56", "266.56"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := workedExampleEstimate(t)
			inv, err := ConvertEstimateToInvoice(est, ConversionRequest{
				BillingType: BillingTypeProgress,
				Percentage:  dp(tt.percentage),
				Phase:       "Rough-in",
				IssueDate:   issueDate,
			})
			require.NoError(t, err)

			assert.Equal(t, InvoiceTypeProgress, inv.Type)
			require.NotNil(t, inv.ProgressBilling)
			assert.Equal(t, "Rough-in", inv.ProgressBilling.Phase)
			assert.Equal(t, tt.base, inv.ProgressBilling.Amount.StringFixed(2))
			assert.Equal(t, tt.base, inv.Subtotal.StringFixed(2))
			assert.Equal(t, tt.tax, inv.Tax.StringFixed(2))
			assert.Equal(t, tt.total, inv.Total.StringFixed(2))
			assert.Empty(t, inv.Recalculate())
		})
	}
}

func TestConvertEstimateToInvoice_ProgressBaseOfThousand(t *testing.T) {
	section, err := NewSection("Framing", 0, []LineItem{rawItem(t, "Framing", "1", "1000")})
	require.NoError(t, err)
	est, err := NewEstimate(uuid.New(), "Addition", []Section{section}, dp("0"), ClientSnapshot{}, ContractorSnapshot{})
	require.NoError(t, err)

	inv, err := ConvertEstimateToInvoice(est, ConversionRequest{BillingType: BillingTypeProgress, Percentage: dp("30"), IssueDate: issueDate})
	require.NoError(t, err)
	assert.Equal(t, "300.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "300.00", inv.Total.StringFixed(2))
	assert.Equal(t, issueDate, inv.IssueDate)
}

func TestConvertEstimateToInvoice_Validation(t *testing.T) {
	est := workedExampleEstimate(t)

	tests := []struct {
		name string
		req  ConversionRequest
	}{
		{"unknown billing type", ConversionRequest{BillingType: "deposit"}},
		{"progress without percentage", ConversionRequest{BillingType: BillingTypeProgress}},
		{"zero percentage", ConversionRequest{BillingType: BillingTypeProgress, Percentage: dp("0")}},
		{"percentage above hundred", ConversionRequest{BillingType: BillingTypeProgress, Percentage: dp("100.01")}},
		{"negative percentage", ConversionRequest{BillingType: BillingTypeProgress, Percentage: dp("-10")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConvertEstimateToInvoice(est, tt.req)
			assertDomainCode(t, err, shared.CodeValidation)
		})
	}

	_, err := ConvertEstimateToInvoice(nil, ConversionRequest{BillingType: BillingTypeFinal})
	assertDomainCode(t, err, shared.CodeNotFound)
}

func TestConversionRequest_Key(t *testing.T) {
	id := uuid.MustParse("7f1d7d0e-1f6a-4b43-9a37-3c1a4c6b2d10")

	final := ConversionRequest{BillingType: BillingTypeFinal}
	assert.Equal(t, "7f1d7d0e-1f6a-4b43-9a37-3c1a4c6b2d10:final", final.Key(id))

	p1 := ConversionRequest{BillingType: BillingTypeProgress, Percentage: dp("50"), Phase: " Rough-In "}
	p2 := ConversionRequest{BillingType: BillingTypeProgress, Percentage: dp("50"), Phase: "rough-in"}
	p3 := ConversionRequest{BillingType: BillingTypeProgress, Percentage: dp("25"), Phase: "rough-in"}
	assert.Equal(t, p1.Key(id), p2.Key(id))
	assert.NotEqual(t, p1.Key(id), p3.Key(id))
	assert.NotEqual(t, final.Key(id), p1.Key(id))
}

func TestEstimate_LinkInvoice(t *testing.T) {
	est := workedExampleEstimate(t)
	inv, err := ConvertEstimateToInvoice(est, ConversionRequest{BillingType: BillingTypeFinal, IssueDate: issueDate})
	require.NoError(t, err)

	est.ClearDomainEvents()
	est.LinkInvoice(inv, issueDate)
	est.LinkInvoice(inv, issueDate)
	assert.Equal(t, []uuid.UUID{inv.ID}, est.InvoiceIDs)

	events := est.GetDomainEvents()
	require.Len(t, events, 1)
	converted, ok := events[0].(*EstimateConvertedEvent)
	require.True(t, ok)
	assert.Equal(t, "750.00", converted.BilledBase.StringFixed(2))
}

func TestInvoiceFromChangeOrder(t *testing.T) {
	co := createTestChangeOrder(t, "1200")
	_, err := InvoiceFromChangeOrder(co, nil, issueDate)
	assertDomainCode(t, err, shared.CodeInvalidState)

	require.NoError(t, co.Respond(co.ApprovalToken, DecisionApprove, "", "", coNow))
	inv, err := InvoiceFromChangeOrder(co, nil, issueDate)
	require.NoError(t, err)
	assert.Equal(t, InvoiceTypeChangeOrder, inv.Type)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "lot", inv.Items[0].Unit)
	assert.Equal(t, "1200.00", inv.Subtotal.StringFixed(2))
	assert.Equal(t, "79.50", inv.Tax.StringFixed(2))
	assert.Equal(t, "1279.50", inv.Total.StringFixed(2))
	require.NotNil(t, inv.ChangeOrderID)
	assert.Equal(t, co.ID, *inv.ChangeOrderID)

	credit := createTestChangeOrder(t, "-100")
	require.NoError(t, credit.Respond(credit.ApprovalToken, DecisionApprove, "", "", coNow))
	_, err = InvoiceFromChangeOrder(credit, nil, issueDate)
	assertDomainCode(t, err, shared.CodeValidation)
}
