package document

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func rawItem(t *testing.T, description, qty, price string) LineItem {
	t.Helper()
	item, err := NewLineItem(LineItemSpec{
		Description: description,
		Quantity:    d(qty),
		Unit:        "ea",
		UnitPrice:   d(price),
		Category:    CategoryMaterials,
	})
	require.NoError(t, err)
	return item
}

// workedExampleEstimate is EST-202501-042: one section, 10 x 25.00 and 1 x 500.00 at 6.625%
func workedExampleEstimate(t *testing.T) *Estimate {
	t.Helper()
	section, err := NewSection("Kitchen", 0, []LineItem{
		rawItem(t, "Tile", "10", "25.00"),
		rawItem(t, "Labor", "1", "500.00"),
	})
	require.NoError(t, err)

	client := ClientSnapshot{ClientID: uuid.New(), Name: "Jane Homeowner", Email: "jane@example.com"}
	contractor := ContractorSnapshot{BusinessName: "Acme Renovations", LicenseNumber: "13VH01234500"}
	est, err := NewEstimate(uuid.New(), "Kitchen remodel", []Section{section}, dp("6.625"), client, contractor)
	require.NoError(t, err)
	require.NoError(t, est.AssignNumber("EST-202501-042"))
	return est
}
