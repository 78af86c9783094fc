package export

import (
	"bytes"
	"testing"
	"time"

	documentapp "github.com/fieldbook/backend/internal/application/document"
	"github.com/fieldbook/backend/internal/domain/document"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var raw = excelize.Options{RawCellValue: true}

func lineItem(desc string, qty, price, total string) documentapp.LineItemResponse {
	return documentapp.LineItemResponse{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		Unit:        "ea",
		UnitPrice:   decimal.RequireFromString(price),
		Total:       decimal.RequireFromString(total),
		Category:    "material",
	}
}

func openWorkbook(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// findRow returns the 1-based row whose first column equals label
func findRow(t *testing.T, f *excelize.File, sheet, label string) int {
	t.Helper()
	rows, err := f.GetRows(sheet, raw)
	require.NoError(t, err)
	for i, row := range rows {
		if len(row) > 0 && row[0] == label {
			return i + 1
		}
	}
	t.Fatalf("row %q not found", label)
	return 0
}

func TestXLSXExporter_ExportEstimate(t *testing.T) {
	validUntil := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	estimate := &documentapp.EstimateResponse{
		Number: "EST-202503-101",
		Title:  "Kitchen remodel",
		Status: "sent",
		Sections: []documentapp.SectionResponse{{
			Name:     "Flooring",
			Subtotal: decimal.RequireFromString("750.00"),
			Items: []documentapp.LineItemResponse{
				lineItem("Tile", "10", "25.00", "250.00"),
				lineItem("Labor", "1", "500.00", "500.00"),
			},
		}},
		Subtotal:   decimal.RequireFromString("750.00"),
		TaxRate:    decimal.RequireFromString("6.625"),
		Tax:        decimal.RequireFromString("49.69"),
		Total:      decimal.RequireFromString("799.69"),
		ValidUntil: &validUntil,
		Client:     document.ClientSnapshot{Name: "Dana Smith"},
		Contractor: document.ContractorSnapshot{BusinessName: "Oak & Iron Builders"},
	}

	var buf bytes.Buffer
	require.NoError(t, NewXLSXExporter().ExportEstimate(&buf, estimate))
	f := openWorkbook(t, &buf)

	assert.Equal(t, []string{SheetEstimate}, f.GetSheetList())

	v, err := f.GetCellValue(SheetEstimate, "B1")
	require.NoError(t, err)
	assert.Equal(t, "EST-202503-101", v)
	v, err = f.GetCellValue(SheetEstimate, "B6")
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", v)

	tile := findRow(t, f, SheetEstimate, "Flooring")
	v, err = f.GetCellValue(SheetEstimate, cellName(t, 2, tile), raw)
	require.NoError(t, err)
	assert.Equal(t, "Tile", v)
	v, err = f.GetCellValue(SheetEstimate, cellName(t, 7, tile), raw)
	require.NoError(t, err)
	assert.Equal(t, "250", v)

	total := findRow(t, f, SheetEstimate, "Total")
	v, err = f.GetCellValue(SheetEstimate, cellName(t, 7, total), raw)
	require.NoError(t, err)
	assert.Equal(t, "799.69", v)

	tax := findRow(t, f, SheetEstimate, "Tax (6.625%)")
	assert.Equal(t, total-1, tax)
}

func TestXLSXExporter_ExportInvoice(t *testing.T) {
	due := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	invoice := &documentapp.InvoiceResponse{
		Number:     "INV-202503-007",
		Type:       "final",
		Status:     "partial",
		Items:      []documentapp.LineItemResponse{lineItem("Drywall", "20", "15.00", "300.00")},
		Subtotal:   decimal.RequireFromString("300.00"),
		TaxRate:    decimal.Zero,
		Tax:        decimal.Zero,
		Total:      decimal.RequireFromString("300.00"),
		AmountPaid: decimal.RequireFromString("100.00"),
		Balance:    decimal.RequireFromString("200.00"),
		Payments: []documentapp.PaymentResponse{{
			Amount: decimal.RequireFromString("100.00"),
			Date:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			Method: "check",
		}},
		IssueDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   &due,
	}

	var buf bytes.Buffer
	require.NoError(t, NewXLSXExporter().ExportInvoice(&buf, invoice))
	f := openWorkbook(t, &buf)

	assert.Equal(t, []string{SheetInvoice, SheetPayments}, f.GetSheetList())

	balance := findRow(t, f, SheetInvoice, "Balance")
	v, err := f.GetCellValue(SheetInvoice, cellName(t, 7, balance), raw)
	require.NoError(t, err)
	assert.Equal(t, "200", v)

	rows, err := f.GetRows(SheetPayments, raw)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2025-03-10", "check", "", "100"}, rows[1])
}

func TestXLSXExporter_FileName(t *testing.T) {
	x := NewXLSXExporter()
	assert.Equal(t, "INV-202503-007.xlsx", x.FileName("INV-202503-007"))
	assert.Equal(t, "document.xlsx", x.FileName(""))
}

func cellName(t *testing.T, col, row int) string {
	t.Helper()
	name, err := excelize.CoordinatesToCellName(col, row)
	require.NoError(t, err)
	return name
}
