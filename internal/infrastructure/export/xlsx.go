// Package export renders estimates and invoices as spreadsheets.
package export

import (
	"fmt"
	"io"

	documentapp "github.com/fieldbook/backend/internal/application/document"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the MIME type of the exported workbook
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names
const (
	SheetEstimate = "Estimate"
	SheetInvoice  = "Invoice"
	SheetPayments = "Payments"
)

const dateLayout = "2006-01-02"

var itemHeadings = []interface{}{"Section", "Description", "Category", "Quantity", "Unit", "Unit Price", "Total"}

// XLSXExporter writes document line items and totals to an Excel workbook
type XLSXExporter struct{}

// NewXLSXExporter creates a new XLSXExporter
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// FileName returns the download name for a document number
func (x *XLSXExporter) FileName(number string) string {
	if number == "" {
		number = "document"
	}
	return number + ".xlsx"
}

// ExportEstimate writes one sheet with the estimate's sections, items and totals
func (x *XLSXExporter) ExportEstimate(w io.Writer, e *documentapp.EstimateResponse) error {
	b, err := newWorkbook(SheetEstimate)
	if err != nil {
		return err
	}
	defer b.f.Close()

	validUntil := ""
	if e.ValidUntil != nil {
		validUntil = e.ValidUntil.Format(dateLayout)
	}
	b.header("Estimate", e.Number)
	b.header("Title", e.Title)
	b.header("Status", e.Status)
	b.header("Client", e.Client.Name)
	b.header("Contractor", e.Contractor.BusinessName)
	b.header("Valid Until", validUntil)
	b.row++

	b.headings(itemHeadings)
	for _, section := range e.Sections {
		for _, item := range section.Items {
			b.item(section.Name, item)
		}
		b.amount("Section Subtotal: "+section.Name, section.Subtotal)
	}
	b.row++
	b.amount("Subtotal", e.Subtotal)
	b.amount(fmt.Sprintf("Tax (%s%%)", e.TaxRate.String()), e.Tax)
	b.amount("Total", e.Total)

	return b.write(w)
}

// ExportInvoice writes the invoice items and totals, plus a payments sheet
func (x *XLSXExporter) ExportInvoice(w io.Writer, inv *documentapp.InvoiceResponse) error {
	b, err := newWorkbook(SheetInvoice)
	if err != nil {
		return err
	}
	defer b.f.Close()

	dueDate := ""
	if inv.DueDate != nil {
		dueDate = inv.DueDate.Format(dateLayout)
	}
	b.header("Invoice", inv.Number)
	b.header("Title", inv.Title)
	b.header("Type", inv.Type)
	b.header("Status", inv.Status)
	b.header("Client", inv.Client.Name)
	b.header("Contractor", inv.Contractor.BusinessName)
	b.header("Issue Date", inv.IssueDate.Format(dateLayout))
	b.header("Due Date", dueDate)
	b.row++

	b.headings(itemHeadings)
	for _, item := range inv.Items {
		b.item("", item)
	}
	b.row++
	b.amount("Subtotal", inv.Subtotal)
	b.amount(fmt.Sprintf("Tax (%s%%)", inv.TaxRate.String()), inv.Tax)
	b.amount("Total", inv.Total)
	b.amount("Amount Paid", inv.AmountPaid)
	b.amount("Balance", inv.Balance)

	if _, err := b.f.NewSheet(SheetPayments); err != nil {
		return err
	}
	if err := b.f.SetSheetRow(SheetPayments, "A1", &[]interface{}{"Date", "Method", "Reference", "Amount"}); err != nil {
		return err
	}
	for i, p := range inv.Payments {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{p.Date.Format(dateLayout), p.Method, p.Reference, p.Amount.InexactFloat64()}
		if err := b.f.SetSheetRow(SheetPayments, cell, &row); err != nil {
			return err
		}
	}

	return b.write(w)
}

// workbook tracks the next free row while a sheet is filled top to bottom.
// The first error is kept and later writes are skipped.
type workbook struct {
	f          *excelize.File
	sheet      string
	row        int
	boldStyle  int
	moneyStyle int
	err        error
}

func newWorkbook(sheet string) (*workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	// Built-in number format 4 is "#,##0.00"
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", "B", 28); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &workbook{f: f, sheet: sheet, row: 1, boldStyle: bold, moneyStyle: money}, nil
}

func (b *workbook) cell(col int) string {
	name, err := excelize.CoordinatesToCellName(col, b.row)
	if err != nil && b.err == nil {
		b.err = err
	}
	return name
}

func (b *workbook) setRow(values []interface{}) {
	if b.err != nil {
		return
	}
	if err := b.f.SetSheetRow(b.sheet, b.cell(1), &values); err != nil {
		b.err = err
	}
}

func (b *workbook) style(fromCol, toCol, style int) {
	if b.err != nil {
		return
	}
	if err := b.f.SetCellStyle(b.sheet, b.cell(fromCol), b.cell(toCol), style); err != nil {
		b.err = err
	}
}

func (b *workbook) header(label, value string) {
	b.setRow([]interface{}{label, value})
	b.style(1, 1, b.boldStyle)
	b.row++
}

func (b *workbook) headings(values []interface{}) {
	b.setRow(values)
	b.style(1, len(values), b.boldStyle)
	b.row++
}

func (b *workbook) item(section string, item documentapp.LineItemResponse) {
	b.setRow([]interface{}{
		section,
		item.Description,
		item.Category,
		item.Quantity.InexactFloat64(),
		item.Unit,
		item.UnitPrice.InexactFloat64(),
		item.Total.InexactFloat64(),
	})
	b.style(6, 7, b.moneyStyle)
	b.row++
}

// amount writes a labelled money value in the Total column
func (b *workbook) amount(label string, value decimal.Decimal) {
	b.setRow([]interface{}{label, nil, nil, nil, nil, nil, value.InexactFloat64()})
	b.style(1, 1, b.boldStyle)
	b.style(7, 7, b.moneyStyle)
	b.row++
}

func (b *workbook) write(w io.Writer) error {
	if b.err != nil {
		return b.err
	}
	b.f.SetActiveSheet(0)
	return b.f.Write(w)
}
