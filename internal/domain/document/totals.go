package document

import (
	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the jurisdiction rate applied when a caller gives none
var DefaultTaxRate = valueobject.MustPercentage("6.625")

// Totals is the monetary summary of a document
type Totals struct {
	Subtotal decimal.Decimal
	TaxRate  valueobject.Percentage
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals rolls up line inputs and applies tax.
// Order matters: the subtotal is rounded first, tax is computed from the
// rounded subtotal and rounded, and total is the sum of the two rounded values.
func ComputeTotals(inputs []LineItemInput, rate valueobject.Percentage) Totals {
	return ComputeTotalsForAmount(Subtotal(inputs), rate)
}

// ComputeTotalsForAmount applies the same rounding rules to a bare base amount
func ComputeTotalsForAmount(base decimal.Decimal, rate valueobject.Percentage) Totals {
	subtotal := valueobject.RoundCents(base)
	tax := valueobject.RoundCents(subtotal.Mul(rate.Fraction()))
	return Totals{
		Subtotal: subtotal,
		TaxRate:  rate,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// ResolveTaxRate returns DefaultTaxRate for nil and validates anything else
func ResolveTaxRate(rate *decimal.Decimal) (valueobject.Percentage, error) {
	if rate == nil {
		return DefaultTaxRate, nil
	}
	p, err := valueobject.NewPercentage(*rate)
	if err != nil {
		return valueobject.Percentage{}, shared.NewValidationError("Invalid tax rate: %s", err.Error())
	}
	return p, nil
}

// Mismatch describes a stored total that disagrees with the recomputed one
type Mismatch struct {
	Field    string
	Stored   decimal.Decimal
	Computed decimal.Decimal
}

// Diff compares stored figures against t and lists any fields that disagree
func (t Totals) Diff(subtotal, tax, total decimal.Decimal) []Mismatch {
	var out []Mismatch
	check := func(field string, stored, computed decimal.Decimal) {
		if !stored.Equal(computed) {
			out = append(out, Mismatch{Field: field, Stored: stored, Computed: computed})
		}
	}
	check("subtotal", subtotal, t.Subtotal)
	check("tax", tax, t.Tax)
	check("total", total, t.Total)
	return out
}
