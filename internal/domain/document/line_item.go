package document

import (
	"strings"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category classifies a line item for reporting
type Category string

const (
	CategoryMaterials     Category = "materials"
	CategoryEquipment     Category = "equipment"
	CategoryLabor         Category = "labor"
	CategorySubcontractor Category = "subcontractor"
	CategoryOther         Category = "other"
)

// IsValid checks if the category is known
func (c Category) IsValid() bool {
	switch c {
	case CategoryMaterials, CategoryEquipment, CategoryLabor, CategorySubcontractor, CategoryOther:
		return true
	}
	return false
}

// LineItemInput is the value the aggregator sums. It is either Raw
// (quantity times unit price) or Precomputed (an authoritative total).
type LineItemInput interface {
	effectiveTotal() decimal.Decimal
	sealed()
}

// Raw is a line amount derived from quantity and unit price
type Raw struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}

func (r Raw) effectiveTotal() decimal.Decimal {
	return valueobject.RoundCents(r.Quantity.Mul(r.UnitPrice))
}

func (Raw) sealed() {}

// Precomputed is a line amount supplied by the caller, e.g. after margin
// and waste adjustments were applied upstream
type Precomputed struct {
	Total decimal.Decimal
}

func (p Precomputed) effectiveTotal() decimal.Decimal {
	return p.Total
}

func (Precomputed) sealed() {}

// EffectiveTotal returns the amount a single input contributes to a subtotal.
// Zero quantity or price yields zero; sign is not checked here.
func EffectiveTotal(in LineItemInput) decimal.Decimal {
	if in == nil {
		return decimal.Zero
	}
	return in.effectiveTotal()
}

// Subtotal sums the effective totals of the given inputs
func Subtotal(inputs []LineItemInput) decimal.Decimal {
	sum := decimal.Zero
	for _, in := range inputs {
		sum = sum.Add(EffectiveTotal(in))
	}
	return sum
}

// LineItem is a single priced row on an estimate, invoice or change order
type LineItem struct {
	ID                 uuid.UUID        `json:"id"`
	Description        string           `json:"description"`
	Quantity           decimal.Decimal  `json:"quantity"`
	Unit               string           `json:"unit"`
	UnitPrice          decimal.Decimal  `json:"unit_price"`
	Total              decimal.Decimal  `json:"total"`
	Category           Category         `json:"category"`
	MarginPercent      *decimal.Decimal `json:"margin_percent,omitempty"`
	WasteFactorPercent *decimal.Decimal `json:"waste_factor_percent,omitempty"`
	// Override marks Total as authoritative rather than quantity x unit price
	Override bool `json:"override"`
}

// LineItemSpec carries the caller-supplied fields for a new line item
type LineItemSpec struct {
	Description        string
	Quantity           decimal.Decimal
	Unit               string
	UnitPrice          decimal.Decimal
	Category           Category
	MarginPercent      *decimal.Decimal
	WasteFactorPercent *decimal.Decimal
	// Total, when set, overrides quantity x unit price
	Total *decimal.Decimal
}

// NewLineItem validates the input and computes the item total.
// An explicit Total wins. Otherwise margin and waste percentages, when
// present, are applied on top of quantity x unit price and the result is
// stored as a precomputed total.
func NewLineItem(spec LineItemSpec) (LineItem, error) {
	description := strings.TrimSpace(spec.Description)
	if description == "" {
		return LineItem{}, shared.NewValidationError("Line item description cannot be empty")
	}
	if spec.Quantity.IsNegative() {
		return LineItem{}, shared.NewValidationError("Quantity cannot be negative for %q", description)
	}
	if spec.UnitPrice.IsNegative() {
		return LineItem{}, shared.NewValidationError("Unit price cannot be negative for %q", description)
	}
	category := spec.Category
	if category == "" {
		category = CategoryOther
	}
	if !category.IsValid() {
		return LineItem{}, shared.NewValidationError("Invalid line item category: %s", category)
	}
	for _, pct := range []*decimal.Decimal{spec.MarginPercent, spec.WasteFactorPercent} {
		if pct != nil && pct.IsNegative() {
			return LineItem{}, shared.NewValidationError("Margin and waste percentages cannot be negative for %q", description)
		}
	}

	item := LineItem{
		ID:                 uuid.New(),
		Description:        description,
		Quantity:           spec.Quantity,
		Unit:               strings.TrimSpace(spec.Unit),
		UnitPrice:          spec.UnitPrice,
		Category:           category,
		MarginPercent:      spec.MarginPercent,
		WasteFactorPercent: spec.WasteFactorPercent,
	}

	switch {
	case spec.Total != nil:
		if spec.Total.IsNegative() {
			return LineItem{}, shared.NewValidationError("Line total cannot be negative for %q", description)
		}
		item.Total = *spec.Total
		item.Override = true
	case spec.MarginPercent != nil || spec.WasteFactorPercent != nil:
		item.Total = adjustedTotal(spec.Quantity, spec.UnitPrice, spec.WasteFactorPercent, spec.MarginPercent)
		item.Override = true
	default:
		item.Total = EffectiveTotal(Raw{Quantity: spec.Quantity, UnitPrice: spec.UnitPrice})
	}

	return item, nil
}

// adjustedTotal applies waste (extra material) then margin (markup)
func adjustedTotal(qty, price decimal.Decimal, waste, margin *decimal.Decimal) decimal.Decimal {
	amount := qty.Mul(price)
	if waste != nil {
		amount = amount.Mul(decimal.NewFromInt(1).Add(waste.Div(decimal.NewFromInt(100))))
	}
	if margin != nil {
		amount = amount.Mul(decimal.NewFromInt(1).Add(margin.Div(decimal.NewFromInt(100))))
	}
	return valueobject.RoundCents(amount)
}

// Input returns the aggregator view of the item
func (li LineItem) Input() LineItemInput {
	if li.Override {
		return Precomputed{Total: li.Total}
	}
	return Raw{Quantity: li.Quantity, UnitPrice: li.UnitPrice}
}

// Inputs converts a slice of line items to aggregator inputs
func Inputs(items []LineItem) []LineItemInput {
	inputs := make([]LineItemInput, len(items))
	for i, item := range items {
		inputs[i] = item.Input()
	}
	return inputs
}

// Normalize recomputes Total from the item's own input path. It returns
// true when the stored Total had drifted.
func (li *LineItem) Normalize() bool {
	if li.Override {
		return false
	}
	recomputed := EffectiveTotal(li.Input())
	if li.Total.Equal(recomputed) {
		return false
	}
	li.Total = recomputed
	return true
}
