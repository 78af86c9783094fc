package document

import (
	"sort"
	"strings"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Section is a named, ordered group of line items on an estimate
type Section struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Order int        `json:"order"`
	Items []LineItem `json:"items"`
}

// NewSection creates a section from already validated items
func NewSection(name string, order int, items []LineItem) (Section, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Section{}, shared.NewValidationError("Section name cannot be empty")
	}
	if order < 0 {
		return Section{}, shared.NewValidationError("Section order cannot be negative")
	}
	return Section{
		ID:    uuid.New(),
		Name:  name,
		Order: order,
		Items: items,
	}, nil
}

// Subtotal is always derived from the section's items
func (s Section) Subtotal() decimal.Decimal {
	return Subtotal(Inputs(s.Items))
}

// SortSections orders sections by their order index, keeping insertion order for ties
func SortSections(sections []Section) []Section {
	sorted := make([]Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// FlattenSections returns every line item across sections in display order
func FlattenSections(sections []Section) []LineItem {
	var items []LineItem
	for _, s := range SortSections(sections) {
		items = append(items, s.Items...)
	}
	return items
}
