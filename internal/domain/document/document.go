package document

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/fieldbook/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Number prefixes for each document type
const (
	PrefixEstimate    = "EST"
	PrefixInvoice     = "INV"
	PrefixChangeOrder = "CO"
)

// GenerateNumber builds a business-facing number such as EST-202501-042.
// The random suffix makes collisions unlikely but not impossible, so callers
// check the repository before assigning it.
func GenerateNumber(prefix string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, now.Format("200601"), rand.IntN(1000))
}

// ClientSnapshot freezes client identity on a document at creation time
type ClientSnapshot struct {
	ClientID uuid.UUID           `json:"client_id"`
	Name     string              `json:"name"`
	Email    string              `json:"email,omitempty"`
	Phone    string              `json:"phone,omitempty"`
	Address  valueobject.Address `json:"address"`
}

// ContractorSnapshot freezes the contractor's business identity on a document
type ContractorSnapshot struct {
	BusinessName  string              `json:"business_name"`
	ContactName   string              `json:"contact_name,omitempty"`
	Email         string              `json:"email,omitempty"`
	Phone         string              `json:"phone,omitempty"`
	LicenseNumber string              `json:"license_number,omitempty"`
	Address       valueobject.Address `json:"address"`
}

// FinancialDocument holds the fields every priced document shares
type FinancialDocument struct {
	shared.OwnedAggregateRoot
	Number    string
	ProjectID *uuid.UUID
	ClientID  *uuid.UUID
	Title     string
	Notes     string
	Subtotal  decimal.Decimal
	TaxRate   decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
}

func newFinancialDocument(ownerID uuid.UUID, title string) (FinancialDocument, error) {
	if ownerID == uuid.Nil {
		return FinancialDocument{}, shared.NewValidationError("Owner is required")
	}
	title = strings.TrimSpace(title)
	if len(title) > 200 {
		return FinancialDocument{}, shared.NewValidationError("Title cannot exceed 200 characters")
	}
	return FinancialDocument{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Title:              title,
		TaxRate:            DefaultTaxRate.Decimal(),
	}, nil
}

// AssignNumber sets the business number; it may only be set once
func (d *FinancialDocument) AssignNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return shared.NewValidationError("Document number cannot be empty")
	}
	if d.Number != "" && d.Number != number {
		return shared.NewValidationError("Document number is already assigned")
	}
	d.Number = number
	return nil
}

// TaxRatePercentage returns the stored rate as a value object
func (d *FinancialDocument) TaxRatePercentage() valueobject.Percentage {
	p, err := valueobject.NewPercentage(d.TaxRate)
	if err != nil {
		return DefaultTaxRate
	}
	return p
}

// applyTotals copies calculator output onto the document
func (d *FinancialDocument) applyTotals(t Totals) {
	d.Subtotal = t.Subtotal
	d.TaxRate = t.TaxRate.Decimal()
	d.Tax = t.Tax
	d.Total = t.Total
}
