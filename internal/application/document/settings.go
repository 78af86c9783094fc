package document

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Settings holds the billing defaults the document services apply
type Settings struct {
	// DefaultTaxRate is used when a request gives no rate; nil keeps the domain default
	DefaultTaxRate           *decimal.Decimal
	EstimateValidityDays     int
	InvoiceDueDays           int
	ChangeOrderTTL           time.Duration
	ConversionIdempotencyTTL time.Duration
	ConversionLockTTL        time.Duration
	PublicBaseURL            string
}

// DefaultSettings returns the settings used when none are configured
func DefaultSettings() Settings {
	return Settings{
		EstimateValidityDays:     30,
		InvoiceDueDays:           30,
		ChangeOrderTTL:           7 * 24 * time.Hour,
		ConversionIdempotencyTTL: 24 * time.Hour,
		ConversionLockTTL:        30 * time.Second,
		PublicBaseURL:            "http://localhost:8080",
	}
}

// taxRate picks the requested rate, falling back to the configured default
func (s Settings) taxRate(requested *decimal.Decimal) *decimal.Decimal {
	if requested != nil {
		return requested
	}
	return s.DefaultTaxRate
}

// ApprovalURL builds the public link a client uses to answer a change order
func (s Settings) ApprovalURL(token string) string {
	return strings.TrimRight(s.PublicBaseURL, "/") + "/public/change-orders/" + token
}

// dueDate returns issue date plus the configured payment terms
func (s Settings) dueDate(issue time.Time) time.Time {
	return issue.AddDate(0, 0, s.InvoiceDueDays)
}
