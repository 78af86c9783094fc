package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percentage is a value object for rates expressed in percent (6.625 means 6.625%)
type Percentage struct {
	value decimal.Decimal
}

// NewPercentage creates a non-negative percentage
func NewPercentage(value decimal.Decimal) (Percentage, error) {
	if value.IsNegative() {
		return Percentage{}, fmt.Errorf("percentage cannot be negative: %s", value.String())
	}
	return Percentage{value: value}, nil
}

// MustPercentage creates a Percentage from a string literal, panicking on bad input
func MustPercentage(s string) Percentage {
	d := decimal.RequireFromString(s)
	p, err := NewPercentage(d)
	if err != nil {
		panic(err)
	}
	return p
}

// NewBillingPercentage creates a percentage in the half-open range (0, 100]
func NewBillingPercentage(value decimal.Decimal) (Percentage, error) {
	if !value.IsPositive() || value.GreaterThan(hundred) {
		return Percentage{}, fmt.Errorf("percentage must be greater than 0 and at most 100, got %s", value.String())
	}
	return Percentage{value: value}, nil
}

// Decimal returns the raw percent value
func (p Percentage) Decimal() decimal.Decimal {
	return p.value
}

// Fraction returns the value divided by 100
func (p Percentage) Fraction() decimal.Decimal {
	return p.value.Div(hundred)
}

// IsZero reports whether the percentage is zero
func (p Percentage) IsZero() bool {
	return p.value.IsZero()
}

// Equals compares two percentages numerically
func (p Percentage) Equals(other Percentage) bool {
	return p.value.Equal(other.value)
}

func (p Percentage) String() string {
	return p.value.String() + "%"
}
