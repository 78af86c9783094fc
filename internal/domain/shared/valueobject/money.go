package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code. Every account bills in a single currency.
type Currency string

// USD is the only currency documents are issued in today
const USD Currency = "USD"

// DefaultCurrency applies when a stored or decoded amount names none
const DefaultCurrency = USD

// CentPlaces is the precision of every stored amount
const CentPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundCents rounds half away from zero to whole cents: 49.6875 becomes
// 49.69 and -0.005 becomes -0.01
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(CentPlaces)
}

// Cents converts an amount to an integer count of cents, rounding first
func Cents(d decimal.Decimal) int64 {
	return RoundCents(d).Shift(CentPlaces).IntPart()
}

// Money pairs an amount with its currency. Operations return new values.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney builds Money in currency. An empty currency is rejected.
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, fmt.Errorf("money: currency is required")
	}
	return Money{amount: amount, currency: currency}, nil
}

// Dollars builds Money in USD
func Dollars(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: USD}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("money: currency mismatch %s vs %s", m.currency, other.currency)
	}
	return nil
}

// Add sums two amounts of the same currency
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub subtracts other, which must share the currency
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Percent returns pct percent of m without rounding
func (m Money) Percent(pct Percentage) Money {
	return Money{amount: m.amount.Mul(pct.Decimal()).Div(hundred), currency: m.currency}
}

// RoundCents rounds m with RoundCents
func (m Money) RoundCents() Money {
	return Money{amount: RoundCents(m.amount), currency: m.currency}
}

// Equals compares currency and numeric value; 1.5 equals 1.50
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(CentPlaces) + " " + string(m.currency)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON writes the amount as a fixed two-place string so clients
// never see float artifacts
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.StringFixed(CentPlaces), Currency: m.currency})
}

// UnmarshalJSON accepts a missing currency as DefaultCurrency
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(v.Amount)
	if err != nil {
		return fmt.Errorf("money: invalid amount %q: %w", v.Amount, err)
	}
	if v.Currency == "" {
		v.Currency = DefaultCurrency
	}
	*m = Money{amount: amount, currency: v.Currency}
	return nil
}
