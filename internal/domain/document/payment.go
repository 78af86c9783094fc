package document

import (
	"strings"
	"time"

	"github.com/fieldbook/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod describes how a client paid
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "cash"
	PaymentMethodCheck        PaymentMethod = "check"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodOther        PaymentMethod = "other"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCheck, PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodOther:
		return true
	}
	return false
}

// Payment is a money receipt against one invoice. Payments are append-only.
type Payment struct {
	ID         uuid.UUID       `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Method     PaymentMethod   `json:"method"`
	Reference  string          `json:"reference,omitempty"`
	Notes      string          `json:"notes,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// NewPayment validates and creates a payment
func NewPayment(amount decimal.Decimal, date time.Time, method PaymentMethod, reference, notes string) (Payment, error) {
	if !amount.IsPositive() {
		return Payment{}, shared.NewValidationError("Payment amount must be greater than zero")
	}
	if !amount.Equal(amount.Round(2)) {
		return Payment{}, shared.NewValidationError("Payment amount cannot have more than 2 decimal places")
	}
	if date.IsZero() {
		return Payment{}, shared.NewValidationError("Payment date is required")
	}
	if method == "" {
		method = PaymentMethodOther
	}
	if !method.IsValid() {
		return Payment{}, shared.NewValidationError("Invalid payment method: %s", method)
	}
	return Payment{
		ID:         uuid.New(),
		Amount:     amount,
		Date:       date,
		Method:     method,
		Reference:  strings.TrimSpace(reference),
		Notes:      strings.TrimSpace(notes),
	}, nil
}

// SumPayments adds up payment amounts
func SumPayments(payments []Payment) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payments {
		sum = sum.Add(p.Amount)
	}
	return sum
}
