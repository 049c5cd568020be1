package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrCurrencyMismatch is returned when arithmetic mixes currencies.
var ErrCurrencyMismatch = errors.New("money: currency mismatch")

var hundred = decimal.NewFromInt(100)

// Money is an amount in minor currency units paired with an ISO 4217 code.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New builds a Money value, normalising the currency code.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(strings.TrimSpace(currency))}
}

// Zero returns a zero amount in the given currency.
func Zero(currency string) Money { return New(0, currency) }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// Add sums two values of the same currency.
func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, o.Currency)
	}
	return Money{Amount: m.Amount + o.Amount, Currency: m.Currency}, nil
}

// Neg flips the sign of the amount.
func (m Money) Neg() Money { return Money{Amount: -m.Amount, Currency: m.Currency} }

// Abs drops the sign of the amount.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return m.Neg()
	}
	return m
}

// Decimal exposes the amount in minor units as a decimal.
func (m Money) Decimal() decimal.Decimal { return decimal.NewFromInt(m.Amount) }

// Mul multiplies the amount by factor and rounds the result to minor units.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{Amount: Round(m.Decimal().Mul(factor)), Currency: m.Currency}
}

// Percent returns pct percent of the amount, rounded to minor units.
func (m Money) Percent(pct decimal.Decimal) Money {
	return m.Mul(pct.Div(hundred))
}

// Discount returns the amount reduced by pct percent, rounded to minor units.
func (m Money) Discount(pct decimal.Decimal) Money {
	return m.Mul(decimal.NewFromInt(1).Sub(pct.Div(hundred)))
}

func (m Money) String() string {
	return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}

// Round converts a minor-unit decimal into an integer amount. Halves round
// away from zero.
func Round(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}
