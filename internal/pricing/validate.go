package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/backend-rental/internal/money"
)

// ErrInvalidLineItem is wrapped by every line item validation failure.
var ErrInvalidLineItem = errors.New("invalid line item")

// LineTotal computes the total of a single line item:
// unitPrice × quantity, unitPrice × units × seats, or unitPrice × percentage / 100.
func LineTotal(li LineItem) (money.Money, error) {
	switch {
	case li.Percentage != nil && li.Quantity == nil && li.Units == nil && li.Seats == nil:
		return li.UnitPrice.Percent(*li.Percentage), nil
	case li.Quantity != nil && li.Percentage == nil && li.Units == nil && li.Seats == nil:
		return li.UnitPrice.Mul(*li.Quantity), nil
	case li.Units != nil && li.Seats != nil && li.Quantity == nil && li.Percentage == nil:
		return li.UnitPrice.Mul(li.Units.Mul(*intDecimal(*li.Seats))), nil
	default:
		return money.Money{}, fmt.Errorf("%w: %s must set exactly one of quantity, percentage or units and seats", ErrInvalidLineItem, li.Code)
	}
}

// Validate checks the line items against the marketplace constraints and
// computes their totals.
func Validate(items []LineItem) ([]ValidatedLineItem, error) {
	if len(items) > MaxLineItems {
		return nil, fmt.Errorf("%w: %d items exceeds the limit of %d", ErrInvalidLineItem, len(items), MaxLineItems)
	}
	out := make([]ValidatedLineItem, 0, len(items))
	var currency string
	for _, li := range items {
		if !strings.HasPrefix(li.Code, CodePrefix) || len(li.Code) > MaxCodeLength {
			return nil, fmt.Errorf("%w: code %q", ErrInvalidLineItem, li.Code)
		}
		if len(li.IncludeFor) == 0 {
			return nil, fmt.Errorf("%w: %s is not included for any party", ErrInvalidLineItem, li.Code)
		}
		if currency == "" {
			currency = li.UnitPrice.Currency
		} else if li.UnitPrice.Currency != currency {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLineItem, li.Code, money.ErrCurrencyMismatch)
		}
		total, err := LineTotal(li)
		if err != nil {
			return nil, err
		}
		out = append(out, ValidatedLineItem{LineItem: li, LineTotal: total})
	}
	return out, nil
}

// Totals sums the line totals allocated to the customer (payin) and the
// provider (payout).
func Totals(items []LineItem) (payin, payout money.Money, err error) {
	if len(items) == 0 {
		return money.Money{}, money.Money{}, nil
	}
	currency := items[0].UnitPrice.Currency
	payin, payout = money.Zero(currency), money.Zero(currency)
	for _, li := range items {
		total, err := LineTotal(li)
		if err != nil {
			return money.Money{}, money.Money{}, err
		}
		if li.Includes(Customer) {
			if payin, err = payin.Add(total); err != nil {
				return money.Money{}, money.Money{}, err
			}
		}
		if li.Includes(Provider) {
			if payout, err = payout.Add(total); err != nil {
				return money.Money{}, money.Money{}, err
			}
		}
	}
	return payin, payout, nil
}
