package pricing

import (
	"fmt"

	"github.com/noah-isme/backend-rental/internal/money"
)

// CommissionItem builds the commission line item of one party. Provider
// commissions carry a negative percentage since they reduce the payout.
func CommissionItem(role Party, c *Commission, order LineItem) ([]LineItem, error) {
	if c == nil || c.Percentage == nil {
		return nil, nil
	}
	orderTotal, err := LineTotal(order)
	if err != nil {
		return nil, err
	}
	pct := *c.Percentage
	if c.MinimumAmount != nil && c.MinimumAmount.Amount > 0 {
		minimum := *c.MinimumAmount
		if minimum.Currency != "" && minimum.Currency != orderTotal.Currency {
			return nil, fmt.Errorf("%s commission minimum: %w", role, money.ErrCurrencyMismatch)
		}
		computed := orderTotal.Percent(pct).Abs()
		if computed.Amount < minimum.Amount {
			return nil, &CommissionExceedsTotalError{
				Role:     role,
				Computed: computed,
				Minimum:  money.New(minimum.Amount, orderTotal.Currency),
			}
		}
	}

	item := LineItem{UnitPrice: orderTotal, IncludeFor: []Party{role}}
	switch role {
	case Provider:
		item.Code = CodeProviderCommission
		item.Percentage = decimalPtr(pct.Abs().Neg())
	default:
		item.Code = CodeCustomerCommission
		item.Percentage = decimalPtr(pct.Abs())
	}
	return []LineItem{item}, nil
}
