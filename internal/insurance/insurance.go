// Package insurance prices the damage protection fee added to bookings.
package insurance

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/money"
	"github.com/noah-isme/backend-rental/internal/pricing"
)

var bpsDivisor = decimal.NewFromInt(10000)

// RateCalculator charges a share of the order total in basis points, never
// less than the per-currency minimum. A zero rate disables insurance.
type RateCalculator struct {
	RateBps  int64
	Minimums map[string]int64
}

// InsuranceFee implements pricing.InsuranceCalculator.
func (c RateCalculator) InsuranceFee(order pricing.LineItem, _ listing.PublicData, currency string, _ pricing.OrderData) (*pricing.LineItem, error) {
	if c.RateBps <= 0 {
		return nil, nil
	}
	total, err := pricing.LineTotal(order)
	if err != nil {
		return nil, err
	}
	amount := money.Round(total.Decimal().Mul(decimal.NewFromInt(c.RateBps)).Div(bpsDivisor))
	if minimum := c.Minimums[strings.ToUpper(currency)]; amount < minimum {
		amount = minimum
	}
	if amount <= 0 {
		return nil, nil
	}
	return &pricing.LineItem{
		Code:       pricing.CodeInsuranceFee,
		UnitPrice:  money.New(amount, currency),
		Quantity:   pricing.One(),
		IncludeFor: []pricing.Party{pricing.Customer, pricing.Provider},
	}, nil
}
