package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rental/internal/listing"
)

// MinimumBookingUnits returns the smallest whole number of booking units (or
// items) for which the commission reaches its configured minimum. It reports
// false when no such number can be derived.
func MinimumBookingUnits(l listing.Listing, od OrderData, c *Commission) (int64, bool) {
	if c == nil || c.Percentage == nil || c.MinimumAmount == nil || c.MinimumAmount.Amount <= 0 {
		return 0, false
	}
	pct := c.Percentage.Abs()
	if pct.IsZero() {
		return 0, false
	}
	price, err := ResolveUnitPrice(l, od)
	if err != nil || price.Price.Amount <= 0 {
		return 0, false
	}
	seats := int64(1)
	if od.seats() > 0 && l.Attributes.PublicData.UnitType != listing.UnitItem {
		seats = int64(od.seats())
	}
	perUnit := price.Price.Decimal().Mul(decimal.NewFromInt(seats)).Mul(pct).Div(hundred)
	units := decimal.NewFromInt(c.MinimumAmount.Amount).Div(perUnit).Ceil()
	return units.IntPart(), true
}

var hundred = decimal.NewFromInt(100)
