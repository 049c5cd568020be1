package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/money"
)

// ResolveInput is what a quantity resolver sees.
type ResolveInput struct {
	UnitType   listing.UnitType
	PublicData listing.PublicData
	Order      OrderData
	Currency   string
}

// QuantityResult is either a quantity or a units and seats pair, plus the
// extra line items the unit type contributes.
type QuantityResult struct {
	Quantity *decimal.Decimal
	Units    *decimal.Decimal
	Seats    *int
	Extra    []LineItem
}

// QuantityResolver derives the quantity of the base order line item.
type QuantityResolver interface {
	Resolve(in ResolveInput) (QuantityResult, error)
}

// ResolverFunc adapts a function to QuantityResolver.
type ResolverFunc func(in ResolveInput) (QuantityResult, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(in ResolveInput) (QuantityResult, error) { return f(in) }

var resolvers = map[listing.UnitType]QuantityResolver{
	listing.UnitItem:    ResolverFunc(resolveItem),
	listing.UnitFixed:   ResolverFunc(resolveFixed),
	listing.UnitHour:    ResolverFunc(resolveHour),
	listing.UnitDay:     ResolverFunc(resolveDates),
	listing.UnitNight:   ResolverFunc(resolveDates),
	listing.UnitOffer:   ResolverFunc(resolveNegotiation),
	listing.UnitRequest: ResolverFunc(resolveNegotiation),
}

// ResolveQuantity dispatches to the resolver registered for the unit type.
// Unknown unit types resolve to an empty result.
func ResolveQuantity(in ResolveInput) (QuantityResult, error) {
	r, ok := resolvers[in.UnitType]
	if !ok {
		return QuantityResult{}, nil
	}
	return r.Resolve(in)
}

func resolveItem(in ResolveInput) (QuantityResult, error) {
	var res QuantityResult
	if q := in.Order.StockReservationQuantity; q != nil {
		res.Quantity = intDecimal(*q)
	}
	if in.Order.delivery() == DeliveryShipping {
		quantity := 0
		if in.Order.StockReservationQuantity != nil {
			quantity = *in.Order.StockReservationQuantity
		}
		if fee, ok := itemShippingFee(in.PublicData, in.Currency, quantity); ok {
			res.Extra = append(res.Extra, fee)
		}
	}
	return res, nil
}

// itemShippingFee prices shipping as the first-item fee plus the additional
// item fee for every further unit, billed as a single item.
func itemShippingFee(pd listing.PublicData, currency string, quantity int) (LineItem, bool) {
	if pd.ShippingPriceInSubunitsOneItem == nil || quantity <= 0 {
		return LineItem{}, false
	}
	amount := *pd.ShippingPriceInSubunitsOneItem
	if pd.ShippingPriceInSubunitsAdditionalItems != nil && quantity > 1 {
		amount += *pd.ShippingPriceInSubunitsAdditionalItems * int64(quantity-1)
	}
	return LineItem{
		Code:       CodeShippingFee,
		UnitPrice:  money.New(amount, currency),
		Quantity:   intDecimal(1),
		IncludeFor: bothParties(),
	}, true
}

func resolveFixed(in ResolveInput) (QuantityResult, error) {
	return splitSeats(decimalPtr(decimal.NewFromInt(1)), in.Order), nil
}

func resolveHour(in ResolveInput) (QuantityResult, error) {
	var q *decimal.Decimal
	if in.Order.hasBookingPeriod() {
		hours, err := QuantityFromHours(*in.Order.BookingStart, *in.Order.BookingEnd)
		if err != nil {
			return QuantityResult{}, err
		}
		q = &hours
	}
	return splitSeats(q, in.Order), nil
}

func resolveDates(in ResolveInput) (QuantityResult, error) {
	var q *decimal.Decimal
	if in.Order.hasBookingPeriod() {
		n, err := QuantityFromDates(*in.Order.BookingStart, *in.Order.BookingEnd, in.UnitType)
		if err != nil {
			return QuantityResult{}, err
		}
		q = &n
	}
	return splitSeats(q, in.Order), nil
}

func resolveNegotiation(ResolveInput) (QuantityResult, error) {
	return QuantityResult{Quantity: intDecimal(1)}, nil
}

// splitSeats keeps units and seats apart when seats are requested so the
// multiplication is visible in the line item.
func splitSeats(units *decimal.Decimal, od OrderData) QuantityResult {
	if seats := od.seats(); seats > 0 {
		return QuantityResult{Units: units, Seats: &seats}
	}
	return QuantityResult{Quantity: units}
}

// validateQuantity fails unless a positive quantity or a positive units and
// seats pair is present.
func validateQuantity(res QuantityResult) error {
	hasQuantity := positive(res.Quantity)
	hasUnits := positive(res.Units)
	hasSeats := res.Seats != nil && *res.Seats > 0
	if hasQuantity || (hasUnits && hasSeats) {
		return nil
	}
	missing := []string{"quantity"}
	if !hasUnits {
		missing = append(missing, "units")
	}
	if !hasSeats {
		missing = append(missing, "seats")
	}
	return &OrderDataError{Missing: missing}
}

func positive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}
