package pricing

import (
	"github.com/noah-isme/backend-rental/internal/listing"
)

// Engine computes order line items. Collaborators are optional; a nil
// collaborator never adds an item. Engine holds no state and is safe for
// concurrent use.
type Engine struct {
	Shipping  ShippingQuoter
	Insurance InsuranceCalculator
	Coupons   CouponApplier
}

// Compute prices an order with no shipping, insurance or coupon collaborators.
func Compute(l listing.Listing, od OrderData, provider, customer *Commission) ([]LineItem, error) {
	return Engine{}.Compute(l, od, provider, customer)
}

// Compute derives the line items of an order. The base order item is always
// first and commission items are always last:
//
//	[order, unit type extras..., shipping, insurance, coupon, provider commission, customer commission]
func (e Engine) Compute(l listing.Listing, od OrderData, provider, customer *Commission) ([]LineItem, error) {
	pd := l.Attributes.PublicData
	unitType := pd.UnitType

	price, err := ResolveUnitPrice(l, od)
	if err != nil {
		return nil, err
	}
	currency := price.Price.Currency

	qty, err := ResolveQuantity(ResolveInput{UnitType: unitType, PublicData: pd, Order: od, Currency: currency})
	if err != nil {
		return nil, err
	}
	if err := validateQuantity(qty); err != nil {
		return nil, err
	}

	order := LineItem{
		Code:              OrderCode(unitType),
		UnitPrice:         price.Price,
		IncludeFor:        bothParties(),
		OriginalUnitPrice: price.Original,
	}
	if positive(qty.Quantity) {
		order.Quantity = qty.Quantity
	} else {
		order.Units = qty.Units
		order.Seats = qty.Seats
	}

	var bookingExtras []LineItem
	if unitType.IsBookable() {
		shipping, err := e.bookingShipping(pd, currency, od)
		if err != nil {
			return nil, err
		}
		bookingExtras = append(bookingExtras, shipping...)

		insurance, err := e.insurance(order, pd, currency, od)
		if err != nil {
			return nil, err
		}
		bookingExtras = append(bookingExtras, insurance...)

		coupon, err := e.coupon(order, bookingExtras, currency, od)
		if err != nil {
			return nil, err
		}
		bookingExtras = append(bookingExtras, coupon...)
	}

	providerItems, err := CommissionItem(Provider, provider, order)
	if err != nil {
		return nil, err
	}
	customerItems, err := CommissionItem(Customer, customer, order)
	if err != nil {
		return nil, err
	}

	items := make([]LineItem, 0, 1+len(qty.Extra)+len(bookingExtras)+len(providerItems)+len(customerItems))
	items = append(items, order)
	items = append(items, qty.Extra...)
	items = append(items, bookingExtras...)
	items = append(items, providerItems...)
	items = append(items, customerItems...)
	return items, nil
}
