package pricing

import (
	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/money"
)

// ShippingQuoter quotes the shipping fee of a booking in minor units.
type ShippingQuoter interface {
	QuoteShipping(currency string, od OrderData) (int64, error)
}

// InsuranceCalculator derives the insurance line item of a booking. A nil item
// means no insurance is charged.
type InsuranceCalculator interface {
	InsuranceFee(order LineItem, pd listing.PublicData, currency string, od OrderData) (*LineItem, error)
}

// CouponApplier validates a coupon code and prices its discount over the order
// and booking extras. A nil item means the coupon yields no discount.
type CouponApplier interface {
	CouponDiscount(order LineItem, extras []LineItem, currency, code string) (*LineItem, error)
}

func (e Engine) bookingShipping(pd listing.PublicData, currency string, od OrderData) ([]LineItem, error) {
	if e.Shipping == nil || od.delivery() != DeliveryShipping || !pd.ShippingOn() {
		return nil, nil
	}
	amount, err := e.Shipping.QuoteShipping(currency, od)
	if err != nil {
		return nil, err
	}
	if amount == 0 {
		return nil, nil
	}
	return []LineItem{{
		Code:       CodeShippingFee,
		UnitPrice:  money.New(amount, currency),
		Quantity:   intDecimal(1),
		IncludeFor: bothParties(),
	}}, nil
}

func (e Engine) insurance(order LineItem, pd listing.PublicData, currency string, od OrderData) ([]LineItem, error) {
	if e.Insurance == nil {
		return nil, nil
	}
	item, err := e.Insurance.InsuranceFee(order, pd, currency, od)
	if err != nil || item == nil {
		return nil, err
	}
	return []LineItem{*item}, nil
}

func (e Engine) coupon(order LineItem, extras []LineItem, currency string, od OrderData) ([]LineItem, error) {
	code := od.coupon()
	if code == "" || e.Coupons == nil {
		return nil, nil
	}
	item, err := e.Coupons.CouponDiscount(order, extras, currency, code)
	if err != nil {
		return nil, &CouponError{Code: code, Err: err}
	}
	if item == nil {
		return nil, nil
	}
	return []LineItem{*item}, nil
}
