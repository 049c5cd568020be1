package pricing

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/money"
)

// Party identifies the side of a transaction a line item is allocated to.
type Party string

const (
	Customer Party = "customer"
	Provider Party = "provider"
)

// Line item codes.
const (
	CodePrefix             = "line-item/"
	CodeShippingFee        = "line-item/shipping-fee"
	CodeInsuranceFee       = "line-item/insurance-fee"
	CodeCouponDiscount     = "line-item/coupon-discount"
	CodeProviderCommission = "line-item/provider-commission"
	CodeCustomerCommission = "line-item/customer-commission"

	MaxCodeLength = 64
	MaxLineItems  = 50
)

// Delivery methods.
const (
	DeliveryShipping = "shipping"
	DeliveryPickup   = "pickup"
)

// OrderCode returns the code of the base order line item for a unit type.
func OrderCode(u listing.UnitType) string {
	return CodePrefix + string(u)
}

// OrderData is the caller-supplied order request.
type OrderData struct {
	StockReservationQuantity *int         `json:"stockReservationQuantity,omitempty" validate:"omitempty,gte=1"`
	DeliveryMethod           *string      `json:"deliveryMethod,omitempty" validate:"omitempty,oneof=shipping pickup"`
	Seats                    *int         `json:"seats,omitempty" validate:"omitempty,gte=1"`
	BookingStart             *time.Time   `json:"bookingStart,omitempty"`
	BookingEnd               *time.Time   `json:"bookingEnd,omitempty"`
	PriceVariantName         *string      `json:"priceVariantName,omitempty"`
	Offer                    *money.Money `json:"offer,omitempty"`
	CouponCode               *string      `json:"couponCode,omitempty"`
	Currency                 *string      `json:"currency,omitempty"`
}

func (o OrderData) delivery() string {
	if o.DeliveryMethod == nil {
		return ""
	}
	return *o.DeliveryMethod
}

func (o OrderData) seats() int {
	if o.Seats == nil {
		return 0
	}
	return *o.Seats
}

func (o OrderData) coupon() string {
	if o.CouponCode == nil {
		return ""
	}
	return *o.CouponCode
}

func (o OrderData) hasBookingPeriod() bool {
	return o.BookingStart != nil && o.BookingEnd != nil
}

// Commission is a commission configuration for one side of the transaction.
type Commission struct {
	Percentage    *decimal.Decimal `json:"percentage,omitempty"`
	MinimumAmount *money.Money     `json:"minimum_amount,omitempty"`
}

// LineItem is one priced entry of an order breakdown. Exactly one of
// Quantity, Percentage or the Units and Seats pair is set.
type LineItem struct {
	Code              string
	UnitPrice         money.Money
	Quantity          *decimal.Decimal
	Percentage        *decimal.Decimal
	Units             *decimal.Decimal
	Seats             *int
	IncludeFor        []Party
	OriginalUnitPrice *money.Money
}

// Includes reports whether the item is allocated to the party.
func (li LineItem) Includes(p Party) bool {
	for _, v := range li.IncludeFor {
		if v == p {
			return true
		}
	}
	return false
}

// IsCommission reports whether the item is a commission item.
func (li LineItem) IsCommission() bool {
	return li.Code == CodeProviderCommission || li.Code == CodeCustomerCommission
}

// ValidatedLineItem is a line item with its total computed.
type ValidatedLineItem struct {
	LineItem
	LineTotal money.Money
	Reversal  bool
}

type lineItemWire struct {
	Code              string       `json:"code"`
	UnitPrice         money.Money  `json:"unitPrice"`
	Quantity          *json.Number `json:"quantity,omitempty"`
	Percentage        *json.Number `json:"percentage,omitempty"`
	Units             *json.Number `json:"units,omitempty"`
	Seats             *int         `json:"seats,omitempty"`
	IncludeFor        []Party      `json:"includeFor"`
	OriginalUnitPrice *money.Money `json:"originalUnitPrice,omitempty"`
	LineTotal         *money.Money `json:"lineTotal,omitempty"`
	Reversal          *bool        `json:"reversal,omitempty"`
}

type lineItemReadWire struct {
	Code              string           `json:"code"`
	UnitPrice         money.Money      `json:"unitPrice"`
	Quantity          *decimal.Decimal `json:"quantity,omitempty"`
	Percentage        *decimal.Decimal `json:"percentage,omitempty"`
	Units             *decimal.Decimal `json:"units,omitempty"`
	Seats             *int             `json:"seats,omitempty"`
	IncludeFor        []Party          `json:"includeFor"`
	OriginalUnitPrice *money.Money     `json:"originalUnitPrice,omitempty"`
	LineTotal         *money.Money     `json:"lineTotal,omitempty"`
	Reversal          *bool            `json:"reversal,omitempty"`
}

func number(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := json.Number(d.String())
	return &n
}

func (li LineItem) wire() lineItemWire {
	return lineItemWire{
		Code:              li.Code,
		UnitPrice:         li.UnitPrice,
		Quantity:          number(li.Quantity),
		Percentage:        number(li.Percentage),
		Units:             number(li.Units),
		Seats:             li.Seats,
		IncludeFor:        li.IncludeFor,
		OriginalUnitPrice: li.OriginalUnitPrice,
	}
}

// MarshalJSON writes quantities and percentages as JSON numbers.
func (li LineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(li.wire())
}

// UnmarshalJSON accepts the shape written by MarshalJSON.
func (li *LineItem) UnmarshalJSON(data []byte) error {
	var w lineItemReadWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*li = LineItem{
		Code:              w.Code,
		UnitPrice:         w.UnitPrice,
		Quantity:          w.Quantity,
		Percentage:        w.Percentage,
		Units:             w.Units,
		Seats:             w.Seats,
		IncludeFor:        w.IncludeFor,
		OriginalUnitPrice: w.OriginalUnitPrice,
	}
	return nil
}

// MarshalJSON adds lineTotal and reversal to the line item shape.
func (v ValidatedLineItem) MarshalJSON() ([]byte, error) {
	w := v.LineItem.wire()
	total := v.LineTotal
	reversal := v.Reversal
	w.LineTotal = &total
	w.Reversal = &reversal
	return json.Marshal(w)
}

// UnmarshalJSON accepts the shape written by MarshalJSON.
func (v *ValidatedLineItem) UnmarshalJSON(data []byte) error {
	var w lineItemReadWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if err := v.LineItem.UnmarshalJSON(data); err != nil {
		return err
	}
	if w.LineTotal != nil {
		v.LineTotal = *w.LineTotal
	}
	if w.Reversal != nil {
		v.Reversal = *w.Reversal
	}
	return nil
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func intDecimal(v int) *decimal.Decimal { return decimalPtr(decimal.NewFromInt(int64(v))) }

// One returns a quantity of one.
func One() *decimal.Decimal { return intDecimal(1) }

func bothParties() []Party { return []Party{Customer, Provider} }
