package listing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rental/internal/money"
)

// UnitType is the billing granularity of a listing.
type UnitType string

const (
	UnitDay     UnitType = "day"
	UnitNight   UnitType = "night"
	UnitHour    UnitType = "hour"
	UnitFixed   UnitType = "fixed"
	UnitItem    UnitType = "item"
	UnitOffer   UnitType = "offer"
	UnitRequest UnitType = "request"
)

// IsBookable reports whether the unit type is priced by a booking period.
func (u UnitType) IsBookable() bool {
	switch u {
	case UnitDay, UnitNight, UnitHour, UnitFixed:
		return true
	}
	return false
}

// IsNegotiation reports whether the price is agreed through an offer flow.
func (u UnitType) IsNegotiation() bool {
	return u == UnitOffer || u == UnitRequest
}

// Variant types.
const (
	VariantDuration = "duration"
	VariantPeriod   = "period"
)

// PriceVariant is an alternate price selected by name.
type PriceVariant struct {
	Name                   string           `json:"name"`
	Type                   string           `json:"type,omitempty"`
	PriceInSubunits        *int64           `json:"priceInSubunits,omitempty"`
	PercentageDiscount     *decimal.Decimal `json:"percentageDiscount,omitempty"`
	BookingLengthInMinutes *int             `json:"bookingLengthInMinutes,omitempty"`
	Period                 *string          `json:"period,omitempty"`
}

// PublicData holds the pricing-relevant public attributes of a listing.
type PublicData struct {
	UnitType                               UnitType       `json:"unitType"`
	PriceVariationsEnabled                 bool           `json:"priceVariationsEnabled,omitempty"`
	PriceVariants                          []PriceVariant `json:"priceVariants,omitempty"`
	ShippingEnabled                        *bool          `json:"shippingEnabled,omitempty"`
	ShippingPriceInSubunitsOneItem         *int64         `json:"shippingPriceInSubunitsOneItem,omitempty"`
	ShippingPriceInSubunitsAdditionalItems *int64         `json:"shippingPriceInSubunitsAdditionalItems,omitempty"`
}

// ShippingOn reports the shipping flag, which defaults to true when unset.
func (p PublicData) ShippingOn() bool {
	return p.ShippingEnabled == nil || *p.ShippingEnabled
}

// Variant looks up a price variant by name.
func (p PublicData) Variant(name string) (PriceVariant, bool) {
	if name == "" {
		return PriceVariant{}, false
	}
	for _, v := range p.PriceVariants {
		if v.Name == name {
			return v, true
		}
	}
	return PriceVariant{}, false
}

// Attributes groups the listing attributes read by the pricing engine.
type Attributes struct {
	Title      string       `json:"title,omitempty"`
	Price      *money.Money `json:"price,omitempty"`
	PublicData PublicData   `json:"publicData"`
}

// Listing is the read-only listing record.
type Listing struct {
	ID         string     `json:"id"`
	Attributes Attributes `json:"attributes"`
}
