package pricing

import (
	"strings"

	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/money"
)

// UnitPrice is the effective price of the base order line item.
type UnitPrice struct {
	Price money.Money
	// Original is the undiscounted price when a percentage discount applied.
	Original *money.Money
}

// Currency resolves the transaction currency: the listing price currency,
// falling back to the order currency when the listing has no price.
func Currency(l listing.Listing, od OrderData) (string, error) {
	if p := l.Attributes.Price; p != nil {
		return p.Currency, nil
	}
	if od.Currency != nil && strings.TrimSpace(*od.Currency) != "" {
		return strings.ToUpper(strings.TrimSpace(*od.Currency)), nil
	}
	return "", invalidOrder("currency is not set on the listing or the order")
}

// ResolveUnitPrice selects the unit price from the listing price, a matching
// price variant, or a negotiated offer.
func ResolveUnitPrice(l listing.Listing, od OrderData) (UnitPrice, error) {
	currency, err := Currency(l, od)
	if err != nil {
		return UnitPrice{}, err
	}
	pd := l.Attributes.PublicData
	unitType := pd.UnitType
	base := l.Attributes.Price

	if unitType.IsBookable() && pd.PriceVariationsEnabled && od.PriceVariantName != nil {
		if v, ok := pd.Variant(*od.PriceVariantName); ok {
			if v.Type == listing.VariantDuration && v.PercentageDiscount != nil {
				if base == nil {
					return UnitPrice{}, invalidOrder("listing price is not set")
				}
				original := *base
				return UnitPrice{Price: base.Discount(*v.PercentageDiscount), Original: &original}, nil
			}
			// Any variant type with an absolute price overrides the listing price.
			if v.PriceInSubunits != nil && *v.PriceInSubunits >= 0 {
				return UnitPrice{Price: money.New(*v.PriceInSubunits, currency)}, nil
			}
		}
	}

	if unitType.IsNegotiation() && od.Offer != nil {
		offerCurrency := strings.ToUpper(strings.TrimSpace(od.Offer.Currency))
		if offerCurrency == "" {
			offerCurrency = currency
		}
		if offerCurrency != currency {
			return UnitPrice{}, invalidOrder("offer currency does not match listing")
		}
		return UnitPrice{Price: money.New(od.Offer.Amount, currency)}, nil
	}

	if base == nil {
		return UnitPrice{}, invalidOrder("listing price is not set")
	}
	return UnitPrice{Price: *base}, nil
}
