package insurance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/money"
	"github.com/noah-isme/backend-rental/internal/pricing"
)

func order(amount int64, qty int64) pricing.LineItem {
	q := decimal.NewFromInt(qty)
	return pricing.LineItem{
		Code:       "line-item/night",
		UnitPrice:  money.New(amount, "USD"),
		Quantity:   &q,
		IncludeFor: []pricing.Party{pricing.Customer, pricing.Provider},
	}
}

func TestInsuranceFee(t *testing.T) {
	c := RateCalculator{RateBps: 250, Minimums: map[string]int64{"USD": 300}}

	li, err := c.InsuranceFee(order(10_000, 3), listing.PublicData{}, "USD", pricing.OrderData{})
	require.NoError(t, err)
	require.NotNil(t, li)
	require.Equal(t, pricing.CodeInsuranceFee, li.Code)
	require.Equal(t, money.New(750, "USD"), li.UnitPrice)
	require.True(t, li.Quantity.Equal(decimal.NewFromInt(1)))
	require.ElementsMatch(t, []pricing.Party{pricing.Customer, pricing.Provider}, li.IncludeFor)

	li, err = c.InsuranceFee(order(1_000, 1), listing.PublicData{}, "usd", pricing.OrderData{})
	require.NoError(t, err)
	require.Equal(t, int64(300), li.UnitPrice.Amount)
}

func TestInsuranceDisabled(t *testing.T) {
	li, err := RateCalculator{}.InsuranceFee(order(10_000, 1), listing.PublicData{}, "USD", pricing.OrderData{})
	require.NoError(t, err)
	require.Nil(t, li)
}

func TestInsuranceInEngine(t *testing.T) {
	price := money.New(10_000, "USD")
	l := listing.Listing{Attributes: listing.Attributes{Price: &price, PublicData: listing.PublicData{UnitType: listing.UnitFixed}}}

	items, err := pricing.Engine{Insurance: RateCalculator{RateBps: 1000}}.Compute(l, pricing.OrderData{}, nil, nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, pricing.CodeInsuranceFee, items[1].Code)
	require.Equal(t, int64(1_000), items[1].UnitPrice.Amount)
}
