package shipping

import (
	"context"
	"fmt"

	"github.com/noah-isme/backend-rental/internal/pricing"
)

// Quoter prices booking shipping from rates fetched before the engine call.
type Quoter struct {
	Rates []Rate
}

// QuoteShipping implements pricing.ShippingQuoter. No matching rate means no fee.
func (q Quoter) QuoteShipping(currency string, _ pricing.OrderData) (int64, error) {
	rate, ok := Cheapest(q.Rates, currency)
	if !ok {
		return 0, nil
	}
	return rate.Price, nil
}

// Service fetches rates from a Client.
type Service struct {
	Client Client
}

// Quoter fetches the rates for a booking. Orders that are not shipped skip
// the lookup.
func (s *Service) Quoter(ctx context.Context, listingID, currency string, od pricing.OrderData) (Quoter, error) {
	if s == nil || s.Client == nil || od.DeliveryMethod == nil || *od.DeliveryMethod != pricing.DeliveryShipping {
		return Quoter{}, nil
	}
	rates, err := s.Client.Rates(ctx, RateReq{Currency: currency, ListingID: listingID})
	if err != nil {
		return Quoter{}, fmt.Errorf("shipping rates: %w", err)
	}
	return Quoter{Rates: rates}, nil
}
