package shipping

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// RateReq describes a shipping rate request for a booking.
type RateReq struct {
	Currency  string
	ListingID string
}

// Rate describes a returned shipping rate option.
type Rate struct {
	Service  string `json:"service"`
	Price    int64  `json:"price"`
	Currency string `json:"currency"`
}

// Client defines the behaviour required to quote shipping rates.
type Client interface {
	Rates(ctx context.Context, r RateReq) ([]Rate, error)
}

// FlatClient quotes one flat booking fee per currency.
type FlatClient struct {
	Fees map[string]int64
}

// Rates returns the flat fee configured for the request currency, if any.
func (c FlatClient) Rates(ctx context.Context, r RateReq) ([]Rate, error) {
	_ = ctx
	currency := strings.ToUpper(r.Currency)
	fee, ok := c.Fees[currency]
	if !ok {
		return nil, nil
	}
	return []Rate{{Service: "FLAT", Price: fee, Currency: currency}}, nil
}

// ParseFees parses a fee table of the form "USD:1500,EUR:1200".
func ParseFees(raw string) (map[string]int64, error) {
	fees := map[string]int64{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		currency, amount, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("shipping fee %q: expected CURRENCY:AMOUNT", part)
		}
		value, err := strconv.ParseInt(strings.TrimSpace(amount), 10, 64)
		if err != nil || value < 0 {
			return nil, fmt.Errorf("shipping fee %q: invalid amount", part)
		}
		fees[strings.ToUpper(strings.TrimSpace(currency))] = value
	}
	return fees, nil
}

// Cheapest returns the lowest priced rate in the currency.
func Cheapest(rates []Rate, currency string) (Rate, bool) {
	matching := make([]Rate, 0, len(rates))
	for _, r := range rates {
		if strings.EqualFold(r.Currency, currency) {
			matching = append(matching, r)
		}
	}
	if len(matching) == 0 {
		return Rate{}, false
	}
	sort.SliceStable(matching, func(i, j int) bool { return matching[i].Price < matching[j].Price })
	return matching[0], true
}
