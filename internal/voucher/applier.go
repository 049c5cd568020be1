package voucher

import (
	"time"

	"github.com/noah-isme/backend-rental/internal/money"
	"github.com/noah-isme/backend-rental/internal/pricing"
)

// Applier prices coupon discounts from rules fetched ahead of the engine call.
// It performs no I/O.
type Applier struct {
	Rules map[string]Rule
	Now   time.Time
}

// NewApplier indexes rules by normalised code.
func NewApplier(now time.Time, rules ...Rule) Applier {
	a := Applier{Rules: make(map[string]Rule, len(rules)), Now: now}
	for _, r := range rules {
		a.Rules[Normalize(r.Code)] = r
	}
	return a
}

// CouponDiscount implements pricing.CouponApplier. The discount applies to
// the order line item plus the booking extras priced before it.
func (a Applier) CouponDiscount(order pricing.LineItem, extras []pricing.LineItem, currency, code string) (*pricing.LineItem, error) {
	rule, ok := a.Rules[Normalize(code)]
	if !ok {
		return nil, ErrNotFound
	}
	items := make([]Item, 0, len(extras)+1)
	var total int64
	for _, li := range append([]pricing.LineItem{order}, extras...) {
		lineTotal, err := pricing.LineTotal(li)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{Code: li.Code, Subtotal: lineTotal.Amount})
		total += lineTotal.Amount
	}
	if err := rule.Validate(a.now(), total, currency); err != nil {
		return nil, err
	}
	discount := Compute(EligibleSubtotal(items, rule), rule)
	if discount <= 0 {
		return nil, nil
	}
	return &pricing.LineItem{
		Code:       pricing.CodeCouponDiscount,
		UnitPrice:  money.New(-discount, currency),
		Quantity:   pricing.One(),
		IncludeFor: []pricing.Party{pricing.Customer, pricing.Provider},
	}, nil
}

func (a Applier) now() time.Time {
	if a.Now.IsZero() {
		return time.Now()
	}
	return a.Now
}
