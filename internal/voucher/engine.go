package voucher

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rental/internal/money"
)

var (
	// ErrNotFound is returned when no coupon matches the code.
	ErrNotFound = errors.New("coupon not found")
	// ErrNotEligible is returned when the coupon cannot be applied to the provided order.
	ErrNotEligible = errors.New("coupon not eligible")
	// ErrUsageLimitReached indicates the coupon has exhausted the global usage quota.
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	// ErrInactive is returned when attempting to use a coupon outside of its active window.
	ErrInactive = errors.New("coupon not active")
	// ErrExpired is returned when the coupon has already expired.
	ErrExpired = errors.New("coupon expired")
	// ErrMinimumSpendUnmet indicates the order total did not meet the coupon requirement.
	ErrMinimumSpendUnmet = errors.New("coupon minimum spend not met")
	// ErrCurrencyMismatch is returned for fixed amount coupons issued in another currency.
	ErrCurrencyMismatch = errors.New("coupon currency does not match the order")
)

// Discount kinds.
const (
	KindFixedAmount = "fixed_amount"
	KindPercent     = "percent"
)

// Rule captures the runtime constraints of a coupon.
type Rule struct {
	Code       string
	Kind       string
	Value      int64
	Currency   string
	PercentBps *int32
	MinSpend   int64
	UsageLimit *int32
	UsedCount  int32
	ValidFrom  *time.Time
	ValidTo    *time.Time
	// LineItemCodes restricts the discount to the listed line item codes.
	// Empty means every line item counts.
	LineItemCodes []string
}

// Item represents a line eligible for coupon calculation.
type Item struct {
	Code     string
	Subtotal int64
}

// Normalize canonicalises a coupon code for lookups.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate ensures the rule can be applied at the provided instant and order total.
func (r Rule) Validate(now time.Time, orderTotal int64, currency string) error {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return ErrInactive
	}
	if r.ValidTo != nil && now.After(*r.ValidTo) {
		return ErrExpired
	}
	if r.UsageLimit != nil && *r.UsageLimit >= 0 && r.UsedCount >= *r.UsageLimit {
		return ErrUsageLimitReached
	}
	if r.Currency != "" && !strings.EqualFold(r.Currency, currency) {
		return ErrCurrencyMismatch
	}
	if orderTotal < r.MinSpend {
		return ErrMinimumSpendUnmet
	}
	return nil
}

// EligibleSubtotal calculates the portion of the order total that is affected by the rule.
func EligibleSubtotal(items []Item, r Rule) int64 {
	var total int64
	for _, it := range items {
		if it.Subtotal <= 0 {
			continue
		}
		if len(r.LineItemCodes) == 0 || ruleMatchesItem(r, it) {
			total += it.Subtotal
		}
	}
	return total
}

func ruleMatchesItem(r Rule, it Item) bool {
	for _, code := range r.LineItemCodes {
		if code == it.Code {
			return true
		}
	}
	return false
}

var bpsDivisor = decimal.NewFromInt(10000)

// Compute determines the discount amount based on the rule and eligible subtotal.
func Compute(eligible int64, r Rule) int64 {
	if eligible <= 0 {
		return 0
	}
	discount := r.Value
	if strings.EqualFold(r.Kind, KindPercent) {
		if r.PercentBps == nil || *r.PercentBps <= 0 {
			return 0
		}
		bps := decimal.NewFromInt32(*r.PercentBps)
		discount = money.Round(decimal.NewFromInt(eligible).Mul(bps).Div(bpsDivisor))
	}
	if discount > eligible {
		discount = eligible
	}
	if discount < 0 {
		return 0
	}
	return discount
}
