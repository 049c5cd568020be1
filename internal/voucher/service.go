package voucher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PreviewResult describes the outcome of evaluating a coupon without pricing an order.
type PreviewResult struct {
	Discount       int64  `json:"discount"`
	EligibleAmount int64  `json:"eligibleAmount"`
	Code           string `json:"code"`
	Currency       string `json:"currency"`
}

// Service encapsulates coupon lookup and evaluation.
type Service struct {
	Store Store
	Now   func() time.Time
}

// Preview performs a dry-run evaluation of a coupon against an order total.
func (s *Service) Preview(ctx context.Context, code, currency string, orderTotal int64) (PreviewResult, error) {
	if s == nil || s.Store == nil {
		return PreviewResult{}, errors.New("coupon service not configured")
	}
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return PreviewResult{}, fmt.Errorf("code is required: %w", ErrNotEligible)
	}
	rule, err := s.Store.GetByCode(ctx, trimmed)
	if err != nil {
		return PreviewResult{}, err
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if err := rule.Validate(s.now(), orderTotal, currency); err != nil {
		return PreviewResult{}, err
	}
	eligible := EligibleSubtotal([]Item{{Subtotal: orderTotal}}, Rule{})
	discount := Compute(eligible, rule)
	if discount <= 0 {
		return PreviewResult{}, ErrNotEligible
	}
	return PreviewResult{Discount: discount, EligibleAmount: eligible, Code: rule.Code, Currency: currency}, nil
}

// Applier fetches the rule for code and returns an Applier ready for the
// pricing engine. An unknown code yields an Applier without rules so the
// engine reports it as a coupon error.
func (s *Service) Applier(ctx context.Context, code string) (Applier, error) {
	now := s.now()
	if strings.TrimSpace(code) == "" || s == nil || s.Store == nil {
		return NewApplier(now), nil
	}
	rule, err := s.Store.GetByCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return NewApplier(now), nil
	}
	if err != nil {
		return Applier{}, err
	}
	return NewApplier(now, rule), nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
