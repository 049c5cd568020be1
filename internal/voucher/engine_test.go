package voucher

import (
	"errors"
	"testing"
	"time"
)

func TestComputePercent(t *testing.T) {
	percent := int32(2000)
	rule := Rule{Kind: KindPercent, PercentBps: &percent}
	discount := Compute(100_000, rule)
	if discount != 20_000 {
		t.Fatalf("expected 20000 discount, got %d", discount)
	}
}

func TestComputePercentRoundsHalfAwayFromZero(t *testing.T) {
	percent := int32(1250)
	rule := Rule{Kind: KindPercent, PercentBps: &percent}
	// 12.5% of 1_004 is 125.5
	if discount := Compute(1_004, rule); discount != 126 {
		t.Fatalf("expected 126 discount, got %d", discount)
	}
}

func TestComputeFixedClampsToEligible(t *testing.T) {
	rule := Rule{Kind: KindFixedAmount, Value: 5_000}
	if discount := Compute(3_000, rule); discount != 3_000 {
		t.Fatalf("expected discount clamped to 3000, got %d", discount)
	}
	if discount := Compute(0, rule); discount != 0 {
		t.Fatalf("expected no discount on empty subtotal, got %d", discount)
	}
}

func TestEligibleSubtotalScoped(t *testing.T) {
	rule := Rule{LineItemCodes: []string{"line-item/day"}}
	items := []Item{
		{Code: "line-item/day", Subtotal: 50_000},
		{Code: "line-item/shipping-fee", Subtotal: 7_000},
	}
	if eligible := EligibleSubtotal(items, rule); eligible != 50_000 {
		t.Fatalf("expected eligible subtotal 50000, got %d", eligible)
	}
	if eligible := EligibleSubtotal(items, Rule{}); eligible != 57_000 {
		t.Fatalf("expected eligible subtotal 57000, got %d", eligible)
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	limit := int32(3)

	cases := []struct {
		name string
		rule Rule
		want error
	}{
		{"ok", Rule{ValidFrom: &past, ValidTo: &future}, nil},
		{"inactive", Rule{ValidFrom: &future}, ErrInactive},
		{"expired", Rule{ValidTo: &past}, ErrExpired},
		{"usage", Rule{UsageLimit: &limit, UsedCount: 3}, ErrUsageLimitReached},
		{"currency", Rule{Currency: "EUR"}, ErrCurrencyMismatch},
		{"min spend", Rule{MinSpend: 20_000}, ErrMinimumSpendUnmet},
	}
	for _, tc := range cases {
		err := tc.rule.Validate(now, 10_000, "USD")
		if !errors.Is(err, tc.want) || (tc.want == nil && err != nil) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}
