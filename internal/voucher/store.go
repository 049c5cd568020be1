package voucher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Store loads coupon rules by code.
type Store interface {
	GetByCode(ctx context.Context, code string) (Rule, error)
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore reads coupons from Postgres.
type PGStore struct {
	DB rowQuerier
}

const getCouponSQL = `SELECT code, kind, value, currency, percent_bps, min_spend, usage_limit, used_count,
	valid_from, valid_to, line_item_codes
FROM coupons
WHERE upper(code) = $1 AND deleted_at IS NULL`

// GetByCode fetches a coupon rule.
func (s PGStore) GetByCode(ctx context.Context, code string) (Rule, error) {
	if s.DB == nil {
		return Rule{}, errors.New("coupon store not configured")
	}
	var (
		r         Rule
		currency  *string
		validFrom *time.Time
		validTo   *time.Time
	)
	err := s.DB.QueryRow(ctx, getCouponSQL, Normalize(code)).Scan(
		&r.Code, &r.Kind, &r.Value, &currency, &r.PercentBps, &r.MinSpend, &r.UsageLimit, &r.UsedCount,
		&validFrom, &validTo, &r.LineItemCodes,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, ErrNotFound
		}
		return Rule{}, fmt.Errorf("query coupon: %w", err)
	}
	if currency != nil {
		r.Currency = *currency
	}
	r.ValidFrom = validFrom
	r.ValidTo = validTo
	return r, nil
}
