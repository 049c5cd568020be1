package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-rental/internal/money"
)

// ErrNotFound is returned when no listing matches the requested id.
var ErrNotFound = errors.New("listing not found")

// Store loads listings by id.
type Store interface {
	Get(ctx context.Context, id string) (Listing, error)
}

// rowQuerier is the subset of pgxpool.Pool used by PGStore.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore reads listings from Postgres.
type PGStore struct {
	DB rowQuerier
}

const getListingSQL = `SELECT id::text, title, price_amount, price_currency, public_data
FROM listings
WHERE id = $1 AND deleted_at IS NULL`

// Get fetches a single listing.
func (s PGStore) Get(ctx context.Context, id string) (Listing, error) {
	if s.DB == nil {
		return Listing{}, errors.New("listing store not configured")
	}
	var (
		l        Listing
		amount   *int64
		currency *string
		raw      []byte
	)
	err := s.DB.QueryRow(ctx, getListingSQL, id).Scan(&l.ID, &l.Attributes.Title, &amount, &currency, &raw)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || errors.As(err, &pgErr) && pgErr.Code == pgerrcode.InvalidTextRepresentation {
			return Listing{}, ErrNotFound
		}
		return Listing{}, fmt.Errorf("query listing: %w", err)
	}
	if amount != nil && currency != nil {
		p := money.New(*amount, *currency)
		l.Attributes.Price = &p
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &l.Attributes.PublicData); err != nil {
			return Listing{}, fmt.Errorf("decode public data: %w", err)
		}
	}
	return l, nil
}
