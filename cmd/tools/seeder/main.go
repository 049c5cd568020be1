package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/obs"
)

type seedListing struct {
	ID       string
	Title    string
	Amount   int64
	Currency string
	Public   listing.PublicData
}

type seedCoupon struct {
	Code          string
	Kind          string
	Value         int64
	Currency      *string
	PercentBps    *int32
	MinSpend      int64
	UsageLimit    *int32
	LineItemCodes []string
}

func main() {
	logger := obs.NewLogger("console", "info")

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer conn.Close(context.Background())

	if err := seedListings(ctx, conn); err != nil {
		logger.Fatal().Err(err).Msg("seed listings")
	}
	if err := seedCoupons(ctx, conn); err != nil {
		logger.Fatal().Err(err).Msg("seed coupons")
	}
	logger.Info().Msg("seeding completed")
}

// sampleListings covers every unit type, a variant pair and item shipping.
func sampleListings() []seedListing {
	on, off := true, false
	oneItem, additional := int64(1000), int64(500)
	weekend := int64(9000)
	tenOff := decimalPercent("10")
	return []seedListing{
		{
			ID: "0b7c8b4e-3a5f-4d7e-9f1a-2c6d8e0f1a01", Title: "Cabin by the lake", Amount: 12000, Currency: "USD",
			Public: listing.PublicData{UnitType: listing.UnitNight},
		},
		{
			ID: "0b7c8b4e-3a5f-4d7e-9f1a-2c6d8e0f1a02", Title: "Sauna session", Amount: 2500, Currency: "USD",
			Public: listing.PublicData{UnitType: listing.UnitHour},
		},
		{
			ID: "0b7c8b4e-3a5f-4d7e-9f1a-2c6d8e0f1a03", Title: "Kayak day rental", Amount: 5000, Currency: "USD",
			Public: listing.PublicData{
				UnitType:               listing.UnitDay,
				PriceVariationsEnabled: true,
				PriceVariants: []listing.PriceVariant{
					{Name: "weekend", Type: listing.VariantPeriod, PriceInSubunits: &weekend},
					{Name: "loyal", PercentageDiscount: tenOff},
				},
			},
		},
		{
			ID: "0b7c8b4e-3a5f-4d7e-9f1a-2c6d8e0f1a04", Title: "Camping stove", Amount: 3500, Currency: "USD",
			Public: listing.PublicData{
				UnitType:                               listing.UnitItem,
				ShippingEnabled:                        &on,
				ShippingPriceInSubunitsOneItem:         &oneItem,
				ShippingPriceInSubunitsAdditionalItems: &additional,
			},
		},
		{
			ID: "0b7c8b4e-3a5f-4d7e-9f1a-2c6d8e0f1a05", Title: "Guided tour", Amount: 20000, Currency: "EUR",
			Public: listing.PublicData{UnitType: listing.UnitOffer, ShippingEnabled: &off},
		},
	}
}

func seedListings(ctx context.Context, conn *pgx.Conn) error {
	for _, l := range sampleListings() {
		raw, err := json.Marshal(l.Public)
		if err != nil {
			return err
		}
		if _, err := conn.Exec(ctx, `
			INSERT INTO listings (id, title, price_amount, price_currency, public_data)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, price_amount = EXCLUDED.price_amount,
				price_currency = EXCLUDED.price_currency, public_data = EXCLUDED.public_data, updated_at = now()`,
			l.ID, l.Title, l.Amount, l.Currency, raw); err != nil {
			return err
		}
	}
	return nil
}

func seedCoupons(ctx context.Context, conn *pgx.Conn) error {
	usd := "USD"
	tenPct := int32(1000)
	limit := int32(100)
	coupons := []seedCoupon{
		{Code: "WELCOME10", Kind: "percent", PercentBps: &tenPct},
		{Code: "SAVE5", Kind: "fixed_amount", Value: 500, Currency: &usd, MinSpend: 2000, UsageLimit: &limit},
		{Code: "FREESHIP", Kind: "percent", PercentBps: ptr(int32(10000)), LineItemCodes: []string{"line-item/shipping-fee"}},
	}
	for _, c := range coupons {
		codes := c.LineItemCodes
		if codes == nil {
			codes = []string{}
		}
		if _, err := conn.Exec(ctx, `
			INSERT INTO coupons (code, kind, value, currency, percent_bps, min_spend, usage_limit, line_item_codes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (code) DO UPDATE SET kind = EXCLUDED.kind, value = EXCLUDED.value, currency = EXCLUDED.currency,
				percent_bps = EXCLUDED.percent_bps, min_spend = EXCLUDED.min_spend, usage_limit = EXCLUDED.usage_limit,
				line_item_codes = EXCLUDED.line_item_codes`,
			c.Code, c.Kind, c.Value, c.Currency, c.PercentBps, c.MinSpend, c.UsageLimit, codes); err != nil {
			return err
		}
	}
	return nil
}

func ptr[T any](v T) *T { return &v }

// decimalPercent parses a literal percentage such as "10" or "12.5".
func decimalPercent(s string) *decimal.Decimal { return ptr(decimal.RequireFromString(s)) }
