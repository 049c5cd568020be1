// Package transaction prices transaction line items for a listing and an order.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-rental/internal/commission"
	"github.com/noah-isme/backend-rental/internal/common"
	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/money"
	"github.com/noah-isme/backend-rental/internal/obs"
	"github.com/noah-isme/backend-rental/internal/pricing"
	"github.com/noah-isme/backend-rental/internal/shipping"
	"github.com/noah-isme/backend-rental/internal/voucher"
)

// Error codes returned by Compute.
const (
	CodeOrderDataInvalid       = "ORDER_DATA_INVALID"
	CodeCommissionExceedsTotal = "COMMISSION_EXCEEDS_TOTAL"
	CodeCouponInvalid          = "COUPON_INVALID"
)

// ListingGetter loads a listing.
type ListingGetter interface {
	Get(ctx context.Context, id string) (listing.Listing, error)
}

// CommissionLoader loads the commission configuration.
type CommissionLoader interface {
	Load(ctx context.Context) (commission.Assets, error)
}

// CouponSource prepares a coupon applier for a code.
type CouponSource interface {
	Applier(ctx context.Context, code string) (voucher.Applier, error)
}

// ShippingSource prepares a shipping quoter for a booking.
type ShippingSource interface {
	Quoter(ctx context.Context, listingID, currency string, od pricing.OrderData) (shipping.Quoter, error)
}

// ServiceConfig groups Service dependencies. Only Listings is required.
type ServiceConfig struct {
	Listings    ListingGetter
	Commissions CommissionLoader
	Coupons     CouponSource
	Shipping    ShippingSource
	Insurance   pricing.InsuranceCalculator
}

// Service fetches the pricing inputs concurrently and runs the engine once.
type Service struct {
	listings    ListingGetter
	commissions CommissionLoader
	coupons     CouponSource
	shipping    ShippingSource
	insurance   pricing.InsuranceCalculator
}

// Result is the priced order.
type Result struct {
	LineItems   []pricing.ValidatedLineItem `json:"lineItems"`
	PayinTotal  money.Money                 `json:"payinTotal"`
	PayoutTotal money.Money                 `json:"payoutTotal"`
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Listings == nil {
		return nil, errors.New("transaction: listings are required")
	}
	return &Service{
		listings:    cfg.Listings,
		commissions: cfg.Commissions,
		coupons:     cfg.Coupons,
		shipping:    cfg.Shipping,
		insurance:   cfg.Insurance,
	}, nil
}

// Compute prices the order for the listing.
func (s *Service) Compute(ctx context.Context, listingID string, od pricing.OrderData) (Result, error) {
	var (
		l       listing.Listing
		assets  commission.Assets
		applier voucher.Applier
		quoter  shipping.Quoter
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if l, err = s.listings.Get(gctx, listingID); err != nil {
			return err
		}
		if s.shipping == nil {
			return nil
		}
		currency, err := pricing.Currency(l, od)
		if err != nil {
			// The engine reports the missing currency.
			return nil
		}
		quoter, err = s.shipping.Quoter(gctx, l.ID, currency, od)
		return err
	})
	if s.commissions != nil {
		g.Go(func() error {
			var err error
			assets, err = s.commissions.Load(gctx)
			return err
		})
	}
	if s.coupons != nil && od.CouponCode != nil {
		g.Go(func() error {
			var err error
			applier, err = s.coupons.Applier(gctx, *od.CouponCode)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	engine := pricing.Engine{Shipping: quoter, Insurance: s.insurance}
	if s.coupons != nil {
		engine.Coupons = applier
	}
	unitType := string(l.Attributes.PublicData.UnitType)
	items, err := engine.Compute(l, od, assets.Provider, assets.Customer)
	if err != nil {
		obs.ObservePricing(unitType, "error", 0)
		return Result{}, s.translate(ctx, err, l, od, assets)
	}

	validated, err := pricing.Validate(items)
	if err != nil {
		obs.ObservePricing(unitType, "invalid", len(items))
		return Result{}, fmt.Errorf("validate line items for listing %s: %w", l.ID, err)
	}
	payin, payout, err := pricing.Totals(items)
	if err != nil {
		obs.ObservePricing(unitType, "invalid", len(items))
		return Result{}, fmt.Errorf("totals for listing %s: %w", l.ID, err)
	}
	obs.ObservePricing(unitType, "ok", len(items))
	zerolog.Ctx(ctx).Debug().
		Str("listing_id", l.ID).
		Str("unit_type", unitType).
		Int("line_items", len(items)).
		Int64("payin", payin.Amount).
		Int64("payout", payout.Amount).
		Msg("line items computed")
	return Result{LineItems: validated, PayinTotal: payin, PayoutTotal: payout}, nil
}

func (s *Service) translate(ctx context.Context, err error, l listing.Listing, od pricing.OrderData, assets commission.Assets) error {
	var (
		orderErr  *pricing.OrderDataError
		shortErr  *pricing.CommissionExceedsTotalError
		couponErr *pricing.CouponError
	)
	switch {
	case errors.As(err, &shortErr):
		obs.IncCommissionShortfall(string(shortErr.Role))
		c := assets.Provider
		if shortErr.Role == pricing.Customer {
			c = assets.Customer
		}
		appErr := &common.AppError{
			Code:       CodeCommissionExceedsTotal,
			Message:    pricing.MinimumCommissionMessage,
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
		if units, ok := pricing.MinimumBookingUnits(l, od, c); ok {
			appErr.Details = map[string]any{"minimumBookingUnits": units}
		}
		zerolog.Ctx(ctx).Info().
			Str("listing_id", l.ID).
			Str("role", string(shortErr.Role)).
			Int64("computed", shortErr.Computed.Amount).
			Int64("minimum", shortErr.Minimum.Amount).
			Msg("commission below minimum")
		return appErr
	case errors.As(err, &orderErr):
		return &common.AppError{Code: CodeOrderDataInvalid, Message: orderErr.Error(), HTTPStatus: http.StatusBadRequest, Err: err}
	case errors.As(err, &couponErr):
		return &common.AppError{Code: CodeCouponInvalid, Message: couponErr.Error(), HTTPStatus: http.StatusBadRequest, Err: err}
	default:
		return fmt.Errorf("compute line items for listing %s: %w", l.ID, err)
	}
}
