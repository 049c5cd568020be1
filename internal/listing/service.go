package listing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rental/internal/cache"
	"github.com/noah-isme/backend-rental/internal/common"
	"github.com/noah-isme/backend-rental/internal/obs"
	"github.com/noah-isme/backend-rental/internal/resilience"
)

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store   Store
	Cache   *cache.JSON
	Breaker *resilience.Breaker
}

// Service reads listings through a Redis cache guarded by a circuit breaker.
type Service struct {
	store   Store
	cache   *cache.JSON
	breaker *resilience.Breaker
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("listing: store is required")
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, breaker: cfg.Breaker}, nil
}

// Get returns the listing with the given id.
func (s *Service) Get(ctx context.Context, id string) (Listing, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return Listing{}, &common.AppError{Code: "BAD_REQUEST", Message: "listing id must be a uuid", HTTPStatus: http.StatusBadRequest, Err: err}
	}
	key := cache.KeyListing(id)
	var cached Listing
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("listing cache read failed")
	}
	if ok {
		obs.IncListingCache("hit")
		return cached, nil
	}
	obs.IncListingCache("miss")

	var l Listing
	err = s.breaker.Execute(ctx, func(ctx context.Context) error {
		var getErr error
		l, getErr = s.store.Get(ctx, id)
		return getErr
	}, func(err error) bool { return errors.Is(err, ErrNotFound) })
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return Listing{}, &common.AppError{Code: "NOT_FOUND", Message: "listing not found", HTTPStatus: http.StatusNotFound, Err: err}
	case errors.Is(err, resilience.ErrOpenCircuit):
		return Listing{}, &common.AppError{Code: "UNAVAILABLE", Message: "listing store unavailable", HTTPStatus: http.StatusServiceUnavailable, Err: err}
	default:
		return Listing{}, fmt.Errorf("get listing %s: %w", id, err)
	}

	if err := s.cache.Set(ctx, key, l); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("listing cache write failed")
	}
	return l, nil
}

// Invalidate drops the cached copy of a listing.
func (s *Service) Invalidate(ctx context.Context, id string) error {
	return s.cache.Delete(ctx, cache.KeyListing(id))
}
