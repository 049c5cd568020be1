package listing_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rental/internal/cache"
	"github.com/noah-isme/backend-rental/internal/common"
	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/money"
	"github.com/noah-isme/backend-rental/internal/resilience"
)

const listingID = "6f1c2a4e-8d3b-4b5a-9c7e-1f2d3e4a5b6c"

type fakeStore struct {
	mu       sync.Mutex
	listings map[string]listing.Listing
	err      error
	calls    int
}

func (f *fakeStore) Get(_ context.Context, id string) (listing.Listing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return listing.Listing{}, f.err
	}
	l, ok := f.listings[id]
	if !ok {
		return listing.Listing{}, listing.ErrNotFound
	}
	return l, nil
}

func sampleListing() listing.Listing {
	price := money.New(5000, "USD")
	return listing.Listing{
		ID: listingID,
		Attributes: listing.Attributes{
			Title:      "Canoe",
			Price:      &price,
			PublicData: listing.PublicData{UnitType: listing.UnitDay},
		},
	}
}

func newRedisCache(t *testing.T) *cache.JSON {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewJSON(client, time.Minute)
}

func TestServiceCachesListings(t *testing.T) {
	store := &fakeStore{listings: map[string]listing.Listing{listingID: sampleListing()}}
	svc, err := listing.NewService(listing.ServiceConfig{Store: store, Cache: newRedisCache(t)})
	require.NoError(t, err)

	first, err := svc.Get(context.Background(), listingID)
	require.NoError(t, err)
	second, err := svc.Get(context.Background(), listingID)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, store.calls)

	require.NoError(t, svc.Invalidate(context.Background(), listingID))
	_, err = svc.Get(context.Background(), listingID)
	require.NoError(t, err)
	require.Equal(t, 2, store.calls)
}

func TestServiceErrors(t *testing.T) {
	store := &fakeStore{}
	svc, err := listing.NewService(listing.ServiceConfig{Store: store})
	require.NoError(t, err)

	var appErr *common.AppError
	_, err = svc.Get(context.Background(), "not-a-uuid")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)

	_, err = svc.Get(context.Background(), listingID)
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_FOUND", appErr.Code)
	require.ErrorIs(t, err, listing.ErrNotFound)

	_, err = listing.NewService(listing.ServiceConfig{})
	require.Error(t, err)
}

func TestServiceNotFoundDoesNotTripBreaker(t *testing.T) {
	breaker := resilience.NewBreaker(2, 0.5, time.Minute)
	svc, err := listing.NewService(listing.ServiceConfig{Store: &fakeStore{}, Breaker: breaker})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err = svc.Get(context.Background(), listingID)
		require.ErrorIs(t, err, listing.ErrNotFound)
	}
	require.Equal(t, resilience.Closed, breaker.State())
}

func TestServiceOpenCircuit(t *testing.T) {
	breaker := resilience.NewBreaker(2, 0.5, time.Minute)
	store := &fakeStore{err: errors.New("connection refused")}
	svc, err := listing.NewService(listing.ServiceConfig{Store: store, Breaker: breaker})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.Get(context.Background(), listingID)
		require.Error(t, err)
		require.False(t, common.IsAppError(err))
	}
	_, err = svc.Get(context.Background(), listingID)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusServiceUnavailable, appErr.HTTPStatus)
	require.Equal(t, 2, store.calls)
}

func TestHandlerGet(t *testing.T) {
	store := &fakeStore{listings: map[string]listing.Listing{listingID: sampleListing()}}
	svc, err := listing.NewService(listing.ServiceConfig{Store: store})
	require.NoError(t, err)
	h := listing.NewHandler(svc)

	router := chi.NewRouter()
	router.Get("/api/v1/listings/{id}", h.Get)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+listingID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data listing.Listing `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, sampleListing(), body.Data)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/listings/00000000-0000-0000-0000-000000000000", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"NOT_FOUND"`)
}
