package commission

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-rental/internal/cache"
	"github.com/noah-isme/backend-rental/internal/lock"
	"github.com/noah-isme/backend-rental/internal/pricing"
	"github.com/noah-isme/backend-rental/internal/resilience"
)

const assetBody = `{"data":{"providerCommission":{"percentage":10,"minimum_amount":{"amount":500,"currency":"USD"}},"customerCommission":{"percentage":5}}}`

func newCache(t *testing.T) (*cache.JSON, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewJSON(client, time.Minute), mr
}

func defaults() Assets {
	pct := decimal.NewFromInt(15)
	return Assets{Provider: &pricing.Commission{Percentage: &pct}}
}

func TestLoaderFetchesAndCaches(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(assetBody))
	}))
	defer srv.Close()

	c, mr := newCache(t)
	l := &Loader{HTTP: resilience.HTTPClient{Client: srv.Client()}, URL: srv.URL, Cache: c, Defaults: defaults()}

	assets, err := l.Load(context.Background())
	require.NoError(t, err)
	require.True(t, assets.Provider.Percentage.Equal(decimal.NewFromInt(10)))
	require.Equal(t, int64(500), assets.Provider.MinimumAmount.Amount)
	require.True(t, assets.Customer.Percentage.Equal(decimal.NewFromInt(5)))
	require.Nil(t, assets.Customer.MinimumAmount)
	require.True(t, mr.Exists(cache.KeyAsset(AssetPath)))

	_, err = l.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLoaderLockedRefreshFetchesOnce(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(30 * time.Millisecond)
		_, _ = w.Write([]byte(assetBody))
	}))
	defer srv.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := &Loader{
		HTTP:     resilience.HTTPClient{Client: srv.Client()},
		URL:      srv.URL,
		Cache:    cache.NewJSON(client, time.Minute),
		Lock:     &lock.Locker{R: client, RetryBackoff: 5 * time.Millisecond},
		Defaults: defaults(),
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assets, err := l.Load(context.Background())
			require.NoError(t, err)
			require.True(t, assets.Provider.Percentage.Equal(decimal.NewFromInt(10)))
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.False(t, mr.Exists("lock:"+cache.KeyAsset(AssetPath)))
}

func TestLoaderFallsBackToDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, mr := newCache(t)
	l := &Loader{
		HTTP:     resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 2, BaseBackoff: time.Millisecond},
		URL:      srv.URL,
		Cache:    c,
		Defaults: defaults(),
	}
	assets, err := l.Load(context.Background())
	require.NoError(t, err)
	require.True(t, assets.Provider.Percentage.Equal(decimal.NewFromInt(15)))
	require.False(t, mr.Exists(cache.KeyAsset(AssetPath)))
}

func TestLoaderWithoutURL(t *testing.T) {
	l := &Loader{Defaults: defaults()}
	assets, err := l.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, defaults(), assets)
}

func TestDecode(t *testing.T) {
	assets, err := Decode([]byte(`{"customerCommission":{"percentage":2.5}}`))
	require.NoError(t, err)
	require.Nil(t, assets.Provider)
	require.True(t, assets.Customer.Percentage.Equal(decimal.RequireFromString("2.5")))

	_, err = Decode([]byte(`{}`))
	require.Error(t, err)
	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
}
