// Package commission loads the marketplace commission configuration from the
// hosted asset delivery API.
package commission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rental/internal/cache"
	"github.com/noah-isme/backend-rental/internal/lock"
	"github.com/noah-isme/backend-rental/internal/obs"
	"github.com/noah-isme/backend-rental/internal/pricing"
	"github.com/noah-isme/backend-rental/internal/resilience"
)

// AssetPath is the hosted asset holding the commission configuration.
const AssetPath = "transactions/commission.json"

const maxAssetBytes = 1 << 20

// Assets holds the commission configuration of both parties.
type Assets struct {
	Provider *pricing.Commission `json:"providerCommission,omitempty"`
	Customer *pricing.Commission `json:"customerCommission,omitempty"`
}

type assetEnvelope struct {
	Data *Assets `json:"data"`
}

const refreshLockTTL = 10 * time.Second

// Loader fetches commission assets with a Redis cache in front. When the
// asset cannot be fetched the configured defaults are used. With a Lock set
// only one instance refreshes an expired asset at a time.
type Loader struct {
	HTTP     resilience.HTTPClient
	URL      string
	Cache    *cache.JSON
	Lock     *lock.Locker
	Defaults Assets
}

// Load returns the commission assets.
func (l *Loader) Load(ctx context.Context) (Assets, error) {
	if l == nil {
		return Assets{}, nil
	}
	key := cache.KeyAsset(AssetPath)
	var cached Assets
	if ok, err := l.Cache.Get(ctx, key, &cached); err == nil && ok {
		obs.IncCommissionAsset("cache")
		return cached, nil
	} else if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("commission cache read failed")
	}

	if l.URL == "" {
		obs.IncCommissionAsset("default")
		return l.Defaults, nil
	}

	assets, source, err := l.refresh(ctx, key)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Assets{}, ctxErr
		}
		zerolog.Ctx(ctx).Warn().Err(err).Str("url", l.URL).Msg("commission asset fetch failed, using defaults")
		obs.IncCommissionAsset("fallback")
		return l.Defaults, nil
	}
	obs.IncCommissionAsset(source)
	if source == "remote" {
		if err := l.Cache.Set(ctx, key, assets); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("commission cache write failed")
		}
	}
	return assets, nil
}

// refresh fetches the asset, holding the refresh lock when configured. A
// waiter that finds the cache filled by the lock holder reports "cache".
func (l *Loader) refresh(ctx context.Context, key string) (Assets, string, error) {
	if l.Lock == nil {
		assets, err := l.fetch(ctx)
		return assets, "remote", err
	}
	var (
		assets Assets
		source = "remote"
	)
	err := l.Lock.WithLock(ctx, "lock:"+key, refreshLockTTL, func(ctx context.Context) error {
		if ok, err := l.Cache.Get(ctx, key, &assets); err == nil && ok {
			source = "cache"
			return nil
		}
		var err error
		assets, err = l.fetch(ctx)
		return err
	})
	return assets, source, err
}

func (l *Loader) fetch(ctx context.Context) (Assets, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return Assets{}, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := l.HTTP.Do(ctx, req)
	if err != nil {
		return Assets{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Assets{}, fmt.Errorf("commission asset: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetBytes))
	if err != nil {
		return Assets{}, err
	}
	return Decode(body)
}

// Decode parses a commission asset, with or without the {"data": ...} envelope.
func Decode(body []byte) (Assets, error) {
	var env assetEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Assets{}, fmt.Errorf("decode commission asset: %w", err)
	}
	if env.Data != nil {
		return *env.Data, nil
	}
	var assets Assets
	if err := json.Unmarshal(body, &assets); err != nil {
		return Assets{}, fmt.Errorf("decode commission asset: %w", err)
	}
	if assets.Provider == nil && assets.Customer == nil {
		return Assets{}, errors.New("decode commission asset: no commission configured")
	}
	return assets, nil
}
