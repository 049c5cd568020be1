package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Fixed adapts a ulule fixed window limiter. The rate is set when the
// limiter is built, so the window and max passed to Allow are ignored.
type Fixed struct {
	Limiter *limiter.Limiter
}

// NewMemory builds a process-local limiter.
func NewMemory(window time.Duration, max int, prefix string) Fixed {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: window})
	return Fixed{Limiter: limiter.New(store, limiter.Rate{Period: window, Limit: int64(max)})}
}

// NewRedis builds a limiter shared through Redis.
func NewRedis(client *redis.Client, window time.Duration, max int, prefix string) (Fixed, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return Fixed{}, fmt.Errorf("ratelimit redis store: %w", err)
	}
	return Fixed{Limiter: limiter.New(store, limiter.Rate{Period: window, Limit: int64(max)})}, nil
}

// Allow implements Backend.
func (f Fixed) Allow(ctx context.Context, key string, _ time.Duration, _ int) (bool, int, time.Time, error) {
	if f.Limiter == nil {
		return true, 0, time.Now(), nil
	}
	lctx, err := f.Limiter.Get(ctx, key)
	if err != nil {
		return false, 0, time.Now(), err
	}
	return !lctx.Reached, int(lctx.Remaining), time.Unix(lctx.Reset, 0), nil
}
