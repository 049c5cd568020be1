package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Sliding keeps one sorted-set member per admitted request, scored by its
// arrival time in nanoseconds. Rejected requests are removed again so they
// do not hold the window shut.
type Sliding struct {
	Client redis.Cmdable
	Prefix string
}

// Allow implements Backend.
func (l Sliding) Allow(ctx context.Context, key string, window time.Duration, max int) (bool, int, time.Time, error) {
	now := time.Now()
	reset := now.Add(window)
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, reset, nil
	}

	setKey := l.Prefix + key
	member := uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	var card *redis.IntCmd
	_, err := l.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, setKey, "-inf", "("+cutoff)
		pipe.ZAdd(ctx, setKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
		card = pipe.ZCard(ctx, setKey)
		pipe.PExpire(ctx, setKey, window)
		return nil
	})
	if err != nil {
		return false, 0, reset, err
	}

	count := int(card.Val())
	if count > max {
		if err := l.Client.ZRem(ctx, setKey, member).Err(); err != nil {
			return false, 0, reset, err
		}
		return false, 0, reset, nil
	}
	return true, max - count, reset, nil
}
