package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestSlidingAllowWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := Sliding{Client: client, Prefix: "test:"}
	ctx := context.Background()
	window := 2 * time.Second

	for want := 1; want >= 0; want-- {
		allowed, remaining, _, err := limiter.Allow(ctx, "key", window, 2)
		require.NoError(t, err)
		require.True(t, allowed)
		require.Equal(t, want, remaining)
	}

	for range 3 {
		allowed, remaining, _, err := limiter.Allow(ctx, "key", window, 2)
		require.NoError(t, err)
		require.False(t, allowed)
		require.Zero(t, remaining)
	}
	card, err := client.ZCard(ctx, "test:key").Result()
	require.NoError(t, err)
	require.EqualValues(t, 2, card, "rejected requests are not kept in the window")

	mr.FastForward(window)
	allowed, _, _, err := limiter.Allow(ctx, "key", window, 2)
	require.NoError(t, err)
	require.True(t, allowed)
}

func TestSlidingWithoutClientAllows(t *testing.T) {
	allowed, remaining, _, err := Sliding{}.Allow(context.Background(), "key", time.Second, 5)
	require.NoError(t, err)
	require.True(t, allowed)
	require.Equal(t, 5, remaining)
}
