package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-rental/internal/common"
	"github.com/noah-isme/backend-rental/internal/obs"
)

// Backend counts events per key.
type Backend interface {
	Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error)
}

// Config describes how to derive a rate limit key and thresholds.
type Config struct {
	Key    func(*http.Request) string
	Window time.Duration
	Max    int
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter Backend
	Config  Config
	OnError func(error)
}

// KeyByClientIP keys requests by route pattern and client address, so every
// listing id shares one bucket per client. The pattern is only known once chi
// has matched the route: mount the limiter with chi's With on the endpoint.
// Unrouted requests fall back to the raw path.
func KeyByClientIP(r *http.Request) string {
	route := ""
	if rc := chi.RouteContext(r.Context()); rc != nil {
		route = rc.RoutePattern()
	}
	if route == "" {
		route = obs.RoutePatternFromContext(r.Context())
	}
	if route == "" {
		route = r.URL.Path
	}
	return route + "|" + common.ClientIP(r)
}

// Middleware rejects requests over the limit with 429 RATE_LIMITED. When the
// backend fails the request is let through and the error goes to OnError, or
// to the request logger when OnError is nil.
func (h Handler) Middleware(next http.Handler) http.Handler {
	if h.Config.Key == nil || h.Limiter == nil {
		return next
	}
	limit := max(h.Config.Max, 0)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := h.Config.Key(r)
		allowed, remaining, resetAt, err := h.Limiter.Allow(r.Context(), key, h.Config.Window, h.Config.Max)
		if err != nil {
			h.reportError(r, key, err)
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(limit))
		headers.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		wait := max(int(time.Until(resetAt).Round(time.Second)/time.Second), 0)
		headers.Set("Retry-After", strconv.Itoa(wait))
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "rate limit exceeded", map[string]any{
			"retryAfterSeconds": wait,
		})
	})
}

func (h Handler) reportError(r *http.Request, key string, err error) {
	if h.OnError != nil {
		h.OnError(err)
		return
	}
	zerolog.Ctx(r.Context()).Warn().Err(err).Str("key", key).Msg("rate_limiter_unavailable")
}
