package obs

import "context"

// routePatternKey is the context key storing matched route pattern.
type routePatternKey struct{}

// WithRoutePattern stores the matched router pattern on the context.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext extracts the route pattern from context if present.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(routePatternKey{}).(string); ok {
		return v
	}
	return ""
}

type listingIDKey struct{}

// listingIDHolder is stored on the context by the request logger's callee so
// the listing id resolved deep in a handler reaches the access log.
type listingIDHolder struct{ id string }

// WithListingSlot prepares the context to carry a listing id set later by a handler.
func WithListingSlot(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Value(listingIDKey{}).(*listingIDHolder); ok {
		return ctx
	}
	return context.WithValue(ctx, listingIDKey{}, &listingIDHolder{})
}

// SetListingID records the listing id handled by the current request.
func SetListingID(ctx context.Context, id string) {
	if ctx == nil {
		return
	}
	if h, ok := ctx.Value(listingIDKey{}).(*listingIDHolder); ok {
		h.id = id
	}
}

// ListingIDFromContext returns the listing id recorded for the request.
func ListingIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if h, ok := ctx.Value(listingIDKey{}).(*listingIDHolder); ok {
		return h.id
	}
	return ""
}
