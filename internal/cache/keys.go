package cache

import "strings"

// KeyListing returns the cache key for a listing.
func KeyListing(id string) string {
	return "listing:" + strings.TrimSpace(id)
}

// KeyAsset returns the cache key for a hosted asset path such as
// "transactions/commission.json".
func KeyAsset(path string) string {
	return "asset:" + strings.TrimPrefix(strings.TrimSpace(path), "/")
}
