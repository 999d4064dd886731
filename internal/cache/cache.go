// Package cache holds rendered response pages keyed by an invalidation group.
package cache

import (
	"context"
	"time"
)

// Page is the result of a lookup. Generation identifies the state of the
// group at read time and is set on misses too.
type Page struct {
	Data       []byte
	Generation int64
}

// PageCache stores opaque payloads. Invalidate drops every key of the given
// groups at once and advances their generation.
//
// Set only stores the value while the group is still at gen, the generation
// returned by the Get that preceded the read of the underlying data. A fill
// racing an invalidation is dropped instead of resurrecting stale data.
type PageCache interface {
	Get(ctx context.Context, group, key string) (Page, bool, error)
	Set(ctx context.Context, group, key string, gen int64, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, groups ...string) error
}

// CollectionGroup groups the cached collection pages of a user.
func CollectionGroup(userID string) string {
	return "collection:" + userID
}

// WishlistGroup groups the cached wishlist pages of a user.
func WishlistGroup(userID string) string {
	return "wishlist:" + userID
}

// SkinGroup groups the cached detail page of one skin as seen by one viewer.
// An empty viewerID stands for anonymous visitors.
func SkinGroup(skinID, viewerID string) string {
	return "skin:" + skinID + ":" + viewerID
}
