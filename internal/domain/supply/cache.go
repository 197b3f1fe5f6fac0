package supply

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CachedList is the unit stored in the list cache. Total carries the team's
// full matching count, which can exceed len(Supplies) when the cached page
// is smaller than the result set.
type CachedList struct {
	Supplies []Supply `json:"supplies"`
	Total    int64    `json:"total"`
}

// ListCache caches a team's default supply listing. Implementations must
// treat a miss as (nil, false, nil) so callers can fall through to the
// repository.
type ListCache interface {
	// Get returns the cached listing for a team, if present
	Get(ctx context.Context, teamID uuid.UUID) (*CachedList, bool, error)
	// Set stores the listing for a team with the given TTL
	Set(ctx context.Context, teamID uuid.UUID, list CachedList, ttl time.Duration) error
	// Invalidate drops the cached listing for a team
	Invalidate(ctx context.Context, teamID uuid.UUID) error
	// Close releases any resources held by the cache
	Close() error
}

// CacheConfig holds tuning for the supply list cache
type CacheConfig struct {
	TTL time.Duration
}

// DefaultCacheConfig returns the default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{TTL: 30 * time.Second}
}
