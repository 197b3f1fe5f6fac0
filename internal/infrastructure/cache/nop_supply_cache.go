package cache

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stockpile/backend/internal/domain/supply"
)

// NopSupplyListCache is a supply.ListCache that caches nothing. Used when
// caching is disabled by configuration.
type NopSupplyListCache struct{}

// NewNopSupplyListCache creates a cache that always misses
func NewNopSupplyListCache() *NopSupplyListCache {
	return &NopSupplyListCache{}
}

// Get always reports a miss
func (NopSupplyListCache) Get(_ context.Context, _ uuid.UUID) (*supply.CachedList, bool, error) {
	return nil, false, nil
}

// Set discards the listing
func (NopSupplyListCache) Set(_ context.Context, _ uuid.UUID, _ supply.CachedList, _ time.Duration) error {
	return nil
}

// Invalidate is a no-op
func (NopSupplyListCache) Invalidate(_ context.Context, _ uuid.UUID) error {
	return nil
}

// Close is a no-op
func (NopSupplyListCache) Close() error {
	return nil
}

var _ supply.ListCache = (*NopSupplyListCache)(nil)
