package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stockpile/backend/internal/domain/supply"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
)

// InMemorySupplyListCache implements supply.ListCache using process memory.
// Suitable for single-instance deployments and tests.
type InMemorySupplyListCache struct {
	entries sync.Map // map[uuid.UUID]*listEntry
	config  supply.CacheConfig
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	// Stats for monitoring
	hits   int64
	misses int64
}

// listEntry wraps a cached listing with its expiration time
type listEntry struct {
	list      supply.CachedList
	expiresAt time.Time
}

func (e *listEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemorySupplyListCacheOption is a functional option for configuring the cache
type InMemorySupplyListCacheOption func(*InMemorySupplyListCache)

// WithInMemoryConfig sets the cache configuration
func WithInMemoryConfig(config supply.CacheConfig) InMemorySupplyListCacheOption {
	return func(c *InMemorySupplyListCache) {
		c.config = config
	}
}

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemorySupplyListCacheOption {
	return func(c *InMemorySupplyListCache) {
		c.logger = logger
	}
}

// NewInMemorySupplyListCache creates a new in-memory supply list cache
func NewInMemorySupplyListCache(opts ...InMemorySupplyListCacheOption) *InMemorySupplyListCache {
	cache := &InMemorySupplyListCache{
		config: supply.DefaultCacheConfig(),
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves a team's supply listing from cache
func (c *InMemorySupplyListCache) Get(_ context.Context, teamID uuid.UUID) (*supply.CachedList, bool, error) {
	if value, ok := c.entries.Load(teamID); ok {
		entry := value.(*listEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("Cache hit for supply list", zap.String("team_id", teamID.String()))
			list := entry.list
			return &list, true, nil
		}
		c.entries.Delete(teamID)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("Cache miss for supply list", zap.String("team_id", teamID.String()))
	return nil, false, nil
}

// Set stores a team's supply listing in cache
func (c *InMemorySupplyListCache) Set(_ context.Context, teamID uuid.UUID, list supply.CachedList, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.TTL
	}

	c.entries.Store(teamID, &listEntry{
		list:      list,
		expiresAt: time.Now().Add(ttl),
	})
	c.logger.Debug("Cached supply list",
		zap.String("team_id", teamID.String()),
		zap.Int("count", len(list.Supplies)),
		zap.Int64("total", list.Total),
		zap.Duration("ttl", ttl))
	return nil
}

// Invalidate drops a team's cached supply listing
func (c *InMemorySupplyListCache) Invalidate(_ context.Context, teamID uuid.UUID) error {
	c.entries.Delete(teamID)
	c.logger.Debug("Invalidated supply list cache", zap.String("team_id", teamID.String()))
	return nil
}

// Close stops the cleanup goroutine
func (c *InMemorySupplyListCache) Close() error {
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemorySupplyListCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of cached listings
func (c *InMemorySupplyListCache) Count() (count int) {
	c.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemorySupplyListCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.doCleanup()
		}
	}
}

func (c *InMemorySupplyListCache) doCleanup() {
	var removed int
	c.entries.Range(func(key, value any) bool {
		if value.(*listEntry).isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		c.logger.Debug("Cleaned up expired supply list entries", zap.Int("removed", removed))
	}
}

var _ supply.ListCache = (*InMemorySupplyListCache)(nil)
