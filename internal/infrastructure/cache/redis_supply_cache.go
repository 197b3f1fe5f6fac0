package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stockpile/backend/internal/domain/supply"
)

// RedisConfig holds connection settings for Redis-backed caches
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisSupplyListCache implements supply.ListCache using Redis
type RedisSupplyListCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	config     supply.CacheConfig
	logger     *zap.Logger
}

// RedisSupplyListCacheOption is a functional option for configuring the cache
type RedisSupplyListCacheOption func(*RedisSupplyListCache)

// WithCacheConfig sets the cache configuration
func WithCacheConfig(config supply.CacheConfig) RedisSupplyListCacheOption {
	return func(c *RedisSupplyListCache) {
		c.config = config
	}
}

// WithCacheLogger sets the logger for the cache
func WithCacheLogger(logger *zap.Logger) RedisSupplyListCacheOption {
	return func(c *RedisSupplyListCache) {
		c.logger = logger
	}
}

// NewRedisSupplyListCache creates a new Redis-based supply list cache
func NewRedisSupplyListCache(cfg RedisConfig, opts ...RedisSupplyListCacheOption) (*RedisSupplyListCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisSupplyListCache{
		client:     client,
		ownsClient: true,
		config:     supply.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisSupplyListCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisSupplyListCacheWithClient(client *redis.Client, opts ...RedisSupplyListCacheOption) *RedisSupplyListCache {
	cache := &RedisSupplyListCache{
		client:     client,
		ownsClient: false,
		config:     supply.DefaultCacheConfig(),
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// listCacheKey generates the cache key for a team's supply listing
func (c *RedisSupplyListCache) listCacheKey(teamID uuid.UUID) string {
	return fmt.Sprintf("supply_list:%s", teamID.String())
}

// Get retrieves a team's supply listing from cache
func (c *RedisSupplyListCache) Get(ctx context.Context, teamID uuid.UUID) (*supply.CachedList, bool, error) {
	cacheKey := c.listCacheKey(teamID)

	data, err := c.client.Get(ctx, cacheKey).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Cache miss for supply list", zap.String("team_id", teamID.String()))
		return nil, false, nil
	}
	if err != nil {
		c.logger.Error("Failed to get supply list from cache",
			zap.String("team_id", teamID.String()),
			zap.Error(err))
		return nil, false, fmt.Errorf("failed to get supply list from cache: %w", err)
	}

	var list supply.CachedList
	if err := json.Unmarshal(data, &list); err != nil {
		c.logger.Error("Failed to unmarshal cached supply list",
			zap.String("team_id", teamID.String()),
			zap.Error(err))
		// Drop corrupted cache entry
		_ = c.client.Del(ctx, cacheKey)
		return nil, false, fmt.Errorf("failed to unmarshal supply list: %w", err)
	}

	c.logger.Debug("Cache hit for supply list", zap.String("team_id", teamID.String()))
	return &list, true, nil
}

// Set stores a team's supply listing in cache
func (c *RedisSupplyListCache) Set(ctx context.Context, teamID uuid.UUID, list supply.CachedList, ttl time.Duration) error {
	if ttl == 0 {
		ttl = c.config.TTL
	}

	cacheKey := c.listCacheKey(teamID)

	data, err := json.Marshal(list)
	if err != nil {
		c.logger.Error("Failed to marshal supply list",
			zap.String("team_id", teamID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to marshal supply list: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey, data, ttl).Err(); err != nil {
		c.logger.Error("Failed to set supply list in cache",
			zap.String("team_id", teamID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to set supply list in cache: %w", err)
	}

	c.logger.Debug("Cached supply list",
		zap.String("team_id", teamID.String()),
		zap.Int("count", len(list.Supplies)),
		zap.Int64("total", list.Total),
		zap.Duration("ttl", ttl))
	return nil
}

// Invalidate drops a team's cached supply listing
func (c *RedisSupplyListCache) Invalidate(ctx context.Context, teamID uuid.UUID) error {
	cacheKey := c.listCacheKey(teamID)

	if err := c.client.Del(ctx, cacheKey).Err(); err != nil {
		c.logger.Error("Failed to invalidate supply list cache",
			zap.String("team_id", teamID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to invalidate supply list cache: %w", err)
	}

	c.logger.Debug("Invalidated supply list cache", zap.String("team_id", teamID.String()))
	return nil
}

// Close releases the Redis client if the cache owns it
func (c *RedisSupplyListCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (c *RedisSupplyListCache) GetClient() *redis.Client {
	return c.client
}

var _ supply.ListCache = (*RedisSupplyListCache)(nil)
