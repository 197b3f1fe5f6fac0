package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/stockpile/backend/internal/domain/supply"
)

// SupplyListCacheFactory creates supply list caches based on configuration
type SupplyListCacheFactory struct {
	redisConfig           RedisConfig
	cacheConfig           supply.CacheConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// SupplyListCacheFactoryOption is a functional option for configuring the factory
type SupplyListCacheFactoryOption func(*SupplyListCacheFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) SupplyListCacheFactoryOption {
	return func(f *SupplyListCacheFactory) {
		f.logger = logger
	}
}

// WithFactoryCacheConfig sets the cache tuning passed to created caches
func WithFactoryCacheConfig(cfg supply.CacheConfig) SupplyListCacheFactoryOption {
	return func(f *SupplyListCacheFactory) {
		f.cacheConfig = cfg
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory cache
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) SupplyListCacheFactoryOption {
	return func(f *SupplyListCacheFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewSupplyListCacheFactory creates a new factory
func NewSupplyListCacheFactory(cfg RedisConfig, opts ...SupplyListCacheFactoryOption) *SupplyListCacheFactory {
	f := &SupplyListCacheFactory{
		redisConfig:           cfg,
		cacheConfig:           supply.DefaultCacheConfig(),
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisCache creates a Redis-backed supply list cache
func (f *SupplyListCacheFactory) CreateRedisCache() (supply.ListCache, error) {
	cache, err := NewRedisSupplyListCache(f.redisConfig,
		WithCacheConfig(f.cacheConfig),
		WithCacheLogger(f.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis supply list cache: %w", err)
	}
	return cache, nil
}

// CreateInMemoryCache creates an in-memory supply list cache.
// In-memory caches do not share state across process instances, so stale
// listings are possible in multi-instance deployments.
func (f *SupplyListCacheFactory) CreateInMemoryCache() supply.ListCache {
	return NewInMemorySupplyListCache(
		WithInMemoryConfig(f.cacheConfig),
		WithInMemoryLogger(f.logger),
	)
}

// CreateCache tries Redis first and falls back to in-memory if Redis is not
// available and fallback is allowed.
func (f *SupplyListCacheFactory) CreateCache() (supply.ListCache, error) {
	cache, err := f.CreateRedisCache()
	if err == nil {
		f.logger.Info("using Redis supply list cache")
		return cache, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for supply list cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory supply list cache",
		zap.Error(err),
	)
	return f.CreateInMemoryCache(), nil
}
