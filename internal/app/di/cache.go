package di

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"review_backend/internal/config"
	"review_backend/internal/feature/reviews/usecase"
	"review_backend/internal/platform/cache"
	appredis "review_backend/internal/platform/redis"
)

// reviewCacheNamespace prefixes every cached review list key.
const reviewCacheNamespace = "reviews"

// NewRedis connects to the cache. It returns nil when no address is
// configured or the server is unreachable; the service then runs uncached.
func NewRedis(ctx context.Context, cfg config.RedisConfig) *redis.Client {
	if cfg.Addr == "" {
		slog.Info("redis not configured, running without cache")
		return nil
	}
	rdb, err := appredis.NewRedisClient(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		slog.Warn("redis unavailable, running without cache", "address", cfg.Addr, "error", err)
		return nil
	}
	return rdb
}

// NewReviewRepository wraps the store's review repository with the list cache.
func NewReviewRepository(store *Store, rdb *redis.Client, cfg config.RedisConfig) *cache.CachingReviewRepository {
	return cache.NewCachingReviewRepository(rdb, cfg.CacheTTL, store.Reviews, reviewCacheNamespace)
}

var _ usecase.ReviewRepository = (*cache.CachingReviewRepository)(nil)
