// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"review_backend/internal/feature/reviews/domain/entity"
	"review_backend/internal/feature/reviews/usecase"
	"review_backend/internal/platform/metrics"
)

var _ usecase.ReviewRepository = (*CachingReviewRepository)(nil)

// CachingReviewRepository decorates a ReviewRepository with Redis caching of
// the list queries. Writes go straight to the inner repository and then drop
// the list entries they affect.
type CachingReviewRepository struct {
	inner     usecase.ReviewRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingReviewRepository decorates a ReviewRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "reviews".
// A nil rdb disables caching entirely.
func NewCachingReviewRepository(rdb *redis.Client, ttl time.Duration, inner usecase.ReviewRepository, namespace string) *CachingReviewRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "reviews"
	}
	return &CachingReviewRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create stores the review and invalidates the lists that now contain it.
func (c *CachingReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	if err := c.inner.Create(ctx, review); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}

	// Best effort: a stale list expires with the TTL anyway
	if err := c.rdb.Del(ctx, c.allKey(), c.authorKey(review.AuthorID)).Err(); err != nil {
		slog.Warn("review cache invalidation failed", "author_id", review.AuthorID, "error", err)
	}
	return nil
}

// ListAll returns every review, checking the cache first.
func (c *CachingReviewRepository) ListAll(ctx context.Context) ([]entity.Review, error) {
	return c.readThrough(ctx, c.allKey(), c.inner.ListAll)
}

// ListByAuthor returns one author's reviews, checking the cache first.
// The ID is lower-cased so the cached list and the store query agree.
func (c *CachingReviewRepository) ListByAuthor(ctx context.Context, authorID string) ([]entity.Review, error) {
	authorID = strings.ToLower(authorID)
	return c.readThrough(ctx, c.authorKey(authorID), func(ctx context.Context) ([]entity.Review, error) {
		return c.inner.ListByAuthor(ctx, authorID)
	})
}

// Flush drops every entry in this repository's namespace.
func (c *CachingReviewRepository) Flush(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.deleteByPattern(ctx, c.namespace+":*")
}

func (c *CachingReviewRepository) readThrough(ctx context.Context, key string, load func(context.Context) ([]entity.Review, error)) ([]entity.Review, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load(ctx)
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.Review
		if err := json.Unmarshal(b, &out); err == nil {
			metrics.CacheHits.WithLabelValues(c.namespace).Inc()
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}
	metrics.CacheMisses.WithLabelValues(c.namespace).Inc()

	// 2) Fallback to the store
	out, err := load(ctx)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

func (c *CachingReviewRepository) allKey() string {
	return c.namespace + ":all"
}

// authorKey is case-insensitive: hex ObjectIDs and UUIDs parse in either case
// but stores always hand back lower case.
func (c *CachingReviewRepository) authorKey(authorID string) string {
	return c.namespace + ":author:" + safe(strings.ToLower(authorID))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingReviewRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ReplaceAll(s, "*", "_")
	return s
}
