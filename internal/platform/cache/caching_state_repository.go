// Package cache provides Redis caching decorators for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"crud_backend/internal/feature/location/domain/entity"
	"crud_backend/internal/feature/location/usecase"
)

// CachingStateRepository decorates a StateOptionsRepository with Redis caching.
// A nil client disables caching.
type CachingStateRepository struct {
	inner     usecase.StateOptionsRepository
	rdb       redis.Cmdable
	ttl       time.Duration
	namespace string
}

var _ usecase.StateOptionsRepository = (*CachingStateRepository)(nil)

// NewCachingStateRepository decorates inner. If ttl is 0 it defaults to one
// hour; an empty namespace becomes "states".
func NewCachingStateRepository(rdb redis.Cmdable, ttl time.Duration, inner usecase.StateOptionsRepository, namespace string) *CachingStateRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if namespace == "" {
		namespace = "states"
	}
	return &CachingStateRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: safe(namespace),
	}
}

func (c *CachingStateRepository) optionsKey() string {
	return c.namespace + ":options"
}

// Options returns the cached list, loading and storing it on a miss.
func (c *CachingStateRepository) Options(ctx context.Context) ([]entity.StateOption, error) {
	if c.rdb == nil {
		return c.inner.Options(ctx)
	}

	key := c.optionsKey()
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.StateOption
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.Options(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// Invalidate drops every cached entry of the namespace. Callers run it after
// a state was written; failures are logged and otherwise ignored.
func (c *CachingStateRepository) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := deleteByPattern(ctx, c.rdb, c.namespace+":*"); err != nil {
		slog.Warn("state cache invalidation failed", "namespace", c.namespace, "error", err)
	}
}
