package directory

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"assignment_service/internal/cache"
	"assignment_service/internal/domain"
	"assignment_service/pkg/logging"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// Cached fronts a Source with a read-through cache. Only successful lookups
// are cached. A cache failure falls back to the source.
type Cached struct {
	next   Source
	cache  Cache
	ttl    time.Duration
	logger *logging.Logger
}

func NewCached(next Source, c Cache, ttl time.Duration, logger *logging.Logger) *Cached {
	return &Cached{next: next, cache: c, ttl: ttl, logger: logger}
}

func (c *Cached) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return readThrough(ctx, c, "user:"+id.String(), func() (*domain.User, error) {
		return c.next.GetUser(ctx, id)
	})
}

func (c *Cached) GetWorkItem(ctx context.Context, id uuid.UUID) (*domain.WorkItem, error) {
	return readThrough(ctx, c, "work_item:"+id.String(), func() (*domain.WorkItem, error) {
		return c.next.GetWorkItem(ctx, id)
	})
}

func readThrough[T any](ctx context.Context, c *Cached, key string, load func() (*T, error)) (*T, error) {
	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(data, &v); jsonErr == nil {
			return &v, nil
		}
		c.logger.Warn(ctx, "dropping undecodable directory cache entry", zap.String("key", key))
	case !errors.Is(err, cache.ErrMiss):
		c.logger.Warn(ctx, "directory cache unavailable", zap.String("key", key), zap.Error(err))
	}

	v, err := load()
	if err != nil {
		return nil, err
	}

	if data, err = json.Marshal(v); err == nil {
		if err = c.cache.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Debug(ctx, "failed to fill directory cache", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}
