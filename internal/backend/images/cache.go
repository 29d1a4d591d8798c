package images

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "catalog:image:"

// Cache keeps image file contents in redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache wraps client. A ttl of zero keeps entries until they are evicted.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
	}
}

func (c *Cache) Get(ctx context.Context, id int64) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *Cache) Set(ctx context.Context, id int64, data []byte) error {
	return c.client.Set(ctx, cacheKey(id), data, c.ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, id int64) error {
	return c.client.Del(ctx, cacheKey(id)).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func cacheKey(id int64) string {
	return cacheKeyPrefix + strconv.FormatInt(id, 10)
}
