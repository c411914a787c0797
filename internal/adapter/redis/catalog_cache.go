package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YelzhanWeb/restaurant/internal/config"
	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

const keyPrefix = "catalog:"

type catalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Connect creates a client and verifies the connection.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

func NewCatalogCache(client *redis.Client, ttl time.Duration) interfaces.CatalogCache {
	return &catalogCache{client: client, ttl: ttl}
}

func (c *catalogCache) Get(ctx context.Context, collection domain.Collection, dest any) (bool, error) {
	data, err := c.client.Get(ctx, keyPrefix+string(collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", collection, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal %s: %w", collection, err)
	}
	return true, nil
}

func (c *catalogCache) Set(ctx context.Context, collection domain.Collection, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", collection, err)
	}

	if err := c.client.Set(ctx, keyPrefix+string(collection), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", collection, err)
	}
	return nil
}

func (c *catalogCache) Invalidate(ctx context.Context, collection domain.Collection) error {
	if err := c.client.Del(ctx, keyPrefix+string(collection)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", collection, err)
	}
	return nil
}
