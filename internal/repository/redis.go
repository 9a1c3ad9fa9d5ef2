package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ductclean/internal/config"
	"ductclean/internal/models"

	"github.com/redis/go-redis/v9"
)

const catalogKey = "catalog:active_services"

// RedisCatalogCache shares the active catalog snapshot between API
// instances through redis.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient builds a redis client from configuration.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl}
}

func (c *RedisCatalogCache) GetServices(ctx context.Context) ([]*models.Service, error) {
	if c.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}

	val, err := c.client.Get(ctx, catalogKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog from redis: %w", err)
	}

	var services []*models.Service
	if err := json.Unmarshal([]byte(val), &services); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return services, nil
}

func (c *RedisCatalogCache) SetServices(ctx context.Context, services []*models.Service) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}

	data, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := c.client.Set(ctx, catalogKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set catalog in redis: %w", err)
	}
	return nil
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := c.client.Del(ctx, catalogKey).Err(); err != nil {
		return fmt.Errorf("failed to delete catalog from redis: %w", err)
	}
	return nil
}

// Ping verifies the redis connection.
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}
