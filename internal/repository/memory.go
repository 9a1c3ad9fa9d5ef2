package repository

import (
	"context"
	"sync"
	"time"

	"ductclean/internal/models"
)

// MemoryCatalogCache keeps the active service catalog in process memory
// with a TTL. It is the fallback behind the redis cache and the default
// when redis is not configured.
type MemoryCatalogCache struct {
	mu       sync.RWMutex
	services []*models.Service
	storedAt time.Time
	ttl      time.Duration
}

func NewMemoryCatalogCache(ttl time.Duration) *MemoryCatalogCache {
	return &MemoryCatalogCache{ttl: ttl}
}

func (c *MemoryCatalogCache) GetServices(ctx context.Context) ([]*models.Service, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.services == nil {
		return nil, nil
	}
	if c.ttl > 0 && time.Since(c.storedAt) > c.ttl {
		return nil, nil
	}
	return c.services, nil
}

func (c *MemoryCatalogCache) SetServices(ctx context.Context, services []*models.Service) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = services
	c.storedAt = time.Now()
	return nil
}

func (c *MemoryCatalogCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = nil
	return nil
}
