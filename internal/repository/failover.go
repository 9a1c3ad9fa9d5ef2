package repository

import (
	"context"
	"sync/atomic"
	"time"

	"ductclean/internal/domain"
	"ductclean/internal/models"

	"github.com/rs/zerolog"
)

// FailoverCatalogCache serves from the primary cache (redis) and falls
// back to the in-memory cache when the primary errors. The primary is
// retried after a cooldown.
type FailoverCatalogCache struct {
	primary   domain.CatalogCache
	fallback  domain.CatalogCache
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverCatalogCache(primary, fallback domain.CatalogCache, logger *zerolog.Logger) *FailoverCatalogCache {
	return &FailoverCatalogCache{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

const recoveryCooldown = time.Minute

func (c *FailoverCatalogCache) markDown(err error) {
	c.logger.Error().Err(err).Msg("primary catalog cache failed, falling back to memory")
	c.isDown.Store(true)
	c.lastCheck.Store(time.Now().UnixNano())
}

func (c *FailoverCatalogCache) shouldRetryPrimary() bool {
	if !c.isDown.Load() {
		return true
	}
	if time.Since(time.Unix(0, c.lastCheck.Load())) > recoveryCooldown {
		c.lastCheck.Store(time.Now().UnixNano())
		return true
	}
	return false
}

func (c *FailoverCatalogCache) GetServices(ctx context.Context) ([]*models.Service, error) {
	if c.shouldRetryPrimary() {
		services, err := c.primary.GetServices(ctx)
		if err == nil {
			c.isDown.Store(false)
			return services, nil
		}
		c.markDown(err)
	}
	return c.fallback.GetServices(ctx)
}

func (c *FailoverCatalogCache) SetServices(ctx context.Context, services []*models.Service) error {
	// The fallback is always written so a failover still has data.
	if err := c.fallback.SetServices(ctx, services); err != nil {
		return err
	}

	if c.shouldRetryPrimary() {
		if err := c.primary.SetServices(ctx, services); err != nil {
			c.markDown(err)
			return nil
		}
		c.isDown.Store(false)
	}
	return nil
}

func (c *FailoverCatalogCache) Invalidate(ctx context.Context) error {
	if err := c.fallback.Invalidate(ctx); err != nil {
		return err
	}

	if c.shouldRetryPrimary() {
		if err := c.primary.Invalidate(ctx); err != nil {
			c.markDown(err)
			return nil
		}
		c.isDown.Store(false)
	}
	return nil
}
