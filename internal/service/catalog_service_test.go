package service

import (
	"context"
	"sync"
	"testing"

	"ductclean/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCache is a minimal in-test catalog cache that counts hits.
type memCache struct {
	mu       sync.Mutex
	services []*models.Service
	sets     int
	clears   int
}

func (c *memCache) GetServices(ctx context.Context) ([]*models.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.services, nil
}

func (c *memCache) SetServices(ctx context.Context, services []*models.Service) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = services
	c.sets++
	return nil
}

func (c *memCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = nil
	c.clears++
	return nil
}

func TestCatalogService_CreateService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc, err := env.catalog.CreateService(ctx, CreateServiceInput{
		Name:            "Dryer vent cleaning",
		BasePrice:       models.Cents(9900),
		DurationMinutes: 45,
	})
	require.NoError(t, err)

	assert.True(t, svc.IsActive)
	assert.Equal(t, int64(1), svc.Version)

	tests := []struct {
		name  string
		input CreateServiceInput
	}{
		{"empty name", CreateServiceInput{BasePrice: 100, DurationMinutes: 30}},
		{"negative price", CreateServiceInput{Name: "x", BasePrice: -1, DurationMinutes: 30}},
		{"zero duration", CreateServiceInput{Name: "x", BasePrice: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.catalog.CreateService(ctx, tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCatalogService_UpdateService(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inactive := false
	price := models.Cents(24900)
	updated, err := env.catalog.UpdateService(ctx, env.service.ID, env.service.Version, UpdateServiceInput{
		BasePrice: &price,
		IsActive:  &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, price, updated.BasePrice)
	assert.False(t, updated.IsActive)
	assert.Equal(t, env.service.Version+1, updated.Version)

	_, err = env.catalog.UpdateService(ctx, env.service.ID, env.service.Version, UpdateServiceInput{
		BasePrice: &price,
	})
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestCatalogService_ListServices_CacheFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	logger := env.quotes.logger
	cache := &memCache{}
	catalog := NewCatalogService(env.db, cache, logger)

	// Cold cache: served from the database and warmed.
	services, err := catalog.ListServices(ctx, true)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, 1, cache.sets)

	// Warm cache: no second database round-trip needed.
	services, err = catalog.ListServices(ctx, true)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Equal(t, 1, cache.sets)

	// A write invalidates.
	_, err = catalog.CreateService(ctx, CreateServiceInput{
		Name:            "Sanitizing fog",
		BasePrice:       models.Cents(4900),
		DurationMinutes: 20,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.clears)

	services, err = catalog.ListServices(ctx, true)
	require.NoError(t, err)
	assert.Len(t, services, 2)

	// Inclusive listings bypass the cache entirely.
	_, err = catalog.ListServices(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets)
}
