package service

import (
	"context"
	"fmt"
	"strings"

	"ductclean/internal/domain"
	"ductclean/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CatalogService manages the bookable service catalog. Active-catalog
// reads go through a stale-but-recent cache; any write invalidates it.
type CatalogService struct {
	repo   domain.Repository
	cache  domain.CatalogCache
	logger *zerolog.Logger
}

func NewCatalogService(repo domain.Repository, cache domain.CatalogCache, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, cache: cache, logger: logger}
}

// CreateServiceInput carries the catalog item fields.
type CreateServiceInput struct {
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	BasePrice       models.Cents `json:"base_price"`
	DurationMinutes int          `json:"duration_minutes"`
}

func (s *CatalogService) CreateService(ctx context.Context, input CreateServiceInput) (*models.Service, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if input.BasePrice < 0 {
		return nil, fmt.Errorf("%w: base_price cannot be negative", ErrValidation)
	}
	if input.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrValidation)
	}

	svc := &models.Service{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(input.Name),
		Description:     input.Description,
		BasePrice:       input.BasePrice,
		DurationMinutes: input.DurationMinutes,
		IsActive:        true,
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return svc, nil
}

// UpdateServiceInput holds the mutable catalog fields. Nil pointers
// leave the current value untouched.
type UpdateServiceInput struct {
	Name            *string       `json:"name"`
	Description     *string       `json:"description"`
	BasePrice       *models.Cents `json:"base_price"`
	DurationMinutes *int          `json:"duration_minutes"`
	IsActive        *bool         `json:"is_active"`
}

func (s *CatalogService) UpdateService(ctx context.Context, id string, version int64, input UpdateServiceInput) (*models.Service, error) {
	svc, err := s.repo.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if version != 0 {
		svc.Version = version
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		svc.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		svc.Description = *input.Description
	}
	if input.BasePrice != nil {
		if *input.BasePrice < 0 {
			return nil, fmt.Errorf("%w: base_price cannot be negative", ErrValidation)
		}
		svc.BasePrice = *input.BasePrice
	}
	if input.DurationMinutes != nil {
		if *input.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: duration_minutes must be positive", ErrValidation)
		}
		svc.DurationMinutes = *input.DurationMinutes
	}
	if input.IsActive != nil {
		svc.IsActive = *input.IsActive
	}

	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return s.repo.GetService(ctx, id)
}

func (s *CatalogService) GetService(ctx context.Context, id string) (*models.Service, error) {
	return s.repo.GetService(ctx, id)
}

// ListServices returns the catalog. Active-only reads are served from
// the cache when it is warm; the database remains the source of truth.
func (s *CatalogService) ListServices(ctx context.Context, activeOnly bool) ([]*models.Service, error) {
	if activeOnly && s.cache != nil {
		if cached, err := s.cache.GetServices(ctx); err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	services, err := s.repo.ListServices(ctx, activeOnly)
	if err != nil {
		return nil, err
	}

	if activeOnly && s.cache != nil {
		if err := s.cache.SetServices(ctx, services); err != nil {
			s.logger.Warn().Err(err).Msg("failed to warm catalog cache")
		}
	}
	return services, nil
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}
}
