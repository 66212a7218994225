package services

import (
	"context"
	"fmt"

	"polychat-backend/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ModelService aggregates the model catalogs of the registered providers.
type ModelService struct {
	providers ProviderRegistry
	logger    *zap.Logger
}

// NewModelService creates a new ModelService.
func NewModelService(registry ProviderRegistry, logger *zap.Logger) *ModelService {
	return &ModelService{providers: registry, logger: logger}
}

// GetAllModels queries every provider concurrently and waits for all of them.
// A provider that fails contributes an empty list; the aggregate never fails.
func (s *ModelService) GetAllModels(ctx context.Context) models.ModelCatalog {
	names := s.providers.Names()
	lists := make([][]models.ModelDescriptor, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			lists[i] = s.listOrEmpty(ctx, name)
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	catalog := make(models.ModelCatalog, len(names))
	for i, name := range names {
		catalog[name] = lists[i]
	}
	return catalog
}

func (s *ModelService) listOrEmpty(ctx context.Context, name models.ModelProvider) []models.ModelDescriptor {
	provider, err := s.providers.Get(name)
	if err != nil {
		return []models.ModelDescriptor{}
	}
	list, err := provider.ListModels(ctx)
	if err != nil {
		s.logger.Warn("[ModelService] Provider catalog unavailable, using empty list",
			zap.String("provider", string(name)),
			zap.Error(err),
		)
		return []models.ModelDescriptor{}
	}
	if list == nil {
		list = []models.ModelDescriptor{}
	}
	return list
}

// GetProviderModels lists one provider's models. Unlike GetAllModels, adapter failures propagate.
func (s *ModelService) GetProviderModels(ctx context.Context, name string) ([]models.ModelDescriptor, error) {
	provider, err := s.providers.Get(models.ModelProvider(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, name)
	}
	list, err := provider.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if list == nil {
		list = []models.ModelDescriptor{}
	}
	return list, nil
}
