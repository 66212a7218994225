package providers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"polychat-backend/internal/models"

	"go.uber.org/zap"
)

// ErrUnknownProvider is returned by the registry when no adapter is registered for a name.
var ErrUnknownProvider = errors.New("unknown model provider")

// Provider defines the capability every upstream language-model adapter exposes.
type Provider interface {
	// Name returns the provider identifier used as the registry key.
	Name() models.ModelProvider

	// GenerateResponse sends the full chronological history to the model and returns the reply text.
	// Failures are always returned as *UpstreamError.
	GenerateResponse(ctx context.Context, history []models.CanonicalMessage, modelName string) (string, error)

	// ListModels returns the models this provider offers.
	// Failures are always returned as *UpstreamError.
	ListModels(ctx context.Context) ([]models.ModelDescriptor, error)
}

// Registry holds the mapping between provider names and their adapters.
// It is populated once at startup and read concurrently afterwards.
type Registry struct {
	mu        sync.RWMutex
	providers map[models.ModelProvider]Provider
	order     []models.ModelProvider
	logger    *zap.Logger
}

// NewRegistry creates a new, empty provider registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		providers: make(map[models.ModelProvider]Provider),
		logger:    logger,
	}
}

// Register adds a provider adapter to the registry under p.Name().
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; exists {
		r.logger.Warn("[ProviderRegistry] Provider already registered, overwriting", zap.String("provider", string(name)))
	} else {
		r.order = append(r.order, name)
	}
	r.providers[name] = p
	r.logger.Info("[ProviderRegistry] Registered provider", zap.String("provider", string(name)))
}

// Get retrieves a provider adapter by name.
func (r *Registry) Get(name models.ModelProvider) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []models.ModelProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]models.ModelProvider, len(r.order))
	copy(names, r.order)
	return names
}
