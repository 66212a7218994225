package handlers

import (
	"context"
	"net/http"

	"polychat-backend/internal/models"
	"polychat-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ModelService defines the catalog operations the model handlers depend on.
type ModelService interface {
	GetAllModels(ctx context.Context) models.ModelCatalog
	GetProviderModels(ctx context.Context, provider string) ([]models.ModelDescriptor, error)
}

// ModelHandlers handles HTTP requests for the model catalog.
type ModelHandlers struct {
	modelService ModelService
	logger       *zap.Logger
}

// NewModelHandlers creates a new ModelHandlers instance.
func NewModelHandlers(modelService ModelService, logger *zap.Logger) *ModelHandlers {
	return &ModelHandlers{modelService: modelService, logger: logger}
}

// HandleListAllModels handles GET /v1/models. It always answers 200.
func (h *ModelHandlers) HandleListAllModels(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.modelService.GetAllModels(r.Context()))
}

// HandleListProviderModels handles GET /v1/models/{provider}.
func (h *ModelHandlers) HandleListProviderModels(w http.ResponseWriter, r *http.Request) {
	list, err := h.modelService.GetProviderModels(r.Context(), chi.URLParam(r, "provider"))
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, list)
}
