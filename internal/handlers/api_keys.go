package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/ChartFly/ChartFlyBackEnd/internal/services"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/go-chi/chi/v5"
)

// APIKeyServiceInterface defines the interface for API key operations
type APIKeyServiceInterface interface {
	List(ctx context.Context) ([]*models.APIKey, error)
	Create(ctx context.Context, actorID string, in services.APIKeyInput) (*models.APIKey, error)
	Update(ctx context.Context, actorID string, id int, in services.APIKeyInput) (*models.APIKey, error)
	Delete(ctx context.Context, actorID string, id int) error
	Active(ctx context.Context) (*models.APIKey, error)
	MarkFailedByID(ctx context.Context, actorID string, id int) error
}

// APIKeyHandler handles the API keys tab. Secrets are write-only: models.APIKey
// never serializes APISecret.
type APIKeyHandler struct {
	service APIKeyServiceInterface
	logger  *slog.Logger
}

// NewAPIKeyHandler creates a new APIKeyHandler
func NewAPIKeyHandler(service APIKeyServiceInterface, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		service: service,
		logger:  logger,
	}
}

func (h *APIKeyHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListAPIKeys)
	r.Post("/", h.CreateAPIKey)
	r.Get("/active", h.GetActiveAPIKey)
	r.Put("/{id}", h.UpdateAPIKey)
	r.Delete("/{id}", h.DeleteAPIKey)
	r.Post("/{id}/fail", h.MarkAPIKeyFailed)
}

// ListAPIKeys returns every key ordered by priority
//
// @Summary List API keys
// @Produce json
// @Success 200 {array} models.APIKey
// @Router /api/api-keys [get]
func (h *APIKeyHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "No API keys found")
		return
	}
	if keys == nil {
		keys = []*models.APIKey{}
	}
	pkghttp.WriteJSON(w, http.StatusOK, keys)
}

// CreateAPIKey stores a new provider key
//
// @Summary Create API key
// @Accept json
// @Param request body services.APIKeyInput true "API key"
// @Produce json
// @Success 201 {object} models.APIKey
// @Failure 400 {object} pkghttp.FieldErrorResponse
// @Router /api/api-keys [post]
func (h *APIKeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req services.APIKeyInput
	if !decodeJSON(w, r, &req) {
		return
	}

	key, err := h.service.Create(r.Context(), actorID(r), req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "API key not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, key)
}

// UpdateAPIKey replaces a key's fields. An empty api_secret keeps the stored one.
func (h *APIKeyHandler) UpdateAPIKey(w http.ResponseWriter, r *http.Request) {
	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	var req services.APIKeyInput
	if !decodeJSON(w, r, &req) {
		return
	}

	key, err := h.service.Update(r.Context(), actorID(r), id, req)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "API key not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, key)
}

func (h *APIKeyHandler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actorID(r), id); err != nil {
		writeServiceError(w, r, h.logger, err, "API key not found")
		return
	}
	pkghttp.WriteMessage(w, http.StatusOK, "API key deleted successfully.")
}

// GetActiveAPIKey returns metadata of the key providers should use next
func (h *APIKeyHandler) GetActiveAPIKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.Active(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "No active API key")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, key)
}

// MarkAPIKeyFailed deactivates a key the operator knows to be broken
func (h *APIKeyHandler) MarkAPIKeyFailed(w http.ResponseWriter, r *http.Request) {
	id, ok := intURLParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.MarkFailedByID(r.Context(), actorID(r), id); err != nil {
		writeServiceError(w, r, h.logger, err, "API key not found")
		return
	}
	pkghttp.WriteMessage(w, http.StatusOK, "API key marked as failed.")
}
