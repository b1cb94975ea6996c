package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/go-chi/chi/v5"
)

// SettingServiceInterface defines the global settings operations
type SettingServiceInterface interface {
	List(ctx context.Context) ([]*models.GlobalSetting, error)
	Get(ctx context.Context, key string) (*models.GlobalSetting, error)
	Save(ctx context.Context, actorID, key, value string) (*models.GlobalSetting, error)
	Delete(ctx context.Context, actorID, key string) error
}

// SettingHandler handles the SuperAdmin-only settings API
type SettingHandler struct {
	service SettingServiceInterface
	logger  *slog.Logger
}

func NewSettingHandler(service SettingServiceInterface, logger *slog.Logger) *SettingHandler {
	return &SettingHandler{service: service, logger: logger}
}

// SettingRequest upserts one setting
type SettingRequest struct {
	SettingKey   string `json:"setting_key" validate:"required,max=255"`
	SettingValue string `json:"setting_value"`
}

func (h *SettingHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListSettings)
	r.Post("/", h.SaveSetting)
	r.Get("/{key}", h.GetSetting)
	r.Delete("/{key}", h.DeleteSetting)
}

func (h *SettingHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "No settings found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, settings)
}

func (h *SettingHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	setting, err := h.service.Get(r.Context(), key)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Setting '"+key+"' not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, setting)
}

// SaveSetting inserts the setting or overwrites its value
func (h *SettingHandler) SaveSetting(w http.ResponseWriter, r *http.Request) {
	var req SettingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	setting, err := h.service.Save(r.Context(), actorID(r), req.SettingKey, req.SettingValue)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "Setting not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, setting)
}

func (h *SettingHandler) DeleteSetting(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := h.service.Delete(r.Context(), actorID(r), key); err != nil {
		writeServiceError(w, r, h.logger, err, "Setting '"+key+"' not found")
		return
	}
	pkghttp.WriteMessage(w, http.StatusOK, "Setting deleted successfully.")
}
