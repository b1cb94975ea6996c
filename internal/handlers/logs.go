package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/go-chi/chi/v5"
)

// SystemLogServiceInterface defines the system log operations
type SystemLogServiceInterface interface {
	List(ctx context.Context, filter models.SystemLogFilter) ([]*models.SystemLog, error)
	Create(ctx context.Context, adminID, action, details string) error
	Cleanup(ctx context.Context, daysOld int) (int64, error)
}

// SystemLogHandler exposes the admin action log
type SystemLogHandler struct {
	service SystemLogServiceInterface
	logger  *slog.Logger
}

func NewSystemLogHandler(service SystemLogServiceInterface, logger *slog.Logger) *SystemLogHandler {
	return &SystemLogHandler{service: service, logger: logger}
}

// CreateLogRequest is a manual log entry
type CreateLogRequest struct {
	AdminID string `json:"admin_id" validate:"omitempty,uuid"`
	Action  string `json:"action" validate:"required,max=255"`
	Details string `json:"details"`
}

// CleanupResponse reports how many entries a cleanup removed
type CleanupResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

func (h *SystemLogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListLogs)
	r.Post("/", h.CreateLog)
	r.Delete("/cleanup", h.CleanupLogs)
}

// ListLogs returns log entries newest first, filtered by admin_id, action and a date range
//
// @Summary List system logs
// @Param admin_id query string false "Admin user ID"
// @Param action query string false "Action"
// @Param start_date query string false "RFC3339 or YYYY-MM-DD"
// @Param end_date query string false "RFC3339 or YYYY-MM-DD"
// @Produce json
// @Success 200 {array} models.SystemLog
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /api/admin/logs [get]
func (h *SystemLogHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.SystemLogFilter{
		AdminID: strings.TrimSpace(q.Get("admin_id")),
		Action:  strings.TrimSpace(q.Get("action")),
	}

	for _, p := range []struct {
		name string
		dst  **time.Time
	}{
		{"start_date", &filter.StartDate},
		{"end_date", &filter.EndDate},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		t, err := parseLogDate(raw)
		if err != nil {
			pkghttp.WriteFieldErrors(w, map[string]string{p.name: "must be RFC3339 or YYYY-MM-DD"})
			return
		}
		*p.dst = &t
	}

	logs, err := h.service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "No logs found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, logs)
}

func (h *SystemLogHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	var req CreateLogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Create(r.Context(), req.AdminID, req.Action, req.Details); err != nil {
		writeServiceError(w, r, h.logger, err, "Admin not found")
		return
	}
	pkghttp.WriteMessage(w, http.StatusCreated, "Log entry created successfully.")
}

// CleanupLogs deletes entries older than days_old days
func (h *SystemLogHandler) CleanupLogs(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days_old"))
	if err != nil {
		pkghttp.WriteFieldErrors(w, map[string]string{"days_old": "must be a whole number of days"})
		return
	}

	deleted, err := h.service.Cleanup(r.Context(), days)
	if err != nil {
		writeServiceError(w, r, h.logger, err, "No logs found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, CleanupResponse{
		Message: fmt.Sprintf("Deleted %d logs older than %d days.", deleted, days),
		Deleted: deleted,
	})
}

func parseLogDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse(models.DateLayout, raw)
}
