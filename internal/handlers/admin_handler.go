package handlers

import (
	"log/slog"
	"net/http"

	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
)

// AdminHandler serves the console dashboard as JSON for the front end widgets
type AdminHandler struct {
	dashboard DashboardServiceInterface
	logger    *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(dashboard DashboardServiceInterface, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, logger: logger}
}

// GetDashboard handles GET /api/admin/dashboard
func (h *AdminHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	summary, err := h.dashboard.Summary(r.Context(), claims.UserID())
	if err != nil {
		writeServiceError(w, r, h.logger, err, "User not found")
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, summary)
}
