package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/auth"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/ChartFly/ChartFlyBackEnd/internal/services"
	"github.com/ChartFly/ChartFlyBackEnd/internal/views"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
)

// UserPresence tells whether the first admin has registered yet
type UserPresence interface {
	HasUsers(ctx context.Context) (bool, error)
}

// DashboardServiceInterface builds the landing page summary
type DashboardServiceInterface interface {
	Summary(ctx context.Context, userID string) (*services.DashboardSummary, error)
}

// HealthChecker pings the database
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// PagesHandler serves the root page and the small informational endpoints
type PagesHandler struct {
	users     UserPresence
	dashboard DashboardServiceInterface
	health    HealthChecker
	renderer  *views.Renderer
	cookies   auth.CookieConfig
	logger    *slog.Logger
}

func NewPagesHandler(users UserPresence, dashboard DashboardServiceInterface, health HealthChecker, renderer *views.Renderer, cookies auth.CookieConfig, logger *slog.Logger) *PagesHandler {
	return &PagesHandler{
		users:     users,
		dashboard: dashboard,
		health:    health,
		renderer:  renderer,
		cookies:   cookies,
		logger:    logger,
	}
}

// Root sends a fresh install to registration, anonymous visitors to login, and
// everyone else to the dashboard
func (h *PagesHandler) Root(w http.ResponseWriter, r *http.Request) {
	hasUsers, err := h.users.HasUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to count admin users", slog.Any("error", err))
		http.Error(w, genericFailureMessage, http.StatusInternalServerError)
		return
	}
	if !hasUsers {
		http.Redirect(w, r, "/auth/register", http.StatusFound)
		return
	}

	claims := sessionClaims(r)
	if claims == nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}
	if !claims.IsFull() {
		http.Redirect(w, r, auth.ForceResetPath, http.StatusFound)
		return
	}

	summary, err := h.dashboard.Summary(r.Context(), claims.UserID())
	if err != nil {
		h.logger.Error("failed to build dashboard", slog.String("user_id", claims.UserID()), slog.Any("error", err))
		http.Error(w, genericFailureMessage, http.StatusInternalServerError)
		return
	}

	h.renderer.Render(w, http.StatusOK, views.PageDashboard, views.PageData{
		Title:     "Dashboard",
		CSRFToken: ensureCSRFToken(w, r, h.cookies, h.logger),
		Dashboard: summary,
	})
}

// RootHead answers uptime probes that send HEAD /
func (h *PagesHandler) RootHead(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Health reports whether the database is reachable
func (h *PagesHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.health.HealthCheck(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
}

// HaltDetails lists current trading halts. No halt feed is connected yet, so it is always empty.
func (h *PagesHandler) HaltDetails(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, []any{})
}

// ThinkScripts serves the storefront catalogue
func (h *PagesHandler) ThinkScripts(w http.ResponseWriter, r *http.Request) {
	pkghttp.WriteJSON(w, http.StatusOK, models.ThinkScriptCatalogue)
}
