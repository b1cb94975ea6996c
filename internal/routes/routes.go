package routes

import (
	"github.com/ChartFly/ChartFlyBackEnd/internal/auth"
	"github.com/ChartFly/ChartFlyBackEnd/internal/handlers"
	"github.com/ChartFly/ChartFlyBackEnd/internal/middleware"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/go-chi/chi/v5"
)

// Handlers groups every handler the router mounts
type Handlers struct {
	Auth     *handlers.AuthHandler
	Pages    *handlers.PagesHandler
	Users    *handlers.UserHandler
	APIKeys  *handlers.APIKeyHandler
	Holidays *handlers.HolidayHandler
	Logs     *handlers.SystemLogHandler
	Settings *handlers.SettingHandler
	Admin    *handlers.AdminHandler
	Market   *handlers.MarketHandler
}

// Guards are the access checks applied per route group
type Guards struct {
	Sessions      *auth.SessionMiddleware
	Users         auth.UserLookup
	Tabs          auth.TabAccessChecker
	APIRateLimit  middleware.RateLimitConfig
	FormRateLimit middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes. The router must already run
// Sessions.LoadSession so the guards below can see the session.
func RegisterRoutes(router chi.Router, h Handlers, g Guards) {
	// Public routes
	router.Get("/", h.Pages.Root)
	router.Head("/", h.Pages.RootHead)
	router.Get("/health", h.Pages.Health)
	router.Get("/api/haltdetails", h.Pages.HaltDetails)
	router.Head("/api/haltdetails", h.Pages.HaltDetails)

	// Form routes. Only submissions count against the form limiter so page loads
	// never lock anyone out.
	router.Route("/auth", func(r chi.Router) {
		r.Use(middleware.PostOnly(middleware.RateLimitForms(g.FormRateLimit)))

		r.Get("/login", h.Auth.LoginPage)
		r.Post("/login", h.Auth.Login)
		r.Get("/register", h.Auth.RegisterPage)
		r.Post("/register", h.Auth.Register)
		r.Get("/logout", h.Auth.LogoutPage)
		r.Post("/logout", h.Auth.Logout)
		r.Get("/forgot-password", h.Auth.ForgotPasswordPage)
		r.Post("/forgot-password", h.Auth.ForgotPassword)
		r.Get("/reset-password", h.Auth.ResetPasswordPage)
		r.Post("/reset-password", h.Auth.ResetPassword)
		r.Get("/dev-reset", h.Auth.DevReset)

		// reset_required sessions are allowed here and nowhere else
		r.Group(func(r chi.Router) {
			r.Use(g.Sessions.RequireSession)
			r.Get("/force-reset-password", h.Auth.ForceResetPage)
			r.Post("/force-reset-password", h.Auth.ForceReset)
		})
	})

	// Console API - full session required
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitAPI(g.APIRateLimit))
		r.Use(g.Sessions.RequireFullSession)

		r.With(auth.RequireTab(g.Tabs, models.TabUserManagement)).Route("/users", h.Users.RegisterRoutes)
		r.With(auth.RequireTab(g.Tabs, models.TabAPIKeys)).Route("/api-keys", h.APIKeys.RegisterRoutes)
		r.With(auth.RequireTab(g.Tabs, models.TabMarketHolidays)).Route("/holidays", h.Holidays.RegisterRoutes)

		r.Get("/admin/dashboard", h.Admin.GetDashboard)
		r.Get("/market/status", h.Market.GetStatus)
		r.Get("/stores/thinkscripts", h.Pages.ThinkScripts)

		// SuperAdmin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(g.Users, models.RoleSuperAdmin))
			r.Route("/admin/logs", h.Logs.RegisterRoutes)
			r.Route("/settings", h.Settings.RegisterRoutes)
		})
	})
}
