package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ChartFly/ChartFlyBackEnd/internal/auth"
	"github.com/ChartFly/ChartFlyBackEnd/internal/config"
	"github.com/ChartFly/ChartFlyBackEnd/internal/database"
	"github.com/ChartFly/ChartFlyBackEnd/internal/handlers"
	middlewareCustom "github.com/ChartFly/ChartFlyBackEnd/internal/middleware"
	"github.com/ChartFly/ChartFlyBackEnd/internal/repositories"
	"github.com/ChartFly/ChartFlyBackEnd/internal/routes"
	"github.com/ChartFly/ChartFlyBackEnd/internal/services"
	"github.com/ChartFly/ChartFlyBackEnd/internal/views"
	pkgauth "github.com/ChartFly/ChartFlyBackEnd/pkg/auth"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	pkglogger "github.com/ChartFly/ChartFlyBackEnd/pkg/logger"
)

// SentEmail represents a captured reset email
type SentEmail struct {
	To       string
	ResetURL string
}

// MockEmailService captures sent emails for test assertions
type MockEmailService struct {
	SentEmails []SentEmail
	mu         sync.Mutex
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, to, resetURL string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SentEmails = append(m.SentEmails, SentEmail{To: to, ResetURL: resetURL})
	return nil
}

// GetLastEmail returns the most recent email sent
func (m *MockEmailService) GetLastEmail() *SentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.SentEmails) == 0 {
		return nil
	}
	return &m.SentEmails[len(m.SentEmails)-1]
}

// TestServer wraps httptest.Server with database and all dependencies
type TestServer struct {
	Server       *httptest.Server
	DB           *database.DB
	EmailService *MockEmailService
	Config       *config.Config
	logger       *slog.Logger
}

// NewTestServer initializes the full middleware stack and routes against a real
// database, with email captured in memory
func NewTestServer(db *database.DB) *TestServer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Server: config.ServerConfig{
			Env:           "test",
			PublicBaseURL: "http://chartfly.test",
		},
		Session: config.SessionConfig{
			Secret:         "test-secret-32-characters-long-for-testing",
			TTL:            time.Hour,
			CookieName:     "chartfly_session",
			CookieSameSite: "lax",
		},
		RateLimit: config.RateLimitConfig{
			LoginWindow:           30 * time.Minute,
			LoginMaxAttempts:      3,
			APIRequestsPerMinute:  1000,
			FormRequestsPerMinute: 1000,
		},
		Reset:    config.ResetConfig{TokenExpiry: 15 * time.Minute},
		Password: config.PasswordConfig{MinLength: 6, BcryptCost: 10},
		Dev: config.DevConfig{
			ResetToken:        "dev-token",
			DefaultAdminEmail: "admin@chartfly.test",
			DefaultAdminUser:  "admin",
			DefaultAdminPass:  "Adm1n!pass",
			DefaultAdminRole:  "SuperAdmin",
		},
	}

	userRepo := repositories.NewAdminUserRepository(db)
	permissionRepo := repositories.NewPermissionRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	revocationRepo := repositories.NewSessionRevocationRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)
	holidayRepo := repositories.NewHolidayRepository(db)
	systemLogRepo := repositories.NewSystemLogRepository(db)
	settingRepo := repositories.NewSettingRepository(db)

	mockEmail := &MockEmailService{}
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := pkghttp.NewIPConfig(nil)
	policy := pkgauth.NewPasswordPolicy(cfg.Password.MinLength)
	revocations := auth.NewPostgresRevocationStore(revocationRepo)
	sessionManager := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL)

	totpManager, err := auth.NewTOTPManager(auth.DeriveTOTPKey(cfg.Session.Secret), "ChartFlyTest")
	if err != nil {
		panic(fmt.Sprintf("failed to create TOTP manager: %v", err))
	}

	rateLimitService := services.NewRateLimitService(loginAttemptRepo, services.RateLimitConfig{
		Window:      cfg.RateLimit.LoginWindow,
		MaxAttempts: cfg.RateLimit.LoginMaxAttempts,
	}, logger)

	systemLogService := services.NewSystemLogService(systemLogRepo, logger)
	adminUserService := services.NewAdminUserService(userRepo, permissionRepo, systemLogService, policy, cfg.Password.BcryptCost, logger)
	holidayService := services.NewHolidayService(holidayRepo, systemLogService, logger)
	marketService := services.NewMarketService(holidayRepo, logger)
	dashboardService := services.NewDashboardService(userRepo, apiKeyRepo, holidayRepo, systemLogRepo, marketService, logger)
	passwordResetService := services.NewPasswordResetService(userRepo, mockEmail, systemLogService, services.PasswordResetConfig{
		TokenExpiry:   cfg.Reset.TokenExpiry,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Policy:        policy,
		BcryptCost:    cfg.Password.BcryptCost,
	}, logger, auditLogger)

	authService, err := services.NewAuthService(userRepo, rateLimitService, sessionManager, revocations, totpManager, systemLogService, services.AuthConfig{
		Policy:     policy,
		BcryptCost: cfg.Password.BcryptCost,
		Timing:     auth.NewTimingDelay(auth.TimingConfig{}),
		Dev:        cfg.Dev,
	}, logger, auditLogger)
	if err != nil {
		panic(fmt.Sprintf("failed to create auth service: %v", err))
	}

	renderer, err := views.NewRenderer(logger)
	if err != nil {
		panic(fmt.Sprintf("failed to parse templates: %v", err))
	}

	cookies := auth.CookieConfig{Name: cfg.Session.CookieName, SameSite: cfg.Session.CookieSameSite}
	sessionMiddleware := auth.NewSessionMiddleware(sessionManager, revocations, cookies, logger)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	r.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middlewareCustom.CSRFProtection(logger))
	r.Use(sessionMiddleware.LoadSession)

	// Setup routes using production pattern
	routes.RegisterRoutes(r, routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, passwordResetService, renderer, cookies, ipConfig, logger),
		Pages:    handlers.NewPagesHandler(authService, dashboardService, db, renderer, cookies, logger),
		Users:    handlers.NewUserHandler(adminUserService, logger),
		APIKeys:  handlers.NewAPIKeyHandler(services.NewAPIKeyService(apiKeyRepo, systemLogService, logger), logger),
		Holidays: handlers.NewHolidayHandler(holidayService, logger),
		Logs:     handlers.NewSystemLogHandler(systemLogService, logger),
		Settings: handlers.NewSettingHandler(services.NewSettingService(settingRepo, systemLogService), logger),
		Admin:    handlers.NewAdminHandler(dashboardService, logger),
		Market:   handlers.NewMarketHandler(marketService),
	}, routes.Guards{
		Sessions:      sessionMiddleware,
		Users:         userRepo,
		Tabs:          adminUserService,
		APIRateLimit:  middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.RateLimit.APIRequestsPerMinute, IPConfig: ipConfig},
		FormRateLimit: middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.RateLimit.FormRequestsPerMinute, IPConfig: ipConfig},
	})

	return &TestServer{
		Server:       httptest.NewServer(r),
		DB:           db,
		EmailService: mockEmail,
		Config:       cfg,
		logger:       logger,
	}
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
}

// Client is a browser-like client: it keeps cookies and does not follow redirects
type Client struct {
	ts   *TestServer
	http *http.Client
}

// NewClient returns a client with an empty cookie jar
func (ts *TestServer) NewClient() *Client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		panic(err)
	}
	return &Client{
		ts: ts,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// CSRFToken returns the csrf_token cookie, loading the login page first if none is set yet
func (c *Client) CSRFToken() string {
	if token := c.cookie(auth.CSRFCookieName); token != "" {
		return token
	}
	resp, err := c.Get(auth.LoginPath)
	if err == nil {
		resp.Body.Close()
	}
	return c.cookie(auth.CSRFCookieName)
}

// SessionCookie returns the current session cookie value
func (c *Client) SessionCookie() string {
	return c.cookie(c.ts.Config.Session.CookieName)
}

// SetSessionCookie replaces the session cookie, used to replay an old session
func (c *Client) SetSessionCookie(value string) {
	u, _ := url.Parse(c.ts.Server.URL)
	c.http.Jar.SetCookies(u, []*http.Cookie{{Name: c.ts.Config.Session.CookieName, Value: value, Path: "/"}})
}

func (c *Client) cookie(name string) string {
	u, _ := url.Parse(c.ts.Server.URL)
	for _, ck := range c.http.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

// Get issues a GET request
func (c *Client) Get(path string) (*http.Response, error) {
	return c.http.Get(c.ts.Server.URL + path)
}

// PostForm submits a form with the CSRF token filled in
func (c *Client) PostForm(path string, form url.Values) (*http.Response, error) {
	form.Set("csrf_token", c.CSRFToken())
	return c.http.PostForm(c.ts.Server.URL+path, form)
}

// Login submits the login form and returns the redirect target
func (c *Client) Login(username, password string) (*http.Response, error) {
	return c.PostForm(auth.LoginPath, url.Values{"username": {username}, "password": {password}})
}

// JSON sends a JSON API request carrying the X-CSRF-Token header
func (c *Client) JSON(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, c.ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet && method != http.MethodHead {
		req.Header.Set("X-CSRF-Token", c.CSRFToken())
	}

	return c.http.Do(req)
}

// ParseJSONResponse parses JSON response body into target struct
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ReadBody drains and returns the response body
func ReadBody(resp *http.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

// ResetPath turns a captured reset URL into a path on the test server
func ResetPath(resetURL string) string {
	u, err := url.Parse(resetURL)
	if err != nil {
		return ""
	}
	return u.Path + "?" + u.RawQuery
}

// ResetToken extracts the token query value from a captured reset URL
func ResetToken(resetURL string) string {
	u, err := url.Parse(resetURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}

// Location returns the redirect target without the server prefix
func Location(resp *http.Response) string {
	return resp.Header.Get("Location")
}
