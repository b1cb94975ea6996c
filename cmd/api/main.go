package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/auth"
	"github.com/ChartFly/ChartFlyBackEnd/internal/background"
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
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("email_provider", cfg.Email.Provider))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Initialize repositories
	userRepo := repositories.NewAdminUserRepository(db)
	permissionRepo := repositories.NewPermissionRepository(db)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(db)
	revocationRepo := repositories.NewSessionRevocationRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)
	holidayRepo := repositories.NewHolidayRepository(db)
	systemLogRepo := repositories.NewSystemLogRepository(db)
	settingRepo := repositories.NewSettingRepository(db)

	// Session revocations live in Redis when one is configured
	var revocations auth.RevocationStore = auth.NewPostgresRevocationStore(revocationRepo)
	if cfg.Redis.URL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := auth.NewRedisClient(ctx, cfg.Redis.URL)
		cancel()
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer client.Close()
		revocations = auth.NewRedisRevocationStore(client)
		logger.Info("session revocations stored in redis")
	}

	sessionManager := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL)

	totpManager, err := auth.NewTOTPManager(auth.DeriveTOTPKey(cfg.Session.Secret), "ChartFly")
	if err != nil {
		logger.Error("failed to initialize totp", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize security services
	auditLogger := pkglogger.NewAuditLogger(logger)
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)
	policy := pkgauth.NewPasswordPolicy(cfg.Password.MinLength)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Session.FailureDelayBaseMs,
		RandomDelayMs: cfg.Session.FailureDelayRandomMs,
	})

	rateLimitService := services.NewRateLimitService(loginAttemptRepo, services.RateLimitConfig{
		Window:      cfg.RateLimit.LoginWindow,
		MaxAttempts: cfg.RateLimit.LoginMaxAttempts,
	}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	emailService, err := services.NewEmailService(ctx, cfg.Email, logger)
	cancel()
	if err != nil {
		logger.Error("failed to initialize email service", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	systemLogService := services.NewSystemLogService(systemLogRepo, logger)
	adminUserService := services.NewAdminUserService(userRepo, permissionRepo, systemLogService, policy, cfg.Password.BcryptCost, logger)
	apiKeyService := services.NewAPIKeyService(apiKeyRepo, systemLogService, logger)
	holidayService := services.NewHolidayService(holidayRepo, systemLogService, logger)
	marketService := services.NewMarketService(holidayRepo, logger)
	dashboardService := services.NewDashboardService(userRepo, apiKeyRepo, holidayRepo, systemLogRepo, marketService, logger)
	settingService := services.NewSettingService(settingRepo, systemLogService)
	passwordResetService := services.NewPasswordResetService(userRepo, emailService, systemLogService, services.PasswordResetConfig{
		TokenExpiry:   cfg.Reset.TokenExpiry,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Policy:        policy,
		BcryptCost:    cfg.Password.BcryptCost,
	}, logger, auditLogger)

	authService, err := services.NewAuthService(userRepo, rateLimitService, sessionManager, revocations, totpManager, systemLogService, services.AuthConfig{
		Policy:     policy,
		BcryptCost: cfg.Password.BcryptCost,
		Timing:     timingDelay,
		Dev:        cfg.Dev,
	}, logger, auditLogger)
	if err != nil {
		logger.Error("failed to initialize auth service", slog.Any("error", err))
		os.Exit(1)
	}

	renderer, err := views.NewRenderer(logger)
	if err != nil {
		logger.Error("failed to parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	cookies := auth.CookieConfig{
		Name:     cfg.Session.CookieName,
		Secure:   cfg.Session.CookieSecure,
		SameSite: cfg.Session.CookieSameSite,
	}
	sessionMiddleware := auth.NewSessionMiddleware(sessionManager, revocations, cookies, logger)

	// Initialize handlers
	h := routes.Handlers{
		Auth:     handlers.NewAuthHandler(authService, passwordResetService, renderer, cookies, ipConfig, logger),
		Pages:    handlers.NewPagesHandler(authService, dashboardService, db, renderer, cookies, logger),
		Users:    handlers.NewUserHandler(adminUserService, logger),
		APIKeys:  handlers.NewAPIKeyHandler(apiKeyService, logger),
		Holidays: handlers.NewHolidayHandler(holidayService, logger),
		Logs:     handlers.NewSystemLogHandler(systemLogService, logger),
		Settings: handlers.NewSettingHandler(settingService, logger),
		Admin:    handlers.NewAdminHandler(dashboardService, logger),
		Market:   handlers.NewMarketHandler(marketService),
	}

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager([]background.Task{
		{Name: "login_attempts", Prune: rateLimitService.PruneExpired},
		{Name: "reset_tokens", Prune: passwordResetService.ClearExpired},
		{Name: "session_revocations", Prune: func(ctx context.Context) (int64, error) {
			return revocationRepo.DeleteExpired(ctx, time.Now())
		}},
		{Name: "system_logs", Prune: func(ctx context.Context) (int64, error) {
			return systemLogService.PurgeOlderThan(ctx, cfg.Maintenance.LogRetention)
		}},
	}, logger, cfg.Maintenance.CleanupInterval)

	// Setup CORS middleware
	corsConfig := middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(corsConfig))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(middlewareCustom.CSRFProtection(logger))
	router.Use(sessionMiddleware.LoadSession)

	// Register routes
	routes.RegisterRoutes(router, h, routes.Guards{
		Sessions: sessionMiddleware,
		Users:    userRepo,
		Tabs:     adminUserService,
		APIRateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.APIRequestsPerMinute,
			IPConfig:          ipConfig,
		},
		FormRateLimit: middlewareCustom.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.FormRequestsPerMinute,
			IPConfig:          ipConfig,
		},
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
