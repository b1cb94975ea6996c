package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	Reset       ResetConfig
	Password    PasswordConfig
	Email       EmailConfig
	Redis       RedisConfig
	Dev         DevConfig
	Maintenance MaintenanceConfig
}

type DatabaseConfig struct {
	URL               string // DATABASE_URL wins over the discrete fields when set
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	PublicBaseURL  string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type SessionConfig struct {
	Secret         string
	TTL            time.Duration
	CookieName     string
	CookieSecure   bool
	CookieSameSite string
	// Login failure delay, applied so unknown usernames and wrong passwords take similar time.
	FailureDelayBaseMs   int
	FailureDelayRandomMs int
}

type RateLimitConfig struct {
	LoginWindow           time.Duration
	LoginMaxAttempts      int
	APIRequestsPerMinute  int
	FormRequestsPerMinute int
}

type ResetConfig struct {
	TokenExpiry time.Duration
}

type PasswordConfig struct {
	MinLength  int
	BcryptCost int
}

type EmailConfig struct {
	Provider     string // smtp, ses or log
	FromAddress  string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	AWSRegion    string
}

type RedisConfig struct {
	URL string
}

type DevConfig struct {
	ResetToken        string
	DefaultAdminEmail string
	DefaultAdminUser  string
	DefaultAdminPass  string
	DefaultAdminCode  string
	DefaultAdminRole  string
}

type MaintenanceConfig struct {
	CleanupInterval time.Duration
	LogRetention    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionSecret := getEnv("SESSION_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	env := getEnv("ENV", "development")
	port := getEnv("PORT", "8000")

	cfg := &Config{
		Database: DatabaseConfig{
			URL:               getEnv("DATABASE_URL", ""),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", getEnv("DB_PASS", "")),
			Name:              getEnv("DB_NAME", "chartfly"),
			SSLMode:           getEnv("DB_SSLMODE", getEnv("DB_SSL", "disable")),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 2)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Port:           port,
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+port), "/"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Session: SessionConfig{
			Secret:               sessionSecret,
			TTL:                  getEnvAsDuration("SESSION_TTL", 12*time.Hour),
			CookieName:           getEnv("SESSION_COOKIE_NAME", "chartfly_session"),
			CookieSecure:         getEnvAsBool("SESSION_COOKIE_SECURE", env == "production"),
			CookieSameSite:       strings.ToLower(getEnv("SESSION_COOKIE_SAMESITE", "lax")),
			FailureDelayBaseMs:   getEnvAsInt("LOGIN_FAILURE_DELAY_MS", 250),
			FailureDelayRandomMs: getEnvAsInt("LOGIN_FAILURE_DELAY_JITTER_MS", 150),
		},
		RateLimit: RateLimitConfig{
			LoginWindow:           getEnvAsDuration("LOGIN_WINDOW", 30*time.Minute),
			LoginMaxAttempts:      getEnvAsInt("LOGIN_MAX_ATTEMPTS", 6),
			APIRequestsPerMinute:  getEnvAsInt("API_RATE_LIMIT", 120),
			FormRequestsPerMinute: getEnvAsInt("FORM_RATE_LIMIT", 30),
		},
		Reset: ResetConfig{
			TokenExpiry: getEnvAsDuration("RESET_TOKEN_EXPIRY", 15*time.Minute),
		},
		Password: PasswordConfig{
			MinLength:  getEnvAsInt("PASSWORD_MIN_LENGTH", 6),
			BcryptCost: getEnvAsInt("BCRYPT_COST", 12),
		},
		Email: EmailConfig{
			Provider:     strings.ToLower(getEnv("EMAIL_PROVIDER", "smtp")),
			FromAddress:  getEnv("EMAIL_FROM", ""),
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", getEnv("EMAIL_FROM", "")),
			SMTPPassword: getEnv("EMAIL_APP_PASS", getEnv("SMTP_PASSWORD", "")),
			AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Dev: DevConfig{
			ResetToken:        getEnv("DEV_RESET_TOKEN", ""),
			DefaultAdminEmail: getEnv("DEFAULT_ADMIN_EMAIL", "admin@example.com"),
			DefaultAdminUser:  getEnv("DEFAULT_ADMIN_USER", "admin"),
			DefaultAdminPass:  getEnv("DEFAULT_ADMIN_PASS", ""),
			DefaultAdminCode:  getEnv("DEFAULT_ADMIN_CODE", ""),
			DefaultAdminRole:  getEnv("DEFAULT_ADMIN_ROLE", "SuperAdmin"),
		},
		Maintenance: MaintenanceConfig{
			CleanupInterval: getEnvAsDuration("CLEANUP_INTERVAL", 1*time.Hour),
			LogRetention:    getEnvAsDuration("LOG_RETENTION", 90*24*time.Hour),
		},
	}

	if cfg.Database.URL == "" && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DATABASE_URL or DB_PASSWORD is required")
	}

	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.RateLimit.LoginWindow <= 0 {
		return fmt.Errorf("LOGIN_WINDOW must be positive")
	}
	if c.RateLimit.LoginMaxAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be at least 1")
	}
	if c.Reset.TokenExpiry <= 0 {
		return fmt.Errorf("RESET_TOKEN_EXPIRY must be positive")
	}
	if c.Password.MinLength < 1 {
		return fmt.Errorf("PASSWORD_MIN_LENGTH must be at least 1")
	}
	if c.Password.BcryptCost < 10 || c.Password.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 10 and 31 (got %d)", c.Password.BcryptCost)
	}
	if _, err := url.ParseRequestURI(c.Server.PublicBaseURL); err != nil {
		return fmt.Errorf("PUBLIC_BASE_URL is invalid: %w", err)
	}

	switch c.Email.Provider {
	case "smtp":
		if c.Email.SMTPHost == "" || c.Email.FromAddress == "" {
			return fmt.Errorf("SMTP_HOST and EMAIL_FROM are required for the smtp email provider")
		}
	case "ses":
		if c.Email.FromAddress == "" {
			return fmt.Errorf("EMAIL_FROM is required for the ses email provider")
		}
	case "log":
		if c.Server.Env == "production" {
			return fmt.Errorf("EMAIL_PROVIDER=log is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", c.Email.Provider)
	}

	return nil
}

// validateSessionSecret enforces minimum security standards for the session signing secret
func validateSessionSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example", "chartfly",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// DevResetEnabled reports whether the developer reset endpoint may be used
func (c *DevConfig) DevResetEnabled() bool {
	return c.ResetToken != "" && c.DefaultAdminPass != "" && c.DefaultAdminUser != ""
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		return getEnvAsList("ALLOWED_ORIGINS")
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:8000",
		"http://localhost:5173", // Vite default
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8000",
		"http://127.0.0.1:5173",
	}
}
