package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SESSION_SECRET", "test-secret-32-characters-long!!")
	t.Setenv("DB_PASSWORD", "test")
	t.Setenv("EMAIL_PROVIDER", "log")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, 6, cfg.RateLimit.LoginMaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Reset.TokenExpiry)
	assert.Equal(t, 6, cfg.Password.MinLength)
	assert.Equal(t, 12, cfg.Password.BcryptCost)
	assert.Equal(t, "SuperAdmin", cfg.Dev.DefaultAdminRole)
	assert.Equal(t, "chartfly_session", cfg.Session.CookieName)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, "http://localhost:8000", cfg.Server.PublicBaseURL)
}

func TestServerConfig_Timeouts_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name     string
		actual   time.Duration
		expected time.Duration
	}{
		{"ReadTimeout", cfg.Server.ReadTimeout, 15 * time.Second},
		{"WriteTimeout", cfg.Server.WriteTimeout, 15 * time.Second},
		{"IdleTimeout", cfg.Server.IdleTimeout, 60 * time.Second},
	}

	for _, tt := range tests {
		if tt.actual != tt.expected {
			t.Errorf("%s: got %v, want %v", tt.name, tt.actual, tt.expected)
		}
	}
}

func TestLoad_CustomLimiterAndReset(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LOGIN_WINDOW", "10m")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("RESET_TOKEN_EXPIRY", "5m")
	t.Setenv("PUBLIC_BASE_URL", "https://admin.chartfly.io/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Minute, cfg.RateLimit.LoginWindow)
	assert.Equal(t, 3, cfg.RateLimit.LoginMaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Reset.TokenExpiry)
	assert.Equal(t, "https://admin.chartfly.io", cfg.Server.PublicBaseURL)
}

func TestLoad_MissingSessionSecret(t *testing.T) {
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DB_PASSWORD", "test")

	_, err := Load()
	assert.ErrorContains(t, err, "SESSION_SECRET is required")
}

func TestLoad_WeakSessionSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_SECRET", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "at least 16 characters")
}

func TestLoad_ProductionRequiresLongerSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("EMAIL_PROVIDER", "ses")
	t.Setenv("EMAIL_FROM", "noreply@chartfly.io")
	t.Setenv("SESSION_SECRET", "only-twenty-characters")

	_, err := Load()
	assert.ErrorContains(t, err, "at least 32 characters")
}

func TestLoad_DatabaseURLReplacesPassword(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret-32-characters-long!!")
	t.Setenv("EMAIL_PROVIDER", "log")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_PASS", "")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/chartfly")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/chartfly", cfg.Database.DSN())
}

func TestLoad_MissingDatabaseCredentials(t *testing.T) {
	t.Setenv("SESSION_SECRET", "test-secret-32-characters-long!!")
	t.Setenv("EMAIL_PROVIDER", "log")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_PASS", "")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL or DB_PASSWORD is required")
}

func TestLoad_SMTPProviderRequiresHost(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_PROVIDER", "smtp")
	t.Setenv("SMTP_HOST", "")

	_, err := Load()
	assert.ErrorContains(t, err, "SMTP_HOST")
}

func TestLoad_SMTPPasswordFromAppPass(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("EMAIL_PROVIDER", "smtp")
	t.Setenv("SMTP_HOST", "smtp.gmail.com")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("EMAIL_FROM", "alerts@chartfly.io")
	t.Setenv("EMAIL_APP_PASS", "app-pass")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 465, cfg.Email.SMTPPort)
	assert.Equal(t, "alerts@chartfly.io", cfg.Email.SMTPUsername)
	assert.Equal(t, "app-pass", cfg.Email.SMTPPassword)
}

func TestLoad_RejectsLowBcryptCost(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BCRYPT_COST", "4")

	_, err := Load()
	assert.ErrorContains(t, err, "BCRYPT_COST")
}

func TestLoad_TrustedProxiesList(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 172.16.0.0/12,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12"}, cfg.Server.TrustedProxies)
}

func TestDevConfig_DevResetEnabled(t *testing.T) {
	assert.False(t, (&DevConfig{}).DevResetEnabled())
	assert.False(t, (&DevConfig{ResetToken: "tok", DefaultAdminUser: "admin"}).DevResetEnabled())
	assert.True(t, (&DevConfig{ResetToken: "tok", DefaultAdminUser: "admin", DefaultAdminPass: "Abc123!"}).DevResetEnabled())
}
