package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/auth"
	"github.com/ChartFly/ChartFlyBackEnd/internal/config"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkgauth "github.com/ChartFly/ChartFlyBackEnd/pkg/auth"
	pkglogger "github.com/ChartFly/ChartFlyBackEnd/pkg/logger"
)

// LoginLimiter gates login attempts per source address
type LoginLimiter interface {
	IsRateLimited(ctx context.Context, address string) (bool, int)
	RecordAttempt(ctx context.Context, address string) error
}

// AuthConfig holds the tunables of the authentication flow
type AuthConfig struct {
	Policy     pkgauth.PasswordPolicy
	BcryptCost int
	Timing     *auth.TimingDelay
	Dev        config.DevConfig
}

// LoginInput is a submitted login form plus the caller's address
type LoginInput struct {
	Username      string
	Password      string
	TOTPCode      string
	SourceAddress string
}

// LoginResult is an issued session. Claims.Stage tells full sessions from reset_required ones.
type LoginResult struct {
	Token  string
	Claims *models.SessionClaims
	User   *models.AdminUser
}

func (r *LoginResult) MustReset() bool {
	return r.Claims.Stage == models.StageResetRequired
}

// RegisterInput is the first-user registration form
type RegisterInput struct {
	FirstName       string
	LastName        string
	PhoneNumber     string
	Email           string
	Username        string
	Password        string
	ConfirmPassword string
	AccessCode      string
	Enable2FA       bool
}

// RegisterResult carries the new user and, when 2FA was requested, the enrolment QR code
type RegisterResult struct {
	User *models.AdminUser
	TOTP *auth.TOTPEnrollment
}

// AuthService handles authentication business logic
type AuthService struct {
	users       AdminUserRepository
	limiter     LoginLimiter
	sessions    *auth.SessionManager
	revocations auth.RevocationStore
	totp        *auth.TOTPManager
	actions     AdminActionLogger
	config      AuthConfig
	dummyHash   string
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users AdminUserRepository,
	limiter LoginLimiter,
	sessions *auth.SessionManager,
	revocations auth.RevocationStore,
	totp *auth.TOTPManager,
	actions AdminActionLogger,
	cfg AuthConfig,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) (*AuthService, error) {
	// Compared against when the username is unknown so both paths pay for one bcrypt run
	dummyHash, err := pkgauth.HashPasswordWithCost("chartfly-timing-equalizer", cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &AuthService{
		users:       users,
		limiter:     limiter,
		sessions:    sessions,
		revocations: revocations,
		totp:        totp,
		actions:     actions,
		config:      cfg,
		dummyHash:   dummyHash,
		logger:      logger,
		auditLogger: auditLogger,
	}, nil
}

// SessionTTL is how long issued sessions stay valid
func (s *AuthService) SessionTTL() time.Duration {
	return s.sessions.TTL()
}

// HasUsers reports whether any admin account exists yet
func (s *AuthService) HasUsers(ctx context.Context) (bool, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Login checks credentials for in.Username and issues a session.
// Users flagged must_reset get a reset_required session that only reaches the forced reset form.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	start := time.Now()

	if blocked, seconds := s.limiter.IsRateLimited(ctx, in.SourceAddress); blocked {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     "login_blocked",
			SourceAddress: in.SourceAddress,
			FailureReason: "rate_limited",
		})
		return nil, &models.RateLimitedError{RetryAfter: time.Duration(seconds) * time.Second}
	}

	username := strings.TrimSpace(in.Username)
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to get user by username", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user == nil {
		_ = pkgauth.ComparePassword(s.dummyHash, in.Password)
		return nil, s.failLogin(ctx, start, in, "", "unknown_user")
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, in.Password); err != nil {
		return nil, s.failLogin(ctx, start, in, user.ID, "bad_password")
	}

	if user.Is2FAEnabled {
		ok := false
		if user.TOTPSecret != nil {
			ok, err = s.totp.Validate(*user.TOTPSecret, in.TOTPCode)
			if err != nil {
				s.logger.Error("failed to validate TOTP code", slog.String("user_id", user.ID), slog.Any("error", err))
				return nil, fmt.Errorf("failed to validate TOTP code: %w", err)
			}
		}
		if !ok {
			return nil, s.failLogin(ctx, start, in, user.ID, "bad_totp")
		}
	}

	stage := models.StageAuthenticated
	if user.MustReset {
		stage = models.StageResetRequired
	}

	token, claims, err := s.sessions.Issue(user, stage)
	if err != nil {
		s.logger.Error("failed to issue session", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.logger.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("stage", stage))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "login_success",
		UserID:        user.ID,
		Username:      user.Username,
		SourceAddress: in.SourceAddress,
		Success:       true,
		Metadata:      map[string]string{"stage": stage},
	})

	return &LoginResult{Token: token, Claims: claims, User: user}, nil
}

// failLogin records the failure against the source address and pads the response time
func (s *AuthService) failLogin(ctx context.Context, start time.Time, in LoginInput, userID, reason string) error {
	if err := s.limiter.RecordAttempt(ctx, in.SourceAddress); err != nil {
		s.logger.Error("failed to record login attempt",
			slog.String("source_address", in.SourceAddress),
			slog.Any("error", err))
	}

	s.logger.Info("login failed: invalid credentials")
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        userID,
		SourceAddress: in.SourceAddress,
		FailureReason: reason,
	})

	s.config.Timing.WaitFrom(ctx, start)
	return models.ErrInvalidCredentials
}

// Register creates the first admin account. Once any account exists self-registration is closed.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if in.Password != in.ConfirmPassword {
		return nil, models.ErrPasswordMismatch
	}
	if err := s.config.Policy.Validate("password", in.Password); err != nil {
		return nil, err
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if count > 0 {
		return nil, s.closedRegistration(ctx, strings.TrimSpace(in.Username), in.Password)
	}

	hash, err := pkgauth.HashPasswordWithCost(in.Password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.AdminUser{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hash,
		AccessCode:   in.AccessCode,
		Role:         models.RoleSuperAdmin,
		Access:       append([]string(nil), models.AllTabs...),
	}

	result := &RegisterResult{}
	if in.Enable2FA {
		enrollment, err := s.totp.Enroll(user.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to enroll TOTP: %w", err)
		}
		user.Is2FAEnabled = true
		user.TOTPSecret = &enrollment.SealedSecret
		result.TOTP = enrollment
	}

	// Count above only short-circuits; the insert re-checks under a lock
	ok, err := s.users.CreateFirstUser(ctx, user)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.closedRegistration(ctx, user.Username, in.Password)
	}
	result.User = user

	s.logger.Info("first admin registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction(ctx, "admin_registered", user.ID, user.ID,
		map[string]string{"2fa": fmt.Sprintf("%t", user.Is2FAEnabled)})
	s.actions.LogAdminAction(ctx, user.ID, models.ActionAdminRegistered,
		fmt.Sprintf("Registered first admin %s", user.Username))
	return result, nil
}

func (s *AuthService) closedRegistration(ctx context.Context, username, password string) error {
	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			_ = pkgauth.ComparePassword(s.dummyHash, password)
			return models.ErrRegistrationClosed
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	if pkgauth.ComparePassword(existing.PasswordHash, password) == nil {
		return models.ErrAlreadyRegistered
	}
	return models.ErrRegistrationClosed
}

// CompleteForcedReset replaces the password of a reset_required session, revokes that
// session and returns a fresh full one.
func (s *AuthService) CompleteForcedReset(ctx context.Context, claims *models.SessionClaims, newPassword, confirmPassword string) (*LoginResult, error) {
	// Only a reset_required session may replace the password without the old one
	if claims == nil || claims.Stage != models.StageResetRequired {
		return nil, fmt.Errorf("forced reset outside reset_required stage: %w", models.ErrForbidden)
	}
	if err := s.config.Policy.Validate("new_password", newPassword); err != nil {
		return nil, err
	}
	if newPassword != confirmPassword {
		return nil, models.ErrPasswordMismatch
	}

	hash, err := pkgauth.HashPasswordWithCost(newPassword, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userID := claims.UserID()
	if err := s.users.ReplacePassword(ctx, userID, hash); err != nil {
		return nil, err
	}

	if err := s.Logout(ctx, claims); err != nil {
		s.logger.Error("failed to revoke partial session", slog.String("user_id", userID), slog.Any("error", err))
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, full, err := s.sessions.Issue(user, models.StageAuthenticated)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session: %w", err)
	}

	s.auditLogger.LogPasswordChange(ctx, userID, "forced_reset")
	s.actions.LogAdminAction(ctx, userID, models.ActionPasswordReplaced, "Completed required password reset")
	return &LoginResult{Token: token, Claims: full, User: user}, nil
}

// Logout revokes the session's jti until it would have expired anyway
func (s *AuthService) Logout(ctx context.Context, claims *models.SessionClaims) error {
	if claims == nil {
		return nil
	}
	expiresAt := time.Now().Add(s.sessions.TTL())
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.UserID(), expiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "logout",
		UserID:    claims.UserID(),
		Success:   true,
	})
	return nil
}

// DevReset creates the configured default admin when the token matches DEV_RESET_TOKEN.
// It reports whether an account was created and the username involved.
func (s *AuthService) DevReset(ctx context.Context, token string) (bool, string, error) {
	dev := s.config.Dev
	if !dev.DevResetEnabled() || token == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(dev.ResetToken)) != 1 {
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     "dev_reset",
			FailureReason: "bad_token",
		})
		return false, "", models.ErrForbidden
	}

	hash, err := pkgauth.HashPasswordWithCost(dev.DefaultAdminPass, s.config.BcryptCost)
	if err != nil {
		return false, "", fmt.Errorf("failed to hash password: %w", err)
	}

	role := dev.DefaultAdminRole
	if role == "" {
		role = models.RoleSuperAdmin
	}

	user := &models.AdminUser{
		FirstName:    "Default",
		LastName:     "Admin",
		Email:        strings.ToLower(dev.DefaultAdminEmail),
		PhoneNumber:  "000-000-0000",
		Username:     dev.DefaultAdminUser,
		PasswordHash: hash,
		AccessCode:   dev.DefaultAdminCode,
		Role:         role,
		Access:       append([]string(nil), models.AllTabs...),
	}

	created, err := s.users.CreateIfUsernameAbsent(ctx, user)
	if err != nil {
		return false, "", err
	}
	if !created {
		return false, user.Username, nil
	}

	s.logger.Warn("default admin created via dev reset", slog.String("username", user.Username))
	s.actions.LogAdminAction(ctx, user.ID, models.ActionDefaultAdmin,
		fmt.Sprintf("Default admin %s created via dev reset", user.Username))
	return true, user.Username, nil
}
