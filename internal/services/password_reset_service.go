package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkgauth "github.com/ChartFly/ChartFlyBackEnd/pkg/auth"
	pkglogger "github.com/ChartFly/ChartFlyBackEnd/pkg/logger"
	"github.com/go-playground/validator/v10"
)

const (
	ResetMethodEmail = "email"
	ResetMethodSMS   = "sms"

	minPhoneDigits = 10
)

// ForgotPasswordInput is the forgot-password form
type ForgotPasswordInput struct {
	Email  string
	Phone  string
	Method string
}

// PasswordResetConfig holds the reset link settings
type PasswordResetConfig struct {
	TokenExpiry   time.Duration
	PublicBaseURL string
	Policy        pkgauth.PasswordPolicy
	BcryptCost    int
}

// PasswordResetService issues and redeems single-use reset links
type PasswordResetService struct {
	users       AdminUserRepository
	email       EmailService
	actions     AdminActionLogger
	config      PasswordResetConfig
	validate    *validator.Validate
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewPasswordResetService(users AdminUserRepository, email EmailService, actions AdminActionLogger, cfg PasswordResetConfig, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *PasswordResetService {
	return &PasswordResetService{
		users:       users,
		email:       email,
		actions:     actions,
		config:      cfg,
		validate:    validator.New(),
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// RequestReset stores a fresh token for the account matching both email and phone,
// then emails the link. The token is committed before delivery and stays valid if
// delivery fails, so the user can simply request again.
func (s *PasswordResetService) RequestReset(ctx context.Context, in ForgotPasswordInput) error {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		return models.NewFieldError("email", "must be a valid email address")
	}

	phone := models.NormalizePhone(in.Phone)
	if len(phone) < minPhoneDigits {
		return models.NewFieldError("phone_number", fmt.Sprintf("must contain at least %d digits", minPhoneDigits))
	}

	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		method = ResetMethodEmail
	}
	if method != ResetMethodEmail {
		return models.NewFieldError("method", "only email delivery is supported")
	}

	user, err := s.users.GetByEmailAndPhone(ctx, email, phone)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
				EventType:     "password_reset_requested",
				FailureReason: "no_matching_account",
				Metadata:      map[string]string{"email": pkglogger.SanitizedEmail(email)},
			})
			return models.ErrNoMatchingAccount
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}

	token, err := pkgauth.GenerateOpaqueToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	expiresAt := s.now().Add(s.config.TokenExpiry)

	if err := s.users.SetResetToken(ctx, user.ID, pkgauth.HashToken(token), expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := s.resetURL(token)
	if err := s.email.SendPasswordResetEmail(ctx, user.Email, link, expiresAt); err != nil {
		s.logger.Error("password reset delivery failed",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return fmt.Errorf("%w: %w", models.ErrDeliveryFailure, err)
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "password_reset_requested",
		UserID:    user.ID,
		Success:   true,
	})
	return nil
}

func (s *PasswordResetService) resetURL(token string) string {
	return s.config.PublicBaseURL + "/auth/reset-password?token=" + url.QueryEscape(token)
}

// ValidateToken reports whether token still names an unexpired reset
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) error {
	if token == "" {
		return models.ErrTokenInvalidOrExpired
	}
	_, err := s.users.FindByResetToken(ctx, pkgauth.HashToken(token), s.now())
	if errors.Is(err, models.ErrNotFound) {
		return models.ErrTokenInvalidOrExpired
	}
	return err
}

// ResetPassword redeems token and sets the new password in a single statement.
// Expired and already used tokens both yield ErrTokenInvalidOrExpired.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if err := s.config.Policy.Validate("new_password", newPassword); err != nil {
		return err
	}
	if newPassword != confirmPassword {
		return models.ErrPasswordMismatch
	}
	if token == "" {
		return models.ErrTokenInvalidOrExpired
	}

	hash, err := pkgauth.HashPasswordWithCost(newPassword, s.config.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.users.ConsumeResetToken(ctx, pkgauth.HashToken(token), hash, s.now())
	if err != nil {
		if errors.Is(err, models.ErrTokenInvalidOrExpired) {
			s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
				EventType:     "password_reset",
				FailureReason: "invalid_or_expired_token",
			})
		}
		return err
	}

	s.auditLogger.LogPasswordChange(ctx, userID, "reset_link")
	s.actions.LogAdminAction(ctx, userID, models.ActionPasswordReset, "Password reset via emailed link")
	return nil
}

// ClearExpired drops reset tokens that can no longer be redeemed
func (s *PasswordResetService) ClearExpired(ctx context.Context) (int64, error) {
	return s.users.ClearExpiredResetTokens(ctx, s.now())
}
