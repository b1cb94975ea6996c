package services

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

// LoginAttemptRepository defines the interface for login attempt persistence
type LoginAttemptRepository interface {
	RecordAttempt(ctx context.Context, sourceAddress string, at time.Time) error
	GetWindow(ctx context.Context, sourceAddress string, since time.Time, limit int) (*models.LoginAttemptWindow, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RateLimitConfig holds configuration for the login limiter
type RateLimitConfig struct {
	Window      time.Duration
	MaxAttempts int
}

// RateLimitService bounds failed logins per source address inside a trailing window.
// All state lives in login_attempts so every server instance sees the same counts.
type RateLimitService struct {
	repo   LoginAttemptRepository
	config RateLimitConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(repo LoginAttemptRepository, config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		repo:   repo,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// IsRateLimited reports whether address is locked out and, if so, how many seconds
// remain until the oldest counted attempt leaves the window.
// Store errors fail open.
func (s *RateLimitService) IsRateLimited(ctx context.Context, address string) (bool, int) {
	now := s.now()
	window, err := s.repo.GetWindow(ctx, address, now.Add(-s.config.Window), s.config.MaxAttempts)
	if err != nil {
		s.logger.Error("failed to check login rate limit",
			slog.String("source_address", address),
			slog.Any("error", err))
		return false, 0
	}

	if window.Count < s.config.MaxAttempts || window.Oldest == nil {
		return false, 0
	}

	remaining := window.Oldest.Add(s.config.Window).Sub(now)
	seconds := int(math.Ceil(remaining.Seconds()))
	if seconds < 1 {
		seconds = 1
	}

	s.logger.Warn("login rate limited",
		slog.String("source_address", address),
		slog.Int("attempts", window.Count),
		slog.Int("seconds_remaining", seconds))
	return true, seconds
}

// RecordAttempt stores one failed login for address
func (s *RateLimitService) RecordAttempt(ctx context.Context, address string) error {
	return s.repo.RecordAttempt(ctx, address, s.now())
}

// PruneExpired removes attempts that can no longer count toward any lockout
func (s *RateLimitService) PruneExpired(ctx context.Context) (int64, error) {
	return s.repo.PruneBefore(ctx, s.now().Add(-s.config.Window))
}
