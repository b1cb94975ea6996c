package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

// SystemLogRepository defines the interface for system log persistence
type SystemLogRepository interface {
	Create(ctx context.Context, adminID *string, action, details string) error
	List(ctx context.Context, filter models.SystemLogFilter) ([]*models.SystemLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// AdminActionLogger records mutating console operations
type AdminActionLogger interface {
	LogAdminAction(ctx context.Context, adminID, action, details string)
}

// SystemLogService manages the system_logs trail
type SystemLogService struct {
	repo   SystemLogRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewSystemLogService(repo SystemLogRepository, logger *slog.Logger) *SystemLogService {
	return &SystemLogService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// LogAdminAction writes a log entry. A failed write is logged and never fails the caller's operation.
func (s *SystemLogService) LogAdminAction(ctx context.Context, adminID, action, details string) {
	s.logger.InfoContext(ctx, "admin action",
		slog.String("admin_id", adminID),
		slog.String("action", action))

	var id *string
	if adminID != "" {
		id = &adminID
	}
	if err := s.repo.Create(ctx, id, action, details); err != nil {
		s.logger.Error("failed to write system log",
			slog.String("admin_id", adminID),
			slog.String("action", action),
			slog.Any("error", err))
	}
}

// Create stores an entry submitted through the logs API
func (s *SystemLogService) Create(ctx context.Context, adminID, action, details string) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return models.NewFieldError("action", "is required")
	}
	var id *string
	if adminID != "" {
		id = &adminID
	}
	return s.repo.Create(ctx, id, action, details)
}

func (s *SystemLogService) List(ctx context.Context, filter models.SystemLogFilter) ([]*models.SystemLog, error) {
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, fmt.Errorf("no system logs found: %w", models.ErrNotFound)
	}
	return logs, nil
}

// Cleanup deletes entries older than daysOld days
func (s *SystemLogService) Cleanup(ctx context.Context, daysOld int) (int64, error) {
	if daysOld < 1 {
		return 0, models.NewFieldError("days_old", "must be at least 1")
	}
	return s.repo.DeleteOlderThan(ctx, s.now().AddDate(0, 0, -daysOld))
}

// PurgeOlderThan deletes entries past the retention period. A zero retention keeps everything.
func (s *SystemLogService) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.repo.DeleteOlderThan(ctx, s.now().Add(-retention))
}
