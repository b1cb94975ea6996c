package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

const recentActivityLimit = 10

// DashboardSummary aggregates what the console landing page shows
type DashboardSummary struct {
	Username         string              `json:"username"`
	Role             string              `json:"role"`
	Tabs             []string            `json:"tabs"`
	TotalUsers       int                 `json:"total_users"`
	ActiveAPIKeys    int                 `json:"active_api_keys"`
	UpcomingHolidays int                 `json:"upcoming_holidays"`
	MarketStatus     string              `json:"market_status"`
	RecentActivity   []*models.SystemLog `json:"recent_activity"`
}

// DashboardService aggregates data for the dashboard page. Each counter degrades to
// zero on error so one failing query never blanks the whole page.
type DashboardService struct {
	users    AdminUserRepository
	apiKeys  APIKeyRepository
	holidays HolidayRepository
	logs     SystemLogRepository
	market   *MarketService
	logger   *slog.Logger
	now      func() time.Time
}

func NewDashboardService(users AdminUserRepository, apiKeys APIKeyRepository, holidays HolidayRepository, logs SystemLogRepository, market *MarketService, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		users:    users,
		apiKeys:  apiKeys,
		holidays: holidays,
		logs:     logs,
		market:   market,
		logger:   logger,
		now:      time.Now,
	}
}

// Summary builds the dashboard for the given user
func (s *DashboardService) Summary(ctx context.Context, userID string) (*DashboardSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		Username:       user.Username,
		Role:           user.Role,
		Tabs:           visibleTabs(user),
		MarketStatus:   s.market.Status(ctx).Status,
		RecentActivity: []*models.SystemLog{},
	}

	if n, err := s.users.Count(ctx); err != nil {
		s.logger.Error("dashboard: failed to count users", slog.Any("error", err))
	} else {
		summary.TotalUsers = n
	}

	if keys, err := s.apiKeys.List(ctx); err != nil {
		s.logger.Error("dashboard: failed to list api keys", slog.Any("error", err))
	} else {
		for _, k := range keys {
			if k.IsActive {
				summary.ActiveAPIKeys++
			}
		}
	}

	today := s.now().UTC()
	if holidays, err := s.holidays.ListByYear(ctx, today.Year()); err != nil {
		s.logger.Error("dashboard: failed to list holidays", slog.Any("error", err))
	} else {
		for _, h := range holidays {
			if h.Status(today) == models.HolidayUpcoming {
				summary.UpcomingHolidays++
			}
		}
	}

	if user.IsSuperAdmin() {
		logs, err := s.logs.List(ctx, models.SystemLogFilter{})
		if err != nil {
			s.logger.Error("dashboard: failed to list recent activity", slog.Any("error", err))
		} else {
			if len(logs) > recentActivityLimit {
				logs = logs[:recentActivityLimit]
			}
			summary.RecentActivity = logs
		}
	}

	return summary, nil
}

func visibleTabs(user *models.AdminUser) []string {
	tabs := make([]string, 0, len(models.AllTabs))
	for _, tab := range models.AllTabs {
		if models.HasTab(user.Role, user.Access, tab) {
			tabs = append(tabs, tab)
		}
	}
	return tabs
}
