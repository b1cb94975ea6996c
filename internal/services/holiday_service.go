package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

// HolidayRepository defines the interface for market holiday persistence
type HolidayRepository interface {
	ListByYear(ctx context.Context, year int) ([]*models.MarketHoliday, error)
	SaveAll(ctx context.Context, holidays []*models.MarketHoliday) error
	Create(ctx context.Context, h *models.MarketHoliday) (*models.MarketHoliday, error)
	Delete(ctx context.Context, id int) error
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

type HolidayService struct {
	repo    HolidayRepository
	actions AdminActionLogger
	logger  *slog.Logger
	now     func() time.Time
}

func NewHolidayService(repo HolidayRepository, actions AdminActionLogger, logger *slog.Logger) *HolidayService {
	return &HolidayService{
		repo:    repo,
		actions: actions,
		logger:  logger,
		now:     time.Now,
	}
}

// ListByYear returns the year's holidays with their status relative to today (UTC)
func (s *HolidayService) ListByYear(ctx context.Context, year int) ([]models.HolidayResponse, error) {
	holidays, err := s.repo.ListByYear(ctx, year)
	if err != nil {
		return nil, err
	}
	if len(holidays) == 0 {
		return nil, fmt.Errorf("no holidays for %d: %w", year, models.ErrNotFound)
	}

	today := s.now()
	out := make([]models.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		out = append(out, h.ToResponse(today))
	}
	return out, nil
}

// SaveAll validates every row first and then writes them in one transaction
func (s *HolidayService) SaveAll(ctx context.Context, actorID string, rows []models.HolidayInput) (int, error) {
	if len(rows) == 0 {
		return 0, models.NewFieldError("holidays", "at least one holiday is required")
	}

	holidays := make([]*models.MarketHoliday, 0, len(rows))
	for i, row := range rows {
		if row.ID <= 0 {
			return 0, models.NewFieldError(fmt.Sprintf("holidays[%d].id", i), "is required")
		}
		h, err := row.Parse()
		if err != nil {
			return 0, err
		}
		holidays = append(holidays, h)
	}

	if err := s.repo.SaveAll(ctx, holidays); err != nil {
		return 0, err
	}

	s.actions.LogAdminAction(ctx, actorID, models.ActionHolidaysSaved,
		fmt.Sprintf("Saved %d holidays", len(holidays)))
	return len(holidays), nil
}

func (s *HolidayService) Create(ctx context.Context, actorID string, in models.HolidayInput) (*models.MarketHoliday, error) {
	h, err := in.Parse()
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, h)
	if err != nil {
		return nil, err
	}
	s.actions.LogAdminAction(ctx, actorID, models.ActionHolidayCreated,
		fmt.Sprintf("Created holiday %s on %s", created.Name, created.Date.Format(models.DateLayout)))
	return created, nil
}

func (s *HolidayService) Delete(ctx context.Context, actorID string, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.actions.LogAdminAction(ctx, actorID, models.ActionHolidayDeleted,
		fmt.Sprintf("Deleted holiday %d", id))
	return nil
}

// Today is the service clock, in UTC
func (s *HolidayService) Today() time.Time {
	return s.now().UTC()
}
