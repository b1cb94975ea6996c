package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
)

// HolidayChecker answers whether a date is a market holiday
type HolidayChecker interface {
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

type MarketStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// MarketService reports the current trading session. All times are UTC.
type MarketService struct {
	holidays HolidayChecker
	logger   *slog.Logger
	now      func() time.Time
}

func NewMarketService(holidays HolidayChecker, logger *slog.Logger) *MarketService {
	return &MarketService{
		holidays: holidays,
		logger:   logger,
		now:      time.Now,
	}
}

// Status classifies now. A failed holiday lookup is logged and treated as a regular day.
func (s *MarketService) Status(ctx context.Context) MarketStatus {
	now := s.now().UTC()
	holiday, err := s.holidays.IsHoliday(ctx, now)
	if err != nil {
		s.logger.Error("failed to check market holiday", slog.Any("error", err))
		holiday = false
	}
	return MarketStatus{
		Status:    models.MarketStatusAt(now, holiday),
		Timestamp: now,
	}
}
