package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/database"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/jackc/pgx/v5"
)

type HolidayRepository struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

const holidayColumns = `id, name, date, year, to_char(close_time, 'HH24:MI')`

func scanHolidayRow(scanner rowScanner) (*models.MarketHoliday, error) {
	var h models.MarketHoliday
	if err := scanner.Scan(&h.ID, &h.Name, &h.Date, &h.Year, &h.CloseTime); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &h, nil
}

func (r *HolidayRepository) ListByYear(ctx context.Context, year int) ([]*models.MarketHoliday, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+holidayColumns+` FROM market_holidays WHERE year = $1 ORDER BY date`, year)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	holidays := make([]*models.MarketHoliday, 0)
	for rows.Next() {
		h, err := scanHolidayRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return holidays, nil
}

// SaveAll updates every holiday in one transaction; any missing id rolls the batch back
func (r *HolidayRepository) SaveAll(ctx context.Context, holidays []*models.MarketHoliday) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, h := range holidays {
			tag, err := tx.Exec(ctx, `
				UPDATE market_holidays
				SET name = $1, date = $2, year = $3, close_time = CAST($4::text AS time)
				WHERE id = $5
			`, h.Name, h.Date, h.Year, h.CloseTime, h.ID)
			if err != nil {
				return database.MapPostgresError(err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("holiday %d: %w", h.ID, models.ErrNotFound)
			}
		}
		return nil
	})
}

func (r *HolidayRepository) Create(ctx context.Context, h *models.MarketHoliday) (*models.MarketHoliday, error) {
	return scanHolidayRow(r.db.Pool.QueryRow(ctx, `
		INSERT INTO market_holidays (name, date, year, close_time)
		VALUES ($1, $2, $3, CAST($4::text AS time))
		RETURNING `+holidayColumns,
		h.Name, h.Date, h.Year, h.CloseTime))
}

func (r *HolidayRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM market_holidays WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *HolidayRepository) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	var ok bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM market_holidays WHERE date = CAST($1::text AS date))`,
		date.UTC().Format(models.DateLayout)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check holiday: %w", err)
	}
	return ok, nil
}
