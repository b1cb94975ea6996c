package models

import "time"

// Holiday status labels
const (
	HolidayClosedToday = "Closed Today"
	HolidayUpcoming    = "Upcoming"
	HolidayPassed      = "Passed"
)

const (
	DateLayout      = "2006-01-02"
	CloseTimeLayout = "15:04"
)

type MarketHoliday struct {
	ID        int
	Name      string
	Date      time.Time
	Year      int
	CloseTime *string // "HH:MM", nil when closed all day
}

// Status compares the holiday date with today's UTC date
func (h *MarketHoliday) Status(today time.Time) string {
	d := h.Date.Format(DateLayout)
	t := today.UTC().Format(DateLayout)
	switch {
	case d == t:
		return HolidayClosedToday
	case d > t:
		return HolidayUpcoming
	default:
		return HolidayPassed
	}
}

type HolidayResponse struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Date      string  `json:"date"`
	Year      int     `json:"year"`
	CloseTime *string `json:"close_time"`
	Status    string  `json:"status"`
}

func (h *MarketHoliday) ToResponse(today time.Time) HolidayResponse {
	return HolidayResponse{
		ID:        h.ID,
		Name:      h.Name,
		Date:      h.Date.Format(DateLayout),
		Year:      h.Year,
		CloseTime: h.CloseTime,
		Status:    h.Status(today),
	}
}

// HolidayInput is one row submitted by the holidays editor
type HolidayInput struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	CloseTime string `json:"close_time"`
}

// Parse validates the row and returns the holiday it describes
func (in HolidayInput) Parse() (*MarketHoliday, error) {
	if in.Name == "" {
		return nil, NewFieldError("name", "is required")
	}
	date, err := time.Parse(DateLayout, in.Date)
	if err != nil {
		return nil, NewFieldError("date", "must be YYYY-MM-DD")
	}
	closeTime, err := ParseCloseTime(in.CloseTime)
	if err != nil {
		return nil, err
	}
	return &MarketHoliday{
		ID:        in.ID,
		Name:      in.Name,
		Date:      date,
		Year:      date.Year(),
		CloseTime: closeTime,
	}, nil
}

// ParseCloseTime accepts "HH:MM" or an empty string for no early close
func ParseCloseTime(s string) (*string, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(CloseTimeLayout, s)
	if err != nil {
		return nil, NewFieldError("close_time", "must be HH:MM")
	}
	normalized := t.Format(CloseTimeLayout)
	return &normalized, nil
}
