package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedError_WaitMinutes(t *testing.T) {
	tests := []struct {
		name     string
		wait     time.Duration
		expected int
	}{
		{name: "sub-minute rounds up", wait: 10 * time.Second, expected: 1},
		{name: "exact minutes", wait: 5 * time.Minute, expected: 5},
		{name: "partial minute rounds up", wait: 29*time.Minute + time.Second, expected: 30},
		{name: "zero floors at one", wait: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &RateLimitedError{RetryAfter: tt.wait}
			assert.Equal(t, tt.expected, err.WaitMinutes())
		})
	}
}

func TestRateLimitedError_Is(t *testing.T) {
	var err error = &RateLimitedError{RetryAfter: time.Minute}
	assert.True(t, errors.Is(err, ErrRateLimited))

	var rl *RateLimitedError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, time.Minute, rl.RetryAfter)
}

func TestFieldError_UnwrapsToBadRequest(t *testing.T) {
	err := NewFieldError("email", "invalid email format")
	assert.True(t, errors.Is(err, ErrBadRequest))
	assert.Equal(t, "email: invalid email format", err.Error())
}

func TestAPIKeyIdentifier(t *testing.T) {
	assert.Equal(t, "cdef", APIKeyIdentifier("abcdef"))
	assert.Equal(t, "abcd", APIKeyIdentifier("abcd"))
	assert.Equal(t, "xxxx", APIKeyIdentifier("abc"))
	assert.Equal(t, "xxxx", APIKeyIdentifier(""))
}

func TestHasTab(t *testing.T) {
	assert.True(t, HasTab(RoleSuperAdmin, nil, TabAPIKeys))
	assert.True(t, HasTab(RoleAdmin, []string{TabAPIKeys}, TabAPIKeys))
	assert.False(t, HasTab(RoleAdmin, []string{TabMarketHolidays}, TabAPIKeys))
	assert.False(t, IsValidTab("Billing"))
	assert.True(t, IsValidTab(TabUserManagement))
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "5551234567", NormalizePhone("(555) 123-4567"))
	assert.Equal(t, "15551234567", NormalizePhone("+1 555.123.4567"))
	assert.Equal(t, "", NormalizePhone("n/a"))
}

func TestMarketHoliday_Status(t *testing.T) {
	today := time.Date(2025, 7, 4, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC), HolidayClosedToday},
		{time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC), HolidayUpcoming},
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), HolidayPassed},
	}

	for _, tt := range tests {
		h := &MarketHoliday{Date: tt.date}
		assert.Equal(t, tt.expected, h.Status(today), tt.date.Format(DateLayout))
	}
}

func TestHolidayInput_Parse(t *testing.T) {
	h, err := HolidayInput{ID: 3, Name: "Christmas Eve", Date: "2025-12-24", CloseTime: "13:00"}.Parse()
	require.NoError(t, err)
	assert.Equal(t, 2025, h.Year)
	require.NotNil(t, h.CloseTime)
	assert.Equal(t, "13:00", *h.CloseTime)

	h, err = HolidayInput{ID: 4, Name: "Christmas", Date: "2025-12-25"}.Parse()
	require.NoError(t, err)
	assert.Nil(t, h.CloseTime)

	_, err = HolidayInput{ID: 5, Name: "Bad", Date: "12/25/2025"}.Parse()
	assert.ErrorIs(t, err, ErrBadRequest)

	_, err = HolidayInput{ID: 6, Name: "Bad", Date: "2025-12-25", CloseTime: "1pm"}.Parse()
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestMarketStatusAt(t *testing.T) {
	// 2025-07-07 is a Monday
	at := func(h, m int) time.Time { return time.Date(2025, 7, 7, h, m, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		now      time.Time
		holiday  bool
		expected string
	}{
		{"holiday", at(12, 0), true, MarketClosedHoliday},
		{"saturday", time.Date(2025, 7, 5, 12, 0, 0, 0, time.UTC), false, MarketClosedHoliday},
		{"early morning", at(3, 59), false, MarketClosed},
		{"pre-market", at(9, 29), false, MarketPreMarket},
		{"open", at(9, 30), false, MarketOpen},
		{"after hours", at(16, 0), false, MarketAfterHours},
		{"night", at(20, 0), false, MarketClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MarketStatusAt(tt.now, tt.holiday))
		})
	}
}
