package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// API keys
// ============================================================================

func TestAPIKeyService_Create_SetsIdentifier(t *testing.T) {
	actions := &MockActionLogger{}
	svc := NewAPIKeyService(&MockAPIKeyRepository{}, actions, newTestLogger())

	k, err := svc.Create(context.Background(), "u-1", APIKeyInput{KeyLabel: " Polygon ", APISecret: "sk_live_9f3A"})
	require.NoError(t, err)
	assert.Equal(t, "Polygon", k.KeyLabel)
	assert.Equal(t, "9f3A", k.APIKeyIdentifier)
	assert.Equal(t, []string{models.ActionAPIKeyCreated}, actions.Actions)

	k, err = svc.Create(context.Background(), "u-1", APIKeyInput{KeyLabel: "short", APISecret: "ab"})
	require.NoError(t, err)
	assert.Equal(t, "xxxx", k.APIKeyIdentifier)

	_, err = svc.Create(context.Background(), "u-1", APIKeyInput{KeyLabel: "none"})
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestAPIKeyService_Update_KeepsSecretWhenBlank(t *testing.T) {
	repo := &MockAPIKeyRepository{
		GetByIDFunc: func(ctx context.Context, id int) (*models.APIKey, error) {
			return &models.APIKey{ID: id, APISecret: "old-secret-1234", APIKeyIdentifier: "1234"}, nil
		},
	}
	svc := NewAPIKeyService(repo, &MockActionLogger{}, newTestLogger())

	k, err := svc.Update(context.Background(), "u-1", 3, APIKeyInput{KeyLabel: "renamed", PriorityOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, "old-secret-1234", k.APISecret)
	assert.Equal(t, "1234", k.APIKeyIdentifier)
	assert.Equal(t, 2, k.PriorityOrder)

	k, err = svc.Update(context.Background(), "u-1", 3, APIKeyInput{KeyLabel: "rotated", APISecret: "new-secret-abcd"})
	require.NoError(t, err)
	assert.Equal(t, "abcd", k.APIKeyIdentifier)
}

func TestAPIKeyService_Update_NotFound(t *testing.T) {
	svc := NewAPIKeyService(&MockAPIKeyRepository{}, &MockActionLogger{}, newTestLogger())
	_, err := svc.Update(context.Background(), "u-1", 99, APIKeyInput{KeyLabel: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAPIKeyService_ActiveSecretAndMarkFailed(t *testing.T) {
	var failed string
	repo := &MockAPIKeyRepository{
		GetActiveFunc: func(ctx context.Context) (*models.APIKey, error) {
			return &models.APIKey{ID: 1, APISecret: "primary-secret", IsActive: true}, nil
		},
		MarkFailedBySecretFunc: func(ctx context.Context, secret string) error {
			failed = secret
			return nil
		},
	}
	actions := &MockActionLogger{}
	svc := NewAPIKeyService(repo, actions, newTestLogger())

	secret, err := svc.ActiveSecret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "primary-secret", secret)

	require.NoError(t, svc.MarkFailed(context.Background(), secret))
	assert.Equal(t, "primary-secret", failed)
	assert.Equal(t, []string{models.ActionAPIKeyFailed}, actions.Actions)
}

func TestAPIKeyService_ActiveSecret_None(t *testing.T) {
	svc := NewAPIKeyService(&MockAPIKeyRepository{}, &MockActionLogger{}, newTestLogger())
	_, err := svc.ActiveSecret(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// ============================================================================
// Holidays
// ============================================================================

func TestHolidayService_ListByYear(t *testing.T) {
	closeTime := "13:00"
	repo := &MockHolidayRepository{
		ListByYearFunc: func(ctx context.Context, year int) ([]*models.MarketHoliday, error) {
			if year != 2025 {
				return nil, nil
			}
			return []*models.MarketHoliday{
				{ID: 1, Name: "New Year", Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Year: 2025},
				{ID: 2, Name: "Independence Eve", Date: time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), Year: 2025, CloseTime: &closeTime},
				{ID: 3, Name: "Christmas", Date: time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC), Year: 2025},
			}, nil
		},
	}
	svc := NewHolidayService(repo, &MockActionLogger{}, newTestLogger())
	svc.now = fixedClock(time.Date(2025, 7, 3, 15, 0, 0, 0, time.UTC))

	got, err := svc.ListByYear(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.HolidayPassed, got[0].Status)
	assert.Equal(t, models.HolidayClosedToday, got[1].Status)
	assert.Equal(t, "13:00", *got[1].CloseTime)
	assert.Equal(t, models.HolidayUpcoming, got[2].Status)
	assert.Nil(t, got[2].CloseTime)

	_, err = svc.ListByYear(context.Background(), 1999)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestHolidayService_SaveAll(t *testing.T) {
	var saved []*models.MarketHoliday
	repo := &MockHolidayRepository{
		SaveAllFunc: func(ctx context.Context, holidays []*models.MarketHoliday) error {
			saved = holidays
			return nil
		},
	}
	actions := &MockActionLogger{}
	svc := NewHolidayService(repo, actions, newTestLogger())

	n, err := svc.SaveAll(context.Background(), "u-1", []models.HolidayInput{
		{ID: 1, Name: "New Year", Date: "2026-01-01"},
		{ID: 2, Name: "Black Friday", Date: "2026-11-27", CloseTime: "13:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, saved, 2)
	assert.Equal(t, 2026, saved[1].Year)
	assert.Equal(t, "13:00", *saved[1].CloseTime)
	assert.Equal(t, []string{models.ActionHolidaysSaved}, actions.Actions)
}

func TestHolidayService_SaveAll_RejectsWholeBatch(t *testing.T) {
	repo := &MockHolidayRepository{
		SaveAllFunc: func(ctx context.Context, holidays []*models.MarketHoliday) error {
			t.Fatal("nothing may be written when a row is invalid")
			return nil
		},
	}
	svc := NewHolidayService(repo, &MockActionLogger{}, newTestLogger())

	tests := []struct {
		name string
		rows []models.HolidayInput
	}{
		{"empty", nil},
		{"missing id", []models.HolidayInput{{Name: "X", Date: "2026-01-01"}}},
		{"bad date", []models.HolidayInput{{ID: 1, Name: "X", Date: "01/01/2026"}}},
		{"bad close time", []models.HolidayInput{{ID: 1, Name: "X", Date: "2026-01-01", CloseTime: "1pm"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SaveAll(context.Background(), "u-1", tt.rows)
			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
}

func TestHolidayService_SaveAll_MissingRowPropagates(t *testing.T) {
	repo := &MockHolidayRepository{
		SaveAllFunc: func(ctx context.Context, holidays []*models.MarketHoliday) error {
			return models.ErrNotFound
		},
	}
	actions := &MockActionLogger{}
	svc := NewHolidayService(repo, actions, newTestLogger())

	_, err := svc.SaveAll(context.Background(), "u-1", []models.HolidayInput{{ID: 42, Name: "X", Date: "2026-01-01"}})
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Empty(t, actions.Actions)
}

// ============================================================================
// Settings and system logs
// ============================================================================

func TestSettingService(t *testing.T) {
	actions := &MockActionLogger{}
	svc := NewSettingService(&MockSettingRepository{}, actions)

	_, err := svc.List(context.Background())
	assert.ErrorIs(t, err, models.ErrNotFound)

	s, err := svc.Save(context.Background(), "u-1", " theme ", "dark")
	require.NoError(t, err)
	assert.Equal(t, "theme", s.SettingKey)

	_, err = svc.Save(context.Background(), "u-1", "  ", "dark")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	assert.NoError(t, svc.Delete(context.Background(), "u-1", "theme"))
	assert.Equal(t, []string{models.ActionSettingSaved, models.ActionSettingDeleted}, actions.Actions)
}

func TestSystemLogService_LogAdminActionSwallowsErrors(t *testing.T) {
	var gotAdmin *string
	repo := &MockSystemLogRepository{
		CreateFunc: func(ctx context.Context, adminID *string, action, details string) error {
			gotAdmin = adminID
			return errors.New("insert failed")
		},
	}
	svc := NewSystemLogService(repo, newTestLogger())

	svc.LogAdminAction(context.Background(), "", models.ActionAPIKeyFailed, "x")
	assert.Nil(t, gotAdmin)

	svc.LogAdminAction(context.Background(), "u-1", models.ActionUserCreated, "x")
	require.NotNil(t, gotAdmin)
	assert.Equal(t, "u-1", *gotAdmin)
}

func TestSystemLogService_Cleanup(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	var cutoff time.Time
	repo := &MockSystemLogRepository{
		DeleteOlderThanFunc: func(ctx context.Context, c time.Time) (int64, error) {
			cutoff = c
			return 7, nil
		},
	}
	svc := NewSystemLogService(repo, newTestLogger())
	svc.now = fixedClock(now)

	n, err := svc.Cleanup(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, now.AddDate(0, 0, -30), cutoff)

	_, err = svc.Cleanup(context.Background(), 0)
	assert.ErrorIs(t, err, models.ErrBadRequest)

	n, err = svc.PurgeOlderThan(context.Background(), 0)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSystemLogService_ListEmptyIsNotFound(t *testing.T) {
	svc := NewSystemLogService(&MockSystemLogRepository{}, newTestLogger())
	_, err := svc.List(context.Background(), models.SystemLogFilter{Action: "user_created"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

// ============================================================================
// Market status and dashboard
// ============================================================================

func TestMarketService_Status(t *testing.T) {
	monday := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	svc := NewMarketService(&MockHolidayRepository{}, newTestLogger())
	svc.now = fixedClock(monday)
	assert.Equal(t, models.MarketOpen, svc.Status(context.Background()).Status)

	svc = NewMarketService(&MockHolidayRepository{
		IsHolidayFunc: func(ctx context.Context, date time.Time) (bool, error) { return true, nil },
	}, newTestLogger())
	svc.now = fixedClock(monday)
	assert.Equal(t, models.MarketClosedHoliday, svc.Status(context.Background()).Status)

	svc = NewMarketService(&MockHolidayRepository{
		IsHolidayFunc: func(ctx context.Context, date time.Time) (bool, error) { return false, errors.New("db down") },
	}, newTestLogger())
	svc.now = fixedClock(monday)
	assert.Equal(t, models.MarketOpen, svc.Status(context.Background()).Status)
}

func TestDashboardService_Summary(t *testing.T) {
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	users := &MockAdminUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.AdminUser, error) {
			return &models.AdminUser{ID: id, Username: "grace", Role: models.RoleAdmin, Access: []string{models.TabAPIKeys}}, nil
		},
		CountFunc: func(ctx context.Context) (int, error) { return 3, nil },
	}
	keys := &MockAPIKeyRepository{
		ListFunc: func(ctx context.Context) ([]*models.APIKey, error) {
			return []*models.APIKey{{IsActive: true}, {IsActive: false}, {IsActive: true}}, nil
		},
	}
	holidays := &MockHolidayRepository{
		ListByYearFunc: func(ctx context.Context, year int) ([]*models.MarketHoliday, error) {
			return nil, errors.New("db down")
		},
	}
	market := NewMarketService(&MockHolidayRepository{}, newTestLogger())
	market.now = fixedClock(now)

	svc := NewDashboardService(users, keys, holidays, &MockSystemLogRepository{}, market, newTestLogger())
	svc.now = fixedClock(now)

	summary, err := svc.Summary(context.Background(), "u-2")
	require.NoError(t, err)
	assert.Equal(t, "grace", summary.Username)
	assert.Equal(t, []string{models.TabAPIKeys}, summary.Tabs)
	assert.Equal(t, 3, summary.TotalUsers)
	assert.Equal(t, 2, summary.ActiveAPIKeys)
	assert.Zero(t, summary.UpcomingHolidays)
	assert.Equal(t, models.MarketOpen, summary.MarketStatus)
	assert.Empty(t, summary.RecentActivity)
}
