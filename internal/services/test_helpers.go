package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkgauth "github.com/ChartFly/ChartFlyBackEnd/pkg/auth"
)

// MockAdminUserRepository implements AdminUserRepository for testing
type MockAdminUserRepository struct {
	CountFunc                   func(ctx context.Context) (int, error)
	GetByIDFunc                 func(ctx context.Context, id string) (*models.AdminUser, error)
	GetByUsernameFunc           func(ctx context.Context, username string) (*models.AdminUser, error)
	GetByEmailAndPhoneFunc      func(ctx context.Context, email, phoneDigits string) (*models.AdminUser, error)
	ListFunc                    func(ctx context.Context) ([]*models.AdminUser, error)
	CreateFunc                  func(ctx context.Context, u *models.AdminUser) (*models.AdminUser, error)
	UpdateFunc                  func(ctx context.Context, u *models.AdminUser, passwordHash *string) (*models.AdminUser, error)
	DeleteFunc                  func(ctx context.Context, id string) error
	ReplacePasswordFunc         func(ctx context.Context, id, passwordHash string) error
	SetResetTokenFunc           func(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	FindByResetTokenFunc        func(ctx context.Context, tokenHash string, now time.Time) (*models.AdminUser, error)
	ConsumeResetTokenFunc       func(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error)
	ClearExpiredResetTokensFunc func(ctx context.Context, now time.Time) (int64, error)
	CreateIfUsernameAbsentFunc  func(ctx context.Context, u *models.AdminUser) (bool, error)
	CreateFirstUserFunc         func(ctx context.Context, u *models.AdminUser) (bool, error)
}

func (m *MockAdminUserRepository) Count(ctx context.Context) (int, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return 0, nil
}

func (m *MockAdminUserRepository) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminUserRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminUserRepository) GetByEmailAndPhone(ctx context.Context, email, phoneDigits string) (*models.AdminUser, error) {
	if m.GetByEmailAndPhoneFunc != nil {
		return m.GetByEmailAndPhoneFunc(ctx, email, phoneDigits)
	}
	return nil, models.ErrNotFound
}

func (m *MockAdminUserRepository) List(ctx context.Context) ([]*models.AdminUser, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.AdminUser{}, nil
}

func (m *MockAdminUserRepository) Create(ctx context.Context, u *models.AdminUser) (*models.AdminUser, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, u)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAdminUserRepository) Update(ctx context.Context, u *models.AdminUser, passwordHash *string) (*models.AdminUser, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, u, passwordHash)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAdminUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockAdminUserRepository) ReplacePassword(ctx context.Context, id, passwordHash string) error {
	if m.ReplacePasswordFunc != nil {
		return m.ReplacePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockAdminUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	if m.SetResetTokenFunc != nil {
		return m.SetResetTokenFunc(ctx, id, tokenHash, expiresAt)
	}
	return nil
}

func (m *MockAdminUserRepository) FindByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.AdminUser, error) {
	if m.FindByResetTokenFunc != nil {
		return m.FindByResetTokenFunc(ctx, tokenHash, now)
	}
	return nil, models.ErrTokenInvalidOrExpired
}

func (m *MockAdminUserRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, now time.Time) (string, error) {
	if m.ConsumeResetTokenFunc != nil {
		return m.ConsumeResetTokenFunc(ctx, tokenHash, passwordHash, now)
	}
	return "", models.ErrTokenInvalidOrExpired
}

func (m *MockAdminUserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	if m.ClearExpiredResetTokensFunc != nil {
		return m.ClearExpiredResetTokensFunc(ctx, now)
	}
	return 0, nil
}

func (m *MockAdminUserRepository) CreateFirstUser(ctx context.Context, u *models.AdminUser) (bool, error) {
	if m.CreateFirstUserFunc != nil {
		return m.CreateFirstUserFunc(ctx, u)
	}
	return false, nil
}

func (m *MockAdminUserRepository) CreateIfUsernameAbsent(ctx context.Context, u *models.AdminUser) (bool, error) {
	if m.CreateIfUsernameAbsentFunc != nil {
		return m.CreateIfUsernameAbsentFunc(ctx, u)
	}
	return false, nil
}

// MockPermissionRepository implements PermissionRepository for testing
type MockPermissionRepository struct {
	HasAccessFunc func(ctx context.Context, userID, tab string) (bool, error)
}

func (m *MockPermissionRepository) HasAccess(ctx context.Context, userID, tab string) (bool, error) {
	if m.HasAccessFunc != nil {
		return m.HasAccessFunc(ctx, userID, tab)
	}
	return false, nil
}

// MockLoginAttemptRepository implements LoginAttemptRepository for testing
type MockLoginAttemptRepository struct {
	RecordAttemptFunc func(ctx context.Context, sourceAddress string, at time.Time) error
	GetWindowFunc     func(ctx context.Context, sourceAddress string, since time.Time, limit int) (*models.LoginAttemptWindow, error)
	PruneBeforeFunc   func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *MockLoginAttemptRepository) RecordAttempt(ctx context.Context, sourceAddress string, at time.Time) error {
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, sourceAddress, at)
	}
	return nil
}

func (m *MockLoginAttemptRepository) GetWindow(ctx context.Context, sourceAddress string, since time.Time, limit int) (*models.LoginAttemptWindow, error) {
	if m.GetWindowFunc != nil {
		return m.GetWindowFunc(ctx, sourceAddress, since, limit)
	}
	return &models.LoginAttemptWindow{}, nil
}

func (m *MockLoginAttemptRepository) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.PruneBeforeFunc != nil {
		return m.PruneBeforeFunc(ctx, cutoff)
	}
	return 0, nil
}

// MockLoginLimiter implements LoginLimiter for testing
type MockLoginLimiter struct {
	IsRateLimitedFunc func(ctx context.Context, address string) (bool, int)
	RecordAttemptFunc func(ctx context.Context, address string) error

	mu       sync.Mutex
	Recorded []string
}

func (m *MockLoginLimiter) IsRateLimited(ctx context.Context, address string) (bool, int) {
	if m.IsRateLimitedFunc != nil {
		return m.IsRateLimitedFunc(ctx, address)
	}
	return false, 0
}

func (m *MockLoginLimiter) RecordAttempt(ctx context.Context, address string) error {
	m.mu.Lock()
	m.Recorded = append(m.Recorded, address)
	m.mu.Unlock()
	if m.RecordAttemptFunc != nil {
		return m.RecordAttemptFunc(ctx, address)
	}
	return nil
}

// MockSystemLogRepository implements SystemLogRepository for testing
type MockSystemLogRepository struct {
	CreateFunc          func(ctx context.Context, adminID *string, action, details string) error
	ListFunc            func(ctx context.Context, filter models.SystemLogFilter) ([]*models.SystemLog, error)
	DeleteOlderThanFunc func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *MockSystemLogRepository) Create(ctx context.Context, adminID *string, action, details string) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, adminID, action, details)
	}
	return nil
}

func (m *MockSystemLogRepository) List(ctx context.Context, filter models.SystemLogFilter) ([]*models.SystemLog, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter)
	}
	return []*models.SystemLog{}, nil
}

func (m *MockSystemLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.DeleteOlderThanFunc != nil {
		return m.DeleteOlderThanFunc(ctx, cutoff)
	}
	return 0, nil
}

// MockActionLogger records LogAdminAction calls
type MockActionLogger struct {
	mu      sync.Mutex
	Actions []string
	AdminID []string
}

func (m *MockActionLogger) LogAdminAction(ctx context.Context, adminID, action, details string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Actions = append(m.Actions, action)
	m.AdminID = append(m.AdminID, adminID)
}

// MockAPIKeyRepository implements APIKeyRepository for testing
type MockAPIKeyRepository struct {
	ListFunc               func(ctx context.Context) ([]*models.APIKey, error)
	GetByIDFunc            func(ctx context.Context, id int) (*models.APIKey, error)
	GetActiveFunc          func(ctx context.Context) (*models.APIKey, error)
	CreateFunc             func(ctx context.Context, k *models.APIKey) (*models.APIKey, error)
	UpdateFunc             func(ctx context.Context, k *models.APIKey) (*models.APIKey, error)
	DeleteFunc             func(ctx context.Context, id int) error
	MarkFailedFunc         func(ctx context.Context, id int) error
	MarkFailedBySecretFunc func(ctx context.Context, secret string) error
}

func (m *MockAPIKeyRepository) List(ctx context.Context) ([]*models.APIKey, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.APIKey{}, nil
}

func (m *MockAPIKeyRepository) GetByID(ctx context.Context, id int) (*models.APIKey, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockAPIKeyRepository) GetActive(ctx context.Context) (*models.APIKey, error) {
	if m.GetActiveFunc != nil {
		return m.GetActiveFunc(ctx)
	}
	return nil, models.ErrNotFound
}

func (m *MockAPIKeyRepository) Create(ctx context.Context, k *models.APIKey) (*models.APIKey, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, k)
	}
	return k, nil
}

func (m *MockAPIKeyRepository) Update(ctx context.Context, k *models.APIKey) (*models.APIKey, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, k)
	}
	return k, nil
}

func (m *MockAPIKeyRepository) Delete(ctx context.Context, id int) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockAPIKeyRepository) MarkFailed(ctx context.Context, id int) error {
	if m.MarkFailedFunc != nil {
		return m.MarkFailedFunc(ctx, id)
	}
	return nil
}

func (m *MockAPIKeyRepository) MarkFailedBySecret(ctx context.Context, secret string) error {
	if m.MarkFailedBySecretFunc != nil {
		return m.MarkFailedBySecretFunc(ctx, secret)
	}
	return nil
}

// MockHolidayRepository implements HolidayRepository for testing
type MockHolidayRepository struct {
	ListByYearFunc func(ctx context.Context, year int) ([]*models.MarketHoliday, error)
	SaveAllFunc    func(ctx context.Context, holidays []*models.MarketHoliday) error
	CreateFunc     func(ctx context.Context, h *models.MarketHoliday) (*models.MarketHoliday, error)
	DeleteFunc     func(ctx context.Context, id int) error
	IsHolidayFunc  func(ctx context.Context, date time.Time) (bool, error)
}

func (m *MockHolidayRepository) ListByYear(ctx context.Context, year int) ([]*models.MarketHoliday, error) {
	if m.ListByYearFunc != nil {
		return m.ListByYearFunc(ctx, year)
	}
	return []*models.MarketHoliday{}, nil
}

func (m *MockHolidayRepository) SaveAll(ctx context.Context, holidays []*models.MarketHoliday) error {
	if m.SaveAllFunc != nil {
		return m.SaveAllFunc(ctx, holidays)
	}
	return nil
}

func (m *MockHolidayRepository) Create(ctx context.Context, h *models.MarketHoliday) (*models.MarketHoliday, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, h)
	}
	return h, nil
}

func (m *MockHolidayRepository) Delete(ctx context.Context, id int) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockHolidayRepository) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	if m.IsHolidayFunc != nil {
		return m.IsHolidayFunc(ctx, date)
	}
	return false, nil
}

// MockSettingRepository implements SettingRepository for testing
type MockSettingRepository struct {
	ListFunc   func(ctx context.Context) ([]*models.GlobalSetting, error)
	GetFunc    func(ctx context.Context, key string) (*models.GlobalSetting, error)
	UpsertFunc func(ctx context.Context, key, value string) (*models.GlobalSetting, error)
	DeleteFunc func(ctx context.Context, key string) error
}

func (m *MockSettingRepository) List(ctx context.Context) ([]*models.GlobalSetting, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.GlobalSetting{}, nil
}

func (m *MockSettingRepository) Get(ctx context.Context, key string) (*models.GlobalSetting, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, models.ErrNotFound
}

func (m *MockSettingRepository) Upsert(ctx context.Context, key, value string) (*models.GlobalSetting, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, key, value)
	}
	return &models.GlobalSetting{ID: 1, SettingKey: key, SettingValue: value}, nil
}

func (m *MockSettingRepository) Delete(ctx context.Context, key string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, key)
	}
	return nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendPasswordResetEmailFunc func(ctx context.Context, to, resetURL string, expiresAt time.Time) error

	mu       sync.Mutex
	SentTo   []string
	SentURLs []string
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, to, resetURL string, expiresAt time.Time) error {
	m.mu.Lock()
	m.SentTo = append(m.SentTo, to)
	m.SentURLs = append(m.SentURLs, resetURL)
	m.mu.Unlock()
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, to, resetURL, expiresAt)
	}
	return nil
}

// MockRevocationStore implements auth.RevocationStore for testing
type MockRevocationStore struct {
	RevokeFunc    func(ctx context.Context, jti, userID string, expiresAt time.Time) error
	IsRevokedFunc func(ctx context.Context, jti string) (bool, error)
}

func (m *MockRevocationStore) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, jti, userID, expiresAt)
	}
	return nil
}

func (m *MockRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if m.IsRevokedFunc != nil {
		return m.IsRevokedFunc(ctx, jti)
	}
	return false, nil
}

// testBcryptCost keeps hashing fast in unit tests
const testBcryptCost = 4

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// NewTestAdminUser creates an admin user whose password hash matches password
func NewTestAdminUser(id, username, password string) *models.AdminUser {
	hash, err := pkgauth.HashPasswordWithCost(password, testBcryptCost)
	if err != nil {
		panic(err)
	}
	return &models.AdminUser{
		ID:           id,
		FirstName:    "Test",
		LastName:     "User",
		Email:        username + "@chartfly.io",
		PhoneNumber:  "(555) 123-4567",
		Username:     username,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
}
