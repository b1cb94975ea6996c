package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/auth"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/ChartFly/ChartFlyBackEnd/internal/services"
	"github.com/ChartFly/ChartFlyBackEnd/internal/views"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCookieConfig is the cookie configuration handler tests run with
var TestCookieConfig = auth.CookieConfig{Name: "chartfly_session", SameSite: "lax"}

// NewTestLogger discards log output
func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestRenderer parses the embedded page templates
func NewTestRenderer(t *testing.T) *views.Renderer {
	t.Helper()
	r, err := views.NewRenderer(NewTestLogger())
	require.NoError(t, err)
	return r
}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewFormRequest creates a urlencoded form post
func NewFormRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// WithSessionContext attaches session claims for userID at the given stage
func WithSessionContext(req *http.Request, userID, username, stage string) *http.Request {
	claims := &models.SessionClaims{
		Username: username,
		Role:     models.RoleAdmin,
		Stage:    stage,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        "jti-" + userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	return req.WithContext(auth.WithSession(req.Context(), claims))
}

// WithURLParams sets chi route parameters on req
func WithURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// AssertFieldError checks for a validation_failed response naming field
func AssertFieldError(t *testing.T, w *httptest.ResponseRecorder, field string) {
	assert.Equal(t, http.StatusBadRequest, w.Code, "Response status mismatch")

	var resp pkghttp.FieldErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Error)
	assert.Contains(t, resp.Fields, field)
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc               func(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	RegisterFunc            func(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	CompleteForcedResetFunc func(ctx context.Context, claims *models.SessionClaims, newPassword, confirmPassword string) (*services.LoginResult, error)
	LogoutFunc              func(ctx context.Context, claims *models.SessionClaims) error
	DevResetFunc            func(ctx context.Context, token string) (bool, string, error)
}

func (m *MockAuthService) Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, in)
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrRegistrationClosed
	}
	return m.RegisterFunc(ctx, in)
}

func (m *MockAuthService) CompleteForcedReset(ctx context.Context, claims *models.SessionClaims, newPassword, confirmPassword string) (*services.LoginResult, error) {
	if m.CompleteForcedResetFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CompleteForcedResetFunc(ctx, claims, newPassword, confirmPassword)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *models.SessionClaims) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, claims)
}

func (m *MockAuthService) DevReset(ctx context.Context, token string) (bool, string, error) {
	if m.DevResetFunc == nil {
		return false, "", models.ErrForbidden
	}
	return m.DevResetFunc(ctx, token)
}

// MockPasswordResetService implements PasswordResetServiceInterface for testing
type MockPasswordResetService struct {
	RequestResetFunc  func(ctx context.Context, in services.ForgotPasswordInput) error
	ValidateTokenFunc func(ctx context.Context, token string) error
	ResetPasswordFunc func(ctx context.Context, token, newPassword, confirmPassword string) error
}

func (m *MockPasswordResetService) RequestReset(ctx context.Context, in services.ForgotPasswordInput) error {
	if m.RequestResetFunc == nil {
		return nil
	}
	return m.RequestResetFunc(ctx, in)
}

func (m *MockPasswordResetService) ValidateToken(ctx context.Context, token string) error {
	if m.ValidateTokenFunc == nil {
		return models.ErrTokenInvalidOrExpired
	}
	return m.ValidateTokenFunc(ctx, token)
}

func (m *MockPasswordResetService) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if m.ResetPasswordFunc == nil {
		return models.ErrTokenInvalidOrExpired
	}
	return m.ResetPasswordFunc(ctx, token, newPassword, confirmPassword)
}

// MockUserPresence implements UserPresence for testing
type MockUserPresence struct {
	HasUsersFunc func(ctx context.Context) (bool, error)
}

func (m *MockUserPresence) HasUsers(ctx context.Context) (bool, error) {
	if m.HasUsersFunc == nil {
		return true, nil
	}
	return m.HasUsersFunc(ctx)
}

// MockDashboardService implements DashboardServiceInterface for testing
type MockDashboardService struct {
	SummaryFunc func(ctx context.Context, userID string) (*services.DashboardSummary, error)
}

func (m *MockDashboardService) Summary(ctx context.Context, userID string) (*services.DashboardSummary, error) {
	if m.SummaryFunc == nil {
		return &services.DashboardSummary{Username: "admin", Role: models.RoleAdmin, Tabs: []string{}}, nil
	}
	return m.SummaryFunc(ctx, userID)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}

// MockUserService implements UserService for testing
type MockUserService struct {
	ListFunc   func(ctx context.Context) ([]*models.AdminUser, error)
	GetFunc    func(ctx context.Context, id string) (*models.AdminUser, error)
	CreateFunc func(ctx context.Context, actorID string, in services.AdminUserInput) (*models.AdminUser, error)
	UpdateFunc func(ctx context.Context, actorID, id string, in services.AdminUserInput) (*models.AdminUser, error)
	DeleteFunc func(ctx context.Context, actorID, id string) error
}

func (m *MockUserService) List(ctx context.Context) ([]*models.AdminUser, error) {
	if m.ListFunc == nil {
		return []*models.AdminUser{}, nil
	}
	return m.ListFunc(ctx)
}

func (m *MockUserService) Get(ctx context.Context, id string) (*models.AdminUser, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, id)
}

func (m *MockUserService) Tabs() []string {
	return append([]string(nil), models.AllTabs...)
}

func (m *MockUserService) Create(ctx context.Context, actorID string, in services.AdminUserInput) (*models.AdminUser, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, actorID, in)
}

func (m *MockUserService) Update(ctx context.Context, actorID, id string, in services.AdminUserInput) (*models.AdminUser, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateFunc(ctx, actorID, id, in)
}

func (m *MockUserService) Delete(ctx context.Context, actorID, id string) error {
	if m.DeleteFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteFunc(ctx, actorID, id)
}

// MockAPIKeyService implements APIKeyServiceInterface for testing
type MockAPIKeyService struct {
	ListFunc           func(ctx context.Context) ([]*models.APIKey, error)
	CreateFunc         func(ctx context.Context, actorID string, in services.APIKeyInput) (*models.APIKey, error)
	UpdateFunc         func(ctx context.Context, actorID string, id int, in services.APIKeyInput) (*models.APIKey, error)
	DeleteFunc         func(ctx context.Context, actorID string, id int) error
	ActiveFunc         func(ctx context.Context) (*models.APIKey, error)
	MarkFailedByIDFunc func(ctx context.Context, actorID string, id int) error
}

func (m *MockAPIKeyService) List(ctx context.Context) ([]*models.APIKey, error) {
	if m.ListFunc == nil {
		return nil, nil
	}
	return m.ListFunc(ctx)
}

func (m *MockAPIKeyService) Create(ctx context.Context, actorID string, in services.APIKeyInput) (*models.APIKey, error) {
	if m.CreateFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.CreateFunc(ctx, actorID, in)
}

func (m *MockAPIKeyService) Update(ctx context.Context, actorID string, id int, in services.APIKeyInput) (*models.APIKey, error) {
	if m.UpdateFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateFunc(ctx, actorID, id, in)
}

func (m *MockAPIKeyService) Delete(ctx context.Context, actorID string, id int) error {
	if m.DeleteFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteFunc(ctx, actorID, id)
}

func (m *MockAPIKeyService) Active(ctx context.Context) (*models.APIKey, error) {
	if m.ActiveFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ActiveFunc(ctx)
}

func (m *MockAPIKeyService) MarkFailedByID(ctx context.Context, actorID string, id int) error {
	if m.MarkFailedByIDFunc == nil {
		return models.ErrNotFound
	}
	return m.MarkFailedByIDFunc(ctx, actorID, id)
}

// MockHolidayService implements HolidayServiceInterface for testing
type MockHolidayService struct {
	ListByYearFunc func(ctx context.Context, year int) ([]models.HolidayResponse, error)
	SaveAllFunc    func(ctx context.Context, actorID string, rows []models.HolidayInput) (int, error)
	CreateFunc     func(ctx context.Context, actorID string, in models.HolidayInput) (*models.MarketHoliday, error)
	DeleteFunc     func(ctx context.Context, actorID string, id int) error
	Now            time.Time
}

func (m *MockHolidayService) ListByYear(ctx context.Context, year int) ([]models.HolidayResponse, error) {
	if m.ListByYearFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ListByYearFunc(ctx, year)
}

func (m *MockHolidayService) SaveAll(ctx context.Context, actorID string, rows []models.HolidayInput) (int, error) {
	if m.SaveAllFunc == nil {
		return len(rows), nil
	}
	return m.SaveAllFunc(ctx, actorID, rows)
}

func (m *MockHolidayService) Create(ctx context.Context, actorID string, in models.HolidayInput) (*models.MarketHoliday, error) {
	if m.CreateFunc == nil {
		return in.Parse()
	}
	return m.CreateFunc(ctx, actorID, in)
}

func (m *MockHolidayService) Delete(ctx context.Context, actorID string, id int) error {
	if m.DeleteFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteFunc(ctx, actorID, id)
}

func (m *MockHolidayService) Today() time.Time {
	if m.Now.IsZero() {
		return time.Now().UTC()
	}
	return m.Now
}

// MockSystemLogService implements SystemLogServiceInterface for testing
type MockSystemLogService struct {
	ListFunc    func(ctx context.Context, filter models.SystemLogFilter) ([]*models.SystemLog, error)
	CreateFunc  func(ctx context.Context, adminID, action, details string) error
	CleanupFunc func(ctx context.Context, daysOld int) (int64, error)
}

func (m *MockSystemLogService) List(ctx context.Context, filter models.SystemLogFilter) ([]*models.SystemLog, error) {
	if m.ListFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ListFunc(ctx, filter)
}

func (m *MockSystemLogService) Create(ctx context.Context, adminID, action, details string) error {
	if m.CreateFunc == nil {
		return nil
	}
	return m.CreateFunc(ctx, adminID, action, details)
}

func (m *MockSystemLogService) Cleanup(ctx context.Context, daysOld int) (int64, error) {
	if m.CleanupFunc == nil {
		return 0, nil
	}
	return m.CleanupFunc(ctx, daysOld)
}

// MockSettingService implements SettingServiceInterface for testing
type MockSettingService struct {
	ListFunc   func(ctx context.Context) ([]*models.GlobalSetting, error)
	GetFunc    func(ctx context.Context, key string) (*models.GlobalSetting, error)
	SaveFunc   func(ctx context.Context, actorID, key, value string) (*models.GlobalSetting, error)
	DeleteFunc func(ctx context.Context, actorID, key string) error
}

func (m *MockSettingService) List(ctx context.Context) ([]*models.GlobalSetting, error) {
	if m.ListFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ListFunc(ctx)
}

func (m *MockSettingService) Get(ctx context.Context, key string) (*models.GlobalSetting, error) {
	if m.GetFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetFunc(ctx, key)
}

func (m *MockSettingService) Save(ctx context.Context, actorID, key, value string) (*models.GlobalSetting, error) {
	if m.SaveFunc == nil {
		return &models.GlobalSetting{ID: 1, SettingKey: key, SettingValue: value}, nil
	}
	return m.SaveFunc(ctx, actorID, key, value)
}

func (m *MockSettingService) Delete(ctx context.Context, actorID, key string) error {
	if m.DeleteFunc == nil {
		return models.ErrNotFound
	}
	return m.DeleteFunc(ctx, actorID, key)
}

// MockMarketStatus implements MarketStatusProvider for testing
type MockMarketStatus struct {
	Result services.MarketStatus
}

func (m *MockMarketStatus) Status(ctx context.Context) services.MarketStatus {
	return m.Result
}
