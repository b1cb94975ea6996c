package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRevocationStore struct {
	revoked map[string]bool
	err     error
}

func (m *mockRevocationStore) Revoke(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	if m.revoked == nil {
		m.revoked = map[string]bool{}
	}
	m.revoked[jti] = true
	return m.err
}

func (m *mockRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return m.revoked[jti], m.err
}

type mockUserLookup struct {
	user *models.AdminUser
	err  error
}

func (m *mockUserLookup) GetByID(ctx context.Context, id string) (*models.AdminUser, error) {
	return m.user, m.err
}

type mockTabChecker struct {
	allowed bool
	err     error
}

func (m *mockTabChecker) UserHasAccess(ctx context.Context, userID, tab string) (bool, error) {
	return m.allowed, m.err
}

var testCookies = CookieConfig{Name: "chartfly_session", SameSite: "lax"}

func newTestMiddleware(store RevocationStore) (*SessionMiddleware, *SessionManager) {
	sm := NewSessionManager(testSecret, time.Hour)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewSessionMiddleware(sm, store, testCookies, logger), sm
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestWithSession(t *testing.T, sm *SessionManager, path, stage string) (*http.Request, *models.SessionClaims) {
	t.Helper()
	token, claims, err := sm.Issue(testUser(), stage)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.AddCookie(&http.Cookie{Name: testCookies.Name, Value: token})
	return req, claims
}

func TestRequireSession_AnonymousPageRedirectsToLogin(t *testing.T) {
	m, _ := newTestMiddleware(&mockRevocationStore{})
	h := m.LoadSession(m.RequireSession(okHandler()))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, LoginPath, w.Header().Get("Location"))
}

func TestRequireSession_AnonymousAPIGets401(t *testing.T) {
	m, _ := newTestMiddleware(&mockRevocationStore{})
	h := m.LoadSession(m.RequireSession(okHandler()))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireFullSession_AllowsAuthenticated(t *testing.T) {
	m, sm := newTestMiddleware(&mockRevocationStore{})
	h := m.LoadSession(m.RequireFullSession(okHandler()))

	req, _ := requestWithSession(t, sm, "/api/users", models.StageAuthenticated)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireFullSession_PartialSessionPageRedirectsToForceReset(t *testing.T) {
	m, sm := newTestMiddleware(&mockRevocationStore{})
	h := m.LoadSession(m.RequireFullSession(okHandler()))

	req, _ := requestWithSession(t, sm, "/", models.StageResetRequired)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, ForceResetPath, w.Header().Get("Location"))
}

func TestRequireFullSession_PartialSessionAPIGets403(t *testing.T) {
	m, sm := newTestMiddleware(&mockRevocationStore{})
	h := m.LoadSession(m.RequireFullSession(okHandler()))

	req, _ := requestWithSession(t, sm, "/api/holidays/year/2025", models.StageResetRequired)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), ErrCodeResetReq)
}

func TestRequireSession_AcceptsPartialSession(t *testing.T) {
	m, sm := newTestMiddleware(&mockRevocationStore{})
	h := m.LoadSession(m.RequireSession(okHandler()))

	req, _ := requestWithSession(t, sm, ForceResetPath, models.StageResetRequired)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoadSession_RevokedSessionIsAnonymous(t *testing.T) {
	store := &mockRevocationStore{}
	m, sm := newTestMiddleware(store)
	h := m.LoadSession(m.RequireSession(okHandler()))

	req, claims := requestWithSession(t, sm, "/api/users", models.StageAuthenticated)
	require.NoError(t, store.Revoke(context.Background(), claims.ID, claims.UserID(), claims.ExpiresAt.Time))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoadSession_RevocationErrorFailsClosed(t *testing.T) {
	m, sm := newTestMiddleware(&mockRevocationStore{err: errors.New("db down")})
	h := m.LoadSession(m.RequireSession(okHandler()))

	req, _ := requestWithSession(t, sm, "/api/users", models.StageAuthenticated)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoadSession_GarbageCookieIsAnonymous(t *testing.T) {
	m, _ := newTestMiddleware(&mockRevocationStore{})
	var seen *models.SessionClaims
	h := m.LoadSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetSessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: testCookies.Name, Value: "not.a.jwt"})
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Nil(t, seen)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		lookup   *mockUserLookup
		expected int
	}{
		{"matching role", &mockUserLookup{user: &models.AdminUser{Role: models.RoleSuperAdmin}}, http.StatusOK},
		{"other role", &mockUserLookup{user: &models.AdminUser{Role: models.RoleAdmin}}, http.StatusForbidden},
		{"deleted user", &mockUserLookup{err: models.ErrNotFound}, http.StatusUnauthorized},
		{"store failure", &mockUserLookup{err: errors.New("boom")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, sm := newTestMiddleware(&mockRevocationStore{})
			h := m.LoadSession(RequireRole(tt.lookup, models.RoleSuperAdmin)(okHandler()))

			req, _ := requestWithSession(t, sm, "/api/settings", models.StageAuthenticated)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestRequireTab(t *testing.T) {
	tests := []struct {
		name     string
		checker  *mockTabChecker
		expected int
	}{
		{"granted", &mockTabChecker{allowed: true}, http.StatusOK},
		{"denied", &mockTabChecker{allowed: false}, http.StatusForbidden},
		{"error", &mockTabChecker{err: errors.New("boom")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, sm := newTestMiddleware(&mockRevocationStore{})
			h := m.LoadSession(RequireTab(tt.checker, models.TabAPIKeys)(okHandler()))

			req, _ := requestWithSession(t, sm, "/api/api-keys", models.StageAuthenticated)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			assert.Equal(t, tt.expected, w.Code)
		})
	}
}
