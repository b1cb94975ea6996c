package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ChartFly/ChartFlyBackEnd/internal/auth"
	"github.com/ChartFly/ChartFlyBackEnd/internal/handlers"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/ChartFly/ChartFlyBackEnd/internal/services"
	pkgauth "github.com/ChartFly/ChartFlyBackEnd/pkg/auth"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthHandler(t *testing.T, svc *handlers.MockAuthService, resets *handlers.MockPasswordResetService) *handlers.AuthHandler {
	t.Helper()
	if resets == nil {
		resets = &handlers.MockPasswordResetService{}
	}
	return handlers.NewAuthHandler(svc, resets, handlers.NewTestRenderer(t), handlers.TestCookieConfig, pkghttp.NewIPConfig(nil), handlers.NewTestLogger())
}

func loginResult(stage string) *services.LoginResult {
	return &services.LoginResult{
		Token: "signed.session.token",
		Claims: &models.SessionClaims{
			Username: "trader",
			Stage:    stage,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				ID:        "jti-1",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		},
		User: &models.AdminUser{ID: "user-1", Username: "trader"},
	}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestLoginPage_IssuesCSRFCookie(t *testing.T) {
	h := newAuthHandler(t, &handlers.MockAuthService{}, nil)

	w := httptest.NewRecorder()
	h.LoginPage(w, httptest.NewRequest("GET", "/auth/login?notice=password_reset", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	csrf := findCookie(w, auth.CSRFCookieName)
	require.NotNil(t, csrf)
	assert.Contains(t, w.Body.String(), `value="`+csrf.Value+`"`)
	assert.Contains(t, w.Body.String(), "Your password has been reset")
}

func TestLoginPage_ReusesExistingCSRFCookie(t *testing.T) {
	h := newAuthHandler(t, &handlers.MockAuthService{}, nil)

	req := httptest.NewRequest("GET", "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: auth.CSRFCookieName, Value: "existing-token"})
	w := httptest.NewRecorder()
	h.LoginPage(w, req)

	assert.Nil(t, findCookie(w, auth.CSRFCookieName))
	assert.Contains(t, w.Body.String(), `value="existing-token"`)
}

func TestLoginPage_IgnoresUnknownNotice(t *testing.T) {
	h := newAuthHandler(t, &handlers.MockAuthService{}, nil)

	w := httptest.NewRecorder()
	h.LoginPage(w, httptest.NewRequest("GET", "/auth/login?notice=%3Cscript%3E", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "script&gt;")
}

func TestLogin_Success(t *testing.T) {
	var got services.LoginInput
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.LoginResult, error) {
			got = in
			return loginResult(models.StageAuthenticated), nil
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	req := handlers.NewFormRequest("POST", "/auth/login", url.Values{
		"username": {"  trader "},
		"password": {"abc12!"},
	})
	req.RemoteAddr = "198.51.100.7:51000"
	w := httptest.NewRecorder()
	h.Login(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Equal(t, "trader", got.Username)
	assert.Equal(t, "198.51.100.7", got.SourceAddress)

	session := findCookie(w, handlers.TestCookieConfig.Name)
	require.NotNil(t, session)
	assert.Equal(t, "signed.session.token", session.Value)
	assert.True(t, session.HttpOnly)
}

func TestLogin_MustResetRedirectsToForceReset(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.LoginResult, error) {
			return loginResult(models.StageResetRequired), nil
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	w := httptest.NewRecorder()
	h.Login(w, handlers.NewFormRequest("POST", "/auth/login", url.Values{"username": {"trader"}, "password": {"Temp1!"}}))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, auth.ForceResetPath, w.Header().Get("Location"))
	assert.NotNil(t, findCookie(w, handlers.TestCookieConfig.Name))
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"invalid credentials", models.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid username or password"},
		{"rate limited", &models.RateLimitedError{RetryAfter: 4*time.Minute + 30*time.Second}, http.StatusTooManyRequests, "Too many login attempts. Try again in 5 min."},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError, "Something went wrong. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := &handlers.MockAuthService{
				LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.LoginResult, error) {
					return nil, tt.err
				},
			}
			h := newAuthHandler(t, mockAuth, nil)

			w := httptest.NewRecorder()
			h.Login(w, handlers.NewFormRequest("POST", "/auth/login", url.Values{"username": {"trader"}, "password": {"wrong"}}))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "connection refused")
			assert.Nil(t, findCookie(w, handlers.TestCookieConfig.Name))
		})
	}
}

func TestLogin_RateLimitedSetsRetryAfter(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.LoginResult, error) {
			return nil, &models.RateLimitedError{RetryAfter: 90 * time.Second}
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	w := httptest.NewRecorder()
	h.Login(w, handlers.NewFormRequest("POST", "/auth/login", url.Values{"username": {"trader"}, "password": {"x"}}))

	assert.Equal(t, "90", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "Try again in 2 min.")
}

func TestLogin_MissingFields(t *testing.T) {
	called := false
	mockAuth := &handlers.MockAuthService{
		LoginFunc: func(ctx context.Context, in services.LoginInput) (*services.LoginResult, error) {
			called = true
			return nil, models.ErrInvalidCredentials
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	w := httptest.NewRecorder()
	h.Login(w, handlers.NewFormRequest("POST", "/auth/login", url.Values{"username": {"trader"}}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called, "service must not be called for an incomplete form")
}

func validRegisterForm() url.Values {
	return url.Values{
		"first_name":       {"Ada"},
		"last_name":        {"Lovelace"},
		"phone_number":     {"555-123-4567"},
		"email":            {"ada@chartfly.io"},
		"username":         {"ada"},
		"password":         {"abc12!"},
		"confirm_password": {"abc12!"},
		"access_code":      {"A1"},
	}
}

func TestRegister_SuccessRedirectsToLogin(t *testing.T) {
	var got services.RegisterInput
	mockAuth := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error) {
			got = in
			return &services.RegisterResult{User: &models.AdminUser{ID: "u1"}}, nil
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	w := httptest.NewRecorder()
	h.Register(w, handlers.NewFormRequest("POST", "/auth/register", validRegisterForm()))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login?notice=registered", w.Header().Get("Location"))
	assert.Equal(t, "ada@chartfly.io", got.Email)
	assert.False(t, got.Enable2FA)
}

func TestRegister_With2FAShowsQRCode(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		RegisterFunc: func(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error) {
			assert.True(t, in.Enable2FA)
			return &services.RegisterResult{
				User: &models.AdminUser{ID: "u1"},
				TOTP: &auth.TOTPEnrollment{Secret: "JBSWY3DPEHPK3PXP", QRCodeDataURI: "data:image/png;base64,iVBORw0KGgo="},
			}, nil
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	form := validRegisterForm()
	form.Set("enable_2fa", "on")
	w := httptest.NewRecorder()
	h.Register(w, handlers.NewFormRequest("POST", "/auth/register", form))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `src="data:image/png;base64,iVBORw0KGgo="`)
	assert.Contains(t, w.Body.String(), "JBSWY3DPEHPK3PXP")
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"mismatch", models.ErrPasswordMismatch, http.StatusBadRequest, "Passwords do not match."},
		{"policy", &pkgauth.PasswordValidationError{Field: "password", Errors: []string{"must contain a symbol"}}, http.StatusBadRequest, "must contain a symbol"},
		{"already registered", models.ErrAlreadyRegistered, http.StatusConflict, "You are already registered. Click below to log in."},
		{"closed", models.ErrRegistrationClosed, http.StatusForbidden, "No such user or password. Access denied."},
		{"unexpected", errors.New("pq: deadlock"), http.StatusInternalServerError, "Something went wrong. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := &handlers.MockAuthService{
				RegisterFunc: func(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error) {
					return nil, tt.err
				},
			}
			h := newAuthHandler(t, mockAuth, nil)

			w := httptest.NewRecorder()
			h.Register(w, handlers.NewFormRequest("POST", "/auth/register", validRegisterForm()))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			// submitted values are kept, the password is not
			assert.Contains(t, w.Body.String(), `value="ada@chartfly.io"`)
			assert.NotContains(t, w.Body.String(), "abc12!")
		})
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	h := newAuthHandler(t, &handlers.MockAuthService{}, nil)

	form := validRegisterForm()
	form.Set("email", "not-an-email")
	w := httptest.NewRecorder()
	h.Register(w, handlers.NewFormRequest("POST", "/auth/register", form))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must be a valid email address")
}

func TestLogout_RevokesAndClearsCookie(t *testing.T) {
	var revoked *models.SessionClaims
	mockAuth := &handlers.MockAuthService{
		LogoutFunc: func(ctx context.Context, claims *models.SessionClaims) error {
			revoked = claims
			return nil
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	req := handlers.WithSessionContext(handlers.NewFormRequest("POST", "/auth/logout", url.Values{}), "user-1", "trader", models.StageAuthenticated)
	w := httptest.NewRecorder()
	h.Logout(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login?notice=logged_out", w.Header().Get("Location"))
	require.NotNil(t, revoked)
	assert.Equal(t, "user-1", revoked.UserID())

	cookie := findCookie(w, handlers.TestCookieConfig.Name)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestLogoutPage_ConfirmsWithoutRevoking(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		LogoutFunc: func(ctx context.Context, claims *models.SessionClaims) error {
			t.Fatal("GET must not revoke the session")
			return nil
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	req := handlers.WithSessionContext(httptest.NewRequest("GET", "/auth/logout", nil), "user-1", "trader", models.StageAuthenticated)
	w := httptest.NewRecorder()
	h.LogoutPage(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `action="/auth/logout"`)
	assert.Contains(t, w.Body.String(), `name="csrf_token"`)
	assert.Nil(t, findCookie(w, handlers.TestCookieConfig.Name))

	w = httptest.NewRecorder()
	h.LogoutPage(w, httptest.NewRequest("GET", "/auth/logout", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, auth.LoginPath, w.Header().Get("Location"))
}

func TestForceReset_IssuesFullSession(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		CompleteForcedResetFunc: func(ctx context.Context, claims *models.SessionClaims, newPassword, confirmPassword string) (*services.LoginResult, error) {
			assert.Equal(t, "user-1", claims.UserID())
			assert.Equal(t, "N3w!pass", newPassword)
			return loginResult(models.StageAuthenticated), nil
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	req := handlers.NewFormRequest("POST", auth.ForceResetPath, url.Values{
		"new_password":     {"N3w!pass"},
		"confirm_password": {"N3w!pass"},
	})
	req = handlers.WithSessionContext(req, "user-1", "trader", models.StageResetRequired)
	w := httptest.NewRecorder()
	h.ForceReset(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.NotNil(t, findCookie(w, handlers.TestCookieConfig.Name))
}

func TestForceReset_PolicyFailure(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		CompleteForcedResetFunc: func(ctx context.Context, claims *models.SessionClaims, newPassword, confirmPassword string) (*services.LoginResult, error) {
			return nil, &pkgauth.PasswordValidationError{Field: "new_password", Errors: []string{"must contain a digit"}}
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	req := handlers.NewFormRequest("POST", auth.ForceResetPath, url.Values{
		"new_password":     {"abcdef"},
		"confirm_password": {"abcdef"},
	})
	req = handlers.WithSessionContext(req, "user-1", "trader", models.StageResetRequired)
	w := httptest.NewRecorder()
	h.ForceReset(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "must contain a digit")
}

func TestForceReset_FullSessionCannotReplacePassword(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		CompleteForcedResetFunc: func(ctx context.Context, claims *models.SessionClaims, newPassword, confirmPassword string) (*services.LoginResult, error) {
			t.Fatal("a full session must not reach the forced reset")
			return nil, nil
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	req := handlers.NewFormRequest("POST", auth.ForceResetPath, url.Values{
		"new_password":     {"Pwn3d!x"},
		"confirm_password": {"Pwn3d!x"},
	})
	req = handlers.WithSessionContext(req, "user-1", "trader", models.StageAuthenticated)
	w := httptest.NewRecorder()
	h.ForceReset(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	assert.Nil(t, findCookie(w, handlers.TestCookieConfig.Name))
}

func TestForceReset_StaleResetSessionIsLoggedOut(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		CompleteForcedResetFunc: func(ctx context.Context, claims *models.SessionClaims, newPassword, confirmPassword string) (*services.LoginResult, error) {
			return nil, models.ErrForbidden
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	req := handlers.NewFormRequest("POST", auth.ForceResetPath, url.Values{
		"new_password":     {"N3w!pass"},
		"confirm_password": {"N3w!pass"},
	})
	req = handlers.WithSessionContext(req, "user-1", "trader", models.StageResetRequired)
	w := httptest.NewRecorder()
	h.ForceReset(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, auth.LoginPath, w.Header().Get("Location"))
	cookie := findCookie(w, handlers.TestCookieConfig.Name)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestForceReset_WithoutSessionRedirectsToLogin(t *testing.T) {
	h := newAuthHandler(t, &handlers.MockAuthService{}, nil)

	w := httptest.NewRecorder()
	h.ForceReset(w, handlers.NewFormRequest("POST", auth.ForceResetPath, url.Values{}))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, auth.LoginPath, w.Header().Get("Location"))
}

func forgotForm() url.Values {
	return url.Values{
		"email":        {"ada@chartfly.io"},
		"phone_number": {"5551234567"},
		"method":       {"email"},
	}
}

func TestForgotPassword_SuccessRedirects(t *testing.T) {
	var got services.ForgotPasswordInput
	resets := &handlers.MockPasswordResetService{
		RequestResetFunc: func(ctx context.Context, in services.ForgotPasswordInput) error {
			got = in
			return nil
		},
	}
	h := newAuthHandler(t, &handlers.MockAuthService{}, resets)

	w := httptest.NewRecorder()
	h.ForgotPassword(w, handlers.NewFormRequest("POST", "/auth/forgot-password", forgotForm()))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login?notice=reset_sent", w.Header().Get("Location"))
	assert.Equal(t, "5551234567", got.Phone)
	assert.Equal(t, services.ResetMethodEmail, got.Method)
}

func TestForgotPassword_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"no match", models.ErrNoMatchingAccount, http.StatusNotFound, "No matching user found with that email and phone number."},
		{"delivery", fmt.Errorf("%w: %w", models.ErrDeliveryFailure, errors.New("smtp: 421")), http.StatusBadGateway, "Failed to send email. Please try again later."},
		{"bad phone", models.NewFieldError("phone_number", "must contain at least 10 digits"), http.StatusBadRequest, "must contain at least 10 digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resets := &handlers.MockPasswordResetService{
				RequestResetFunc: func(ctx context.Context, in services.ForgotPasswordInput) error {
					return tt.err
				},
			}
			h := newAuthHandler(t, &handlers.MockAuthService{}, resets)

			w := httptest.NewRecorder()
			h.ForgotPassword(w, handlers.NewFormRequest("POST", "/auth/forgot-password", forgotForm()))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.NotContains(t, w.Body.String(), "smtp: 421")
		})
	}
}

func TestResetPasswordPage(t *testing.T) {
	resets := &handlers.MockPasswordResetService{
		ValidateTokenFunc: func(ctx context.Context, token string) error {
			if token == "good-token" {
				return nil
			}
			return models.ErrTokenInvalidOrExpired
		},
	}
	h := newAuthHandler(t, &handlers.MockAuthService{}, resets)

	w := httptest.NewRecorder()
	h.ResetPasswordPage(w, httptest.NewRequest("GET", "/auth/reset-password?token=good-token", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="token" value="good-token"`)

	w = httptest.NewRecorder()
	h.ResetPasswordPage(w, httptest.NewRequest("GET", "/auth/reset-password?token=stale", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or has expired")
	assert.NotContains(t, w.Body.String(), `name="new_password"`)
}

func TestResetPassword_Success(t *testing.T) {
	resets := &handlers.MockPasswordResetService{
		ResetPasswordFunc: func(ctx context.Context, token, newPassword, confirmPassword string) error {
			assert.Equal(t, "good-token", token)
			return nil
		},
	}
	h := newAuthHandler(t, &handlers.MockAuthService{}, resets)

	w := httptest.NewRecorder()
	h.ResetPassword(w, handlers.NewFormRequest("POST", "/auth/reset-password", url.Values{
		"token":            {"good-token"},
		"new_password":     {"N3w!pass"},
		"confirm_password": {"N3w!pass"},
	}))

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login?notice=password_reset", w.Header().Get("Location"))
}

func TestResetPassword_ConsumedToken(t *testing.T) {
	resets := &handlers.MockPasswordResetService{
		ResetPasswordFunc: func(ctx context.Context, token, newPassword, confirmPassword string) error {
			return models.ErrTokenInvalidOrExpired
		},
	}
	h := newAuthHandler(t, &handlers.MockAuthService{}, resets)

	w := httptest.NewRecorder()
	h.ResetPassword(w, handlers.NewFormRequest("POST", "/auth/reset-password", url.Values{
		"token":            {"used-token"},
		"new_password":     {"N3w!pass"},
		"confirm_password": {"N3w!pass"},
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), "used-token")
}

func TestResetPassword_MismatchKeepsToken(t *testing.T) {
	resets := &handlers.MockPasswordResetService{
		ResetPasswordFunc: func(ctx context.Context, token, newPassword, confirmPassword string) error {
			return models.ErrPasswordMismatch
		},
	}
	h := newAuthHandler(t, &handlers.MockAuthService{}, resets)

	w := httptest.NewRecorder()
	h.ResetPassword(w, handlers.NewFormRequest("POST", "/auth/reset-password", url.Values{
		"token":            {"good-token"},
		"new_password":     {"N3w!pass"},
		"confirm_password": {"other"},
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Passwords do not match.")
	assert.Contains(t, w.Body.String(), `value="good-token"`)
}

func TestDevReset(t *testing.T) {
	tests := []struct {
		name       string
		created    bool
		err        error
		wantStatus int
		wantKey    string
		wantValue  string
	}{
		{"bad token", false, models.ErrForbidden, http.StatusForbidden, "error", "Unauthorized"},
		{"exists", false, nil, http.StatusOK, "message", "Admin user already exists."},
		{"created", true, nil, http.StatusCreated, "message", "Default admin created. Username: admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockAuth := &handlers.MockAuthService{
				DevResetFunc: func(ctx context.Context, token string) (bool, string, error) {
					assert.Equal(t, "dev-secret", token)
					return tt.created, "admin", tt.err
				},
			}
			h := newAuthHandler(t, mockAuth, nil)

			w := httptest.NewRecorder()
			h.DevReset(w, httptest.NewRequest("GET", "/auth/dev-reset?token=dev-secret", nil))

			var body map[string]string
			handlers.AssertJSONResponse(t, w, tt.wantStatus, &body)
			assert.Equal(t, tt.wantValue, body[tt.wantKey])
		})
	}
}

func TestDevReset_NeverEchoesPassword(t *testing.T) {
	mockAuth := &handlers.MockAuthService{
		DevResetFunc: func(ctx context.Context, token string) (bool, string, error) {
			return true, "admin", nil
		},
	}
	h := newAuthHandler(t, mockAuth, nil)

	w := httptest.NewRecorder()
	h.DevReset(w, httptest.NewRequest("GET", "/auth/dev-reset?token=x", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 1)
}
