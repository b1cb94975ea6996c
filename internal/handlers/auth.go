package handlers

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ChartFly/ChartFlyBackEnd/internal/auth"
	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	"github.com/ChartFly/ChartFlyBackEnd/internal/services"
	"github.com/ChartFly/ChartFlyBackEnd/internal/views"
	pkgauth "github.com/ChartFly/ChartFlyBackEnd/pkg/auth"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, in services.LoginInput) (*services.LoginResult, error)
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
	CompleteForcedReset(ctx context.Context, claims *models.SessionClaims, newPassword, confirmPassword string) (*services.LoginResult, error)
	Logout(ctx context.Context, claims *models.SessionClaims) error
	DevReset(ctx context.Context, token string) (bool, string, error)
}

// PasswordResetServiceInterface defines the reset-link flow
type PasswordResetServiceInterface interface {
	RequestReset(ctx context.Context, in services.ForgotPasswordInput) error
	ValidateToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error
}

// User-facing messages
const (
	msgInvalidCredentials  = "Invalid username or password"
	msgPasswordsMismatch   = "Passwords do not match."
	msgAlreadyRegistered   = "You are already registered. Click below to log in."
	msgRegistrationClosed  = "No such user or password. Access denied."
	msgNoMatchingAccount   = "No matching user found with that email and phone number."
	msgDeliveryFailed      = "Failed to send email. Please try again later. If no email arrives, request a new reset link."
	msgTokenInvalid        = "This reset link is invalid or has expired. Please request a new one."
	msgCheckHighlighted    = "Please correct the highlighted fields."
	msgAdminAlreadyExists  = "Admin user already exists."
	msgDefaultAdminCreated = "Default admin created. Username: %s"
)

// notices shown on the login page after a redirect, keyed by the notice query value
var notices = map[string]string{
	"registered":     "Registration complete. Please log in.",
	"logged_out":     "You have been logged out.",
	"reset_sent":     "If the details matched, a reset link is on its way. It expires in 15 minutes.",
	"password_reset": "Your password has been reset. Please log in.",
}

// LoginForm is the submitted login form
type LoginForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
	TOTPCode string `form:"totp_code" validate:"omitempty,numeric,len=6"`
}

// RegisterForm is the submitted first-user registration form
type RegisterForm struct {
	FirstName       string `form:"first_name" validate:"required,max=100"`
	LastName        string `form:"last_name" validate:"required,max=100"`
	PhoneNumber     string `form:"phone_number" validate:"required,max=32"`
	Email           string `form:"email" validate:"required,email"`
	Username        string `form:"username" validate:"required,max=64"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" validate:"required"`
	AccessCode      string `form:"access_code" validate:"required"`
	Enable2FA       bool   `form:"enable_2fa"`
}

// PasswordForm is the forced-reset and token-reset form
type PasswordForm struct {
	NewPassword     string `form:"new_password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" validate:"required"`
}

// AuthHandler serves the form-post authentication pages under /auth
type AuthHandler struct {
	service  AuthServiceInterface
	resets   PasswordResetServiceInterface
	renderer *views.Renderer
	cookies  auth.CookieConfig
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, resets PasswordResetServiceInterface, renderer *views.Renderer, cookies auth.CookieConfig, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:  service,
		resets:   resets,
		renderer: renderer,
		cookies:  cookies,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// LoginPage renders the login form
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if claims := sessionClaims(r); claims != nil && claims.IsFull() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, views.PageLogin, views.PageData{
		Title: "Log in",
		Info:  notices[r.URL.Query().Get("notice")],
	})
}

// Login checks credentials and issues a session cookie
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	form := LoginForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		TOTPCode: strings.TrimSpace(r.PostFormValue("totp_code")),
	}
	data := views.PageData{
		Title: "Log in",
		Form:  map[string]string{"username": form.Username},
	}

	if fields := ValidateFields(form); fields != nil {
		data.Error = msgCheckHighlighted
		data.FieldErrors = fields
		h.render(w, r, http.StatusBadRequest, views.PageLogin, data)
		return
	}

	result, err := h.service.Login(r.Context(), services.LoginInput{
		Username:      form.Username,
		Password:      form.Password,
		TOTPCode:      form.TOTPCode,
		SourceAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
	})
	if err != nil {
		var limited *models.RateLimitedError
		switch {
		case errors.As(err, &limited):
			w.Header().Set("Retry-After", strconv.Itoa(int(limited.RetryAfter.Seconds())))
			data.Error = fmt.Sprintf("Too many login attempts. Try again in %d min.", limited.WaitMinutes())
			h.render(w, r, http.StatusTooManyRequests, views.PageLogin, data)
		case errors.Is(err, models.ErrInvalidCredentials):
			data.Error = msgInvalidCredentials
			h.render(w, r, http.StatusUnauthorized, views.PageLogin, data)
		default:
			h.fail(w, r, views.PageLogin, data, err)
		}
		return
	}

	auth.SetSessionCookie(w, result.Token, result.Claims.ExpiresAt.Time, h.cookies)
	if result.MustReset() {
		http.Redirect(w, r, auth.ForceResetPath, http.StatusFound)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// RegisterPage renders the registration form
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageRegister, views.PageData{Title: "Register"})
}

// Register creates the first admin account. Once any account exists it only tells
// existing users to log in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	form := RegisterForm{
		FirstName:       strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:        strings.TrimSpace(r.PostFormValue("last_name")),
		PhoneNumber:     strings.TrimSpace(r.PostFormValue("phone_number")),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Username:        strings.TrimSpace(r.PostFormValue("username")),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
		AccessCode:      strings.TrimSpace(r.PostFormValue("access_code")),
		Enable2FA:       r.PostFormValue("enable_2fa") != "",
	}
	data := views.PageData{
		Title: "Register",
		Form: map[string]string{
			"first_name":   form.FirstName,
			"last_name":    form.LastName,
			"phone_number": form.PhoneNumber,
			"email":        form.Email,
			"username":     form.Username,
			"access_code":  form.AccessCode,
		},
	}
	if form.Enable2FA {
		data.Form["enable_2fa"] = "on"
	}

	if fields := ValidateFields(form); fields != nil {
		data.Error = msgCheckHighlighted
		data.FieldErrors = fields
		h.render(w, r, http.StatusBadRequest, views.PageRegister, data)
		return
	}

	result, err := h.service.Register(r.Context(), services.RegisterInput{
		FirstName:       form.FirstName,
		LastName:        form.LastName,
		PhoneNumber:     form.PhoneNumber,
		Email:           form.Email,
		Username:        form.Username,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
		AccessCode:      form.AccessCode,
		Enable2FA:       form.Enable2FA,
	})
	if err != nil {
		var policyErr *pkgauth.PasswordValidationError
		switch {
		case errors.Is(err, models.ErrPasswordMismatch):
			data.Error = msgPasswordsMismatch
			data.FieldErrors = map[string]string{"confirm_password": msgPasswordsMismatch}
			h.render(w, r, http.StatusBadRequest, views.PageRegister, data)
		case errors.As(err, &policyErr):
			data.Error = policyErr.Error()
			data.FieldErrors = map[string]string{policyErr.Field: policyErr.Error()}
			h.render(w, r, http.StatusBadRequest, views.PageRegister, data)
		case errors.Is(err, models.ErrAlreadyRegistered):
			data.Info = msgAlreadyRegistered
			h.render(w, r, http.StatusConflict, views.PageRegister, data)
		case errors.Is(err, models.ErrRegistrationClosed):
			data.Error = msgRegistrationClosed
			h.render(w, r, http.StatusForbidden, views.PageRegister, data)
		case errors.Is(err, models.ErrConflict):
			data.Error = "That username or email is already taken."
			h.render(w, r, http.StatusBadRequest, views.PageRegister, data)
		default:
			h.fail(w, r, views.PageRegister, data, err)
		}
		return
	}

	if result.TOTP != nil {
		h.render(w, r, http.StatusCreated, views.PageRegisterTOTP, views.PageData{
			Title:         "Set up two-factor authentication",
			QRCodeDataURI: template.URL(result.TOTP.QRCodeDataURI),
			TOTPSecret:    result.TOTP.Secret,
		})
		return
	}
	redirectWithNotice(w, r, auth.LoginPath, "registered")
}

// LogoutPage asks for confirmation. Logging out is a POST so it stays behind the
// CSRF check.
func (h *AuthHandler) LogoutPage(w http.ResponseWriter, r *http.Request) {
	if sessionClaims(r) == nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, views.PageLogout, views.PageData{Title: "Log out"})
}

// Logout revokes the current session and clears the cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), sessionClaims(r)); err != nil {
		h.logger.Error("logout failed", slog.Any("error", err))
	}
	auth.ClearSessionCookie(w, h.cookies)
	redirectWithNotice(w, r, auth.LoginPath, "logged_out")
}

// ForceResetPage renders the required password change form
func (h *AuthHandler) ForceResetPage(w http.ResponseWriter, r *http.Request) {
	if claims := sessionClaims(r); claims != nil && claims.IsFull() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, views.PageForceReset, views.PageData{Title: "Choose a new password"})
}

// ForceReset replaces the password of a reset_required session and upgrades it to a
// full session. The old password is not asked for.
func (h *AuthHandler) ForceReset(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)
	if claims == nil {
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
		return
	}
	if claims.IsFull() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	form := PasswordForm{
		NewPassword:     r.PostFormValue("new_password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	data := views.PageData{Title: "Choose a new password"}

	if fields := ValidateFields(form); fields != nil {
		data.Error = msgCheckHighlighted
		data.FieldErrors = fields
		h.render(w, r, http.StatusBadRequest, views.PageForceReset, data)
		return
	}

	result, err := h.service.CompleteForcedReset(r.Context(), claims, form.NewPassword, form.ConfirmPassword)
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			// The account no longer owes a reset; this partial session is stale
			auth.ClearSessionCookie(w, h.cookies)
			http.Redirect(w, r, auth.LoginPath, http.StatusFound)
			return
		}
		if h.passwordFormError(&data, err) {
			h.render(w, r, http.StatusBadRequest, views.PageForceReset, data)
			return
		}
		h.fail(w, r, views.PageForceReset, data, err)
		return
	}

	auth.SetSessionCookie(w, result.Token, result.Claims.ExpiresAt.Time, h.cookies)
	http.Redirect(w, r, "/", http.StatusFound)
}

// ForgotPasswordPage renders the reset request form
func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageForgotPassword, views.PageData{
		Title: "Forgot password",
		Form:  map[string]string{"method": services.ResetMethodEmail},
	})
}

// ForgotPassword emails a single-use reset link to the account matching email and phone
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	in := services.ForgotPasswordInput{
		Email:  strings.TrimSpace(r.PostFormValue("email")),
		Phone:  strings.TrimSpace(r.PostFormValue("phone_number")),
		Method: strings.TrimSpace(r.PostFormValue("method")),
	}
	if in.Method == "" {
		in.Method = services.ResetMethodEmail
	}
	data := views.PageData{
		Title: "Forgot password",
		Form: map[string]string{
			"email":        in.Email,
			"phone_number": in.Phone,
			"method":       in.Method,
		},
	}

	err := h.resets.RequestReset(r.Context(), in)
	if err != nil {
		var fieldErr *models.FieldError
		switch {
		case errors.As(err, &fieldErr):
			data.Error = msgCheckHighlighted
			data.FieldErrors = map[string]string{fieldErr.Field: fieldErr.Message}
			h.render(w, r, http.StatusBadRequest, views.PageForgotPassword, data)
		case errors.Is(err, models.ErrNoMatchingAccount):
			data.Error = msgNoMatchingAccount
			h.render(w, r, http.StatusNotFound, views.PageForgotPassword, data)
		case errors.Is(err, models.ErrDeliveryFailure):
			h.logger.Error("reset email delivery failed", slog.Any("error", err))
			data.Error = msgDeliveryFailed
			h.render(w, r, http.StatusBadGateway, views.PageForgotPassword, data)
		default:
			h.fail(w, r, views.PageForgotPassword, data, err)
		}
		return
	}

	redirectWithNotice(w, r, auth.LoginPath, "reset_sent")
}

// ResetPasswordPage renders the new-password form for a valid reset link
func (h *AuthHandler) ResetPasswordPage(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	data := views.PageData{Title: "Reset password"}

	if err := h.resets.ValidateToken(r.Context(), token); err != nil {
		if errors.Is(err, models.ErrTokenInvalidOrExpired) {
			data.Error = msgTokenInvalid
			h.render(w, r, http.StatusBadRequest, views.PageResetPassword, data)
			return
		}
		h.fail(w, r, views.PageResetPassword, data, err)
		return
	}

	data.ResetToken = token
	h.render(w, r, http.StatusOK, views.PageResetPassword, data)
}

// ResetPassword redeems a reset link. The token is consumed in the same statement
// that stores the new hash so it can never be used twice.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	token := r.PostFormValue("token")
	form := PasswordForm{
		NewPassword:     r.PostFormValue("new_password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	data := views.PageData{Title: "Reset password", ResetToken: token}

	if fields := ValidateFields(form); fields != nil {
		data.Error = msgCheckHighlighted
		data.FieldErrors = fields
		h.render(w, r, http.StatusBadRequest, views.PageResetPassword, data)
		return
	}

	err := h.resets.ResetPassword(r.Context(), token, form.NewPassword, form.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrTokenInvalidOrExpired):
			data.ResetToken = ""
			data.Error = msgTokenInvalid
			h.render(w, r, http.StatusBadRequest, views.PageResetPassword, data)
		case h.passwordFormError(&data, err):
			h.render(w, r, http.StatusBadRequest, views.PageResetPassword, data)
		default:
			h.fail(w, r, views.PageResetPassword, data, err)
		}
		return
	}

	redirectWithNotice(w, r, auth.LoginPath, "password_reset")
}

// DevReset creates the configured default admin. It answers in JSON for scripts.
func (h *AuthHandler) DevReset(w http.ResponseWriter, r *http.Request) {
	created, username, err := h.service.DevReset(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if errors.Is(err, models.ErrForbidden) {
			pkghttp.WriteJSON(w, http.StatusForbidden, map[string]string{"error": "Unauthorized"})
			return
		}
		h.logger.Error("dev reset failed", slog.Any("error", err))
		pkghttp.WriteInternalError(w, genericFailureMessage)
		return
	}

	if !created {
		pkghttp.WriteMessage(w, http.StatusOK, msgAdminAlreadyExists)
		return
	}
	pkghttp.WriteMessage(w, http.StatusCreated, fmt.Sprintf(msgDefaultAdminCreated, username))
}

// passwordFormError fills data for policy and confirmation failures. It reports
// whether err was one of them.
func (h *AuthHandler) passwordFormError(data *views.PageData, err error) bool {
	var policyErr *pkgauth.PasswordValidationError
	switch {
	case errors.As(err, &policyErr):
		data.Error = policyErr.Error()
		data.FieldErrors = map[string]string{"new_password": policyErr.Error()}
		return true
	case errors.Is(err, models.ErrPasswordMismatch):
		data.Error = msgPasswordsMismatch
		data.FieldErrors = map[string]string{"confirm_password": msgPasswordsMismatch}
		return true
	}
	return false
}

// fail logs an unexpected error and re-renders the page with the generic message
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, page string, data views.PageData, err error) {
	h.logger.Error("auth form request failed",
		slog.String("page", page),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	data.Error = genericFailureMessage
	data.FieldErrors = nil
	h.render(w, r, http.StatusInternalServerError, page, data)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data views.PageData) {
	data.CSRFToken = ensureCSRFToken(w, r, h.cookies, h.logger)
	h.renderer.Render(w, status, page, data)
}

// ensureCSRFToken returns the request's double-submit token, issuing a cookie when
// the browser does not have one yet
func ensureCSRFToken(w http.ResponseWriter, r *http.Request, cookies auth.CookieConfig, logger *slog.Logger) string {
	if token, err := auth.GetCSRFTokenCookie(r); err == nil && token != "" {
		return token
	}
	token, err := auth.GenerateCSRFToken()
	if err != nil {
		logger.Error("failed to generate csrf token", slog.Any("error", err))
		return ""
	}
	auth.SetCSRFTokenCookie(w, token, cookies)
	return token
}

func redirectWithNotice(w http.ResponseWriter, r *http.Request, path, notice string) {
	http.Redirect(w, r, path+"?notice="+url.QueryEscape(notice), http.StatusFound)
}

func sessionClaims(r *http.Request) *models.SessionClaims {
	return auth.GetSessionFromContext(r.Context())
}
