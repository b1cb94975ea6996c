package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
)

type contextKey string

const SessionContextKey contextKey = "session"

const (
	LoginPath       = "/auth/login"
	ForceResetPath  = "/auth/force-reset-password"
	ErrCodeResetReq = "password_reset_required"
)

// UserLookup loads the current state of the session's user
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.AdminUser, error)
}

// TabAccessChecker decides whether a user may use a console tab
type TabAccessChecker interface {
	UserHasAccess(ctx context.Context, userID, tab string) (bool, error)
}

// SessionMiddleware resolves the session cookie into claims and gates routes on them
type SessionMiddleware struct {
	sessions    *SessionManager
	revocations RevocationStore
	cookies     CookieConfig
	logger      *slog.Logger
}

func NewSessionMiddleware(sessions *SessionManager, revocations RevocationStore, cookies CookieConfig, logger *slog.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		sessions:    sessions,
		revocations: revocations,
		cookies:     cookies,
		logger:      logger,
	}
}

// LoadSession attaches valid, unrevoked session claims to the request context.
// Requests without a usable session continue as anonymous.
func (m *SessionMiddleware) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := m.resolve(r); claims != nil {
			r = r.WithContext(WithSession(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *SessionMiddleware) resolve(r *http.Request) *models.SessionClaims {
	token, err := GetSessionCookie(r, m.cookies)
	if err != nil || token == "" {
		return nil
	}

	claims, err := m.sessions.Parse(token)
	if err != nil {
		return nil
	}

	if m.revocations != nil {
		revoked, err := m.revocations.IsRevoked(r.Context(), claims.ID)
		if err != nil {
			// fail closed
			m.logger.Error("session revocation check failed",
				slog.Any("error", err),
				slog.String("user_id", claims.UserID()),
			)
			return nil
		}
		if revoked {
			return nil
		}
	}
	return claims
}

// RequireSession rejects anonymous requests. Pages are sent to the login form and
// API calls get 401.
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSessionFromContext(r.Context()) == nil {
			m.denyAnonymous(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireFullSession additionally rejects sessions still waiting on a forced password reset
func (m *SessionMiddleware) RequireFullSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetSessionFromContext(r.Context())
		if claims == nil {
			m.denyAnonymous(w, r)
			return
		}
		if !claims.IsFull() {
			if pkghttp.IsAPIRequest(r) {
				pkghttp.WriteError(w, http.StatusForbidden, ErrCodeResetReq, "Password reset required")
				return
			}
			http.Redirect(w, r, ForceResetPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *SessionMiddleware) denyAnonymous(w http.ResponseWriter, r *http.Request) {
	if pkghttp.IsAPIRequest(r) {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

// RequireRole checks the user's current role in the database, not the one in the token
func RequireRole(users UserLookup, role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetSessionFromContext(r.Context())
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID())
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					pkghttp.WriteUnauthorized(w, "User not found")
					return
				}
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}

			if user.Role != role {
				pkghttp.WriteForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTab gates a console resource on the user's tab permissions
func RequireTab(checker TabAccessChecker, tab string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetSessionFromContext(r.Context())
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			ok, err := checker.UserHasAccess(r.Context(), claims.UserID(), tab)
			if err != nil {
				pkghttp.WriteInternalError(w, "Internal server error")
				return
			}
			if !ok {
				pkghttp.WriteForbidden(w, "You do not have access to "+tab)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithSession(ctx context.Context, claims *models.SessionClaims) context.Context {
	return context.WithValue(ctx, SessionContextKey, claims)
}

// GetSessionFromContext returns the request's session claims, or nil when anonymous
func GetSessionFromContext(ctx context.Context) *models.SessionClaims {
	claims, ok := ctx.Value(SessionContextKey).(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
