package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/ChartFly/ChartFlyBackEnd/internal/models"
	pkgauth "github.com/ChartFly/ChartFlyBackEnd/pkg/auth"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
)

const genericFailureMessage = "Something went wrong. Please try again later."

// writeServiceError maps a service error onto the JSON error envelope. Anything
// unexpected is logged and answered with a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, notFoundMessage string) {
	var fieldErr *models.FieldError
	var policyErr *pkgauth.PasswordValidationError

	switch {
	case errors.As(err, &fieldErr):
		pkghttp.WriteFieldErrors(w, map[string]string{fieldErr.Field: fieldErr.Message})
	case errors.As(err, &policyErr):
		pkghttp.WriteFieldErrors(w, map[string]string{policyErr.Field: policyErr.Error()})
	case errors.Is(err, models.ErrPasswordMismatch):
		pkghttp.WriteFieldErrors(w, map[string]string{"confirmPassword": "Passwords do not match."})
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, notFoundMessage)
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "A record with the same unique value already exists")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, err.Error())
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	default:
		logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		pkghttp.WriteInternalError(w, genericFailureMessage)
	}
}

// actorID is the admin performing the request, for the system log
func actorID(r *http.Request) string {
	if claims := sessionClaims(r); claims != nil {
		return claims.UserID()
	}
	return ""
}
