package middleware

import (
	"log/slog"
	"net/http"

	"github.com/ChartFly/ChartFlyBackEnd/internal/auth"
	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
)

const (
	CSRFHeaderName = "X-CSRF-Token"
	CSRFFormField  = "csrf_token"
)

// CSRFProtection enforces the double-submit pattern on state-changing requests:
// the csrf_token cookie must equal the X-CSRF-Token header or the csrf_token form field.
func CSRFProtection(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isStateChangingMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			cookie, _ := auth.GetCSRFTokenCookie(r)
			submitted := r.Header.Get(CSRFHeaderName)
			if submitted == "" && !pkghttp.IsAPIRequest(r) {
				submitted = r.PostFormValue(CSRFFormField)
			}

			if !auth.ValidCSRFToken(cookie, submitted) {
				logger.Warn("CSRF validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("cookie_present", cookie != ""),
					slog.Bool("token_present", submitted != ""))

				if pkghttp.IsAPIRequest(r) {
					pkghttp.WriteForbidden(w, "CSRF token missing or invalid")
					return
				}
				http.Error(w, "Your form expired. Please reload the page and try again.", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isStateChangingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
