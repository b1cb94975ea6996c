package middleware

import (
	"net/http"
	"time"

	pkghttp "github.com/ChartFly/ChartFlyBackEnd/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds request throttling configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	IPConfig          *pkghttp.IPConfig
}

// keyByClientIP keys the limiter on the same address the login limiter sees,
// honouring forwarded headers only from trusted proxies
func keyByClientIP(config *pkghttp.IPConfig) httprate.KeyFunc {
	return func(r *http.Request) (string, error) {
		return pkghttp.ExtractClientIP(r, config), nil
	}
}

// RateLimitAPI throttles JSON API requests per client IP
func RateLimitAPI(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(keyByClientIP(config.IPConfig)),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Rate limit exceeded")
		}),
	)
}

// RateLimitForms throttles form posts per client IP. It sits in front of the login
// limiter and bounds how fast anyone can hit bcrypt.
func RateLimitForms(config RateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(keyByClientIP(config.IPConfig)),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "Too many requests. Please slow down.", http.StatusTooManyRequests)
		}),
	)
}

// PostOnly applies mw to state-changing requests and lets reads through untouched
func PostOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isStateChangingMethod(r.Method) {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
