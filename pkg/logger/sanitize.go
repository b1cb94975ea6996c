package logger

import (
	"net/url"
	"strings"
)

// SanitizedEmail masks an email address for logging (e.g., "u***@*******.com")
func SanitizedEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "[invalid-email]"
	}

	username := parts[0]
	domain := parts[1]

	if len(username) > 1 {
		username = string(username[0]) + strings.Repeat("*", len(username)-1)
	}

	// keep the TLD only
	domainParts := strings.Split(domain, ".")
	if len(domainParts) > 1 {
		for i := 0; i < len(domainParts)-1; i++ {
			domainParts[i] = strings.Repeat("*", len(domainParts[i]))
		}
		domain = strings.Join(domainParts, ".")
	}

	return username + "@" + domain
}

var sensitiveParams = map[string]bool{
	"password":         true,
	"new_password":     true,
	"confirm_password": true,
	"token":            true,
	"secret":           true,
	"api_secret":       true,
	"email":            true,
	"phone":            true,
	"csrf_token":       true,
	"access_code":      true,
}

// SanitizeQueryString replaces the values of sensitive query parameters with "REDACTED".
// Unparseable query strings are dropped entirely.
func SanitizeQueryString(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "[REDACTED]"
	}
	for key := range values {
		if sensitiveParams[strings.ToLower(key)] {
			values.Set(key, "REDACTED")
		}
	}
	return values.Encode()
}
