package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// GenerateCSRFToken returns a random token for the double-submit cookie.
// Nothing is kept server side; the check is that the cookie and the submitted
// value agree, which a cross-site form cannot arrange.
func GenerateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidCSRFToken compares the cookie value with the submitted one in constant time
func ValidCSRFToken(cookieValue, submitted string) bool {
	if cookieValue == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieValue), []byte(submitted)) == 1
}
