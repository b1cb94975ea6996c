package integration

import (
	"fmt"
	"net/url"
	"time"
)

// TestPassword satisfies the default password policy
const TestPassword = "Chart1!fly"

// TestUsername generates a unique username using the current time
func TestUsername(suffix string) string {
	return fmt.Sprintf("u%d%s", time.Now().UnixNano()%1_000_000, suffix)
}

// RegistrationForm is a complete first-user registration submission
func RegistrationForm(username, password string) url.Values {
	return url.Values{
		"first_name":       {"Ada"},
		"last_name":        {"Lovelace"},
		"phone_number":     {"(555) 010-2000"},
		"email":            {username + "@chartfly.test"},
		"username":         {username},
		"password":         {password},
		"confirm_password": {password},
		"access_code":      {"CF-2025"},
	}
}
