package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultBcryptCost = 12
	DefaultMinLength  = 6
	MaxPasswordLen    = 72 // bcrypt ignores bytes past 72
)

// PasswordValidationError lists every rule a submitted password broke, keyed to the form field
type PasswordValidationError struct {
	Field  string
	Errors []string
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return "Password " + strings.Join(e.Errors, ", ") + "."
}

// PasswordPolicy is applied wherever a password is chosen: registration, forced reset,
// token reset, and admin user management.
type PasswordPolicy struct {
	MinLength int
}

func NewPasswordPolicy(minLength int) PasswordPolicy {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}
	return PasswordPolicy{MinLength: minLength}
}

// Validate returns a *PasswordValidationError for field when pw breaks the policy.
// A symbol is any rune that is neither a letter nor a digit.
func (p PasswordPolicy) Validate(field, pw string) error {
	errs := make([]string, 0)

	if utf8.RuneCountInString(pw) < p.MinLength {
		errs = append(errs, fmt.Sprintf("must be at least %d characters", p.MinLength))
	}
	if len(pw) > MaxPasswordLen {
		errs = append(errs, fmt.Sprintf("must be at most %d bytes", MaxPasswordLen))
	}

	var hasLetter, hasDigit, hasSymbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	if !hasLetter {
		errs = append(errs, "must contain at least one letter")
	}
	if !hasDigit {
		errs = append(errs, "must contain at least one number")
	}
	if !hasSymbol {
		errs = append(errs, "must contain at least one symbol")
	}

	if len(errs) > 0 {
		return &PasswordValidationError{Field: field, Errors: errs}
	}
	return nil
}

func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultBcryptCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
