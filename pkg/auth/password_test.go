package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordPolicy_Validate(t *testing.T) {
	policy := NewPasswordPolicy(6)

	tests := []struct {
		name          string
		password      string
		shouldFail    bool
		errorContains string
	}{
		{name: "letters only", password: "abcdef", shouldFail: true, errorContains: "at least one number"},
		{name: "too short without symbol", password: "abc12", shouldFail: true, errorContains: "at least 6 characters"},
		{name: "minimum valid", password: "abc12!", shouldFail: false},
		{name: "registration example", password: "Abc123!", shouldFail: false},
		{name: "digits and symbols only", password: "123456!", shouldFail: true, errorContains: "at least one letter"},
		{name: "no symbol", password: "abc12345", shouldFail: true, errorContains: "at least one symbol"},
		{name: "space counts as symbol", password: "abc 123", shouldFail: false},
		{name: "unicode letters", password: "héllo1!", shouldFail: false},
		{name: "empty", password: "", shouldFail: true, errorContains: "at least 6 characters"},
		{name: "too long for bcrypt", password: strings.Repeat("a1!", 30), shouldFail: true, errorContains: "at most 72 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Validate("password", tt.password)
			if !tt.shouldFail {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestPasswordPolicy_FieldIsReported(t *testing.T) {
	err := NewPasswordPolicy(6).Validate("new_password", "abc")

	var pve *PasswordValidationError
	require.True(t, errors.As(err, &pve))
	assert.Equal(t, "new_password", pve.Field)
	assert.Len(t, pve.Errors, 3)
}

func TestNewPasswordPolicy_DefaultsMinLength(t *testing.T) {
	assert.Equal(t, DefaultMinLength, NewPasswordPolicy(0).MinLength)
}

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPasswordWithCost("abc12!", 10)
	require.NoError(t, err)

	assert.NoError(t, ComparePassword(hash, "abc12!"))
	assert.Error(t, ComparePassword(hash, "abc12?"))
}

func TestHashPassword_RejectsEmpty(t *testing.T) {
	_, err := HashPasswordWithCost("", 10)
	assert.Error(t, err)
}

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken()
	require.NoError(t, err)
	b, err := GenerateOpaqueToken()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43) // 32 bytes, unpadded base64url
	assert.NotContains(t, a, "+")
	assert.NotContains(t, a, "/")
}

func TestHashToken(t *testing.T) {
	h := HashToken("token")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashToken("token"))
	assert.NotEqual(t, h, HashToken("token2"))
}
