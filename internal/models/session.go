package models

import "github.com/golang-jwt/jwt/v5"

// Session stages
const (
	StageAuthenticated = "authenticated"
	StageResetRequired = "reset_required"
)

// SessionClaims are carried in the signed session cookie. The subject is the admin user id
// and the JWT ID identifies the session for revocation.
type SessionClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	Stage    string `json:"stage"`
	jwt.RegisteredClaims
}

func (c *SessionClaims) UserID() string {
	return c.Subject
}

func (c *SessionClaims) IsFull() bool {
	return c.Stage == StageAuthenticated
}
