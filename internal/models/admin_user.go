package models

import (
	"strings"
	"time"
)

// Roles
const (
	RoleSuperAdmin = "SuperAdmin"
	RoleAdmin      = "Admin"
)

type AdminUser struct {
	ID                string
	FirstName         string
	LastName          string
	Email             string
	PhoneNumber       string
	Address           string
	Username          string
	PasswordHash      string
	AccessCode        string
	Role              string
	MustReset         bool
	ResetToken        *string // SHA-256 hex of the issued token, never the token itself
	ResetTokenExpires *time.Time
	Is2FAEnabled      bool
	TOTPSecret        *string // AES-GCM encrypted
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Access            []string // tab permissions, loaded separately
}

func (u *AdminUser) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *AdminUser) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// AdminUserResponse is the JSON shape returned by the users API
type AdminUserResponse struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Address   string   `json:"address"`
	Username  string   `json:"username"`
	Role      string   `json:"role"`
	Access    []string `json:"access"`
}

func (u *AdminUser) ToResponse() AdminUserResponse {
	access := u.Access
	if access == nil {
		access = []string{}
	}
	return AdminUserResponse{
		ID:        u.ID,
		Name:      u.FullName(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.PhoneNumber,
		Address:   u.Address,
		Username:  u.Username,
		Role:      u.Role,
		Access:    access,
	}
}

// NormalizePhone strips everything but digits so stored and submitted numbers compare equal
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
