package models

import "time"

// APIKey is a third-party market data provider key managed from the console
type APIKey struct {
	ID               int        `json:"id"`
	KeyLabel         string     `json:"key_label"`
	APISecret        string     `json:"-"`
	KeyType          string     `json:"key_type"`
	BillingInterval  string     `json:"billing_interval"`
	CostPerMonth     float64    `json:"cost_per_month"`
	CostPerYear      float64    `json:"cost_per_year"`
	UsageLimitSec    int        `json:"usage_limit_sec"`
	UsageLimitMin    int        `json:"usage_limit_min"`
	UsageLimit5Min   int        `json:"usage_limit_5min"`
	UsageLimit10Min  int        `json:"usage_limit_10min"`
	UsageLimit15Min  int        `json:"usage_limit_15min"`
	UsageLimitHour   int        `json:"usage_limit_hour"`
	UsageLimitDay    int        `json:"usage_limit_day"`
	PriorityOrder    int        `json:"priority_order"`
	Provider         string     `json:"provider"`
	IsActive         bool       `json:"is_active"`
	APIKeyIdentifier string     `json:"api_key_identifier"`
	LastUsed         *time.Time `json:"last_used,omitempty"`
	ErrorCode        *string    `json:"error_code,omitempty"`
}

// APIKeyIdentifier returns the last four characters of a secret, or "xxxx" for short secrets
func APIKeyIdentifier(secret string) string {
	r := []rune(secret)
	if len(r) < 4 {
		return "xxxx"
	}
	return string(r[len(r)-4:])
}
