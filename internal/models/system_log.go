package models

import "time"

// Admin actions written to system_logs
const (
	ActionUserCreated      = "user_created"
	ActionUserUpdated      = "user_updated"
	ActionUserDeleted      = "user_deleted"
	ActionAPIKeyCreated    = "api_key_created"
	ActionAPIKeyUpdated    = "api_key_updated"
	ActionAPIKeyDeleted    = "api_key_deleted"
	ActionAPIKeyFailed     = "api_key_failed"
	ActionHolidaysSaved    = "holidays_saved"
	ActionHolidayCreated   = "holiday_created"
	ActionHolidayDeleted   = "holiday_deleted"
	ActionSettingSaved     = "setting_saved"
	ActionSettingDeleted   = "setting_deleted"
	ActionPasswordReset    = "password_reset"
	ActionPasswordReplaced = "forced_password_reset"
	ActionAdminRegistered  = "admin_registered"
	ActionDefaultAdmin     = "default_admin_created"
)

type SystemLog struct {
	ID        int       `json:"id"`
	AdminID   *string   `json:"admin_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// SystemLogFilter narrows a log listing; zero values are ignored
type SystemLogFilter struct {
	AdminID   string
	Action    string
	StartDate *time.Time
	EndDate   *time.Time
}
