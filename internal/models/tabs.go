package models

// Tab names gate access to admin resources
const (
	TabMarketHolidays = "Market Holidays"
	TabAPIKeys        = "API Keys"
	TabUserManagement = "User Management"
)

// AllTabs lists every tab in display order
var AllTabs = []string{TabMarketHolidays, TabAPIKeys, TabUserManagement}

func IsValidTab(tab string) bool {
	for _, t := range AllTabs {
		if t == tab {
			return true
		}
	}
	return false
}

// HasTab reports whether the role and granted tabs allow access to tab.
// SuperAdmin implicitly holds every tab.
func HasTab(role string, access []string, tab string) bool {
	if role == RoleSuperAdmin {
		return true
	}
	for _, t := range access {
		if t == tab {
			return true
		}
	}
	return false
}
