package models

import "time"

const (
	MarketClosedHoliday = "Market Closed (Holiday or Weekend)"
	MarketClosed        = "Market Closed"
	MarketPreMarket     = "Pre-Market Trading"
	MarketOpen          = "Market Open"
	MarketAfterHours    = "After-Market Trading"
)

// MarketStatusAt classifies a UTC instant into a trading session label
func MarketStatusAt(now time.Time, isHoliday bool) string {
	now = now.UTC()
	if isHoliday || now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return MarketClosedHoliday
	}

	minutes := now.Hour()*60 + now.Minute()
	switch {
	case now.Hour() < 4:
		return MarketClosed
	case minutes < 9*60+30:
		return MarketPreMarket
	case now.Hour() < 16:
		return MarketOpen
	case now.Hour() < 20:
		return MarketAfterHours
	default:
		return MarketClosed
	}
}
