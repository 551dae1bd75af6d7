package utils

import (
	"time"

	"github.com/scmhub/calendar"
)

// MarketHours answers "is the reference market open right now" for the
// console badge. Backed by scmhub/calendar (ISO 10383 MIC codes); when the
// MIC is unknown it degrades to a Mon-Fri heuristic, which matches the
// forex week closely enough for a status line.
type MarketHours struct {
	Calendar *calendar.Calendar
	Fallback bool
	Timezone *time.Location
}

// -----------------------------------------------------------------------------

func NewMarketHours(mic string) *MarketHours {
	if mic == "" {
		mic = "xnys"
	}

	cal := calendar.GetCalendar(mic)
	if cal == nil {
		cal = calendar.GetCalendar("xnys")
	}

	if cal == nil {
		nyLoc, _ := time.LoadLocation("America/New_York")
		if nyLoc == nil {
			nyLoc = time.UTC
		}
		return &MarketHours{Fallback: true, Timezone: nyLoc}
	}

	return &MarketHours{Calendar: cal, Fallback: false, Timezone: cal.Loc}
}

// -----------------------------------------------------------------------------

func (mh *MarketHours) IsTradingDay(date time.Time) bool {
	if mh.Timezone != nil {
		date = date.In(mh.Timezone)
	}

	if mh.Fallback {
		weekday := date.Weekday()
		return weekday != time.Saturday && weekday != time.Sunday
	}
	return mh.Calendar.IsBusinessDay(date)
}

// -----------------------------------------------------------------------------

// IsOpen checks whether the market is open at a specific minute.
func (mh *MarketHours) IsOpen(t time.Time) bool {
	if mh.Timezone != nil {
		t = t.In(mh.Timezone)
	}

	if mh.Fallback {
		if !mh.IsTradingDay(t) {
			return false
		}

		hour := t.Hour()
		minute := t.Minute()

		// 9:30 - 16:00 local exchange time
		if (hour > 9 || (hour == 9 && minute >= 30)) && hour < 16 {
			return true
		}
		return false
	}

	return mh.Calendar.IsOpen(t)
}
