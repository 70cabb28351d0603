package utils

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if tz database is not available
		IST = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// NowIST returns the current time in IST.
func NowIST() time.Time {
	return time.Now().In(IST)
}

// ParseDateIST parses a date string in "2006-01-02" format and returns it in IST.
func ParseDateIST(dateStr string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", dateStr, IST)
}

// FormatDateTimeIST formats a time.Time to "2006-01-02 15:04:05 IST".
func FormatDateTimeIST(t time.Time) string {
	return t.In(IST).Format("2006-01-02 15:04:05 IST")
}

// FiscalYearLabel returns the Indian fiscal year label for a period end
// date, e.g. 2025-03-31 → "FY25". Unparseable input is returned unchanged.
func FiscalYearLabel(period string) string {
	t, err := ParseDateIST(period)
	if err != nil {
		return period
	}
	fy := t.Year()
	if t.Month() > time.March {
		fy++
	}
	return fmt.Sprintf("FY%02d", fy%100)
}
