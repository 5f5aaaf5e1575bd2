// Package timeutil provides day arithmetic and human-readable duration strings
// shared by the roulette domain and the CLI.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Day is the length of a calendar day used for penalty decay.
const Day = 24 * time.Hour

// Common date/time formats.
const (
	FormatDate     = "2006-01-02"
	FormatTime     = "15:04"
	FormatDateTime = "2006-01-02 15:04"
)

// DaysElapsed returns the number of whole days between from and to.
// Partial days are truncated toward the past, so a negative span of
// a few hours yields -1.
func DaysElapsed(from, to time.Time) int {
	d := to.Sub(from)
	days := int(d / Day)
	if d < 0 && d%Day != 0 {
		days--
	}
	return days
}

// HumanizeDuration renders a positive duration the way roulette state lines
// display it: "less than a minute", "1 minute", "17 minutes",
// "2 hour(s) 5 minute(s)", "1 day", "12 days", "1 year(s) 3 day(s)".
func HumanizeDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	days := int(d / Day)
	seconds := int((d % Day) / time.Second)

	switch {
	case days == 0 && seconds < 60:
		return "less than a minute"
	case days == 0 && seconds < 120:
		return "1 minute"
	case days == 0 && seconds < 3600:
		return fmt.Sprintf("%d minutes", (seconds/60)%60)
	case days == 0:
		return fmt.Sprintf("%d hour(s) %d minute(s)", seconds/3600, (seconds/60)%60)
	case days <= 1:
		return "1 day"
	case days <= 365:
		return fmt.Sprintf("%d days", days)
	default:
		return fmt.Sprintf("%d year(s) %d day(s)", days/365, days%365)
	}
}

// FormatIn formats t in the given location with the FormatDateTime layout.
// A nil location leaves t in its own zone.
func FormatIn(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(FormatDateTime)
}

// ParseIn parses a FormatDateTime or RFC3339 value in the given location.
func ParseIn(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(FormatDateTime, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: parse %q: expected %q or RFC3339", value, FormatDateTime)
	}
	return t, nil
}
