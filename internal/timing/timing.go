// Package timing provides the trading-session time gate. The relay serves
// until the configured market end time-of-day; the policy (which time) lives
// in configuration, only the mechanism lives here.
package timing

import (
	"fmt"
	"time"
)

const timeOfDayLayout = "15:04:05"

// ParseTimeOfDay parses "HH:MM:SS" into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse(timeOfDayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse time-of-day %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// SessionEnd returns today's occurrence of the given time-of-day, in now's
// location. If the moment has already passed, the returned instant lies in
// the past and a deadline context derived from it expires immediately.
func SessionEnd(now time.Time, timeOfDay time.Duration) time.Time {
	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	return midnight.Add(timeOfDay)
}
