// Package models defines data structures and domain types.
package models

import (
	"fmt"
	"time"
)

// DayLayout is the storage and wire format of a Day.
const DayLayout = "2006-01-02"

// Day identifies a calendar day in local time, formatted as YYYY-MM-DD.
// The format sorts lexicographically, which the ledger relies on for
// range deletes.
type Day string

// DayOf returns the local calendar day containing t.
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// ParseDay validates s and returns it as a Day.
func ParseDay(s string) (Day, error) {
	t, err := time.ParseInLocation(DayLayout, s, time.Local)
	if err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// Start returns local midnight of the day.
func (d Day) Start() time.Time {
	t, err := time.ParseInLocation(DayLayout, string(d), time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the day n calendar days away from d.
func (d Day) AddDays(n int) Day {
	return DayOf(d.Start().AddDate(0, 0, n))
}

// Before reports whether d is earlier than other.
func (d Day) Before(other Day) bool {
	return d < other
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool {
	return d == ""
}

// String returns the day in DayLayout.
func (d Day) String() string {
	return string(d)
}

// Label returns a short display label such as "Mon 02 Jan".
func (d Day) Label() string {
	t := d.Start()
	if t.IsZero() {
		return "Unknown"
	}
	return t.Format("Mon 02 Jan")
}

// HourOf returns the hour of day (0-23) of t in its own location.
func HourOf(t time.Time) int {
	return t.Hour()
}

// TimeRange represents the selected history time range.
type TimeRange int

const (
	// TimeRange7Days shows the last 7 days.
	TimeRange7Days TimeRange = iota
	// TimeRange30Days shows the last 30 days.
	TimeRange30Days
	// TimeRange90Days shows the last 90 days.
	TimeRange90Days
)

// String returns the display name for a time range.
func (t TimeRange) String() string {
	switch t {
	case TimeRange7Days:
		return "7 Days"
	case TimeRange30Days:
		return "30 Days"
	case TimeRange90Days:
		return "90 Days"
	default:
		return "Unknown"
	}
}

// Days returns the number of days covered by the range.
func (t TimeRange) Days() int {
	switch t {
	case TimeRange7Days:
		return 7
	case TimeRange30Days:
		return 30
	case TimeRange90Days:
		return 90
	default:
		return 7
	}
}

// Next cycles to the next time range.
func (t TimeRange) Next() TimeRange {
	return (t + 1) % 3
}
